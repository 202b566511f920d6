package elementmap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost/geohosttest"
	"github.com/kerneltopo/topomap/indexedname"
)

func TestBuildDepGraphDiscoversChain(t *testing.T) {
	host := geohosttest.NewHost()
	var c diag.Collector

	c3 := New(host)
	c2 := New(host)
	c2.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  c3,
		IndexedName: indexedname.New("Face", 0),
		Count:       childMapThreshold,
		Tag:         1,
	}})
	// c1 borrows the span of c2 just past c2's own child group, so
	// grandchild flattening leaves c1's group pointing at c2 rather than
	// re-pointing it at c3.
	c1 := New(host)
	c1.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  c2,
		IndexedName: indexedname.New("Face", childMapThreshold),
		Count:       childMapThreshold,
		Tag:         2,
	}})
	require.False(t, c.HasFatal())

	g := buildDepGraph(c1)

	nodes := slices.Collect(g.AllNodes())
	assert.ElementsMatch(t, []*ElementMap{c1, c2, c3}, nodes)

	edges, ok := g.EdgesFrom(c1)
	require.True(t, ok)
	require.Len(t, edges, 1)
	from, to := g.Nodes(edges[0])
	assert.Same(t, c1, from)
	assert.Same(t, c2, to)

	edges, ok = g.EdgesFrom(c3)
	require.True(t, ok)
	assert.Empty(t, edges, "a leaf map has no outgoing references")

	// c1 was visited first, so it sorts before both its descendants.
	assert.Negative(t, g.CmpNode(c1, c2))
	assert.Negative(t, g.CmpNode(c2, c3))
}

func TestBuildDepGraphIgnoresUnknownNode(t *testing.T) {
	host := geohosttest.NewHost()
	g := buildDepGraph(New(host))

	_, ok := g.EdgesFrom(New(host))
	assert.False(t, ok, "a map never reached by traversal is not part of the graph")
}

func TestSortedTypesIsAlphabetical(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	_ = m.bucket("Vertex")
	_ = m.bucket("Edge")
	_ = m.bucket("Face")

	assert.Equal(t, []string{"Edge", "Face", "Vertex"}, m.sortedTypes())
}
