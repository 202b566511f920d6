package elementmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost/geohosttest"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
)

func TestAddChildElementsBelowThresholdExpandsPerElement(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	child := New(host) // a non-nil child map keeps the threshold check from forcing synthesis
	var c diag.Collector

	m.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  child,
		IndexedName: indexedname.New("Face", 0),
		Offset:      10,
		Count:       2,
		Tag:         1,
	}})

	assert.False(t, c.HasFatal())
	assert.False(t, m.HasChildElementMap(), "small groups backed by a child map expand per-element")
	for i := 0; i < 2; i++ {
		parentIdx := indexedname.New("Face", 10+i)
		name, ok := host.LastSetName(parentIdx)
		require.True(t, ok)
		assert.Equal(t, parentIdx.String(), name)
	}
}

func TestAddChildElementsAtThresholdSynthesizesParentPostfix(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	var c diag.Collector

	m.AddChildElements(&c, []ChildElementGroup{{
		IndexedName: indexedname.New("Face", 0),
		Offset:      0,
		Count:       childMapThreshold,
		Tag:         2,
	}})

	assert.False(t, c.HasFatal())
	assert.True(t, m.HasChildElementMap())

	groups := m.ChildGroups("Face")
	require.Len(t, groups, 1)
	assert.Equal(t, childMapThreshold, groups[0].Count)
}

func TestAddChildElementsWithoutChildMapAlwaysSynthesizes(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	var c diag.Collector

	m.AddChildElements(&c, []ChildElementGroup{{
		IndexedName: indexedname.New("Edge", 0),
		Count:       1,
		Tag:         3,
	}})

	assert.True(t, m.HasChildElementMap(), "a group with no child map synthesizes regardless of count")

	groups := m.ChildGroups("Edge")
	require.Len(t, groups, 1)

	want := mappedname.FromIndexedName(indexedname.New("Edge", 0)).PlusPostfix(groups[0].Postfix)
	got := m.FindByIndex(indexedname.New("Edge", 0), nil)
	require.False(t, got.Empty(), "reverse lookup through a childless group must synthesize a name, not an empty one")
	assert.True(t, got.Equal(want))

	assert.True(t, m.FindByIndex(indexedname.New("Edge", 1), nil).Empty(),
		"an index past the childless group's range has no mapping")
}

func TestAddChildElementsDisambiguatesCollidingPostfix(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	var c diag.Collector

	// Same base element and postfix but different tags and counts: the
	// fake host's encoding ignores tag, so both groups synthesize the
	// same key ("Edge10") and must be disambiguated to coexist.
	grpA := ChildElementGroup{IndexedName: indexedname.New("Edge", 0), Offset: 10, Count: 3, Tag: 9}
	grpB := ChildElementGroup{IndexedName: indexedname.New("Edge", 0), Offset: 10, Count: 2, Tag: 99}

	m.AddChildElements(&c, []ChildElementGroup{grpA})
	m.AddChildElements(&c, []ChildElementGroup{grpB})

	assert.False(t, c.HasFatal())
	groups := m.ChildGroups("Edge")
	require.Len(t, groups, 2)
	assert.NotEqual(t, groups[0].Postfix, groups[1].Postfix)
}

func TestFlattenGrandchildrenPointsAtDeepestMap(t *testing.T) {
	host := geohosttest.NewHost()
	var c diag.Collector

	// leaf is the deepest map: child borrows a group from it, and later
	// parent borrows an overlapping span from child. Flattening should
	// re-point parent's group directly at leaf, skipping child.
	leaf := New(host)

	child := New(host)
	child.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  leaf,
		IndexedName: indexedname.New("Face", 0),
		Count:       childMapThreshold,
		Tag:         1,
	}})
	require.True(t, child.HasChildElementMap())

	parent := New(host)
	parent.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  child,
		IndexedName: indexedname.New("Face", 0),
		Offset:      100,
		Count:       childMapThreshold,
		Tag:         2,
	}})

	flattened := parent.ChildGroups("Face")
	require.Len(t, flattened, 1)
	assert.Same(t, leaf, flattened[0].ElementMap,
		"flattening should re-point directly at the grandchild's own map")
}

func TestHashChildMapsRewritesLongPostfix(t *testing.T) {
	host := geohosttest.NewHost()
	m := New(host)
	var c diag.Collector

	m.AddChildElements(&c, []ChildElementGroup{{
		IndexedName: indexedname.New("Face", 0),
		Count:       childMapThreshold,
		Tag:         1,
		Postfix:     "averylongpostfixsegment",
	}})
	groups := m.ChildGroups("Face")
	require.Len(t, groups, 1)
	longKey := groups[0].Postfix
	require.Greater(t, len(longKey), 10)

	require.NoError(t, m.HashChildMaps(host))

	groups = m.ChildGroups("Face")
	require.Len(t, groups, 1)
	assert.Less(t, len(groups[0].Postfix), len(longKey))
	assert.NotEqual(t, longKey, groups[0].Postfix)
}
