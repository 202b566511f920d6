package elementmap

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/geohost/geohosttest"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
	"github.com/kerneltopo/topomap/savectx"
)

func TestSaveRestoreRoundTrip(t *testing.T) {
	host := geohosttest.NewHost()

	child := New(host)
	_, _, ok := child.AddName(nil, mappedname.New("Edge3", ""), indexedname.New("Edge", 3), nil, false, false)
	require.True(t, ok)

	root := New(host)
	sid := host.HasherImpl.GetID("facetag")
	_, _, ok = root.AddName(nil, mappedname.New("Face1", ""), indexedname.New("Face", 1), []geohost.StringID{sid}, false, false)
	require.True(t, ok)

	var c diag.Collector
	root.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  child,
		IndexedName: indexedname.New("Edge", 0),
		Count:       childMapThreshold,
		Tag:         7,
	}})
	require.False(t, c.HasFatal())
	require.True(t, root.HasChildElementMap())

	var buf bytes.Buffer
	saveCtx := savectx.NewSaveContext()
	require.NoError(t, Save(&buf, root, saveCtx, host.HasherImpl))

	restoreCtx := savectx.NewRestoreContext()
	var restoreIssues diag.Collector
	restored, err := Restore(&buf, restoreCtx, host.HasherImpl, &restoreIssues)
	require.NoError(t, err)
	require.False(t, restoreIssues.HasFatal())

	gotIdx := restored.Find(mappedname.New("Face1", ""), nil)
	assert.Equal(t, indexedname.New("Face", 1), gotIdx)

	var sids []geohost.StringID
	restored.Find(mappedname.New("Face1", ""), &sids)
	require.Len(t, sids, 1)
	assert.Equal(t, sid.Value, sids[0].Value)

	groups := restored.ChildGroups("Edge")
	require.Len(t, groups, 1)
	assert.Equal(t, childMapThreshold, groups[0].Count)
	assert.Equal(t, int64(7), groups[0].Tag)
	require.NotNil(t, groups[0].ElementMap)

	backIdx := groups[0].ElementMap.Find(mappedname.New("Edge3", ""), nil)
	assert.Equal(t, indexedname.New("Edge", 3), backIdx)
}

// TestSaveRestoreRoundTripPreservesStringIDLiteral covers the "$"
// namespec form: a mapped name whose data segment does not decode as
// an IndexedName but does match one of its own marked string ids
// ("#<id>", the fake host's own HashElementName output shape).
func TestSaveRestoreRoundTripPreservesStringIDLiteral(t *testing.T) {
	host := geohosttest.NewHost()
	root := New(host)

	sid := host.HasherImpl.GetID("a hashed literal")
	literal := fmt.Sprintf("#%d", sid.Value)
	_, _, ok := root.AddName(nil, mappedname.New(literal, ""), indexedname.New("Face", 7), []geohost.StringID{sid}, false, false)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, root, savectx.NewSaveContext(), host.HasherImpl))
	assert.Contains(t, buf.String(), "$"+literal)

	var restoreIssues diag.Collector
	restored, err := Restore(&buf, savectx.NewRestoreContext(), host.HasherImpl, &restoreIssues)
	require.NoError(t, err)
	require.False(t, restoreIssues.HasFatal())

	var sids []geohost.StringID
	gotIdx := restored.Find(mappedname.New(literal, ""), &sids)
	assert.Equal(t, indexedname.New("Face", 7), gotIdx)
	require.Len(t, sids, 1)
	assert.Equal(t, sid.Value, sids[0].Value)
}

func TestSaveRejectsCycle(t *testing.T) {
	host := geohosttest.NewHost()
	a := New(host)
	b := New(host)

	var c diag.Collector
	a.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  b,
		IndexedName: indexedname.New("Face", 0),
		Count:       childMapThreshold,
		Tag:         1,
	}})
	b.AddChildElements(&c, []ChildElementGroup{{
		ElementMap:  a,
		IndexedName: indexedname.New("Face", 0),
		Count:       childMapThreshold,
		Tag:         2,
	}})
	require.False(t, c.HasFatal())

	var buf bytes.Buffer
	err := Save(&buf, a, savectx.NewSaveContext(), host.HasherImpl)
	assert.Error(t, err)
}
