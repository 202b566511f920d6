package elementmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/geohost/geohosttest"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
)

func TestAddNameAndFind(t *testing.T) {
	m := New(geohosttest.NewHost())
	idx := indexedname.New("Face", 1)
	name := mappedname.New("Face1;:H1:F", "")

	interned, _, ok := m.AddName(nil, name, idx, nil, false, false)
	require.True(t, ok)
	assert.True(t, interned.Equal(name))
	assert.Equal(t, 1, m.Size())

	got := m.Find(name, nil)
	assert.Equal(t, idx, got)

	back := m.FindByIndex(idx, nil)
	assert.True(t, back.Equal(name))
}

func TestAddNameNoOpOnExactMatch(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Edge", 2)
	name := mappedname.New("Edge2X", "")

	_, _, ok := m.AddName(nil, name, idx, nil, false, false)
	require.True(t, ok)
	_, _, ok = m.AddName(nil, name, idx, nil, false, false)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Size())
}

func TestAddNameConflictWithoutOverwriteFails(t *testing.T) {
	m := New(nil)
	name := mappedname.New("Conflict", "")

	_, _, ok := m.AddName(nil, name, indexedname.New("Face", 1), nil, false, false)
	require.True(t, ok)

	_, existing, ok := m.AddName(nil, name, indexedname.New("Face", 2), nil, false, true)
	assert.False(t, ok)
	assert.Equal(t, indexedname.New("Face", 1), existing)
}

func TestAddNameOverwriteReplacesBinding(t *testing.T) {
	m := New(nil)
	name := mappedname.New("Reused", "")

	_, _, ok := m.AddName(nil, name, indexedname.New("Face", 1), nil, false, false)
	require.True(t, ok)

	_, _, ok = m.AddName(nil, name, indexedname.New("Face", 2), nil, true, false)
	require.True(t, ok)

	assert.Equal(t, indexedname.New("Face", 2), m.Find(name, nil))
	assert.True(t, m.FindByIndex(indexedname.New("Face", 1), nil).Empty())
}

func TestEraseRemovesBinding(t *testing.T) {
	m := New(nil)
	name := mappedname.New("Gone", "")
	idx := indexedname.New("Vertex", 3)
	_, _, ok := m.AddName(nil, name, idx, nil, false, false)
	require.True(t, ok)

	assert.True(t, m.Erase(name))
	assert.False(t, m.Erase(name))
	assert.Equal(t, 0, m.Size())
	assert.True(t, m.Find(name, nil).IsNull())
}

func TestAddNameGrowsChainForDistinctNames(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Face", 5)
	a := mappedname.New("A", "")
	b := mappedname.New("B", "")

	_, _, ok := m.AddName(nil, a, idx, nil, false, false)
	require.True(t, ok)
	_, _, ok = m.AddName(nil, b, idx, nil, false, false)
	require.True(t, ok, "a second, non-colliding name for the same index must succeed")

	all := m.FindAll(idx)
	require.Len(t, all, 2)
	assert.True(t, all[0].Equal(a))
	assert.True(t, all[1].Equal(b))
}

func TestEraseNameLeavesOtherChainEntriesIntact(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Face", 5)
	a := mappedname.New("A", "")
	b := mappedname.New("B", "")
	_, _, ok := m.AddName(nil, a, idx, nil, false, false)
	require.True(t, ok)
	_, _, ok = m.AddName(nil, b, idx, nil, false, false)
	require.True(t, ok)

	assert.True(t, m.Erase(a))
	assert.True(t, m.Find(a, nil).IsNull())
	assert.Equal(t, idx, m.Find(b, nil), "erasing one alternative name must not erase its siblings")

	all := m.FindAll(idx)
	require.Len(t, all, 1)
	assert.True(t, all[0].Equal(b))
}

func TestEraseIndexRemovesAllChainEntries(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Face", 5)
	a := mappedname.New("A", "")
	b := mappedname.New("B", "")
	_, _, ok := m.AddName(nil, a, idx, nil, false, false)
	require.True(t, ok)
	_, _, ok = m.AddName(nil, b, idx, nil, false, false)
	require.True(t, ok)

	assert.True(t, m.EraseIndex(idx))
	assert.True(t, m.Find(a, nil).IsNull())
	assert.True(t, m.Find(b, nil).IsNull())
}

func TestHygieneCheckWarnsOnUnmatchedHash(t *testing.T) {
	m := New(geohosttest.NewHost())
	var c diag.Collector
	name := mappedname.New("Face1#bogus", "")

	_, _, ok := m.AddName(&c, name, indexedname.New("Face", 1), nil, false, false)
	require.True(t, ok, "insertion proceeds despite the hygiene warning")

	require.Equal(t, 1, c.Len())
	assert.Equal(t, diag.CodeCodecMalformed, c.Issues()[0].Code())
	assert.False(t, c.HasFatal())
}

func TestHygieneCheckWarnsOnNonNormalizedText(t *testing.T) {
	m := New(nil)
	var c diag.Collector

	// "e" followed by a combining acute accent (U+0065 U+0301) is the
	// NFD decomposition of U+00E9; it renders identically but is not
	// itself in NFC normal form.
	name := mappedname.New("Fac"+"e"+"\u0301"+"1", "")

	_, _, ok := m.AddName(&c, name, indexedname.New("Face", 1), nil, false, false)
	require.True(t, ok)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, diag.CodeNonNormalizedText, c.Issues()[0].Code())
	assert.False(t, c.HasFatal())
}

func TestFindAllReturnsFullChain(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Face", 1)
	a := mappedname.New("A", "")
	b := mappedname.New("B", "")
	_, _, ok := m.AddName(nil, a, idx, nil, false, false)
	require.True(t, ok)
	_, _, ok = m.AddName(nil, b, idx, nil, false, false)
	require.True(t, ok)

	all := m.FindAll(idx)
	require.Len(t, all, 2)
	assert.True(t, all[0].Equal(a))
	assert.True(t, all[1].Equal(b))
}

func TestFindSidsAreReported(t *testing.T) {
	m := New(nil)
	idx := indexedname.New("Face", 1)
	name := mappedname.New("Tagged", "")
	sid := geohost.StringID{Value: 7}

	_, _, ok := m.AddName(nil, name, idx, []geohost.StringID{sid}, false, false)
	require.True(t, ok)

	var sids []geohost.StringID
	got := m.Find(name, &sids)
	assert.Equal(t, idx, got)
	assert.Equal(t, []geohost.StringID{sid}, sids)
}
