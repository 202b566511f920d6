package mappedname

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kerneltopo/topomap/indexedname"
)

func TestZeroValueIsEmpty(t *testing.T) {
	var m Name
	assert.True(t, m.Empty())
	assert.Equal(t, 0, m.Size())
	assert.Equal(t, "", m.Data())
	assert.Equal(t, "", m.Postfix())
}

func TestPrefixStripping(t *testing.T) {
	m := New(";gFoo", ";g")
	assert.Equal(t, "Foo", m.Data())
	assert.Equal(t, "", m.Postfix())
}

func TestPrefixNotPresentLeftIntact(t *testing.T) {
	m := New("Foo", ";g")
	assert.Equal(t, "Foo", m.Data())
}

func TestAppendCreatesPostfix(t *testing.T) {
	m := New("TEST", "")
	m.Append("X")
	assert.Equal(t, "TEST", m.Data())
	assert.Equal(t, "X", m.Postfix())
	assert.Equal(t, 5, m.Size())
	assert.True(t, m.EndsWith("X"))
}

func TestAppendToEmptyBecomesData(t *testing.T) {
	var m Name
	m.Append("abc")
	assert.Equal(t, "abc", m.Data())
	assert.Equal(t, "", m.Postfix())
}

func TestFromIndexedNameOmitsZeroIndex(t *testing.T) {
	m := FromIndexedName(indexedname.New("Face", 0))
	assert.Equal(t, "Face", m.String())

	m2 := FromIndexedName(indexedname.New("Face", 3))
	assert.Equal(t, "Face3", m2.String())
}

func TestToIndexedNameRoundTrip(t *testing.T) {
	m := FromIndexedName(indexedname.New("Edge", 12))
	idx := m.ToIndexedName()
	assert.False(t, idx.IsNull())
	assert.Equal(t, "Edge", idx.Type)
	assert.Equal(t, 12, idx.Index)
}

func TestToIndexedNameFailsWithPostfix(t *testing.T) {
	m := New("Face3", "")
	m.Append("X")
	assert.True(t, m.ToIndexedName().IsNull())
}

func TestToIndexedNameFailsOnNonMatchingData(t *testing.T) {
	assert.True(t, New("3Face", "").ToIndexedName().IsNull())
	assert.True(t, New("Fa-ce", "").ToIndexedName().IsNull())
}

func TestDataIndexedNameIgnoresPostfix(t *testing.T) {
	m := New("Face3", "")
	m.Append("X")
	idx := m.DataIndexedName()
	assert.False(t, idx.IsNull())
	assert.Equal(t, "Face", idx.Type)
	assert.Equal(t, 3, idx.Index)
}

func TestDataIndexedNameFailsOnNonMatchingData(t *testing.T) {
	assert.True(t, New("3Face", "").DataIndexedName().IsNull())
}

func TestEqualityIgnoresInternalSplit(t *testing.T) {
	a := New("TEST", "")
	a.Append("X")

	b := New("TESTX", "")

	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Compare(b))
}

func TestLessOnUnequalPrefix(t *testing.T) {
	assert.True(t, New("abc", "").Less(New("abd", "")))
	assert.True(t, New("ab", "").Less(New("abc", "")))
}

func TestSubShareDoesNotMutateOriginal(t *testing.T) {
	original := New("TEST", "")
	original.Append("X")

	sub := Sub(original, 0, 4)
	assert.Equal(t, "TEST", sub.String())

	sub.Append("Y")
	assert.Equal(t, "TESTY", sub.String())
	assert.Equal(t, "TESTX", original.String(), "mutating the subrange copy must not affect the original")
}

func TestWithPostfix(t *testing.T) {
	base := New("Face3", "")
	withP := WithPostfix(base, ":CH")
	assert.Equal(t, "Face3", withP.Data())
	assert.Equal(t, ":CH", withP.Postfix())
	assert.Equal(t, "Face3:CH", withP.String())
}

func TestPlusConcatenatesIntoPostfix(t *testing.T) {
	a := New("Face3", "")
	b := New("X", "")
	b.Append("Y")

	c := a.Plus(b)
	assert.Equal(t, "Face3", c.Data())
	assert.Equal(t, "XY", c.Postfix())
}

func TestFindAndRFindCrossBoundary(t *testing.T) {
	m := New("TEST", "")
	m.Append("X")
	assert.Equal(t, 3, m.Find("TX", 0))
	assert.Equal(t, 3, m.RFind("TX"))
	assert.Equal(t, -1, m.Find("zz", 0))
}

func TestStartsWithOffset(t *testing.T) {
	m := New("abcdef", "")
	assert.True(t, m.StartsWith("cde", 2))
	assert.False(t, m.StartsWith("cde", 3))
}

func TestClear(t *testing.T) {
	m := New("TEST", "")
	m.Append("X")
	m.Clear()
	assert.True(t, m.Empty())
	assert.Equal(t, "", m.String())
}
