package elementmap

import (
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
)

// ChildGroups returns every composed ChildElementGroup for the given
// element type, ordered by parent-index upper bound. The Go analogue
// of the original's getChildElements, read-only and allocation-cheap
// for callers that only need to iterate.
func (m *ElementMap) ChildGroups(typ string) []ChildElementGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket, ok := m.bucketReadOnly(typ)
	if !ok {
		return nil
	}
	out := make([]ChildElementGroup, 0, bucket.children.Len())
	bucket.children.Range(func(_ int, grp ChildElementGroup) bool {
		out = append(out, grp)
		return true
	})
	return out
}

// Binding is one primary MappedName -> IndexedName entry, as returned
// by [ElementMap.All].
type Binding struct {
	Name  mappedname.Name
	Index indexedname.Name
}

// All returns every primary binding currently recorded in m, in
// MappedName order. The Go analogue of the original's getAll; intended
// for diagnostics and tests, not hot paths — it copies the full table.
func (m *ElementMap) All() []Binding {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Binding, 0, m.mappedNames.Len())
	m.mappedNames.Range(func(name mappedname.Name, idx indexedname.Name) bool {
		out = append(out, Binding{Name: name, Index: idx})
		return true
	})
	return out
}
