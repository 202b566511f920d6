package elementmap

import (
	"strings"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
	"github.com/kerneltopo/topomap/tagcodec"
)

// Size returns the number of primary MappedName -> IndexedName bindings.
func (m *ElementMap) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mappedNames.Len()
}

// Empty reports whether the map has no primary bindings.
func (m *ElementMap) Empty() bool {
	return m.Size() == 0
}

// HasChildElementMap reports whether any child-element group has been
// composed into m.
func (m *ElementMap) HasChildElementMap() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.childElementSize > 0
}

// AddName inserts a binding from name to idx, tracking sids as the
// chain entry's string ids. A name that is not yet bound to anything
// always succeeds, appending a new entry to idx's chain of alternative
// names alongside whatever it already holds.
//
// If name already maps to idx, this is a no-op. If name maps to a
// different IndexedName and overwrite is false, the call fails and, if
// reportExisting is true, the second return value holds the conflicting
// IndexedName. If overwrite is true, idx's whole chain is cleared first
// and, if name maps elsewhere, that single binding is erased and the
// insert retried.
//
// The returned MappedName is the interned copy held by the map, not
// necessarily the same backing buffer as the argument.
func (m *ElementMap) AddName(collector *diag.Collector, name mappedname.Name, idx indexedname.Name, sids []geohost.StringID, overwrite, reportExisting bool) (interned mappedname.Name, conflicting indexedname.Name, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hygieneCheckLocked(collector, name)

	for {
		if overwrite {
			m.eraseIndexLocked(idx)
		}

		if existingIdx, present := m.mappedNames.Get(name); present {
			if existingIdx.Equal(idx) {
				return name, indexedname.Name{}, true
			}
			if !overwrite {
				if reportExisting {
					return name, existingIdx, false
				}
				return name, indexedname.Name{}, false
			}
			m.eraseNameLocked(name)
			continue
		}

		bucket := m.bucket(idx.Type)
		bucket.ensureLen(idx.Index)
		bucket.chains[idx.Index] = append(bucket.chains[idx.Index], MappedNameRef{Name: name, SIDs: append([]geohost.StringID(nil), sids...)})
		m.mappedNames.Set(name, idx)
		return name, indexedname.Name{}, true
	}
}

// hygieneCheckLocked records a Warning codec issue on collector if name
// contains '#' but the codec cannot discover a tag postfix in it, and
// separately if name is not already in Unicode NFC normal form; nothing
// is recorded when collector is nil. The insert still proceeds
// unconditionally either way.
func (m *ElementMap) hygieneCheckLocked(collector *diag.Collector, name mappedname.Name) {
	if collector == nil {
		return
	}
	full := name.String()

	if normalized := geohost.NormalizeText(full); normalized != full {
		collector.Add(diag.NewIssue(diag.Warning, diag.CodeNonNormalizedText, -1,
			"name is not in Unicode NFC normal form", diag.Detail{Key: "name", Value: full}))
	}

	if !strings.Contains(full, "#") {
		return
	}
	prefix := ""
	if m.host != nil {
		prefix = m.host.ElementMapPrefix()
	}
	if _, err := tagcodec.FindTag(full, prefix, true, false); err != nil {
		collector.Add(diag.NewIssue(diag.Warning, diag.CodeCodecMalformed, -1,
			"name contains '#' but no tag postfix was found", diag.Detail{Key: "name", Value: full}))
	}
}

// Erase removes the binding for name, returning whether anything was
// removed.
func (m *ElementMap) Erase(name mappedname.Name) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eraseNameLocked(name)
}

// EraseIndex removes the binding for idx, returning whether anything
// was removed.
func (m *ElementMap) EraseIndex(idx indexedname.Name) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eraseIndexLocked(idx)
}

// eraseNameLocked removes only the single chain entry matching name,
// leaving idx's other alternative names (if any) intact. Compare
// eraseIndexLocked, which clears the whole chain.
func (m *ElementMap) eraseNameLocked(name mappedname.Name) bool {
	idx, ok := m.mappedNames.Get(name)
	if !ok {
		return false
	}
	bucket, ok := m.bucketReadOnly(idx.Type)
	if !ok || idx.Index >= len(bucket.chains) {
		return false
	}
	chain := bucket.chains[idx.Index]
	for i, ref := range chain {
		if ref.Name.Equal(name) {
			bucket.chains[idx.Index] = append(chain[:i:i], chain[i+1:]...)
			m.mappedNames.Delete(name)
			return true
		}
	}
	return false
}

func (m *ElementMap) eraseIndexLocked(idx indexedname.Name) bool {
	bucket, ok := m.bucketReadOnly(idx.Type)
	if !ok || idx.Index >= len(bucket.chains) || len(bucket.chains[idx.Index]) == 0 {
		return false
	}
	for _, ref := range bucket.chains[idx.Index] {
		m.mappedNames.Delete(ref.Name)
	}
	bucket.chains[idx.Index] = nil
	return true
}

// Find resolves name to an IndexedName. If sids is non-nil, it is
// appended with the string ids recorded on the matched chain entry (or,
// for a child-derived result, the group's ids).
func (m *ElementMap) Find(name mappedname.Name, sids *[]geohost.StringID) indexedname.Name {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(name, sids)
}

func (m *ElementMap) findLocked(name mappedname.Name, sids *[]geohost.StringID) indexedname.Name {
	if idx, ok := m.mappedNames.Get(name); ok {
		if sids != nil {
			if bucket, ok := m.bucketReadOnly(idx.Type); ok && idx.Index < len(bucket.chains) {
				for _, ref := range bucket.chains[idx.Index] {
					if ref.Name.Equal(name) {
						*sids = append(*sids, ref.SIDs...)
						break
					}
				}
			}
		}
		return idx
	}

	if m.childElementSize == 0 {
		return indexedname.Name{}
	}

	prefix := ""
	if m.host != nil {
		prefix = m.host.ElementMapPrefix()
	}
	full := name.String()
	tag, err := tagcodec.FindTag(full, prefix, true, false)
	if err != nil {
		return indexedname.Name{}
	}
	postfix := full[tag.Pos:]
	sliced := full[:tag.Len]

	group, found := m.lookupChildByPostfixLocked(postfix)
	if !found {
		return indexedname.Name{}
	}

	var childIdx indexedname.Name
	if group.ElementMap != nil {
		childIdx = group.ElementMap.Find(mappedname.New(sliced, prefix), sids)
	} else {
		childIdx = mappedname.New(sliced, prefix).ToIndexedName()
	}
	if childIdx.IsNull() || childIdx.Type != group.IndexedName.Type {
		return indexedname.Name{}
	}
	if childIdx.Index < group.IndexedName.Index || childIdx.Index >= group.IndexedName.Index+group.Count {
		return indexedname.Name{}
	}
	if sids != nil {
		*sids = append(*sids, group.SIDs...)
	}
	return indexedname.New(childIdx.Type, childIdx.Index+group.Offset)
}

func (m *ElementMap) lookupChildByPostfixLocked(postfix string) (ChildElementGroup, bool) {
	info, ok := m.childElements[postfix]
	if !ok {
		return ChildElementGroup{}, false
	}
	return info.group, true
}

// FindByIndex is the reverse lookup: resolve idx to its primary mapped
// name, consulting child-element groups if idx has no direct binding.
func (m *ElementMap) FindByIndex(idx indexedname.Name, sids *[]geohost.StringID) mappedname.Name {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByIndexLocked(idx, sids)
}

func (m *ElementMap) findByIndexLocked(idx indexedname.Name, sids *[]geohost.StringID) mappedname.Name {
	bucket, ok := m.bucketReadOnly(idx.Type)
	if !ok {
		return mappedname.Name{}
	}
	if idx.Index < len(bucket.chains) && len(bucket.chains[idx.Index]) > 0 {
		head := bucket.chains[idx.Index][0]
		if sids != nil {
			*sids = append(*sids, head.SIDs...)
		}
		return head.Name
	}

	_, group, found := bucket.children.UpperBound(idx.Index)
	if !found || group.lowerBound() > idx.Index {
		return mappedname.Name{}
	}
	childIdx := indexedname.New(group.IndexedName.Type, idx.Index-group.Offset)
	var childResult mappedname.Name
	if group.ElementMap != nil {
		childResult = group.ElementMap.FindByIndex(childIdx, sids)
	} else {
		childResult = mappedname.FromIndexedName(childIdx)
	}
	if childResult.Empty() {
		return mappedname.Name{}
	}
	if sids != nil {
		*sids = append(*sids, group.SIDs...)
	}
	return childResult.PlusPostfix(group.Postfix)
}

// FindAll returns every chained alternative mapped name for idx, or, if
// none is recorded directly, the single child-derived name.
func (m *ElementMap) FindAll(idx indexedname.Name) []mappedname.Name {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket, ok := m.bucketReadOnly(idx.Type)
	if ok && idx.Index < len(bucket.chains) && len(bucket.chains[idx.Index]) > 0 {
		out := make([]mappedname.Name, len(bucket.chains[idx.Index]))
		for i, ref := range bucket.chains[idx.Index] {
			out[i] = ref.Name
		}
		return out
	}

	if name := m.findByIndexLocked(idx, nil); !name.Empty() {
		return []mappedname.Name{name}
	}
	return nil
}
