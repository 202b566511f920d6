// Package elementmap implements ElementMap, the bidirectional
// MappedName <-> IndexedName map at the center of this module, with
// hierarchical child-element composition and a textual save/restore
// format.
package elementmap

import (
	"sync"

	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/internal/omap"
	"github.com/kerneltopo/topomap/mappedname"
)

// MappedNameRef is one entry in the chain of alternative names recorded
// for an IndexedName. The chain is almost always 1-2 entries deep, so
// it is stored as a slice rather than a linked list (spec §9 design
// note: "the linked-list form is a historical accident").
type MappedNameRef struct {
	Name mappedname.Name
	SIDs []geohost.StringID
}

// ChildElementGroup is a contiguous range of child elements borrowed
// from another ElementMap (spec §3's MappedChildElements).
type ChildElementGroup struct {
	// ElementMap is the child map this group borrows from; nil means
	// the group's elements are not backed by a further map (the
	// synthesized name is itself an IndexedName).
	ElementMap *ElementMap
	// IndexedName is the base element in the child map.
	IndexedName indexedname.Name
	// Offset is added to the child's index to project it into the
	// parent's index space.
	Offset int
	// Count is the number of elements in this group; always > 0.
	Count int
	// Tag identifies the modeling operation that produced this group.
	Tag int64
	// Postfix is appended to every mapped name this group produces.
	Postfix string
	// SIDs are the string ids associated with Postfix.
	SIDs []geohost.StringID
}

// upperBound returns the exclusive upper bound of g in parent-index
// space: IndexedName.Index + Offset + Count.
func (g ChildElementGroup) upperBound() int {
	return g.IndexedName.Index + g.Offset + g.Count
}

// lowerBound returns the inclusive lower bound of g in parent-index
// space: IndexedName.Index + Offset.
func (g ChildElementGroup) lowerBound() int {
	return g.IndexedName.Index + g.Offset
}

// childMapInfo is the reverse-path record for a group's synthesized
// postfix: childElements[postfix] -> childMapInfo, used both to find
// the group again from an encoded name and to disambiguate repeated
// tag+postfix combinations produced by distinct child maps.
type childMapInfo struct {
	group ChildElementGroup
	// mapIndex indexes which distinct child ElementMap this postfix was
	// first claimed by (0 means "not yet associated with a map").
	mapIndex int
	// index is the overall duplication counter: 1 for the first group
	// to claim this postfix, N for the Nth.
	index int
}

// typeBucket holds everything ElementMap tracks for one type tag.
type typeBucket struct {
	// chains is a dense sequence indexed by IndexedName.Index. chains[i]
	// is the (possibly empty) list of alternative names recorded for
	// index i; chains[i][0] is the primary name, also present as a key
	// in the owning ElementMap's mappedNames.
	chains [][]MappedNameRef
	// children is keyed by each group's exclusive upper bound, enabling
	// upperBound(index) to locate the group containing a parent index.
	children *omap.Map[int, ChildElementGroup]
}

func newTypeBucket() *typeBucket {
	return &typeBucket{
		children: omap.New[int, ChildElementGroup](func(a, b int) bool { return a < b }),
	}
}

func (b *typeBucket) ensureLen(n int) {
	if n < len(b.chains) {
		return
	}
	grown := make([][]MappedNameRef, n+1)
	copy(grown, b.chains)
	b.chains = grown
}

// ElementMap is the central bidirectional map between MappedName and
// IndexedName, with hierarchical child-element composition and
// save/restore.
//
// An ElementMap may be shared: multiple parent maps can reference the
// same child ElementMap via a ChildElementGroup. The graph formed by
// these references is a DAG; Save rejects cycles.
//
// An ElementMap is safe for concurrent use; all public methods hold its
// lock for their duration.
type ElementMap struct {
	mu sync.RWMutex

	host geohost.GeometryHost

	mappedNames *omap.Map[mappedname.Name, indexedname.Name]
	indexed     map[string]*typeBucket

	// childElements is the reverse path from a synthesized postfix back
	// to the group that produced it, and the disambiguation counters
	// used while composing child-element groups.
	childElements map[string]*childMapInfo

	childElementSize int

	// saveID is the identity assigned by the most recent save pass; 0
	// until assigned.
	saveID int
}

// New returns an empty ElementMap backed by host. host supplies the
// element-map prefix, tag-postfix marker, and encode/set callbacks used
// by child-element composition; it may be nil for maps that never
// compose child groups.
func New(host geohost.GeometryHost) *ElementMap {
	return &ElementMap{
		host:          host,
		mappedNames:   omap.New[mappedname.Name, indexedname.Name](func(a, b mappedname.Name) bool { return a.Less(b) }),
		indexed:       make(map[string]*typeBucket),
		childElements: make(map[string]*childMapInfo),
	}
}

func (m *ElementMap) bucket(typ string) *typeBucket {
	b, ok := m.indexed[typ]
	if !ok {
		b = newTypeBucket()
		m.indexed[typ] = b
	}
	return b
}

func (m *ElementMap) bucketReadOnly(typ string) (*typeBucket, bool) {
	b, ok := m.indexed[typ]
	return b, ok
}
