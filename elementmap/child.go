package elementmap

import (
	"fmt"
	"strings"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
)

// childMapThreshold is the group count at or above which a child group
// is synthesized as a single parent-level postfix rather than expanded
// element by element.
const childMapThreshold = 5

// AddChildElements composes groups, borrowed from other ElementMaps,
// into m's own type buckets. It performs grandchild flattening first so
// that later lookups never need to walk more than one child hop, then
// inserts the flattened groups, synthesizing a single parent-level
// postfix for large groups and expanding small ones element by element.
func (m *ElementMap) AddChildElements(collector *diag.Collector, groups []ChildElementGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flat := make([]ChildElementGroup, 0, len(groups))
	for _, g := range groups {
		flat = append(flat, m.flattenGrandchildrenLocked(g)...)
	}

	for _, g := range flat {
		m.insertChildGroupLocked(collector, g)
	}
}

// flattenGrandchildrenLocked splits g, whose referenced child map may
// itself have children, into pieces each pointing directly at the
// deepest relevant grandchild, per spec §4.4's "grand-child flattening".
// The span [start,end) walked here is in g's child map's own index
// space — the same space g.IndexedName and the grandchild group's
// lower/upper bounds live in.
func (m *ElementMap) flattenGrandchildrenLocked(g ChildElementGroup) []ChildElementGroup {
	if g.ElementMap == nil || g.Count <= 0 {
		return []ChildElementGroup{g}
	}

	grandBucket, ok := g.ElementMap.bucketReadOnly(g.IndexedName.Type)
	if !ok || grandBucket.children.Len() == 0 {
		return []ChildElementGroup{g}
	}

	start := g.IndexedName.Index
	end := g.IndexedName.Index + g.Count
	var out []ChildElementGroup

	for start < end {
		_, grand, found := grandBucket.children.UpperBound(start)
		if !found || grand.lowerBound() >= end {
			out = append(out, sliceGroup(g, start, end))
			break
		}
		istart, iend := grand.lowerBound(), grand.upperBound()
		if istart > start {
			out = append(out, sliceGroup(g, start, istart))
			start = istart
		}
		lo, hi := max(start, istart), min(end, iend)
		if lo >= hi {
			break
		}
		out = append(out, composeGrandchild(g, grand, lo, hi, m.elementMapPrefix()))
		start = hi
	}
	if len(out) == 0 {
		return []ChildElementGroup{g}
	}
	return out
}

func (m *ElementMap) elementMapPrefix() string {
	if m.host == nil {
		return ""
	}
	return m.host.ElementMapPrefix()
}

// sliceGroup returns the sub-range [lo,hi) of g, still pointing at g's
// own child map.
func sliceGroup(g ChildElementGroup, lo, hi int) ChildElementGroup {
	out := g
	out.IndexedName = indexedname.New(g.IndexedName.Type, lo)
	out.Count = hi - lo
	return out
}

// composeGrandchild returns the sub-range [lo,hi) of g (expressed in
// g's child map's index space), re-pointed directly at the grandchild
// group grand: the grandchild's own ElementMap, its offset composed
// with g's, and its postfix joined onto g's per spec §4.4.
func composeGrandchild(g ChildElementGroup, grand ChildElementGroup, lo, hi int, elementMapPrefix string) ChildElementGroup {
	grandIndex := lo - grand.Offset
	return ChildElementGroup{
		ElementMap:  grand.ElementMap,
		IndexedName: indexedname.New(grand.IndexedName.Type, grandIndex),
		Offset:      g.Offset + grand.Offset,
		Count:       hi - lo,
		Tag:         grand.Tag,
		Postfix:     joinPostfix(g.Postfix, grand.Postfix, elementMapPrefix),
		SIDs:        append(append([]geohost.StringID(nil), g.SIDs...), grand.SIDs...),
	}
}

// joinPostfix accumulates parent (g's) postfix with a grandchild's own
// postfix. If parent is non-empty and does not already start with
// elementMapPrefix, the grandchild's postfix is joined behind an
// explicit elementMapPrefix separator; otherwise plain concatenation
// suffices (spec §4.4).
func joinPostfix(parent, child, elementMapPrefix string) string {
	if child == "" {
		return parent
	}
	if parent != "" && elementMapPrefix != "" && !strings.HasPrefix(parent, elementMapPrefix) {
		return parent + elementMapPrefix + child
	}
	return parent + child
}

// insertChildGroupLocked performs the main-insertion half of
// addChildElements for one flattened group: threshold-based
// parent-postfix synthesis with disambiguation, or per-element
// expansion.
func (m *ElementMap) insertChildGroupLocked(collector *diag.Collector, g ChildElementGroup) {
	if g.IndexedName.IsNull() || g.Count <= 0 {
		if collector != nil {
			collector.Warning(diag.CodeDuplicateChildMapCollision, -1, "skipping empty or zero-count child group")
		}
		return
	}

	if g.Count >= childMapThreshold || g.ElementMap == nil {
		if m.trySynthesizeGroupLocked(collector, g) {
			return
		}
	}

	m.expandGroupElementsLocked(collector, g)
}

func (m *ElementMap) trySynthesizeGroupLocked(collector *diag.Collector, g ChildElementGroup) bool {
	if m.host == nil {
		return false
	}

	first := indexedname.New(g.IndexedName.Type, g.IndexedName.Index+g.Offset)
	var sids []geohost.StringID
	key, err := m.host.EncodeElementName(first, g.Postfix, g.Tag, &sids)
	if err != nil {
		if collector != nil {
			collector.Add(diag.NewIssue(diag.Warning, diag.CodeDuplicateChildMapCollision, -1,
				fmt.Sprintf("encoding parent postfix: %v", err)))
		}
		return false
	}

	info, exists := m.childElements[key]
	if !exists {
		m.childElements[key] = &childMapInfo{group: g, mapIndex: 1, index: 1}
		return m.claimChildGroupLocked(key, g, sids)
	}

	if info.index != 0 && g.ElementMap != nil && info.mapIndex == 0 {
		return false
	}

	info.index++
	disambiguated := key + ":C" + fmt.Sprint(info.index-1)
	if _, collide := m.childElements[disambiguated]; collide {
		if collector != nil {
			collector.Add(diag.NewIssue(diag.Warning, diag.CodeDuplicateChildMapCollision, -1,
				"duplicate child-map collision after disambiguation", diag.Detail{Key: "postfix", Value: disambiguated}))
		}
		// The colliding group is dropped: reporting it as handled keeps
		// insertChildGroupLocked from expanding it element by element.
		return true
	}
	m.childElements[disambiguated] = &childMapInfo{group: g, mapIndex: info.mapIndex + 1, index: info.index}
	return m.claimChildGroupLocked(disambiguated, g, sids)
}

func (m *ElementMap) claimChildGroupLocked(key string, g ChildElementGroup, sids []geohost.StringID) bool {
	g.Postfix = key
	g.SIDs = append(append([]geohost.StringID(nil), g.SIDs...), sids...)

	bucket := m.bucket(g.IndexedName.Type)
	bucket.children.Set(g.upperBound(), g)
	m.childElementSize += g.Count
	return true
}

func (m *ElementMap) expandGroupElementsLocked(collector *diag.Collector, g ChildElementGroup) {
	if m.host == nil {
		return
	}
	for i := 0; i < g.Count; i++ {
		childIdx := indexedname.New(g.IndexedName.Type, g.IndexedName.Index+i)
		parentIdx := indexedname.New(g.IndexedName.Type, childIdx.Index+g.Offset)

		var sids []geohost.StringID
		name, err := m.host.EncodeElementName(parentIdx, g.Postfix, g.Tag, &sids)
		if err != nil {
			if collector != nil {
				collector.Add(diag.NewIssue(diag.Warning, diag.CodeDuplicateChildMapCollision, -1,
					fmt.Sprintf("encoding element %d of child group: %v", i, err)))
			}
			continue
		}
		sids = append(sids, g.SIDs...)
		if err := m.host.SetElementName(parentIdx, name, sids); err != nil {
			if collector != nil {
				collector.Add(diag.NewIssue(diag.Warning, diag.CodeDuplicateChildMapCollision, -1,
					fmt.Sprintf("setting element %d of child group: %v", i, err)))
			}
		}
	}
}

// HashChildMaps re-hashes long child postfixes through host's
// HashElementName, rewriting childElements and each type bucket's
// children entries in place. This is an optional compaction pass; it
// never changes a group's semantics, only the byte length of its
// postfix.
func (m *ElementMap) HashChildMaps(host geohost.GeometryHost) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	const hashThreshold = 10
	for key, info := range m.childElements {
		if len(key) <= hashThreshold {
			continue
		}
		short, err := host.HashElementName(key)
		if err != nil {
			return fmt.Errorf("elementmap: hashing child postfix: %w", err)
		}
		if short == key {
			continue
		}
		delete(m.childElements, key)
		info.group.Postfix = short
		m.childElements[short] = info

		bucket := m.bucket(info.group.IndexedName.Type)
		bucket.children.Set(info.group.upperBound(), info.group)
	}
	return nil
}
