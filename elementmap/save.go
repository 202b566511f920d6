package elementmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rogpeppe/generic/graph/topo"

	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
	"github.com/kerneltopo/topomap/savectx"
)

// postfixTable deduplicates every type-tag string and literal postfix
// byte string written across an entire save, mirroring
// ElementMap::collectChildMaps (original_source/src/App/ElementMap.cpp):
// the two kinds of string share one table because both are just byte
// strings referenced by a 1-based index.
type postfixTable struct {
	index   map[string]int
	entries []string
}

func newPostfixTable() *postfixTable {
	return &postfixTable{index: make(map[string]int)}
}

func (t *postfixTable) intern(s string) int {
	if s == "" {
		return 0
	}
	if i, ok := t.index[s]; ok {
		return i
	}
	t.entries = append(t.entries, s)
	i := len(t.entries)
	t.index[s] = i
	return i
}

// Save writes the full graph of ElementMaps reachable from root (via
// child-group references) in the textual grammar of spec §6.2. ctx
// assigns each distinct map its persistent id; sids are written only
// when hasher reports them as its own (the inlined equivalent of the
// original's beforeSave marking pass — see markedSIDs).
func Save(w io.Writer, root *ElementMap, ctx *savectx.SaveContext, hasher geohost.StringHasher) error {
	graph := buildDepGraph(root)
	order, err := topo.Sort[*ElementMap, depEdge](graph)
	if err != nil {
		return fmt.Errorf("elementmap: save: %w", err)
	}
	// topo.Sort lists parents before the children they reference;
	// reverse so every map is written only after all the maps it
	// depends on, and so child file-indices are always smaller than
	// their parents'.
	childMaps := make([]*ElementMap, len(order))
	for i, n := range order {
		childMaps[len(order)-1-i] = n
	}

	table := newPostfixTable()
	for _, m := range childMaps {
		m.collectPostfixes(table)
	}

	ids := make(map[*ElementMap]int, len(childMaps))
	for _, m := range childMaps {
		id, _ := ctx.AssignID(m)
		ids[m] = id
		m.mu.Lock()
		m.saveID = id
		m.mu.Unlock()
	}
	fileIndex := make(map[*ElementMap]int, len(childMaps))
	for i, m := range childMaps {
		fileIndex[m] = i + 1
	}

	bw := bufio.NewWriter(w)

	rootID, _ := ctx.AssignID(root)
	fmt.Fprintf(bw, "%d PostfixCount %d\n", rootID, len(table.entries))
	for _, p := range table.entries {
		fmt.Fprintf(bw, "%s\n", p)
	}
	fmt.Fprintf(bw, "\nMapCount %d\n", len(childMaps))

	for _, m := range childMaps {
		if err := m.writeBlock(bw, fileIndex[m], ids[m], fileIndex, table, hasher); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// collectPostfixes adds m's type-tag strings and mapped-name postfixes
// to table. Children's ElementMaps are walked separately via the
// dependency graph, so this only touches m's own strings.
func (m *ElementMap) collectPostfixes(table *postfixTable) {
	for _, typ := range m.sortedTypes() {
		table.intern(typ)
	}
	m.mappedNames.Range(func(name mappedname.Name, _ indexedname.Name) bool {
		table.intern(name.Postfix())
		return true
	})
}

func (m *ElementMap) writeBlock(w *bufio.Writer, index, id int, fileIndex map[*ElementMap]int, table *postfixTable, hasher geohost.StringHasher) error {
	types := m.sortedTypes()
	fmt.Fprintf(w, "\nElementMap %d %d %d\n", index, id, len(types))

	for _, typ := range types {
		bucket := m.indexed[typ]
		fmt.Fprintf(w, "\n%s\n", typ)

		children := bucket.children.Keys()
		fmt.Fprintf(w, "\nChildCount %d\n", len(children))
		for _, key := range children {
			grp, _ := bucket.children.Get(key)
			mapIndex := 0
			if grp.ElementMap != nil {
				mapIndex = fileIndex[grp.ElementMap]
			}
			fmt.Fprintf(w, "%d %d %d %d %d %s 0", grp.IndexedName.Index, grp.Offset, grp.Count, grp.Tag, mapIndex, grp.Postfix)
			for _, sid := range markedSIDs(grp.SIDs, hasher) {
				fmt.Fprintf(w, ".%d", sid.Value)
			}
			fmt.Fprint(w, "\n")
		}

		fmt.Fprintf(w, "\nNameCount %d\n", len(bucket.chains))
		for _, chain := range bucket.chains {
			for _, ref := range chain {
				fmt.Fprint(w, refToken(ref, table, hasher), " ")
			}
			fmt.Fprint(w, "0\n")
		}
	}

	fmt.Fprint(w, "\nEndMap\n")
	return nil
}

// refToken renders one MappedNameRef as "<namespec>.<postfixIndex>[.sid]*"
// in hex, per spec §6.2.
func refToken(ref MappedNameRef, table *postfixTable, hasher geohost.StringHasher) string {
	var b strings.Builder

	data := ref.Name.Data()
	idx := ref.Name.DataIndexedName()
	typeIdx, typeKnown := 0, false
	if !idx.IsNull() {
		typeIdx, typeKnown = table.index[idx.Type]
	}
	marked := markedSIDs(ref.SIDs, hasher)

	switch {
	case typeKnown:
		fmt.Fprintf(&b, ":%x.%x", typeIdx, idx.Index)
	case isStringIDLiteral(data, marked):
		fmt.Fprintf(&b, "$%s", data)
	default:
		fmt.Fprintf(&b, ";%s", data)
	}

	postfix := ref.Name.Postfix()
	if postfix == "" {
		b.WriteString(".0")
	} else {
		fmt.Fprintf(&b, ".%x", table.index[postfix])
	}

	for _, sid := range marked {
		fmt.Fprintf(&b, ".%x", sid.Value)
	}

	return b.String()
}

// isStringIDLiteral reports whether data is itself the textual encoding
// of one of the ref's marked sids ("#<decimal id>"), the original's
// StringID::fromString check against sid.isMarked(). When it matches,
// the compact "$" marker lets restore recover the same literal bytes
// without a separate lookup, per spec §6.2's third namespec form.
func isStringIDLiteral(data string, sids []geohost.StringID) bool {
	if len(data) < 2 || data[0] != '#' {
		return false
	}
	n, err := strconv.ParseInt(data[1:], 10, 64)
	if err != nil {
		return false
	}
	for _, sid := range sids {
		if sid.Value == n {
			return true
		}
	}
	return false
}

// markedSIDs filters sids down to the ones hasher reports as its own —
// the only ones safe to persist verbatim, per spec §6.1 and §7's
// "hasher miss" handling. This inlines the original's separate
// beforeSave marking pass: since our StringID carries no mutable mark
// bit, checking IsFromSameHasher at write time is equivalent.
func markedSIDs(sids []geohost.StringID, hasher geohost.StringHasher) []geohost.StringID {
	if hasher == nil {
		return nil
	}
	out := make([]geohost.StringID, 0, len(sids))
	for _, sid := range sids {
		if hasher.IsFromSameHasher(sid) {
			out = append(out, sid)
		}
	}
	return out
}
