package elementmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kerneltopo/topomap/diag"
	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/mappedname"
	"github.com/kerneltopo/topomap/savectx"
)

// tokenReader reads whitespace-delimited tokens from a stream, the Go
// analogue of the original's `std::istream& operator>>`: runs of
// spaces and newlines are equivalent separators.
type tokenReader struct {
	sc     *bufio.Scanner
	offset int
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	tok := t.sc.Text()
	t.offset += len(tok) + 1
	return tok, nil
}

func (t *tokenReader) expect(word string) error {
	tok, err := t.next()
	if err != nil {
		return err
	}
	if tok != word {
		return fmt.Errorf("elementmap: restore: expected %q, got %q", word, tok)
	}
	return nil
}

func (t *tokenReader) nextInt() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("elementmap: restore: expected integer, got %q: %w", tok, err)
	}
	return n, nil
}

// Restore reads one save stream written by [Save], rebuilding the full
// map graph. ctx deduplicates maps already restored under the same
// `_id` within the session; hasher resolves persisted string ids back
// to [geohost.StringID] values. Fatal format and consistency errors
// abort the whole restore per spec §7; degradable conditions (a hasher
// miss, an out-of-range postfix index) are recorded on collector and
// restore continues: a name with an invalid postfix index is restored
// without that postfix, and a string id unknown to hasher is kept as
// read.
func Restore(r io.Reader, ctx *savectx.RestoreContext, hasher geohost.StringHasher, collector *diag.Collector) (*ElementMap, error) {
	t := newTokenReader(r)

	id, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading PostfixCount id", t, err)
	}
	if err := t.expect("PostfixCount"); err != nil {
		return nil, fatal(diag.CodeMalformedStream, "expected PostfixCount", t, err)
	}
	count, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading PostfixCount", t, err)
	}
	if count < 0 {
		return nil, fatal(diag.CodeNegativeCount, "PostfixCount", t, nil)
	}
	if existing, ok := ctx.Lookup(id); ok {
		return existing.(*ElementMap), nil
	}

	postfixes := make([]string, count)
	for i := range postfixes {
		tok, err := t.next()
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "reading postfix table entry", t, err)
		}
		postfixes[i] = tok
	}

	if err := t.expect("MapCount"); err != nil {
		return nil, fatal(diag.CodeMalformedStream, "expected MapCount", t, err)
	}
	mapCount, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading MapCount", t, err)
	}
	if mapCount <= 0 {
		return nil, fatal(diag.CodeNegativeCount, "MapCount", t, nil)
	}

	childMaps := make([]*ElementMap, 0, mapCount)
	var root *ElementMap
	for i := 0; i < mapCount; i++ {
		m, err := restoreBlock(t, ctx, hasher, collector, postfixes, childMaps)
		if err != nil {
			return nil, err
		}
		childMaps = append(childMaps, m)
		root = m
	}

	ctx.Register(id, root)
	return root, nil
}

func restoreBlock(t *tokenReader, ctx *savectx.RestoreContext, hasher geohost.StringHasher, collector *diag.Collector, postfixes []string, childMaps []*ElementMap) (*ElementMap, error) {
	if err := t.expect("ElementMap"); err != nil {
		return nil, fatal(diag.CodeMalformedStream, "expected ElementMap", t, err)
	}
	index, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading map index", t, err)
	}
	id, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading map id", t, err)
	}
	typeCount, err := t.nextInt()
	if err != nil {
		return nil, fatal(diag.CodeMalformedStream, "reading typeCount", t, err)
	}
	if typeCount < 0 {
		return nil, fatal(diag.CodeNegativeCount, "typeCount", t, nil)
	}

	if existing, ok := ctx.Lookup(id); ok {
		if err := skipToEndMap(t); err != nil {
			return nil, fatal(diag.CodeMalformedStream, "skipping duplicate map body", t, err)
		}
		return existing.(*ElementMap), nil
	}

	m := New(nil)

	for i := 0; i < typeCount; i++ {
		typ, err := t.next()
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "reading element type", t, err)
		}
		bucket := m.bucket(typ)

		if err := t.expect("ChildCount"); err != nil {
			return nil, fatal(diag.CodeMalformedStream, "expected ChildCount", t, err)
		}
		childCount, err := t.nextInt()
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "reading ChildCount", t, err)
		}
		if childCount < 0 {
			return nil, fatal(diag.CodeNegativeCount, "ChildCount", t, nil)
		}

		for j := 0; j < childCount; j++ {
			grp, err := restoreChild(t, index, childMaps, typ, collector, hasher)
			if err != nil {
				return nil, err
			}
			bucket.children.Set(grp.upperBound(), grp)
			m.childElements[grp.Postfix] = &childMapInfo{group: grp}
			m.childElementSize += grp.Count
		}

		if err := t.expect("NameCount"); err != nil {
			return nil, fatal(diag.CodeMalformedStream, "expected NameCount", t, err)
		}
		nameCount, err := t.nextInt()
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "reading NameCount", t, err)
		}
		if nameCount < 0 {
			return nil, fatal(diag.CodeNegativeCount, "NameCount", t, nil)
		}
		bucket.ensureLen(nameCount - 1)
		if nameCount > 0 {
			bucket.chains = bucket.chains[:nameCount]
		}

		for j := 0; j < nameCount; j++ {
			chain, err := restoreChain(t, postfixes, indexedname.New(typ, j), hasher, collector)
			if err != nil {
				return nil, err
			}
			bucket.chains[j] = chain
			for _, ref := range chain {
				m.mappedNames.Set(ref.Name, indexedname.New(typ, j))
			}
		}
	}

	if err := t.expect("EndMap"); err != nil {
		return nil, fatal(diag.CodeMalformedStream, "expected EndMap", t, err)
	}

	ctx.Register(id, m)
	return m, nil
}

func restoreChild(t *tokenReader, mapIndex int, childMaps []*ElementMap, typ string, collector *diag.Collector, hasher geohost.StringHasher) (ChildElementGroup, error) {
	cindex, err := t.nextInt()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child index", t, err)
	}
	offset, err := t.nextInt()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child offset", t, err)
	}
	if offset < 0 {
		return ChildElementGroup{}, fatal(diag.CodeNegativeCount, "child offset", t, nil)
	}
	count, err := t.nextInt()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child count", t, err)
	}
	if count < 0 {
		return ChildElementGroup{}, fatal(diag.CodeNegativeCount, "child count", t, nil)
	}
	tag, err := t.nextInt()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child tag", t, err)
	}
	childMapIndex, err := t.nextInt()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child mapIndex", t, err)
	}
	if childMapIndex < 0 || childMapIndex >= mapIndex {
		return ChildElementGroup{}, fatal(diag.CodeForwardMapReference, "child mapIndex", t, nil)
	}
	postfix, err := t.next()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child postfix", t, err)
	}
	sidTok, err := t.next()
	if err != nil {
		return ChildElementGroup{}, fatal(diag.CodeMalformedStream, "reading child sid list", t, err)
	}

	grp := ChildElementGroup{
		IndexedName: indexedname.New(typ, cindex),
		Offset:      offset,
		Count:       count,
		Tag:         int64(tag),
		Postfix:     postfix,
	}
	if childMapIndex > 0 {
		if childMapIndex > len(childMaps) {
			return ChildElementGroup{}, fatal(diag.CodeForwardMapReference, "child mapIndex out of range", t, nil)
		}
		grp.ElementMap = childMaps[childMapIndex-1]
	}

	// Child sids are decimal — a preserved quirk of the original format
	// (spec §6.2's note); every other integer in this record is decimal
	// too, so only the list's separator convention ("0[.sid]*") is
	// unusual.
	grp.SIDs = parseSIDList(sidTok, 10, hasher, collector)

	return grp, nil
}

func restoreChain(t *tokenReader, postfixes []string, idx indexedname.Name, hasher geohost.StringHasher, collector *diag.Collector) ([]MappedNameRef, error) {
	var chain []MappedNameRef
	for {
		tok, err := t.next()
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "reading name ref", t, err)
		}
		if tok == "0" {
			return chain, nil
		}
		ref, err := parseRefToken(tok, postfixes, hasher, collector)
		if err != nil {
			return nil, fatal(diag.CodeMalformedStream, "parsing name ref", t, err)
		}
		chain = append(chain, ref)
	}
}

func parseRefToken(tok string, postfixes []string, hasher geohost.StringHasher, collector *diag.Collector) (MappedNameRef, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return MappedNameRef{}, fmt.Errorf("invalid element entry %q", tok)
	}

	var name mappedname.Name
	offset := 1
	switch parts[0][0] {
	case ':':
		if len(parts) < 3 {
			return MappedNameRef{}, fmt.Errorf("invalid indexed element entry %q", tok)
		}
		offset++
		n, err := strconv.ParseInt(parts[0][1:], 16, 64)
		if err != nil || n <= 0 || int(n) > len(postfixes) {
			return MappedNameRef{}, fmt.Errorf("invalid element name type index in %q", tok)
		}
		m, err := strconv.ParseInt(parts[1], 16, 64)
		if err != nil {
			return MappedNameRef{}, fmt.Errorf("invalid element index in %q", tok)
		}
		name = mappedname.FromIndexedName(indexedname.New(postfixes[n-1], int(m)))
	case '$', ';':
		name = mappedname.New(parts[0][1:], "")
	default:
		return MappedNameRef{}, fmt.Errorf("invalid element name marker in %q", tok)
	}

	if parts[offset] != "0" {
		n, err := strconv.ParseInt(parts[offset], 16, 64)
		if err != nil || n <= 0 || int(n) > len(postfixes) {
			if collector != nil {
				collector.Warning(diag.CodeOutOfRangePostfixIndex, -1, "invalid element postfix index", diag.Detail{Key: "token", Value: tok})
			}
		} else {
			name.Append(postfixes[n-1])
		}
	}

	sids := make([]geohost.StringID, 0, len(parts)-offset-1)
	for _, p := range parts[offset+1:] {
		n, err := strconv.ParseInt(p, 16, 64)
		if err != nil {
			continue
		}
		sids = append(sids, resolveSID(n, hasher, collector))
	}

	return MappedNameRef{Name: name, SIDs: sids}, nil
}

func parseSIDList(tok string, base int, hasher geohost.StringHasher, collector *diag.Collector) []geohost.StringID {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return nil
	}
	sids := make([]geohost.StringID, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.ParseInt(p, base, 64)
		if err != nil {
			continue
		}
		sids = append(sids, resolveSID(n, hasher, collector))
	}
	return sids
}

func resolveSID(value int64, hasher geohost.StringHasher, collector *diag.Collector) geohost.StringID {
	id := geohost.StringID{Value: value}
	if hasher != nil {
		if _, ok := hasher.LookupText(id); !ok && collector != nil {
			collector.Warning(diag.CodeHasherMiss, -1, "string id not known to hasher", diag.Detail{Key: "id", Value: strconv.FormatInt(value, 10)})
		}
	}
	return id
}

func skipToEndMap(t *tokenReader) error {
	for {
		tok, err := t.next()
		if err != nil {
			return err
		}
		if tok == "EndMap" {
			return nil
		}
	}
}

func fatal(code diag.Code, message string, t *tokenReader, cause error) error {
	msg := message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", message, cause)
	}
	return diag.NewIssue(diag.Fatal, code, t.offset, msg)
}
