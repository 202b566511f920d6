// Package mappedname implements [Name], the two-segment textual name
// that tracks a topological element across a chain of modeling
// operations.
//
// A Name is logically one byte string split into an effectively
// immutable leading "data" segment and a mutable trailing "postfix"
// segment. Equality, ordering, hashing, indexing and size all operate
// on the concatenation of the two segments: two Names built through
// different constructors but with equal concatenated bytes compare
// equal. The bytes live in a [lazystr.String] so that copying a Name is
// cheap and mutating one copy never disturbs another.
package mappedname

import (
	"strings"

	"github.com/kerneltopo/topomap/indexedname"
	"github.com/kerneltopo/topomap/lazystr"
)

// Name is a two-segment mapped name. The zero Name is empty: it has no
// data, no postfix, and Empty() is true.
type Name struct {
	buf          lazystr.String
	postfixStart int
}

// New builds a Name from raw bytes. If raw begins with prefix, prefix is
// stripped before storage (prefix is typically a geometry host's
// ElementMapPrefix). The whole remaining string becomes "data"; the
// postfix starts empty.
func New(raw string, prefix string) Name {
	if prefix != "" && strings.HasPrefix(raw, prefix) {
		raw = raw[len(prefix):]
	}
	n := Name{buf: lazystr.New(raw)}
	n.postfixStart = n.buf.Len()
	return n
}

// FromIndexedName builds a Name encoding an element's type tag and,
// when the index is positive, its decimal index (e.g. ("Face", 3) ->
// "Face3"; ("Face", 0) -> "Face"). The postfix starts empty.
func FromIndexedName(e indexedname.Name) Name {
	data := e.Type
	if e.Index > 0 {
		data = e.String()
	}
	n := Name{buf: lazystr.New(data)}
	n.postfixStart = n.buf.Len()
	return n
}

// Sub builds a Name from the subrange other.data||other.postfix
// [start:start+length), sharing other's buffer until mutated. A length
// of -1 means "to the end".
//
// If start falls at or before other's postfix boundary, the new Name's
// own postfix boundary is placed at the corresponding offset; otherwise
// (the subrange starts inside the old postfix) the whole new Name is
// postfix-free "data", matching the append() semantics in the source.
func Sub(other Name, start, length int) Name {
	var n Name
	n.AppendName(other, start, length)
	return n
}

// WithPostfix returns a Name whose data is other's full concatenated
// bytes and whose postfix is the given literal bytes.
func WithPostfix(other Name, postfix string) Name {
	n := Name{buf: lazystr.Share(other.buf)}
	n.postfixStart = other.Size()
	n.buf.Append(postfix)
	return n
}

// Clear resets n to the empty Name.
func (n *Name) Clear() {
	n.buf = lazystr.String{}
	n.postfixStart = 0
}

// Append appends raw bytes to n's postfix. If n was empty, the newly
// appended bytes become n's entire "data" instead (postfixStart moves to
// the end), matching the constructor-from-empty rule in the source.
func (n *Name) Append(raw string) {
	wasEmpty := n.Size() == 0
	n.buf = lazystr.Share(n.buf) // detach from buffers shared with copies of n
	n.buf.Append(raw)
	if wasEmpty {
		n.postfixStart = n.buf.Len()
	}
}

// AppendName appends the subrange other.data||other.postfix[start:start+length)
// to n. A length of -1 means "to the end". If n was empty before the
// call and start falls at or before other's postfix boundary, n's own
// postfix boundary is set to the corresponding offset into the appended
// slice; otherwise the appended bytes are entirely "data".
func (n *Name) AppendName(other Name, start, length int) {
	full := other.String()
	if start > len(full) {
		start = len(full)
	}
	end := len(full)
	if length >= 0 && start+length < end {
		end = start + length
	}
	slice := full[start:end]

	wasEmpty := n.Size() == 0
	n.buf = lazystr.Share(n.buf) // detach from buffers shared with copies of n
	n.buf.Append(slice)
	if wasEmpty && other.postfixStart >= start {
		n.postfixStart = other.postfixStart - start
	} else if wasEmpty {
		n.postfixStart = n.buf.Len()
	}
}

// PlusPostfix returns n with raw appended to its postfix, leaving n
// unmodified.
func (n Name) PlusPostfix(raw string) Name {
	res := n
	res.Append(raw)
	return res
}

// Plus returns the concatenation of n and other: n's data, with other's
// full bytes appended to n's postfix.
func (n Name) Plus(other Name) Name {
	res := n
	res.AppendName(other, 0, -1)
	return res
}

// String returns the full concatenated bytes: data followed by postfix.
func (n Name) String() string {
	return n.buf.Value()
}

// Data returns the segment before the postfix boundary.
func (n Name) Data() string {
	return n.buf.Value()[:n.postfixStart]
}

// Postfix returns the segment from the postfix boundary to the end.
func (n Name) Postfix() string {
	return n.buf.Value()[n.postfixStart:]
}

// ToIndexedName decodes n's data segment into an [indexedname.Name] if
// n has no postfix and its data matches [A-Za-z_]+[0-9]*. Otherwise it
// returns the zero (null) indexedname.Name.
func (n Name) ToIndexedName() indexedname.Name {
	if n.postfixStart != n.buf.Len() {
		return indexedname.Name{}
	}
	return decodeIndexedName(n.Data())
}

// DataIndexedName decodes n's data segment alone into an
// [indexedname.Name], ignoring any postfix — used by the save encoder,
// which persists data and postfix through separate fields of the
// namespec grammar (spec §6.2).
func (n Name) DataIndexedName() indexedname.Name {
	return decodeIndexedName(n.Data())
}

func decodeIndexedName(data string) indexedname.Name {
	i := 0
	for i < len(data) && isTypeByte(data[i]) {
		i++
	}
	if i == 0 {
		return indexedname.Name{}
	}
	typ := data[:i]
	rest := data[i:]
	if rest == "" {
		return indexedname.New(typ, 0)
	}
	for j := 0; j < len(rest); j++ {
		if rest[j] < '0' || rest[j] > '9' {
			return indexedname.Name{}
		}
	}
	idx := 0
	for j := 0; j < len(rest); j++ {
		idx = idx*10 + int(rest[j]-'0')
	}
	return indexedname.New(typ, idx)
}

func isTypeByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

// Compare performs a byte-by-byte comparison of n and other's full
// concatenated bytes, returning -1, 0, or 1. If one is a byte-for-byte
// prefix of the other, the shorter is "less than" the longer.
func (n Name) Compare(other Name) int {
	return strings.Compare(n.String(), other.String())
}

// Less reports whether n sorts before other; see [Name.Compare].
func (n Name) Less(other Name) bool {
	return n.Compare(other) < 0
}

// Equal reports whether n and other have equal concatenated bytes,
// regardless of where each places its data/postfix boundary.
func (n Name) Equal(other Name) bool {
	return n.String() == other.String()
}

// At returns the byte at index i of the full concatenated bytes.
func (n Name) At(i int) byte {
	return n.buf.Value()[i]
}

// Size returns the length of the full concatenated bytes.
func (n Name) Size() int {
	return n.buf.Len()
}

// Empty reports whether n has no bytes at all.
func (n Name) Empty() bool {
	return n.Size() == 0
}

// Find returns the index of the first occurrence of needle in n's full
// concatenated bytes at or after start, or -1 if not found.
func (n Name) Find(needle string, start int) int {
	full := n.String()
	if start > len(full) {
		return -1
	}
	idx := strings.Index(full[start:], needle)
	if idx < 0 {
		return -1
	}
	return idx + start
}

// RFind returns the index of the last occurrence of needle in n's full
// concatenated bytes, or -1 if not found.
func (n Name) RFind(needle string) int {
	return strings.LastIndex(n.String(), needle)
}

// StartsWith reports whether n's full concatenated bytes, starting at
// offset, begin with needle.
func (n Name) StartsWith(needle string, offset int) bool {
	full := n.String()
	if offset > len(full) {
		return false
	}
	return strings.HasPrefix(full[offset:], needle)
}

// EndsWith reports whether n's full concatenated bytes end with needle.
// A needle may straddle the data/postfix boundary: the two segments are
// one byte array for this purpose.
func (n Name) EndsWith(needle string) bool {
	return strings.HasSuffix(n.String(), needle)
}
