// Package geohost declares the collaborator interfaces an [ElementMap]
// consumes from its owning geometry kernel: a shape that can encode and
// register element names, and a string-interning service used to keep
// save files small.
//
// These are the Go analogues of ComplexGeoData and StringHasher from
// the original kernel (spec §6.1). An ElementMap never constructs a
// GeometryHost or StringHasher itself; both are injected by the owner
// of the shape, typically once per document.
package geohost

import (
	"golang.org/x/text/unicode/norm"

	"github.com/kerneltopo/topomap/indexedname"
)

// StringID is an interned reference into a [StringHasher]'s table.
type StringID struct {
	// Value is the hasher-assigned integer id. Zero means "no id".
	Value int64
}

// IsZero reports whether id carries no hasher reference.
func (id StringID) IsZero() bool {
	return id.Value == 0
}

// StringHasher interns variable-length strings into small integer ids
// so that repeated long names need not be written out in full on every
// save.
type StringHasher interface {
	// GetID returns the interned id for the given string, creating an
	// entry if one does not already exist.
	GetID(s string) StringID
	// LookupText returns the text interned under id, if this hasher
	// knows it.
	LookupText(id StringID) (string, bool)
	// IsFromSameHasher reports whether id was minted by this hasher
	// instance, as opposed to one read back from a different document's
	// save file. Only ids from the same hasher are safe to persist
	// as-is during save.
	IsFromSameHasher(id StringID) bool
}

// GeometryHost is the owning shape's view exposed to an [ElementMap].
// It supplies the constants and callbacks the map needs to encode
// parent-space names for child-element groups and to report newly
// composed names back to the kernel.
type GeometryHost interface {
	// ElementMapPrefix is the fixed marker bytes used to recognize
	// whether a literal name has already been produced by this naming
	// subsystem (spec §4.2's "data must not begin with elementMapPrefix").
	ElementMapPrefix() string
	// TagPostfix is the fixed prefix marking a tag-postfix segment, used
	// by the codec together with the hex/decimal sub-forms.
	TagPostfix() string
	// Tag identifies the modeling operation or shape that owns this
	// geometry, written into generated child-element postfixes.
	Tag() int64
	// Hasher returns the string-interning service for this shape's
	// document, or nil if none is attached.
	Hasher() StringHasher

	// EncodeElementName composes a full parent-space name for element
	// from the given base postfix and child tag, appending the result
	// to sids if any new string ids were minted. sids may be nil.
	EncodeElementName(element indexedname.Name, postfix string, tag int64, sids *[]StringID) (string, error)
	// SetElementName registers name as an alternative mapped name for
	// element, typically so later lookups by literal name resolve back
	// to it. sids may be nil.
	SetElementName(element indexedname.Name, name string, sids []StringID) error

	// HashElementName re-encodes a long literal postfix through the
	// hasher, returning a shorter equivalent segment for
	// [ElementMap.HashChildMaps]'s compaction pass.
	HashElementName(postfix string) (string, error)
}

// NormalizeText returns s in Unicode NFC normal form. Literal element
// names enter an ElementMap straight from whatever text the calling
// application supplied (a label, an imported filename segment); two
// byte-distinct encodings of the same visible name must not be treated
// as different MappedNames, so callers at the document boundary
// normalize before handing data to AddName.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}
