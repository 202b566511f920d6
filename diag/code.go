package diag

// Category groups related codes for filtering and reporting.
type Category string

const (
	// CategoryStream covers save/restore stream-format issues: unexpected
	// tokens, short reads, wrong keywords.
	CategoryStream Category = "stream"
	// CategorySemantic covers semantic consistency issues: negative
	// counts, out-of-range offsets, forward map references.
	CategorySemantic Category = "semantic"
	// CategoryHasher covers string-hasher interaction issues.
	CategoryHasher Category = "hasher"
	// CategoryChildMap covers child-element-group composition issues.
	CategoryChildMap Category = "childmap"
	// CategoryCodec covers tag-postfix codec issues.
	CategoryCodec Category = "codec"
)

// Code is a stable, programmatic diagnostic identifier of the form
// "<category>.<name>".
type Code struct {
	Category Category
	Name     string
}

// IsZero reports whether c is the zero Code.
func (c Code) IsZero() bool {
	return c.Category == "" && c.Name == ""
}

// String renders c as "<category>.<name>".
func (c Code) String() string {
	if c.IsZero() {
		return ""
	}
	return string(c.Category) + "." + c.Name
}

// The stable diagnostic codes this module raises. Each is documented
// with the severity it is always raised at, per spec §7.
var (
	// CodeMalformedStream: unexpected token, short read, or wrong
	// keyword while reading a save stream. Fatal.
	CodeMalformedStream = Code{CategoryStream, "malformed"}

	// CodeNegativeCount: a count field (PostfixCount, ChildCount,
	// NameCount, MapCount, child count) decoded as negative. Fatal.
	CodeNegativeCount = Code{CategorySemantic, "negative-count"}

	// CodeForwardMapReference: a child block's mapIndex references a
	// map index not less than the current map's own index. Fatal.
	CodeForwardMapReference = Code{CategorySemantic, "forward-map-reference"}

	// CodeOutOfRangePostfixIndex: a name ref's postfix index exceeds the
	// deduplicated postfix table's bounds. Warning; the postfix is
	// omitted and restore continues.
	CodeOutOfRangePostfixIndex = Code{CategorySemantic, "out-of-range-postfix-index"}

	// CodeHasherMiss: a referenced string id is not known to the current
	// hasher. Warning.
	CodeHasherMiss = Code{CategoryHasher, "miss"}

	// CodeDuplicateChildMapCollision: after disambiguation, two child
	// groups still collide on the same childElements key; the colliding
	// group is dropped. The same code is also raised when an empty or
	// zero-count group is skipped and when the host fails to encode or
	// set a name while a group is composed. Warning.
	CodeDuplicateChildMapCollision = Code{CategoryChildMap, "duplicate-collision"}

	// CodeCodecMalformed: a name being inserted contains '#' but no tag
	// postfix is discoverable by the codec. Warning; insertion proceeds.
	CodeCodecMalformed = Code{CategoryCodec, "malformed"}

	// CodeUnmappedElement: a lookup found no mapping for the requested
	// name or element. Warning; callers treat this as "not found".
	CodeUnmappedElement = Code{CategorySemantic, "unmapped-element"}

	// CodeNonNormalizedText: a name being inserted is not in Unicode NFC
	// normal form. Warning; insertion proceeds with the name as given,
	// since re-normalizing it here would silently change the bytes a
	// caller may already have persisted elsewhere.
	CodeNonNormalizedText = Code{CategoryCodec, "non-normalized-text"}
)
