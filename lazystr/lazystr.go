// Package lazystr provides a copy-on-write string buffer.
//
// [String] is the Go analogue of the C++ Lazy<std::string> used by the
// original kernel's MappedName: a handle to a shared, reference-counted
// buffer plus an ownership flag. Copying a String with [Share] is a
// pointer copy and a flag flip, never a string copy. The first mutating
// access after such a copy clones the buffer so earlier copies keep
// observing their original bytes. A plain Go assignment copies the
// ownership flag too, so both handles then write to the same buffer.
//
// String deliberately exposes no implicit mutable dereference. Every
// access is either [String.Value] (never copies) or [String.Mutable]
// (copies exactly once, on the first call after a share). This mirrors
// the asConst()/asMutable() split of the source: the original design
// note is that an implicit conversion which silently copies on read is a
// bug, not a convenience.
package lazystr

// String is a copy-on-write handle to a string buffer.
//
// The zero value is a valid, empty, owned String. String is not safe
// for concurrent mutation of the same handle from multiple goroutines;
// concurrent reads are fine, as is passing independent copies to
// different goroutines.
type String struct {
	buf   *string
	owner bool
}

// New returns a String that owns a fresh copy of s.
func New(s string) String {
	v := s
	return String{buf: &v, owner: true}
}

// Share returns a String that shares other's buffer.
//
// Share is the copy-on-write entry point: the returned String observes
// other's bytes until its first [String.Mutable] call, at which point it
// clones the buffer and diverges. other is left untouched.
func Share(other String) String {
	if other.buf == nil {
		return New("")
	}
	return String{buf: other.buf, owner: false}
}

// HasLocalCopy reports whether this handle owns a private copy of its
// buffer, i.e. whether a further [String.Mutable] call can write without
// cloning. The zero value, which shares no buffer, reports true.
func (s String) HasLocalCopy() bool {
	return s.owner || s.buf == nil
}

// Value returns the current bytes without copying the buffer.
//
// Safe to call on the zero value.
func (s String) Value() string {
	if s.buf == nil {
		return ""
	}
	return *s.buf
}

// Len returns len(s.Value()) without materializing a copy.
func (s String) Len() int {
	if s.buf == nil {
		return 0
	}
	return len(*s.buf)
}

// Mutable returns a pointer into a buffer this handle exclusively owns,
// cloning the shared buffer on first use if necessary.
//
// Every write through the returned pointer is visible to subsequent
// calls on this same handle, but never to handles obtained via [Share]
// before this call.
func (s *String) Mutable() *string {
	s.createLocalCopy()
	return s.buf
}

// Set replaces the buffer's contents, always taking ownership (matching
// the original's "assigning from a raw string always owns" rule).
func (s *String) Set(v string) {
	fresh := v
	s.buf = &fresh
	s.owner = true
}

// Append appends v to the buffer, cloning first if the buffer is shared.
func (s *String) Append(v string) {
	m := s.Mutable()
	*m += v
}

func (s *String) createLocalCopy() {
	if s.buf == nil {
		empty := ""
		s.buf = &empty
		s.owner = true
		return
	}
	if s.owner {
		return
	}
	clone := *s.buf
	s.buf = &clone
	s.owner = true
}
