package diag

import "fmt"

// Detail is a single key-value annotation attached to an [Issue], for
// structured context a log line or caller can pick apart without
// parsing the message (e.g. {"mapIndex", "3"}).
type Detail struct {
	Key   string
	Value string
}

// Issue is a single diagnostic raised while inserting a name, or while
// saving or restoring an ElementMap graph.
//
// Issue is immutable after construction; build one with [NewIssue].
type Issue struct {
	severity Severity
	code     Code
	message  string
	offset   int // byte offset into the stream, or -1 if not applicable
	details  []Detail
}

// NewIssue constructs an Issue. offset is the byte position within the
// stream being read or written, or -1 when the issue has no stream
// position (e.g. during in-memory name insertion).
func NewIssue(severity Severity, code Code, offset int, message string, details ...Detail) Issue {
	return Issue{
		severity: severity,
		code:     code,
		message:  message,
		offset:   offset,
		details:  append([]Detail(nil), details...),
	}
}

// Severity returns the issue's severity.
func (i Issue) Severity() Severity { return i.severity }

// Code returns the issue's stable programmatic identifier.
func (i Issue) Code() Code { return i.code }

// Message returns the human-readable description.
func (i Issue) Message() string { return i.message }

// Offset returns the byte offset in the stream this issue pertains to,
// or -1 if none.
func (i Issue) Offset() int { return i.offset }

// HasOffset reports whether the issue carries a stream byte offset.
func (i Issue) HasOffset() bool { return i.offset >= 0 }

// Details returns a copy of the issue's key-value annotations.
func (i Issue) Details() []Detail {
	if len(i.details) == 0 {
		return nil
	}
	cp := make([]Detail, len(i.details))
	copy(cp, i.details)
	return cp
}

// Error implements the error interface so a Fatal Issue can be returned
// directly from save/restore.
func (i Issue) Error() string {
	if i.HasOffset() {
		return fmt.Sprintf("%s: %s (at byte %d)", i.code, i.message, i.offset)
	}
	return fmt.Sprintf("%s: %s", i.code, i.message)
}
