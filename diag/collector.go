package diag

import "sync"

// Collector accumulates [Issue] values raised over the course of one
// save, restore, or child-element composition call.
//
// The zero Collector is ready to use. A Collector is safe for
// concurrent use; elementmap's public entry points hold the map's own
// lock for the duration of an operation, but the Collector adds its own
// narrower lock so a future caller fanning out sub-operations across
// goroutines does not have to reason about it separately.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

// Add records issue.
func (c *Collector) Add(issue Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, issue)
}

// Warning is a convenience for Add(NewIssue(Warning, code, offset, message, details...)).
func (c *Collector) Warning(code Code, offset int, message string, details ...Detail) {
	c.Add(NewIssue(Warning, code, offset, message, details...))
}

// Issues returns a copy of every issue collected so far, in collection
// order.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Issue, len(c.issues))
	copy(cp, c.issues)
	return cp
}

// HasFatal reports whether any collected issue is [Fatal].
func (c *Collector) HasFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, i := range c.issues {
		if i.severity.IsFatal() {
			return true
		}
	}
	return false
}

// Len returns the number of collected issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}
