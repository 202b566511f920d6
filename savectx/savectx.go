// Package savectx provides explicit save and restore contexts for a
// graph of shared ElementMaps.
//
// The original kernel keeps two process-wide tables (a save-id table
// and a restore-id table) wired to document open/close signals. Spec
// §9's design notes flag that as a concession to the host document
// model and recommend an explicit context object instead; this package
// is that context, constructed once per save or restore call and
// threaded through the API rather than kept in a package-level global.
package savectx

import (
	"sync"

	"github.com/google/uuid"
)

// SaveContext assigns a dense, one-based id to every distinct map
// reached while saving a graph, and reports whether a map has already
// been assigned one — the save-time de-duplication oracle (spec §9:
// "the id-assignment step is also the de-duplication oracle").
//
// A SaveContext is single-use: create one per top-level Save call. Its
// methods are safe for concurrent use, though elementmap's save walk is
// single-threaded by design (spec §9 open question (b)).
type SaveContext struct {
	// SessionID is a random identifier unique to this context,
	// independent of which ElementMap instance is being walked. The
	// library itself neither logs nor persists it.
	SessionID string

	mu   sync.Mutex
	ids  map[any]int
	next int
}

// NewSaveContext returns a fresh, empty SaveContext.
func NewSaveContext() *SaveContext {
	return &SaveContext{
		SessionID: uuid.NewString(),
		ids:       make(map[any]int),
		next:      1,
	}
}

// AssignID returns the id for key (typically a *elementmap.ElementMap),
// assigning a new one if key has not been seen by this context before.
// alreadyAssigned reports whether key already had an id, so the caller can skip
// re-serializing a map it has already written.
func (c *SaveContext) AssignID(key any) (id int, alreadyAssigned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[key]; ok {
		return id, true
	}
	id = c.next
	c.next++
	c.ids[key] = id
	return id, false
}

// LookupID returns the id previously assigned to key, if any.
func (c *SaveContext) LookupID(key any) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[key]
	return id, ok
}

// RestoreContext deduplicates maps read back from a save stream: the
// first time an `_id` is encountered, the caller deserializes the map
// body and registers the result; every subsequent occurrence of the
// same `_id` reuses the registered instance without re-parsing (spec
// §6.3).
type RestoreContext struct {
	SessionID string

	mu   sync.Mutex
	maps map[int]any
}

// NewRestoreContext returns a fresh, empty RestoreContext.
func NewRestoreContext() *RestoreContext {
	return &RestoreContext{
		SessionID: uuid.NewString(),
		maps:      make(map[int]any),
	}
}

// Lookup returns the map registered under id, if any.
func (c *RestoreContext) Lookup(id int) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.maps[id]
	return m, ok
}

// Register associates id with m. Calling Register twice for the same id
// overwrites the previous association; callers should always check
// [RestoreContext.Lookup] first per the partial-skip protocol in spec §6.3.
func (c *RestoreContext) Register(id int, m any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maps[id] = m
}
