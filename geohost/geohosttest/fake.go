// Package geohosttest provides fakes of the [geohost] collaborator
// interfaces for use by other packages' tests.
package geohosttest

import (
	"fmt"
	"sync"

	"github.com/kerneltopo/topomap/geohost"
	"github.com/kerneltopo/topomap/indexedname"
)

// Hasher is an in-memory [geohost.StringHasher] fake. The zero value is
// ready to use.
type Hasher struct {
	mu     sync.Mutex
	byText map[string]geohost.StringID
	byID   map[int64]string
	next   int64
}

// GetID implements [geohost.StringHasher].
func (h *Hasher) GetID(s string) geohost.StringID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byText == nil {
		h.byText = make(map[string]geohost.StringID)
	}
	if id, ok := h.byText[s]; ok {
		return id
	}
	h.next++
	id := geohost.StringID{Value: h.next}
	h.byText[s] = id
	h.byIDMap()[id.Value] = s
	return id
}

func (h *Hasher) byIDMap() map[int64]string {
	if h.byID == nil {
		h.byID = make(map[int64]string)
	}
	return h.byID
}

// LookupText implements [geohost.StringHasher].
func (h *Hasher) LookupText(id geohost.StringID) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.byIDMap()[id.Value]
	return s, ok
}

// IsFromSameHasher implements [geohost.StringHasher]. This fake treats
// every non-zero id it has ever minted as its own.
func (h *Hasher) IsFromSameHasher(id geohost.StringID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byIDMap()[id.Value]
	return ok
}

// Host is an in-memory [geohost.GeometryHost] fake. Set the exported
// fields directly, or use [NewHost] for sensible defaults.
type Host struct {
	Prefix       string
	PostfixConst string
	ShapeTag     int64
	HasherImpl   *Hasher

	mu        sync.Mutex
	encodeErr error
	setErr    error
	names     map[string]string // element.String() -> last set name
}

// NewHost returns a Host with the conventional prefix/postfix markers
// used throughout this module's tests (";g" and ";:", matching the
// example in spec §8 S2) and a fresh [Hasher].
func NewHost() *Host {
	return &Host{
		Prefix:       ";g",
		PostfixConst: ";:",
		HasherImpl:   &Hasher{},
		names:        make(map[string]string),
	}
}

// ElementMapPrefix implements [geohost.GeometryHost].
func (h *Host) ElementMapPrefix() string { return h.Prefix }

// TagPostfix implements [geohost.GeometryHost].
func (h *Host) TagPostfix() string { return h.PostfixConst }

// Tag implements [geohost.GeometryHost].
func (h *Host) Tag() int64 { return h.ShapeTag }

// Hasher implements [geohost.GeometryHost].
func (h *Host) Hasher() geohost.StringHasher {
	if h.HasherImpl == nil {
		return nil
	}
	return h.HasherImpl
}

// FailEncodeWith makes subsequent EncodeElementName calls return err.
func (h *Host) FailEncodeWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.encodeErr = err
}

// FailSetWith makes subsequent SetElementName calls return err.
func (h *Host) FailSetWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setErr = err
}

// EncodeElementName implements [geohost.GeometryHost]. The fake
// encoding is deterministic and human-readable: "<type><index><postfix>"
// (the index is omitted when it is 0, as in [indexedname.Name.String])
// with a minted string id recorded for the postfix when sids is non-nil.
func (h *Host) EncodeElementName(element indexedname.Name, postfix string, tag int64, sids *[]geohost.StringID) (string, error) {
	h.mu.Lock()
	err := h.encodeErr
	h.mu.Unlock()
	if err != nil {
		return "", err
	}
	if sids != nil && postfix != "" && h.HasherImpl != nil {
		*sids = append(*sids, h.HasherImpl.GetID(postfix))
	}
	return fmt.Sprintf("%s%s", element.String(), postfix), nil
}

// SetElementName implements [geohost.GeometryHost].
func (h *Host) SetElementName(element indexedname.Name, name string, sids []geohost.StringID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.setErr != nil {
		return h.setErr
	}
	if h.names == nil {
		h.names = make(map[string]string)
	}
	h.names[element.String()] = name
	return nil
}

// LastSetName returns the most recent name passed to SetElementName for
// element, if any.
func (h *Host) LastSetName(element indexedname.Name) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.names[element.String()]
	return s, ok
}

// HashElementName implements [geohost.GeometryHost]. The fake simply
// interns postfix through its Hasher and returns a short "#<id>" form.
func (h *Host) HashElementName(postfix string) (string, error) {
	if h.HasherImpl == nil {
		return postfix, nil
	}
	id := h.HasherImpl.GetID(postfix)
	return fmt.Sprintf("#%d", id.Value), nil
}

var _ geohost.GeometryHost = (*Host)(nil)
var _ geohost.StringHasher = (*Hasher)(nil)
