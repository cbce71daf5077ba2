// Package disclosure owns the expanded/collapsed state of rendered nodes.
//
// State is keyed by node path and lives outside the result tree, which is
// never mutated. A node starts expanded when it failed and collapsed when it
// succeeded; the top-level count node is always expanded. A toggle flips a
// node's state and affects no other node.
package disclosure

import (
	"slices"

	"github.com/google/uuid"
)

// Initial returns a node's state before any toggle.
func Initial(ok, forced bool) bool {
	return forced || !ok
}

// Controller records which nodes the user has toggled. Only the flips are
// stored, so a node's state is always Initial(...) adjusted by its flip.
//
// A Controller belongs to one render session and is not safe for concurrent
// writers.
type Controller struct {
	flipped map[string]bool
}

// NewController returns a Controller with no toggles.
func NewController() *Controller {
	return &Controller{flipped: make(map[string]bool)}
}

// Toggle flips the state of the node at key.
func (c *Controller) Toggle(key string) {
	if c.flipped[key] {
		delete(c.flipped, key)
		return
	}
	c.flipped[key] = true
}

// IsOpen reports whether the node at key is expanded. A forced node stays
// expanded whatever its toggles.
func (c *Controller) IsOpen(key string, ok, forced bool) bool {
	if forced {
		return true
	}
	open := Initial(ok, false)
	if c != nil && c.flipped[key] {
		open = !open
	}
	return open
}

// Toggled returns the keys with an odd number of toggles, sorted.
func (c *Controller) Toggled() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.flipped))
	for k := range c.flipped {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IDGenerator produces render session ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns the same id every time. Used for golden output.
type FixedGenerator struct {
	ID string
}

// Generate returns g.ID.
func (g FixedGenerator) Generate() string { return g.ID }

// Session is one render session: an id plus its disclosure state.
type Session struct {
	ID         string
	Controller *Controller
}

// NewSession starts a session with an id from gen, or a UUIDv7 when gen is
// nil.
func NewSession(gen IDGenerator) *Session {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &Session{ID: gen.Generate(), Controller: NewController()}
}

// Toggle flips each key in order.
func (s *Session) Toggle(keys ...string) {
	for _, k := range keys {
		s.Controller.Toggle(k)
	}
}

// IsOpen is shorthand for s.Controller.IsOpen. A nil session reports the
// initial state.
func (s *Session) IsOpen(key string, ok, forced bool) bool {
	if s == nil {
		return Initial(ok, forced)
	}
	return s.Controller.IsOpen(key, ok, forced)
}
