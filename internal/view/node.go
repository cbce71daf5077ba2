package view

import "encoding/json"

// Glyph is a node's status indicator.
type Glyph string

const (
	GlyphNone Glyph = ""
	GlyphOK   Glyph = "ok"
	GlyphWarn Glyph = "warn"
)

// GlyphFor maps a success flag to its glyph.
func GlyphFor(ok bool) Glyph {
	if ok {
		return GlyphOK
	}
	return GlyphWarn
}

// Node is one rendered rule.
type Node struct {
	// Key is the node path the disclosure controller is keyed by.
	Key      string  `json:"key"`
	Kind     string  `json:"kind"`
	Glyph    Glyph   `json:"glyph,omitempty"`
	Skipped  bool    `json:"skipped,omitempty"`
	Header   string  `json:"header"`
	Open     bool    `json:"open"`
	Body     []Block `json:"body,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Walk visits n and its descendants depth-first, stopping early when fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given key, or nil.
func (n *Node) Find(key string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if x.Key == key {
			found = x
			return false
		}
		return true
	})
	return found
}

// Document is a complete rendered audit.
type Document struct {
	SessionID string `json:"session_id,omitempty"`
	// Header is the area-of-study line; empty when no area was supplied.
	Header   string          `json:"header,omitempty"`
	OK       bool            `json:"ok"`
	Status   string          `json:"status,omitempty"`
	Progress *Progress       `json:"progress,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
	Root     *Node           `json:"root,omitempty"`
}

// Progress is the rank reached against the rank needed for success.
type Progress struct {
	Rank        float64 `json:"rank"`
	SuccessRank float64 `json:"success_rank,omitempty"`
}
