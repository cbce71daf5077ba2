// Package view defines the rendered output tree.
//
// A Node carries a status glyph, a header, its disclosure state and, when
// expanded, a body of Blocks followed by child Nodes. Collapsed nodes carry
// no body. Nothing in this package knows how a result tree is walked; it is
// the contract between the renderer and whatever displays it.
package view
