// Package render walks a parsed audit result tree and produces the view tree.
//
// A render pass is a pure function of its inputs: the result tree, the
// transcript index and the session's disclosure state. Nothing on the input
// tree is modified, so rendering the same inputs twice yields equal output.
//
// Failures are contained to the smallest subtree. An unknown node, an
// unsupported from-source or a malformed where-clause becomes an error block
// in place, and the rest of the tree still renders. Every contained failure
// is also returned to the caller as a *RenderError.
package render
