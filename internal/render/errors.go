package render

import (
	"errors"
	"fmt"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/view"
)

// RenderError is a failure contained while rendering one subtree.
type RenderError struct {
	// Code identifies the error category.
	Code view.ErrorCode

	// Path is the node the failure was contained at.
	Path audit.Path

	// Tag is the offending type tag, when there is one.
	Tag string

	Err error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	msg := string(e.Code)
	if e.Path != "" {
		msg += " at " + e.Path.String()
	}
	if e.Tag != "" {
		msg += fmt.Sprintf(" (%q)", e.Tag)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Err }

// HasCode reports whether err wraps a *RenderError with the given code.
func HasCode(err error, code view.ErrorCode) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// Problems is the list of failures a render pass contained.
type Problems []*RenderError

// Err returns the problems as a single error, or nil.
func (ps Problems) Err() error {
	if len(ps) == 0 {
		return nil
	}
	errs := make([]error, len(ps))
	for i, p := range ps {
		errs[i] = p
	}
	return errors.Join(errs...)
}

// Count returns how many problems carry code.
func (ps Problems) Count(code view.ErrorCode) int {
	n := 0
	for _, p := range ps {
		if p.Code == code {
			n++
		}
	}
	return n
}

// WithSchemaErrors appends a SCHEMA_ERROR problem for every schema error
// whose path the render pass did not already report. Nodes inside a
// collapsed subtree are never walked, so their decode failures only show up
// here.
func (ps Problems) WithSchemaErrors(errs audit.SchemaErrors) Problems {
	seen := make(map[audit.Path]bool, len(ps))
	for _, p := range ps {
		seen[p.Path] = true
	}
	for _, e := range errs {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		ps = append(ps, &RenderError{Code: view.CodeSchemaError, Path: e.Path, Tag: e.Tag, Err: e.Err})
	}
	return ps
}
