// Package where formats where-clause trees and assertions for display.
//
// Formatting never evaluates a clause: the truth values on the tree were set
// by the auditor and are carried through unchanged.
package where

import (
	"errors"
	"fmt"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/view"
)

// ClauseError reports a clause whose tag is not and/or/single.
type ClauseError struct {
	Type   string
	Reason string
}

func (e *ClauseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed where clause %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("unexpected clause type %q", e.Type)
}

// IsClauseError reports whether err wraps a *ClauseError.
func IsClauseError(err error) bool {
	var ce *ClauseError
	return errors.As(err, &ce)
}

// KeyLabel returns the display label for a clause key and an optional
// explanatory title for it.
func KeyLabel(key string) (label, title string) {
	if key == "gereqs" {
		return "GE Requirement", "General Education"
	}
	return key, ""
}

// OperatorPhrase returns the phrase shown for op. Only EqualTo has one;
// every other operator shows its name.
func OperatorPhrase(op audit.Operator) string {
	if op == audit.OpEqualTo {
		return "is"
	}
	return string(op)
}

// ExpectedText renders an expected value: arrays comma-joined, scalars as-is.
func ExpectedText(v audit.Value) string {
	if v == nil {
		return ""
	}
	return v.Display()
}

// Render formats c. A clause with an unrecognized tag becomes an ErrorBlock
// in place and is also reported through the returned error; the rest of the
// tree still renders. Render(nil) returns (nil, nil).
func Render(c audit.WhereClause) (view.Block, error) {
	switch c := c.(type) {
	case nil:
		return nil, nil
	case *audit.AndClause:
		return group("ALL:", c.Children)
	case *audit.OrClause:
		return group("ANY:", c.Children)
	case *audit.SingleClause:
		label, title := KeyLabel(c.Key)
		return view.ClauseLine{
			Key:      c.Key,
			Label:    label,
			Title:    title,
			Operator: string(c.Operator),
			Phrase:   OperatorPhrase(c.Operator),
			Value:    ExpectedText(c.Expected),
			Result:   c.Result,
		}, nil
	case *audit.UnknownClause:
		err := &ClauseError{Type: c.Type, Reason: c.Reason}
		return view.ErrorBlock{Code: view.CodeMalformedWhereClause, Message: err.Error()}, err
	default:
		err := &ClauseError{Type: string(c.ClauseKind())}
		return view.ErrorBlock{Code: view.CodeMalformedWhereClause, Message: err.Error()}, err
	}
}

func group(label string, children []audit.WhereClause) (view.Block, error) {
	g := view.ClauseGroup{Label: label, Children: make([]view.Block, 0, len(children))}
	var errs []error
	for _, child := range children {
		b, err := Render(child)
		if err != nil {
			errs = append(errs, err)
		}
		if b != nil {
			g.Children = append(g.Children, b)
		}
	}
	return g, errors.Join(errs...)
}

// RenderAssertion formats an assertion: its predicate, then its scoping
// filter (when present) under a "where" section.
func RenderAssertion(a audit.Assertion) ([]view.Block, error) {
	var (
		blocks []view.Block
		errs   []error
	)
	b, err := Render(a.Assertion)
	if err != nil {
		errs = append(errs, err)
	}
	if b != nil {
		blocks = append(blocks, b)
	}
	if a.Where != nil {
		w, err := Render(a.Where)
		if err != nil {
			errs = append(errs, err)
		}
		blocks = append(blocks, view.Details{Summary: "where", Body: []view.Block{w}})
	}
	return blocks, errors.Join(errs...)
}
