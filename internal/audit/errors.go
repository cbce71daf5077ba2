package audit

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a node the decoder could not interpret. The node is
// still present in the tree as an UnknownRule or UnknownClause.
type SchemaError struct {
	// Path locates the node.
	Path Path

	// Tag is the offending `type` value (may be empty when missing).
	Tag string

	// Err is the field-level decode failure, nil for an unknown tag.
	Err error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed %q node: %v", e.Path, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s: unknown node type %q", e.Path, e.Tag)
}

// Unwrap returns the underlying decode error.
func (e *SchemaError) Unwrap() error { return e.Err }

// SchemaErrors collects every SchemaError found in one document.
type SchemaErrors []*SchemaError

// Error implements the error interface.
func (es SchemaErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d schema error(s): %s", len(es), strings.Join(msgs, "; "))
}

// IsSchemaError returns true if err is or wraps a SchemaError or SchemaErrors.
func IsSchemaError(err error) bool {
	var se *SchemaError
	if errors.As(err, &se) {
		return true
	}
	var ses SchemaErrors
	return errors.As(err, &ses)
}
