// Package schema checks raw result documents against CUE definitions of
// each node variant.
//
// Parsing (internal/audit) is lenient and contains bad nodes in place. The
// validator is the strict counterpart used by the validate command: it
// reports every structural problem with its node path and source line.
package schema

import (
	_ "embed"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/auditview/internal/audit"
)

//go:embed schema.cue
var schemaSource string

// Validation error codes (E200-E209)
const (
	ErrInvalidDocument = "E200" // not parseable as JSON/CUE
	ErrUnknownNodeType = "E201" // type tag is not a known variant
	ErrNodeMismatch    = "E202" // node violates its definition
	ErrMissingType     = "E203" // node has no type tag
	ErrNotAnObject     = "E204" // node is not an object
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var definitionNames = map[audit.RuleType]string{
	audit.TypeCourse:      "#Course",
	audit.TypeCount:       "#Count",
	audit.TypeReference:   "#Reference",
	audit.TypeFrom:        "#From",
	audit.TypeRequirement: "#Requirement",
}

// Validator holds the compiled definitions. It is not safe for concurrent
// use; create one per goroutine.
type Validator struct {
	ctx  *cue.Context
	defs map[audit.RuleType]cue.Value
}

// New compiles the embedded definitions.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	defs := make(map[audit.RuleType]cue.Value, len(definitionNames))
	for tag, name := range definitionNames {
		def := schema.LookupPath(cue.ParsePath(name))
		if err := def.Err(); err != nil {
			return nil, fmt.Errorf("schema definition %s: %w", name, err)
		}
		defs[tag] = def
	}
	return &Validator{ctx: ctx, defs: defs}, nil
}

// Validate checks every rule node in data. filename only labels positions.
// Returns all errors found (does not fail-fast).
func (v *Validator) Validate(filename string, data []byte) []ValidationError {
	doc := v.ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return fromCUE(filename, audit.RootPath, ErrInvalidDocument, err)
	}

	w := &walker{Validator: v, filename: filename}
	w.node(doc, audit.RootPath, false)
	return w.errs
}

type walker struct {
	*Validator
	filename string
	errs     []ValidationError
}

func (w *walker) add(path audit.Path, code, msg string, val cue.Value) {
	line := 0
	if pos := val.Pos(); pos.IsValid() {
		line = pos.Line()
	}
	w.errs = append(w.errs, ValidationError{Field: path.String(), Message: msg, Code: code, Line: line})
}

// node validates one rule node. A nested requirement may omit its type tag.
func (w *walker) node(val cue.Value, path audit.Path, nestedRequirement bool) {
	if val.IncompleteKind() != cue.StructKind {
		w.add(path, ErrNotAnObject, fmt.Sprintf("expected a node object, found %v", val.IncompleteKind()), val)
		return
	}

	tag := audit.TypeRequirement
	typeVal := val.LookupPath(cue.ParsePath("type"))
	switch {
	case typeVal.Exists():
		s, err := typeVal.String()
		if err != nil {
			w.errs = append(w.errs, fromCUE(w.filename, path, ErrNodeMismatch, err)...)
			return
		}
		tag = audit.RuleType(s)
	case nestedRequirement:
		val = val.FillPath(cue.ParsePath("type"), string(audit.TypeRequirement))
	default:
		w.add(path, ErrMissingType, "node has no type tag", val)
		return
	}

	def, ok := w.defs[tag]
	if !ok {
		w.add(path, ErrUnknownNodeType, fmt.Sprintf("unknown node type %q", tag), typeVal)
		return
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		w.errs = append(w.errs, fromCUE(w.filename, path, ErrNodeMismatch, err)...)
	}

	switch tag {
	case audit.TypeCount:
		items, err := val.LookupPath(cue.ParsePath("items")).List()
		if err != nil {
			return
		}
		for i := 0; items.Next(); i++ {
			w.node(items.Value(), path.Item(i), false)
		}
	case audit.TypeRequirement:
		result := val.LookupPath(cue.ParsePath("result"))
		if result.Exists() && !result.IsNull() {
			w.node(result, path.Field("result"), false)
		}
		w.nested(val.LookupPath(cue.ParsePath("requirements")), path)
	}
}

func (w *walker) nested(reqs cue.Value, path audit.Path) {
	if !reqs.Exists() || reqs.IsNull() {
		return
	}
	it, err := reqs.Fields()
	if err != nil {
		return
	}
	children := map[string]cue.Value{}
	for it.Next() {
		children[it.Selector().Unquoted()] = it.Value()
	}
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w.node(children[name], path.Named("requirements", name), true)
	}
}

// fromCUE converts a CUE error list, keeping the first position that falls
// in the validated document.
func fromCUE(filename string, path audit.Path, code string, err error) []ValidationError {
	list := errors.Errors(err)
	if len(list) == 0 {
		return []ValidationError{{Field: path.String(), Message: err.Error(), Code: code}}
	}
	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		ve := ValidationError{Field: path.String(), Message: e.Error(), Code: code}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() == filename {
				ve.Line = pos.Line()
				break
			}
		}
		out = append(out, ve)
	}
	return out
}
