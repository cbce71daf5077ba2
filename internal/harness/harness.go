package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/render"
	"github.com/roach88/auditview/internal/transcript"
	"github.com/roach88/auditview/internal/view"
)

// DefaultSessionID is used when a fixture does not name one.
const DefaultSessionID = "test-session-default"

// Fixture is one rendering case.
type Fixture struct {
	// Name uniquely identifies this fixture and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this fixture shows.
	Description string `yaml:"description"`

	SessionID string             `yaml:"session_id,omitempty"`
	Area      *audit.AreaOfStudy `yaml:"area,omitempty"`

	// Toggles are node paths flipped before rendering, in order.
	Toggles []string `yaml:"toggles,omitempty"`

	// Transcript, Result and Error hold JSON documents.
	Transcript string `yaml:"transcript,omitempty"`
	Result     string `yaml:"result,omitempty"`
	Error      string `yaml:"error,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists checks on a fixture's output beyond its golden text.
type Expect struct {
	// Status is the expected document status ("Complete"/"Incomplete").
	Status string `yaml:"status,omitempty"`

	// Problems are the expected contained-failure codes, in order.
	Problems []string `yaml:"problems,omitempty"`
}

// Result is the outcome of running a fixture.
type Result struct {
	Document *view.Document
	Text     string
	Problems render.Problems

	// Pass is false when an Expect check failed; Errors says which.
	Pass   bool
	Errors []string
}

// LoadFixture reads and parses a fixture YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateFixture(&f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

// validateFixture checks that required fields are present and valid.
func validateFixture(f *Fixture) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Description == "" {
		return fmt.Errorf("description is required")
	}
	for _, doc := range []struct{ field, body string }{
		{"transcript", f.Transcript},
		{"result", f.Result},
		{"error", f.Error},
	} {
		if strings.TrimSpace(doc.body) != "" && !json.Valid([]byte(doc.body)) {
			return fmt.Errorf("%s is not valid JSON", doc.field)
		}
	}
	return nil
}

// Run renders a fixture and checks its expectations.
func Run(f *Fixture) (*Result, error) {
	var tree *audit.Tree
	if strings.TrimSpace(f.Result) != "" {
		t, err := audit.ParseResult([]byte(f.Result))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", f.Name, err)
		}
		tree = t
	}

	var courses []audit.Course
	if strings.TrimSpace(f.Transcript) != "" {
		c, err := transcript.Decode([]byte(f.Transcript))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", f.Name, err)
		}
		courses = c
	}

	id := f.SessionID
	if id == "" {
		id = DefaultSessionID
	}
	session := disclosure.NewSession(disclosure.FixedGenerator{ID: id})
	session.Toggle(f.Toggles...)

	r := &render.Renderer{Index: transcript.NewIndex(courses), Session: session}
	var errPayload json.RawMessage
	if strings.TrimSpace(f.Error) != "" {
		errPayload = json.RawMessage(f.Error)
	}
	doc, problems := r.Document(tree, errPayload, f.Area)

	res := &Result{
		Document: doc,
		Text:     render.NewPrinter().FormatDocument(doc),
		Problems: problems,
		Pass:     true,
	}
	res.check(f.Expect)
	return res, nil
}

func (r *Result) check(e *Expect) {
	if e == nil {
		return
	}
	if e.Status != "" && e.Status != r.Document.Status {
		r.fail("status: got %q, want %q", r.Document.Status, e.Status)
	}
	if e.Problems != nil {
		got := make([]string, len(r.Problems))
		for i, p := range r.Problems {
			got[i] = string(p.Code)
		}
		if !slices.Equal(got, e.Problems) {
			r.fail("problems: got %v, want %v", got, e.Problems)
		}
	}
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
