package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/render"
	"github.com/roach88/auditview/internal/store"
	"github.com/roach88/auditview/internal/transcript"
	"github.com/roach88/auditview/internal/view"
)

// Envelope is a stored audit record as the auditor writes it. A bare result
// node (an object with a `type` member) is accepted in its place.
type Envelope struct {
	StudentID string             `json:"student_id,omitempty"`
	Catalog   string             `json:"catalog,omitempty"`
	Area      *audit.AreaOfStudy `json:"area,omitempty"`
	Result    json.RawMessage    `json:"result,omitempty"`
	Error     json.RawMessage    `json:"error,omitempty"`
}

// decodeEnvelope parses data as either an envelope or a bare result node.
// JSON nulls in result and error are dropped.
func decodeEnvelope(data []byte) (Envelope, error) {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return Envelope{}, fmt.Errorf("decode result document: %w", err)
	}
	if _, ok := head["type"]; ok {
		return Envelope{Result: bytes.TrimSpace(data)}, nil
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode result document: %w", err)
	}
	env.Result = dropNull(env.Result)
	env.Error = dropNull(env.Error)
	return env, nil
}

func dropNull(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

// loadEnvelope reads and decodes a result document file.
func loadEnvelope(path string) (Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, err
	}
	return decodeEnvelope(data)
}

// loadTranscript reads a transcript file: a JSON course array or an object
// with a `courses` array.
func loadTranscript(path string) ([]audit.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return transcript.Decode(data)
}

// loadArea reads an area-of-study descriptor from YAML.
// Unknown fields are rejected.
func loadArea(path string) (*audit.AreaOfStudy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var area audit.AreaOfStudy
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&area); err != nil {
		return nil, fmt.Errorf("parse area %s: %w", path, err)
	}
	return &area, nil
}

// openStore opens the database at path. With mustExist, a missing file is
// reported instead of creating an empty database.
func openStore(path string, mustExist bool) (*store.Store, error) {
	if path == "" {
		return nil, errors.New("--db is required")
	}
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database not found: %s", path)
		}
	}
	return store.Open(path)
}

// documentInput is everything one render pass needs.
type documentInput struct {
	Result  json.RawMessage
	Error   json.RawMessage
	Area    *audit.AreaOfStudy
	Courses []audit.Course
}

// renderDocument parses the result and renders the full document.
// Only malformed JSON is an error; everything else, including schema errors
// in subtrees that stay collapsed, is contained in the returned problems.
func renderDocument(in documentInput, session *disclosure.Session, log *slog.Logger) (*view.Document, render.Problems, error) {
	var tree *audit.Tree
	if len(in.Result) > 0 {
		t, err := audit.ParseResult(in.Result)
		if err != nil {
			return nil, nil, err
		}
		tree = t
		if len(t.Problems) > 0 {
			log.Debug("result has schema problems", "count", len(t.Problems))
		}
	}

	r := &render.Renderer{
		Index:   transcript.NewIndex(in.Courses),
		Session: session,
		Logger:  log,
	}
	doc, problems := r.Document(tree, in.Error, in.Area)
	if tree != nil {
		problems = problems.WithSchemaErrors(tree.Problems)
	}
	return doc, problems, nil
}

// renderStored renders a stored result against its student's stored
// transcript. A student without a transcript renders with an empty one.
func renderStored(ctx context.Context, st *store.Store, res store.Result, session *disclosure.Session, log *slog.Logger) (*view.Document, render.Problems, error) {
	var courses []audit.Course
	tr, err := st.GetTranscript(ctx, res.StudentID)
	switch {
	case err == nil:
		courses = tr.Courses
	case errors.Is(err, store.ErrNotFound):
		log.Debug("no transcript stored", "student", res.StudentID, "result", res.ID)
	default:
		return nil, nil, err
	}

	return renderDocument(documentInput{
		Result:  res.Result,
		Error:   res.Error,
		Area:    res.Area,
		Courses: courses,
	}, session, log)
}

// Problem is the JSON form of a contained render failure.
type Problem struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func problemsJSON(ps render.Problems) []Problem {
	out := make([]Problem, len(ps))
	for i, p := range ps {
		out[i] = Problem{Code: string(p.Code), Path: p.Path.String(), Message: p.Error()}
	}
	return out
}
