package view

import (
	"encoding/json"
	"strconv"
)

// ErrorCode classifies an ErrorBlock.
type ErrorCode string

const (
	CodeSchemaError           ErrorCode = "SCHEMA_ERROR"
	CodeUnresolvedClaim       ErrorCode = "UNRESOLVED_CLAIM"
	CodeUnsupportedFromSource ErrorCode = "UNSUPPORTED_FROM_SOURCE"
	CodeMalformedWhereClause  ErrorCode = "MALFORMED_WHERE_CLAUSE"
	CodeMissingClaims         ErrorCode = "MISSING_CLAIMS"
)

// Block is a sealed interface over the body elements of a Node.
//
// Implementations: Paragraph, Details, ClauseGroup, ClauseLine, CourseList
// and ErrorBlock.
type Block interface {
	BlockKind() string
	block()
}

// Paragraph is one sentence of prose.
type Paragraph struct {
	Text string `json:"text"`
}

// Details is a labeled, always-expanded section.
type Details struct {
	Summary string  `json:"summary"`
	Body    []Block `json:"body"`
}

// ClauseGroup is an and/or where-clause: Label is "ALL:" or "ANY:".
type ClauseGroup struct {
	Label    string  `json:"label"`
	Children []Block `json:"children"`
}

// ClauseLine is one single-clause predicate.
type ClauseLine struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Title    string `json:"title,omitempty"`
	Operator string `json:"operator"`
	Phrase   string `json:"phrase"`
	Value    string `json:"value"`
	Result   *bool  `json:"result,omitempty"`
}

// Text renders "<label> <phrase> <value>".
func (c ClauseLine) Text() string {
	return c.Label + " " + c.Phrase + " " + c.Value
}

// CourseItem is one entry of a CourseList.
type CourseItem struct {
	CLBID string `json:"clbid"`
	Label string `json:"label"`
	Known bool   `json:"known"`
}

// CourseList lists claimed courses.
type CourseList struct {
	Courses []CourseItem `json:"courses"`
}

// ErrorBlock marks a subtree that could not be rendered.
type ErrorBlock struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (Paragraph) block()   {}
func (Details) block()     {}
func (ClauseGroup) block() {}
func (ClauseLine) block()  {}
func (CourseList) block()  {}
func (ErrorBlock) block()  {}

func (Paragraph) BlockKind() string   { return "paragraph" }
func (Details) BlockKind() string     { return "details" }
func (ClauseGroup) BlockKind() string { return "clause_group" }
func (ClauseLine) BlockKind() string  { return "clause" }
func (CourseList) BlockKind() string  { return "course_list" }
func (ErrorBlock) BlockKind() string  { return "error" }

// tagged encodes v as a JSON object with a leading "kind" member.
func tagged(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := []byte(`{"kind":` + strconv.Quote(kind))
	if len(body) <= 2 {
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, body[1:]...), nil
}

// MarshalJSON implements json.Marshaler for Paragraph.
func (p Paragraph) MarshalJSON() ([]byte, error) {
	type plain Paragraph
	return tagged(p.BlockKind(), plain(p))
}

// MarshalJSON implements json.Marshaler for Details.
func (d Details) MarshalJSON() ([]byte, error) {
	type plain Details
	return tagged(d.BlockKind(), plain(d))
}

// MarshalJSON implements json.Marshaler for ClauseGroup.
func (g ClauseGroup) MarshalJSON() ([]byte, error) {
	type plain ClauseGroup
	return tagged(g.BlockKind(), plain(g))
}

// MarshalJSON implements json.Marshaler for ClauseLine.
func (c ClauseLine) MarshalJSON() ([]byte, error) {
	type plain ClauseLine
	return tagged(c.BlockKind(), plain(c))
}

// MarshalJSON implements json.Marshaler for CourseList.
func (l CourseList) MarshalJSON() ([]byte, error) {
	type plain CourseList
	return tagged(l.BlockKind(), plain(l))
}

// MarshalJSON implements json.Marshaler for ErrorBlock.
func (e ErrorBlock) MarshalJSON() ([]byte, error) {
	type plain ErrorBlock
	return tagged(e.BlockKind(), plain(e))
}
