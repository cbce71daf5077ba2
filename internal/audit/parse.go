package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Tree is a decoded evaluation result.
type Tree struct {
	// Root is the top-level node. Never nil.
	Root Rule

	// Problems lists every node that decoded to UnknownRule or UnknownClause,
	// in document order.
	Problems SchemaErrors
}

// Err returns the collected schema problems as a single error, or nil.
func (t *Tree) Err() error {
	if len(t.Problems) == 0 {
		return nil
	}
	return t.Problems
}

// ParseResult decodes an evaluation-result document.
//
// Only malformed JSON fails the whole parse. A node with an unknown tag, or
// whose fields do not decode, is kept in the tree as an UnknownRule (or
// UnknownClause) and reported in Tree.Problems, so one bad subtree cannot
// hide its siblings.
func ParseResult(data []byte) (*Tree, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}

	d := &decoder{}
	root := d.rule(raw, RootPath)
	return &Tree{Root: root, Problems: d.problems}, nil
}

// ParseClause decodes a standalone where-clause document. A JSON null
// decodes to a nil clause.
func ParseClause(data []byte) (WhereClause, SchemaErrors, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse clause: %w", err)
	}
	d := &decoder{}
	c := d.clause(raw, RootPath)
	return c, d.problems, nil
}

// decoder accumulates schema problems during traversal.
type decoder struct {
	problems SchemaErrors
}

func (d *decoder) report(path Path, tag string, err error) {
	d.problems = append(d.problems, &SchemaError{Path: path, Tag: tag, Err: err})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rule decodes one rule node. It never returns nil.
func (d *decoder) rule(raw json.RawMessage, path Path) Rule {
	if isNull(raw) {
		d.report(path, "", fmt.Errorf("missing node"))
		return &UnknownRule{Reason: "missing node"}
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		d.report(path, "", err)
		return &UnknownRule{Reason: err.Error(), Raw: raw}
	}

	var (
		r   Rule
		err error
	)
	switch RuleType(head.Type) {
	case TypeCourse:
		r, err = d.course(raw)
	case TypeCount:
		r, err = d.count(raw, path)
	case TypeReference:
		r, err = d.reference(raw)
	case TypeFrom:
		r, err = d.from(raw, path)
	case TypeRequirement:
		r, err = d.requirement(raw, path)
	default:
		d.report(path, head.Type, nil)
		unknown := &UnknownRule{Type: head.Type, Raw: raw}
		// Keep whatever status fields the node does carry.
		_ = json.Unmarshal(raw, &unknown.Base)
		return unknown
	}

	if err != nil {
		d.report(path, head.Type, err)
		unknown := &UnknownRule{Type: head.Type, Reason: err.Error(), Raw: raw}
		_ = json.Unmarshal(raw, &unknown.Base)
		return unknown
	}
	return r
}

func (d *decoder) course(raw json.RawMessage) (*CourseRule, error) {
	var r CourseRule
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *decoder) reference(raw json.RawMessage) (*ReferenceRule, error) {
	var r ReferenceRule
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *decoder) count(raw json.RawMessage, path Path) (*CountRule, error) {
	var wire struct {
		Base
		Count  int               `json:"count"`
		Items  []json.RawMessage `json:"items"`
		Claims []ClaimList       `json:"claims"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	r := &CountRule{
		Base:   wire.Base,
		Count:  wire.Count,
		Items:  make([]Rule, len(wire.Items)),
		Claims: wire.Claims,
	}
	for i, item := range wire.Items {
		r.Items[i] = d.rule(item, path.Item(i))
	}
	return r, nil
}

func (d *decoder) from(raw json.RawMessage, path Path) (*FromRule, error) {
	var wire struct {
		Base
		Source Source `json:"source"`
		Limit  []struct {
			AtMost int             `json:"at_most"`
			Where  json.RawMessage `json:"where"`
		} `json:"limit"`
		Where      json.RawMessage `json:"where"`
		Assertions []struct {
			Assertion json.RawMessage `json:"assertion"`
			Where     json.RawMessage `json:"where"`
		} `json:"assertions"`
		Action struct {
			Command   string          `json:"command"`
			CompareTo json.RawMessage `json:"compare_to"`
			Operator  Operator        `json:"operator"`
			Source    string          `json:"source"`
		} `json:"action"`
		Claims []ClaimList `json:"claims"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	compareTo, err := UnmarshalValue(wire.Action.CompareTo)
	if err != nil {
		return nil, fmt.Errorf("action.compare_to: %w", err)
	}

	r := &FromRule{
		Base:   wire.Base,
		Source: wire.Source,
		Where:  d.clause(wire.Where, path.Field("where")),
		Action: Action{
			Command:   wire.Action.Command,
			CompareTo: compareTo,
			Operator:  wire.Action.Operator,
			Source:    wire.Action.Source,
		},
		Claims: wire.Claims,
	}
	for i, l := range wire.Limit {
		r.Limits = append(r.Limits, Limit{
			AtMost: l.AtMost,
			Where:  d.clause(l.Where, path.Index("limit", i).Field("where")),
		})
	}
	for i, a := range wire.Assertions {
		at := path.Index("assertions", i)
		r.Assertions = append(r.Assertions, Assertion{
			Assertion: d.clause(a.Assertion, at.Field("assertion")),
			Where:     d.clause(a.Where, at.Field("where")),
		})
	}
	return r, nil
}

func (d *decoder) requirement(raw json.RawMessage, path Path) (*RequirementRule, error) {
	var wire struct {
		Base
		Name         string                     `json:"name"`
		Message      string                     `json:"message"`
		AuditedBy    string                     `json:"audited_by"`
		Contract     bool                       `json:"contract"`
		Result       json.RawMessage            `json:"result"`
		Requirements map[string]json.RawMessage `json:"requirements"`
		Claims       []ClaimList                `json:"claims"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	r := &RequirementRule{
		Base:      wire.Base,
		Name:      wire.Name,
		Message:   wire.Message,
		AuditedBy: wire.AuditedBy,
		Contract:  wire.Contract,
		Claims:    wire.Claims,
	}

	// An audited requirement may legitimately omit its result.
	if !isNull(wire.Result) || wire.AuditedBy == "" {
		r.Result = d.rule(wire.Result, path.Field("result"))
	}

	if len(wire.Requirements) > 0 {
		names := make([]string, 0, len(wire.Requirements))
		for name := range wire.Requirements {
			names = append(names, name)
		}
		sort.Strings(names)

		r.Requirements = make(map[string]Rule, len(names))
		for _, name := range names {
			childPath := path.Named("requirements", name)
			raw := wire.Requirements[name]
			child, err := d.requirement(raw, childPath)
			if err != nil {
				d.report(childPath, string(TypeRequirement), err)
				unknown := &UnknownRule{Type: string(TypeRequirement), Reason: err.Error(), Raw: raw}
				_ = json.Unmarshal(raw, &unknown.Base)
				r.Requirements[name] = unknown
				continue
			}
			r.Requirements[name] = child
		}
	}
	return r, nil
}

// clause decodes a where-clause. JSON null decodes to nil.
func (d *decoder) clause(raw json.RawMessage, path Path) WhereClause {
	if isNull(raw) {
		return nil
	}

	var wire struct {
		Type     string            `json:"type"`
		Children []json.RawMessage `json:"children"`
		Key      string            `json:"key"`
		Operator Operator          `json:"operator"`
		Expected json.RawMessage   `json:"expected"`
		Result   json.RawMessage   `json:"result"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		d.report(path, "", err)
		return &UnknownClause{Reason: err.Error()}
	}

	switch ClauseType(wire.Type) {
	case ClauseAnd:
		return &AndClause{Children: d.children(wire.Children, path)}
	case ClauseOr:
		return &OrClause{Children: d.children(wire.Children, path)}
	case ClauseSingle:
		expected, err := UnmarshalValue(wire.Expected)
		if err != nil {
			d.report(path, wire.Type, fmt.Errorf("expected: %w", err))
			return &UnknownClause{Type: wire.Type, Reason: err.Error()}
		}
		result, err := decodeClauseResult(wire.Result)
		if err != nil {
			d.report(path, wire.Type, err)
			return &UnknownClause{Type: wire.Type, Reason: err.Error()}
		}
		return &SingleClause{
			Key:      wire.Key,
			Operator: wire.Operator,
			Expected: expected,
			Result:   result,
		}
	default:
		d.report(path, wire.Type, nil)
		return &UnknownClause{Type: wire.Type}
	}
}

func (d *decoder) children(raws []json.RawMessage, path Path) []WhereClause {
	children := make([]WhereClause, 0, len(raws))
	for i, raw := range raws {
		if c := d.clause(raw, path.Index("children", i)); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// decodeClauseResult accepts a boolean or one of the auditor's status words.
func decodeClauseResult(raw json.RawMessage) (*bool, error) {
	if isNull(raw) {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	switch s {
	case "pass", "done", "waived":
		v := true
		return &v, nil
	case "fail", "pending", "problem":
		v := false
		return &v, nil
	default:
		return nil, nil
	}
}
