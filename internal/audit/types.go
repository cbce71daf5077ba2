package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RuleType is the `type` tag of a rule/result node.
type RuleType string

const (
	TypeCourse      RuleType = "course"
	TypeCount       RuleType = "count"
	TypeReference   RuleType = "reference"
	TypeFrom        RuleType = "from"
	TypeRequirement RuleType = "requirement"
)

// KnownRuleTypes lists the five tags the decoder understands.
var KnownRuleTypes = map[RuleType]bool{
	TypeCourse:      true,
	TypeCount:       true,
	TypeReference:   true,
	TypeFrom:        true,
	TypeRequirement: true,
}

// Status is the auditor's verdict for a node.
type Status string

const (
	StatusSkip Status = "skip"
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// State marks the evaluation stage a node was serialized at.
// Only result-state nodes carry resolved claims.
type State string

const (
	StateRule     State = "rule"
	StateSolution State = "solution"
	StateResult   State = "result"
)

// Rank is a partial-progress scalar. It is used for progress display only,
// never for pass/fail decisions. Older auditors emit a number, newer ones a
// numeric string; both decode.
type Rank float64

// UnmarshalJSON implements json.Unmarshaler for Rank.
func (r *Rank) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("rank %q: %w", s, err)
		}
		*r = Rank(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	*r = Rank(f)
	return nil
}

// Base carries the fields every node variant shares.
type Base struct {
	OK     bool   `json:"ok"`
	Status Status `json:"status,omitempty"`
	Rank   Rank   `json:"rank"`
	State  State  `json:"state,omitempty"`
}

// Succeeded reports the node's pre-computed ok flag.
func (b Base) Succeeded() bool { return b.OK }

// Meta returns the shared node fields.
func (b Base) Meta() Base { return b }

// Rule is a sealed interface over the rule/result node variants.
//
// Implementations: *CourseRule, *CountRule, *ReferenceRule, *FromRule,
// *RequirementRule and *UnknownRule (the decoder's stand-in for a node whose
// tag it does not recognize).
type Rule interface {
	Kind() RuleType
	Succeeded() bool
	Meta() Base
	ruleNode() // Marker method - seals interface to this package
}

// CourseRule references one transcript course.
type CourseRule struct {
	Base
	Course       string      `json:"course"`
	AllowClaimed bool        `json:"allow_claimed"`
	Hidden       bool        `json:"hidden"`
	Grade        string      `json:"grade,omitempty"`
	Claims       []ClaimList `json:"claims,omitempty"`
}

func (*CourseRule) ruleNode() {}

// Kind implements Rule.
func (*CourseRule) Kind() RuleType { return TypeCourse }

// FirstClaim returns the claim that decides which course satisfied the rule.
// Claims beyond index 0 are never consulted.
func (r *CourseRule) FirstClaim() (Claim, bool) {
	if len(r.Claims) == 0 {
		return Claim{}, false
	}
	return r.Claims[0].Claim, true
}

// CountRule requires Count of its Items to succeed.
type CountRule struct {
	Base
	Count  int         `json:"count"`
	Items  []Rule      `json:"items"`
	Claims []ClaimList `json:"claims,omitempty"`
}

func (*CountRule) ruleNode() {}

// Kind implements Rule.
func (*CountRule) Kind() RuleType { return TypeCount }

// ReferenceRule points at another named requirement. Resolution is deferred.
type ReferenceRule struct {
	Base
	Name string `json:"name"`
}

func (*ReferenceRule) ruleNode() {}

// Kind implements Rule.
func (*ReferenceRule) Kind() RuleType { return TypeReference }

// Source describes the population a from-rule queries.
type Source struct {
	ItemType     string   `json:"itemtype"`
	Mode         string   `json:"mode"`
	Requirements []string `json:"requirements,omitempty"`
	Saves        []string `json:"saves,omitempty"`
}

// IsStudentCourses reports whether the source is the student's transcript
// courses, the only source configuration the renderer can describe.
func (s Source) IsStudentCourses() bool {
	return s.Mode == "student" && s.ItemType == "courses"
}

// Action is the comparison a from-rule applies to its selected courses.
type Action struct {
	Command   string   `json:"command"`
	CompareTo Value    `json:"compare_to"`
	Operator  Operator `json:"operator"`
	Source    string   `json:"source"`
}

// Limit caps how many courses matching Where may be used.
type Limit struct {
	AtMost int         `json:"at_most"`
	Where  WhereClause `json:"where"`
}

// Assertion is an extra eligibility predicate, optionally scoped by Where.
type Assertion struct {
	Assertion WhereClause `json:"assertion"`
	Where     WhereClause `json:"where,omitempty"`
}

// FromRule selects courses from a source population.
type FromRule struct {
	Base
	Source     Source      `json:"source"`
	Limits     []Limit     `json:"limit"`
	Where      WhereClause `json:"where,omitempty"`
	Assertions []Assertion `json:"assertions,omitempty"`
	Action     Action      `json:"action"`
	// Claims is nil when the node carried no claim list at all, which the
	// renderer treats as a malformed node.
	Claims []ClaimList `json:"claims"`
}

func (*FromRule) ruleNode() {}

// Kind implements Rule.
func (*FromRule) Kind() RuleType { return TypeFrom }

// RequirementRule is a named wrapper around one child result.
type RequirementRule struct {
	Base
	Name         string          `json:"name"`
	Message      string          `json:"message,omitempty"`
	AuditedBy    string          `json:"audited_by,omitempty"`
	Contract     bool            `json:"contract"`
	Result       Rule            `json:"result"`
	Requirements map[string]Rule `json:"requirements,omitempty"`
	Claims       []ClaimList     `json:"claims,omitempty"`
}

func (*RequirementRule) ruleNode() {}

// Kind implements Rule.
func (*RequirementRule) Kind() RuleType { return TypeRequirement }

// UnknownRule stands in for a node the decoder could not interpret: either
// its tag is not one of the known variants, or its fields failed to decode.
// It renders as a visible failure instead of disappearing.
type UnknownRule struct {
	Base
	Type   string          `json:"type"`
	Reason string          `json:"reason,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

func (*UnknownRule) ruleNode() {}

// Kind implements Rule. The raw tag is returned verbatim.
func (r *UnknownRule) Kind() RuleType { return RuleType(r.Type) }

// Claim records that a transcript course satisfied a course rule.
type Claim struct {
	ClaimantPath []string        `json:"claimant_path"`
	CLBID        CLBID           `json:"clbid"`
	CRSID        string          `json:"crsid,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
}

// ClaimList wraps a Claim with its own claimant path.
type ClaimList struct {
	Claim        Claim    `json:"claim"`
	ClaimantPath []string `json:"claimant_path"`
}

// CLBID is a class-list identifier: the stable id of one transcript
// enrollment. Auditors emit it as either a string or a number; it is
// normalized to its decimal string form.
type CLBID string

// UnmarshalJSON implements json.Unmarshaler for CLBID.
func (c *CLBID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CLBID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clbid: %w", err)
	}
	*c = CLBID(n.String())
	return nil
}
