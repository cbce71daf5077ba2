package audit

// ClauseType is the `type` tag of a where-clause node.
type ClauseType string

const (
	ClauseAnd    ClauseType = "and-clause"
	ClauseOr     ClauseType = "or-clause"
	ClauseSingle ClauseType = "single-clause"
)

// Operator is a single-clause comparison operator.
type Operator string

const (
	OpEqualTo              Operator = "EqualTo"
	OpGreaterThanOrEqualTo Operator = "GreaterThanOrEqualTo"
	OpGreaterThan          Operator = "GreaterThan"
	OpIn                   Operator = "In"
)

// WhereClause is a sealed interface over boolean predicate trees.
//
// Implementations: *AndClause, *OrClause, *SingleClause and *UnknownClause.
// The truth values carried by a clause were computed by the auditor and are
// authoritative; nothing in this module evaluates a clause.
type WhereClause interface {
	ClauseKind() ClauseType
	clauseNode() // Marker method - seals interface to this package
}

// AndClause holds when all Children hold.
type AndClause struct {
	Children []WhereClause `json:"children"`
}

func (*AndClause) clauseNode() {}

// ClauseKind implements WhereClause.
func (*AndClause) ClauseKind() ClauseType { return ClauseAnd }

// OrClause holds when any of Children holds.
type OrClause struct {
	Children []WhereClause `json:"children"`
}

func (*OrClause) clauseNode() {}

// ClauseKind implements WhereClause.
func (*OrClause) ClauseKind() ClauseType { return ClauseOr }

// SingleClause compares one course attribute against an expected value.
type SingleClause struct {
	Key      string   `json:"key"`
	Operator Operator `json:"operator"`
	Expected Value    `json:"expected"`
	// Result is the auditor's verdict, nil when the clause was serialized
	// before evaluation.
	Result *bool `json:"result,omitempty"`
}

func (*SingleClause) clauseNode() {}

// ClauseKind implements WhereClause.
func (*SingleClause) ClauseKind() ClauseType { return ClauseSingle }

// UnknownClause stands in for a clause whose tag is not and/or/single.
type UnknownClause struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

func (*UnknownClause) clauseNode() {}

// ClauseKind implements WhereClause. The raw tag is returned verbatim.
func (c *UnknownClause) ClauseKind() ClauseType { return ClauseType(c.Type) }
