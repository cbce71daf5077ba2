// Package audit provides the domain model for degree-audit evaluation results.
//
// An evaluation result is a recursive tree of rule nodes (course, count,
// reference, from, requirement) annotated by the auditor with pass/fail
// status, claimed courses and boolean where-clause predicates. This package
// only models and decodes that tree; it never re-evaluates it.
//
// All other internal packages import audit; audit imports nothing internal.
//
// Key constraints:
//   - Rule and WhereClause are sealed interfaces; exhaustive type switches
//     must carry a default arm (unknown tags decode to UnknownRule/UnknownClause)
//   - Decoded trees are immutable snapshots; nothing mutates a node after parse
//   - Unknown tags never abort a parse, they are reported as SchemaErrors
//   - All JSON tags use snake_case
package audit
