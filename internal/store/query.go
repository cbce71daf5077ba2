package store

import (
	"fmt"
	"slices"
	"strings"
)

// Predicate filters stored results.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: column = value
//   - Null / NotNull: column IS [NOT] NULL
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Null matches rows whose column is NULL.
type Null struct {
	Field string
}

func (Null) predicateNode() {}

// NotNull matches rows whose column is not NULL.
type NotNull struct {
	Field string
}

func (NotNull) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Result statuses a listing can filter on.
const (
	StatusComplete   = "Complete"
	StatusIncomplete = "Incomplete"
	StatusPending    = "Pending"
	StatusError      = "Error"
)

// Filter selects stored results. Zero-valued fields do not constrain.
type Filter struct {
	StudentID string
	AreaCode  string
	Catalog   string
	Status    string
}

// Predicate converts f to a predicate tree.
func (f Filter) Predicate() (Predicate, error) {
	var preds []Predicate
	for _, eq := range []Equals{
		{Field: "student_id", Value: f.StudentID},
		{Field: "area_code", Value: f.AreaCode},
		{Field: "catalog", Value: f.Catalog},
	} {
		if eq.Value != "" {
			preds = append(preds, eq)
		}
	}

	switch f.Status {
	case "":
	case StatusComplete, StatusIncomplete:
		preds = append(preds,
			NotNull{Field: "result"},
			Null{Field: "error"},
			Equals{Field: "ok", Value: f.Status == StatusComplete},
		)
	case StatusPending:
		preds = append(preds, Null{Field: "result"}, Null{Field: "error"})
	case StatusError:
		preds = append(preds, NotNull{Field: "error"})
	default:
		return nil, fmt.Errorf("unknown status %q: must be one of %s, %s, %s, %s",
			f.Status, StatusComplete, StatusIncomplete, StatusPending, StatusError)
	}
	return And{Predicates: preds}, nil
}

// StatusOf classifies a stored result the way Filter.Status matches it.
func StatusOf(r Result) string {
	switch {
	case len(r.Error) > 0:
		return StatusError
	case len(r.Result) == 0:
		return StatusPending
	case r.OK:
		return StatusComplete
	default:
		return StatusIncomplete
	}
}

// filterColumns lists the columns a predicate may reference. Column names
// are interpolated into SQL, so anything else is rejected.
var filterColumns = []string{"student_id", "area_code", "catalog", "ok", "result", "error"}

const selectResults = `SELECT id, student_id, area_code, catalog, area, result, error, ok, rank, result_hash, ts FROM results`

// compileQuery converts a predicate to parameterized SQL over the results
// table. Every query is ordered by id; values are never interpolated.
func compileQuery(p Predicate) (string, []any, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, err
	}
	sql := selectResults
	if where != "" {
		sql += " WHERE " + where
	}
	return sql + " ORDER BY id ASC", params, nil
}

// compilePredicate returns "" for a predicate that matches everything.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case Equals:
		if err := checkColumn(pred.Field); err != nil {
			return "", nil, err
		}
		return pred.Field + " = ?", []any{pred.Value}, nil
	case Null:
		if err := checkColumn(pred.Field); err != nil {
			return "", nil, err
		}
		return pred.Field + " IS NULL", nil, nil
	case NotNull:
		if err := checkColumn(pred.Field); err != nil {
			return "", nil, err
		}
		return pred.Field + " IS NOT NULL", nil, nil
	case And:
		var parts []string
		var params []any
		for _, child := range pred.Predicates {
			sql, childParams, err := compilePredicate(child)
			if err != nil {
				return "", nil, err
			}
			if sql == "" {
				continue
			}
			parts = append(parts, sql)
			params = append(params, childParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func checkColumn(field string) error {
	if !slices.Contains(filterColumns, field) {
		return fmt.Errorf("cannot filter on column %q", field)
	}
	return nil
}
