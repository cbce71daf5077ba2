package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/auditview/internal/audit"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Result is one stored audit run for a student and area.
type Result struct {
	ID        int64              `json:"id"`
	StudentID string             `json:"student_id"`
	AreaCode  string             `json:"area_code"`
	Catalog   string             `json:"catalog"`
	Area      *audit.AreaOfStudy `json:"area,omitempty"`
	// Result is the evaluation-result document; nil when the audit has not
	// finished or failed.
	Result json.RawMessage `json:"result,omitempty"`
	// Error is the auditor's error payload, if any.
	Error      json.RawMessage `json:"error,omitempty"`
	OK         bool            `json:"ok"`
	Rank       float64         `json:"rank"`
	ResultHash string          `json:"result_hash,omitempty"`
	Timestamp  string          `json:"ts,omitempty"`
}

// PutResult inserts r and returns its id. When r.ID is zero a new id is
// assigned; a non-zero id replaces any existing row with that id. The result
// hash is computed from r.Result.
func (s *Store) PutResult(ctx context.Context, r Result) (int64, error) {
	hash := ""
	if len(r.Result) > 0 {
		h, err := audit.ResultHash(r.Result)
		if err != nil {
			return 0, fmt.Errorf("put result: %w", err)
		}
		hash = h
	}

	var areaJSON sql.NullString
	if r.Area != nil {
		data, err := json.Marshal(r.Area)
		if err != nil {
			return 0, fmt.Errorf("put result: marshal area: %w", err)
		}
		areaJSON = sql.NullString{String: string(data), Valid: true}
	}

	var id sql.NullInt64
	if r.ID != 0 {
		id = sql.NullInt64{Int64: r.ID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results
		(id, student_id, area_code, catalog, area, result, error, ok, rank, result_hash, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		r.StudentID,
		r.AreaCode,
		r.Catalog,
		areaJSON,
		nullableJSON(r.Result),
		nullableJSON(r.Error),
		r.OK,
		r.Rank,
		hash,
		r.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("put result: %w", err)
	}
	if r.ID != 0 {
		return r.ID, nil
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("put result: %w", err)
	}
	return newID, nil
}

// GetResult returns the result with the given id, or ErrNotFound.
func (s *Store) GetResult(ctx context.Context, id int64) (Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, area_code, catalog, area, result, error, ok, rank, result_hash, ts
		FROM results
		WHERE id = ?
	`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Result{}, fmt.Errorf("get result %d: %w", id, err)
	}
	return r, nil
}

// ListResults returns every stored result ordered by id. Returns an empty
// slice (not nil) when the store is empty.
func (s *Store) ListResults(ctx context.Context) ([]Result, error) {
	return s.FindResults(ctx, nil)
}

// FindResults returns the results matching p, ordered by id. A nil
// predicate matches every row.
func (s *Store) FindResults(ctx context.Context, p Predicate) ([]Result, error) {
	query, params, err := compileQuery(p)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (Result, error) {
	var (
		r                      Result
		area, result, errorDoc sql.NullString
	)
	if err := row.Scan(
		&r.ID, &r.StudentID, &r.AreaCode, &r.Catalog,
		&area, &result, &errorDoc,
		&r.OK, &r.Rank, &r.ResultHash, &r.Timestamp,
	); err != nil {
		return Result{}, err
	}
	if area.Valid {
		r.Area = &audit.AreaOfStudy{}
		if err := json.Unmarshal([]byte(area.String), r.Area); err != nil {
			return Result{}, fmt.Errorf("scan result %d: area: %w", r.ID, err)
		}
	}
	if result.Valid {
		r.Result = json.RawMessage(result.String)
	}
	if errorDoc.Valid {
		r.Error = json.RawMessage(errorDoc.String)
	}
	return r, nil
}

func nullableJSON(doc json.RawMessage) sql.NullString {
	if len(doc) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(doc), Valid: true}
}
