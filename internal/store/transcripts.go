package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/roach88/auditview/internal/audit"
)

// Transcript is a student's stored course list.
type Transcript struct {
	StudentID string         `json:"student_id"`
	Courses   []audit.Course `json:"courses"`
	Hash      string         `json:"hash"`
}

// PutTranscript stores courses for studentID, replacing any previous
// transcript, and returns its content hash.
func (s *Store) PutTranscript(ctx context.Context, studentID string, courses []audit.Course) (string, error) {
	if courses == nil {
		courses = []audit.Course{}
	}
	data, err := json.Marshal(courses)
	if err != nil {
		return "", fmt.Errorf("put transcript: %w", err)
	}
	hash, err := audit.TranscriptHash(data)
	if err != nil {
		return "", fmt.Errorf("put transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (student_id, courses, hash)
		VALUES (?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET courses = excluded.courses, hash = excluded.hash
	`, studentID, string(data), hash)
	if err != nil {
		return "", fmt.Errorf("put transcript: %w", err)
	}

	s.transcripts.Delete(studentID)
	return hash, nil
}

// GetTranscript returns the stored transcript for studentID, or ErrNotFound.
// Reads are served from cache when possible.
func (s *Store) GetTranscript(ctx context.Context, studentID string) (Transcript, error) {
	if cached, ok := s.transcripts.Get(studentID); ok {
		return cached.(Transcript), nil
	}

	var data, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT courses, hash FROM transcripts WHERE student_id = ?
	`, studentID).Scan(&data, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, fmt.Errorf("transcript %q: %w", studentID, ErrNotFound)
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("get transcript %q: %w", studentID, err)
	}

	t := Transcript{StudentID: studentID, Hash: hash}
	if err := json.Unmarshal([]byte(data), &t.Courses); err != nil {
		return Transcript{}, fmt.Errorf("get transcript %q: %w", studentID, err)
	}
	s.transcripts.Set(studentID, t, gocache.DefaultExpiration)
	return t, nil
}
