// Package transcript indexes a student's course records by clbid.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/auditview/internal/audit"
)

// Index maps a clbid to its transcript record. Build it once per render pass.
// An Index is read-only after construction and safe for concurrent readers.
type Index struct {
	byID  map[audit.CLBID]audit.Course
	order []audit.CLBID
}

// NewIndex builds an Index from courses. When two records share a clbid the
// later one wins; duplicates are not an error.
func NewIndex(courses []audit.Course) *Index {
	idx := &Index{
		byID:  make(map[audit.CLBID]audit.Course, len(courses)),
		order: make([]audit.CLBID, 0, len(courses)),
	}
	for _, c := range courses {
		if _, seen := idx.byID[c.CLBID]; !seen {
			idx.order = append(idx.order, c.CLBID)
		}
		idx.byID[c.CLBID] = c
	}
	return idx
}

// Lookup returns the course for clbid. Absence is a normal result.
// A nil Index behaves as an empty one.
func (idx *Index) Lookup(clbid audit.CLBID) (audit.Course, bool) {
	if idx == nil {
		return audit.Course{}, false
	}
	c, ok := idx.byID[clbid]
	return c, ok
}

// Len returns the number of distinct clbids.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byID)
}

// Courses returns the indexed records in first-seen order.
func (idx *Index) Courses() []audit.Course {
	if idx == nil {
		return nil
	}
	out := make([]audit.Course, len(idx.order))
	for i, id := range idx.order {
		out[i] = idx.byID[id]
	}
	return out
}

// Decode parses a transcript document: either a bare JSON array of courses
// or an object with a `courses` array.
func Decode(data []byte) ([]audit.Course, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode transcript: empty document")
	}

	if trimmed[0] == '{' {
		var wrapper struct {
			Courses []audit.Course `json:"courses"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		return wrapper.Courses, nil
	}

	var courses []audit.Course
	if err := json.Unmarshal(trimmed, &courses); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return courses, nil
}

// Sorted returns a copy of courses ordered by course code. Ties keep their
// transcript order.
func Sorted(courses []audit.Course) []audit.Course {
	out := slices.Clone(courses)
	slices.SortStableFunc(out, func(a, b audit.Course) int {
		return strings.Compare(a.Course, b.Course)
	})
	return out
}

// TermLabel renders when a course was taken, e.g. "Fall 2019".
func TermLabel(c audit.Course) string {
	sem, year := c.Semester, c.Year
	if c.Term.Structured {
		sem, year = c.Term.Semester, c.Term.Year
	}
	return fmt.Sprintf("%s %d", sem, year)
}
