package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Semester is the term-within-year code used by the registrar.
type Semester int

const (
	SemesterFall      Semester = 1
	SemesterInterim   Semester = 2
	SemesterSpring    Semester = 3
	SemesterSummer1   Semester = 4
	SemesterSummer2   Semester = 5
	SemesterNotNative Semester = 9
)

// String returns the registrar's display name for the semester.
func (s Semester) String() string {
	switch s {
	case SemesterFall:
		return "Fall"
	case SemesterInterim:
		return "Interim"
	case SemesterSpring:
		return "Spring"
	case SemesterSummer1:
		return "Summer Session 1"
	case SemesterSummer2:
		return "Summer Session 2"
	case SemesterNotNative:
		return "Not St. Olaf"
	default:
		return "Error"
	}
}

// Term is when a course was taken. External (non-native) courses carry a
// flat numeric code; native courses carry a structured year/semester pair.
type Term struct {
	Code       int
	Year       int
	Semester   Semester
	Structured bool
}

// UnmarshalJSON implements json.Unmarshaler for Term.
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Term{}
		return nil
	case data[0] == '{':
		var pair struct {
			Year     int `json:"year"`
			Semester int `json:"semester"`
		}
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("term: %w", err)
		}
		*t = Term{Year: pair.Year, Semester: Semester(pair.Semester), Structured: true}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		code, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("term %q: %w", s, err)
		}
		*t = Term{Code: code}
		return nil
	default:
		var code int
		if err := json.Unmarshal(data, &code); err != nil {
			return fmt.Errorf("term: %w", err)
		}
		*t = Term{Code: code}
		return nil
	}
}

// MarshalJSON implements json.Marshaler for Term.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.Structured {
		return json.Marshal(struct {
			Year     int `json:"year"`
			Semester int `json:"semester"`
		}{t.Year, int(t.Semester)})
	}
	return json.Marshal(t.Code)
}

// Course is one transcript record.
type Course struct {
	CLBID          CLBID    `json:"clbid"`
	Course         string   `json:"course"`
	Name           string   `json:"name"`
	Credits        float64  `json:"credits"`
	GEReqs         []string `json:"gereqs"`
	Grade          string   `json:"grade"`
	Graded         string   `json:"graded,omitempty"`
	Incomplete     bool     `json:"incomplete"`
	IsRepeat       bool     `json:"is_repeat"`
	Lab            bool     `json:"lab"`
	Number         string   `json:"number,omitempty"`
	Section        string   `json:"section,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	TranscriptCode string   `json:"transcript_code,omitempty"`
	Term           Term     `json:"term"`
	Semester       Semester `json:"semester,omitempty"`
	Year           int      `json:"year,omitempty"`
}

// AreaType classifies an area of study.
type AreaType string

const (
	AreaMajor         AreaType = "major"
	AreaConcentration AreaType = "concentration"
	AreaEmphasis      AreaType = "emphasis"
	AreaDegree        AreaType = "degree"
)

// AreaOfStudy describes the program a result was audited against. It only
// feeds the document header.
type AreaOfStudy struct {
	ID          int      `json:"id" yaml:"id"`
	Code        string   `json:"code" yaml:"code"`
	Name        string   `json:"name" yaml:"name"`
	Type        AreaType `json:"type" yaml:"type"`
	Degree      string   `json:"degree,omitempty" yaml:"degree,omitempty"`
	CatalogYear int      `json:"catalog_year" yaml:"catalog_year"`
	SuccessRank float64  `json:"success_rank" yaml:"success_rank"`
}
