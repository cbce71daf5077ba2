package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/auditview/internal/audit"
)

func TestCountHeader(t *testing.T) {
	tests := []struct {
		required, total int
		ok              bool
		want            string
	}{
		{1, 2, true, "Either item is required blah"},
		{1, 2, false, "Either item is required"},
		{2, 2, true, "Both items were successful"},
		{2, 2, false, "Both items are required"},
		{3, 3, true, "All items were successful"},
		{3, 3, false, "All items are required"},
		{1, 1, true, "All items were successful"},
		{1, 4, true, "1 item is required blah"},
		{1, 4, false, "1 item is required"},
		{2, 5, true, "2 of 5 items are required"},
		{3, 5, false, "3 of 5 items are required"},
		{2, 1, false, "2 of 1 item is required"},
		{2, 0, false, "2 of 0 items are required"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountHeader(tt.required, tt.total, tt.ok), "required=%d total=%d ok=%v", tt.required, tt.total, tt.ok)
	}
}

func TestCountHeader_Pluralization(t *testing.T) {
	for _, ok := range []bool{true, false} {
		assert.Contains(t, CountHeader(3, 1, ok), "item is required")
		for _, total := range []int{0, 4, 7} {
			assert.Contains(t, CountHeader(2, total, ok), "items are required")
		}
	}
}

func TestThresholdText(t *testing.T) {
	assert.Equal(t, "There must be at least 1 course.", ThresholdText(audit.Number("1")))
	assert.Equal(t, "There must be at least 2 courses.", ThresholdText(audit.Number("2")))
	assert.Equal(t, "There must be at least 1.0 courses.", ThresholdText(audit.String("1.0")))
	assert.Equal(t, "There must be at least  courses.", ThresholdText(nil))
}

func TestOutcomeText(t *testing.T) {
	assert.Equal(t, "There was a course!", OutcomeText(1, true))
	assert.Equal(t, "There were 3 courses!", OutcomeText(3, true))
	assert.Equal(t, "There were 0 courses!", OutcomeText(0, true))
	assert.Equal(t, "There was only 1 course.", OutcomeText(1, false))
	assert.Equal(t, "There were only 0 courses.", OutcomeText(0, false))
}

func TestRequirementHeader(t *testing.T) {
	assert.Equal(t, "Requirement “Core” is complete!", RequirementHeader("Core", true))
	assert.Equal(t, "Requirement “Core” is incomplete.", RequirementHeader("Core", false))
}

func TestAreaHeader(t *testing.T) {
	assert.Equal(t, "", AreaHeader(nil))
	assert.Equal(t, "Computer Science (major, 2019)", AreaHeader(&audit.AreaOfStudy{Name: "Computer Science", Type: audit.AreaMajor, CatalogYear: 2019}))
	assert.Equal(t, "Bachelor of Arts (degree, 2020) B.A.", AreaHeader(&audit.AreaOfStudy{Name: "Bachelor of Arts", Type: audit.AreaDegree, CatalogYear: 2020, Degree: "B.A."}))
}

func TestTakenInText(t *testing.T) {
	assert.Equal(t, "Taken in 2019-3", TakenInText(audit.Term{Year: 2019, Semester: audit.SemesterSpring, Structured: true}))
}
