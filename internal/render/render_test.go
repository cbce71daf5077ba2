package render

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/auditview/internal/audit"
	"github.com/roach88/auditview/internal/disclosure"
	"github.com/roach88/auditview/internal/transcript"
	"github.com/roach88/auditview/internal/view"
)

func parse(t *testing.T, doc string) *audit.Tree {
	t.Helper()
	tree, err := audit.ParseResult([]byte(doc))
	require.NoError(t, err)
	return tree
}

func testIndex() *transcript.Index {
	return transcript.NewIndex([]audit.Course{
		{CLBID: "1", Course: "CSCI 121", Name: "Principles of Computer Science", Term: audit.Term{Year: 2019, Semester: audit.SemesterFall, Structured: true}},
		{CLBID: "2", Course: "CSCI 125", Name: "Computer Science for Scientists", Term: audit.Term{Code: 20183}},
		{CLBID: "3", Course: "MATH 120", Name: "Calculus I"},
	})
}

func newRenderer(toggles ...string) *Renderer {
	s := disclosure.NewSession(disclosure.FixedGenerator{ID: "test-session"})
	s.Toggle(toggles...)
	return &Renderer{Index: testIndex(), Session: s}
}

func courseJSON(name string, ok bool, clbid string) string {
	status := "fail"
	if ok {
		status = "pass"
	}
	claims := "[]"
	if clbid != "" {
		claims = `[{"claim": {"claimant_path": ["$"], "clbid": "` + clbid + `"}, "claimant_path": ["$"]}]`
	}
	return `{"type": "course", "course": "` + name + `", "ok": ` + boolJSON(ok) + `, "status": "` + status + `", "rank": 0, "claims": ` + claims + `}`
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestRender_EitherItemHeader(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 1,
		"items": [
			`+courseJSON("CSCI 121", true, "1")+`,
			{"type": "from", "ok": false, "status": "fail", "rank": 0,
			 "source": {"mode": "student", "itemtype": "courses"}, "limit": [],
			 "action": {"command": "count", "compare_to": 1}, "claims": []}
		]
	}`)

	root, problems := newRenderer().Render(tree.Root)
	require.Empty(t, problems)
	require.NotNil(t, root)

	assert.Equal(t, "Either item is required blah", root.Header)
	assert.Equal(t, "$", root.Key)
	assert.True(t, root.Open, "top-level count is forced open")
	require.Len(t, root.Children, 2, "not collapsed: one item is not a course rule")
	assert.Equal(t, "CSCI 121: Principles of Computer Science", root.Children[0].Header)
	assert.False(t, root.Children[0].Open)
}

func TestRender_CollapsesSinglePassingCourse(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 1,
		"items": [
			`+courseJSON("CSCI 121", false, "")+`,
			`+courseJSON("CSCI 125", true, "2")+`,
			`+courseJSON("MATH 120", false, "")+`
		]
	}`)

	root, _ := newRenderer().Render(tree.Root)
	require.NotNil(t, root)

	assert.Equal(t, string(audit.TypeCourse), root.Kind)
	assert.Equal(t, "$.items[1]", root.Key)
	assert.Equal(t, "CSCI 125: Computer Science for Scientists", root.Header)
	assert.Empty(t, root.Children)

	// The input tree is unchanged.
	count := tree.Root.(*audit.CountRule)
	assert.Len(t, count.Items, 3)
	assert.True(t, count.OK)
}

func TestRender_CollapseIsIdempotent(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 1,
		"items": [
			{"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 1,
			 "items": [`+courseJSON("CSCI 121", true, "1")+`, `+courseJSON("CSCI 125", false, "")+`]},
			`+courseJSON("MATH 120", false, "")+`
		]
	}`)

	r := newRenderer()
	first, _ := r.Render(tree.Root)
	second, _ := r.Render(tree.Root)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("render not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, "$.items[0].items[0]", first.Key, "nested collapse reaches the passing course")
}

func TestRender_HiddenCourses(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 2, "ok": false, "status": "fail", "rank": 0,
		"items": [
			`+courseJSON("CSCI 121", false, "")+`,
			{"type": "course", "course": "CSCI 999", "hidden": true, "ok": false, "status": "fail", "rank": 0},
			{"type": "course", "course": "CSCI 998", "hidden": true, "ok": true, "status": "pass", "rank": 0,
			 "claims": [{"claim": {"claimant_path": [], "clbid": "3"}, "claimant_path": []}]},
			`+courseJSON("MATH 120", false, "")+`
		]
	}`)

	root, _ := newRenderer().Render(tree.Root)
	require.NotNil(t, root)

	assert.Equal(t, "Both items are required", root.Header, "hidden courses leave the denominator")
	require.Len(t, root.Children, 3, "hidden unpassed course renders as nothing")
	assert.Equal(t, "$.items[2]", root.Children[1].Key)
	assert.Equal(t, "CSCI 998: Calculus I", root.Children[1].Header)
}

func TestRender_FromOutcome(t *testing.T) {
	tree := parse(t, `{
		"type": "from", "ok": true, "status": "pass", "rank": 3,
		"source": {"mode": "student", "itemtype": "courses"},
		"limit": [], "where": null,
		"action": {"command": "count", "compare_to": 2, "operator": "GreaterThanOrEqualTo", "source": "courses"},
		"claims": [
			{"claim": {"claimant_path": [], "clbid": "1"}, "claimant_path": []},
			{"claim": {"claimant_path": [], "clbid": "2"}, "claimant_path": []},
			{"claim": {"claimant_path": [], "clbid": "3"}, "claimant_path": []}
		]
	}`)

	collapsed, _ := newRenderer().Render(tree.Root)
	assert.Equal(t, FromIntro, collapsed.Header)
	assert.False(t, collapsed.Open)
	assert.Empty(t, collapsed.Body)

	root, problems := newRenderer("$").Render(tree.Root)
	require.Empty(t, problems)
	require.True(t, root.Open)
	require.Len(t, root.Body, 3)
	assert.Equal(t, view.Paragraph{Text: "There must be at least 2 courses."}, root.Body[0])
	assert.Equal(t, view.Paragraph{Text: "There were 3 courses!"}, root.Body[1])

	list := root.Body[2].(view.CourseList)
	require.Len(t, list.Courses, 3)
	assert.Equal(t, "MATH 120: Calculus I", list.Courses[2].Label)
}

func TestRender_FromUnresolvedClaim(t *testing.T) {
	tree := parse(t, `{
		"type": "from", "ok": false, "status": "fail", "rank": 0,
		"source": {"mode": "student", "itemtype": "courses"},
		"limit": [],
		"action": {"command": "count", "compare_to": 1},
		"claims": [{"claim": {"claimant_path": [], "clbid": "404"}, "claimant_path": []}]
	}`)

	var root *view.Node
	var problems Problems
	require.NotPanics(t, func() { root, problems = newRenderer().Render(tree.Root) })

	require.True(t, root.Open)
	assert.Equal(t, view.Paragraph{Text: "There must be at least 1 course."}, root.Body[0])
	assert.Equal(t, view.Paragraph{Text: "There was only 1 course."}, root.Body[1])
	list := root.Body[2].(view.CourseList)
	assert.Equal(t, "???: ???", list.Courses[0].Label)
	assert.False(t, list.Courses[0].Known)

	require.Len(t, problems, 1)
	assert.Equal(t, view.CodeUnresolvedClaim, problems[0].Code)
	assert.Equal(t, audit.Path("$.claims[0]"), problems[0].Path)
}

func TestRender_CourseUnresolvedClaim(t *testing.T) {
	tree := parse(t, courseJSON("ART 101", true, "404"))

	root, problems := newRenderer().Render(tree.Root)
	assert.Equal(t, "ART 101: ???", root.Header)
	assert.Equal(t, 1, problems.Count(view.CodeUnresolvedClaim))
}

func TestRender_CourseTakenIn(t *testing.T) {
	structured := parse(t, courseJSON("CSCI 121", true, "1"))
	root, _ := newRenderer("$").Render(structured.Root)
	assert.Equal(t, []view.Block{view.Paragraph{Text: "Taken in 2019-1"}}, root.Body)

	flat := parse(t, courseJSON("CSCI 125", true, "2"))
	root, _ = newRenderer("$").Render(flat.Root)
	assert.True(t, root.Open)
	assert.Empty(t, root.Body, "flat term codes show no term line")
}

func TestRender_CourseSkipped(t *testing.T) {
	tree := parse(t, `{"type": "course", "course": "CSCI 121", "ok": false, "status": "skip", "rank": 0}`)
	root, _ := newRenderer().Render(tree.Root)
	assert.True(t, root.Skipped)
	assert.Equal(t, "CSCI 121", root.Header)
	assert.Equal(t, view.GlyphWarn, root.Glyph)
}

func TestRender_FromRestrictionsAndAssertions(t *testing.T) {
	tree := parse(t, `{
		"type": "from", "ok": false, "status": "fail", "rank": 0,
		"source": {"mode": "student", "itemtype": "courses"},
		"limit": [{"at_most": 2, "where": {"type": "single-clause", "key": "level", "operator": "EqualTo", "expected": 100}}],
		"where": {"type": "single-clause", "key": "gereqs", "operator": "EqualTo", "expected": ["WRI"]},
		"assertions": [{"assertion": {"type": "single-clause", "key": "count(courses)", "operator": "GreaterThanOrEqualTo", "expected": 2}, "where": null}],
		"action": {"command": "count", "compare_to": 2},
		"claims": []
	}`)

	root, problems := newRenderer().Render(tree.Root)
	require.Empty(t, problems)
	require.Len(t, root.Body, 6)

	limits := root.Body[0].(view.Details)
	assert.Equal(t, "Subject to the following restrictions…", limits.Summary)
	assert.Equal(t, view.Paragraph{Text: "At most 2 courses that match"}, limits.Body[0])
	assert.Equal(t, "level is 100", limits.Body[1].(view.ClauseLine).Text())

	whereBlock := root.Body[1].(view.Details)
	assert.Equal(t, "GE Requirement is WRI", whereBlock.Body[0].(view.ClauseLine).Text())

	assertions := root.Body[2].(view.Details)
	assert.Equal(t, "Fulfilling the following assertions…", assertions.Summary)
	assert.Equal(t, view.Paragraph{Text: "There were only 0 courses."}, root.Body[4])
}

func TestRender_FromUnsupportedSource(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 2, "ok": false, "status": "fail", "rank": 0,
		"items": [
			{"type": "from", "ok": false, "status": "fail", "rank": 0,
			 "source": {"mode": "area", "itemtype": "areas"}, "limit": [],
			 "action": {"command": "count", "compare_to": 1}, "claims": []},
			`+courseJSON("CSCI 121", false, "")+`
		]
	}`)

	root, problems := newRenderer().Render(tree.Root)
	require.Len(t, root.Children, 2, "sibling still renders")

	bad := root.Children[0]
	assert.Equal(t, view.GlyphWarn, bad.Glyph)
	eb := bad.Body[0].(view.ErrorBlock)
	assert.Equal(t, view.CodeUnsupportedFromSource, eb.Code)
	assert.Contains(t, eb.Message, `"area"`)
	assert.Equal(t, "CSCI 121", root.Children[1].Header)

	require.Len(t, problems, 1)
	assert.True(t, HasCode(problems.Err(), view.CodeUnsupportedFromSource))
}

func TestRender_FromMissingClaims(t *testing.T) {
	tree := parse(t, `{"type": "from", "ok": true, "status": "pass", "rank": 0,
		"source": {"mode": "student", "itemtype": "courses"}, "limit": [],
		"action": {"command": "count", "compare_to": 1}}`)

	root, problems := newRenderer().Render(tree.Root)
	assert.True(t, root.Open, "failures are always shown")
	assert.Equal(t, view.CodeMissingClaims, root.Body[0].(view.ErrorBlock).Code)
	assert.Equal(t, 1, problems.Count(view.CodeMissingClaims))
}

func TestRender_MalformedWhereClause(t *testing.T) {
	tree := parse(t, `{
		"type": "from", "ok": false, "status": "fail", "rank": 0,
		"source": {"mode": "student", "itemtype": "courses"}, "limit": [],
		"where": {"type": "and-clause", "children": [
			{"type": "xor-clause"},
			{"type": "single-clause", "key": "level", "operator": "In", "expected": [100, 200]}
		]},
		"action": {"command": "count", "compare_to": 1}, "claims": []
	}`)
	require.Len(t, tree.Problems, 1)

	root, problems := newRenderer().Render(tree.Root)
	group := root.Body[0].(view.Details).Body[0].(view.ClauseGroup)
	require.Len(t, group.Children, 2)
	assert.Equal(t, view.CodeMalformedWhereClause, group.Children[0].(view.ErrorBlock).Code)
	assert.Equal(t, "level In 100, 200", group.Children[1].(view.ClauseLine).Text())

	require.Len(t, problems, 1)
	assert.Equal(t, audit.Path("$.where"), problems[0].Path)
}

func TestRender_UnknownRuleIsContained(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 2, "ok": false, "status": "fail", "rank": 0,
		"items": [{"type": "mystery", "ok": false}, `+courseJSON("CSCI 121", true, "1")+`]
	}`)

	root, problems := newRenderer().Render(tree.Root)
	require.Len(t, root.Children, 2)

	unknown := root.Children[0]
	assert.Equal(t, "Unknown rule type: mystery", unknown.Header)
	assert.Equal(t, view.GlyphWarn, unknown.Glyph)
	assert.Equal(t, view.CodeSchemaError, unknown.Body[0].(view.ErrorBlock).Code)
	assert.Equal(t, "CSCI 121: Principles of Computer Science", root.Children[1].Header)

	require.Len(t, problems, 1)
	assert.Equal(t, "mystery", problems[0].Tag)
}

func TestRender_UndecodableCourseBlocksCollapse(t *testing.T) {
	tree := parse(t, `{
		"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 1,
		"items": [`+courseJSON("CSCI 121", true, "1")+`, {"type": "course", "course": 5, "ok": false}]
	}`)
	require.Len(t, tree.Problems, 1)

	root, problems := newRenderer().Render(tree.Root)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "CSCI 121: Principles of Computer Science", root.Children[0].Header)
	assert.Equal(t, "Unknown rule type: course", root.Children[1].Header)
	assert.Equal(t, view.CodeSchemaError, root.Children[1].Body[0].(view.ErrorBlock).Code)

	require.Len(t, problems, 1)
	assert.Equal(t, audit.Path("$.items[1]"), problems[0].Path)
}

func TestRender_MalformedNestedRequirementIsShown(t *testing.T) {
	tree := parse(t, `{
		"type": "requirement", "name": "Outer", "ok": false, "status": "fail", "rank": 0,
		"result": {"type": "reference", "name": "x", "ok": false, "rank": 0},
		"requirements": {"Inner": {"type": "requirement", "name": 5, "ok": false, "rank": 0}}
	}`)
	require.Len(t, tree.Problems, 1)

	root, problems := newRenderer().Render(tree.Root)
	require.Len(t, root.Children, 2)
	inner := root.Children[1]
	assert.Equal(t, `$.requirements["Inner"]`, inner.Key)
	assert.Equal(t, view.GlyphWarn, inner.Glyph)
	assert.Equal(t, view.CodeSchemaError, inner.Body[0].(view.ErrorBlock).Code)

	require.Len(t, problems, 1)
	assert.Equal(t, "requirement", problems[0].Tag)
}

func TestProblems_WithSchemaErrors(t *testing.T) {
	tree := parse(t, `{
		"type": "requirement", "name": "Outer", "ok": true, "status": "pass", "rank": 1,
		"result": {"type": "course", "course": 5, "ok": true},
		"requirements": {"Inner": {"type": "requirement", "name": 5, "ok": false}}
	}`)
	require.Len(t, tree.Problems, 2)

	root, problems := newRenderer().Render(tree.Root)
	assert.False(t, root.Open)
	assert.Empty(t, problems, "collapsed subtrees are not walked")

	merged := problems.WithSchemaErrors(tree.Problems)
	require.Len(t, merged, 2)
	assert.Equal(t, 2, merged.Count(view.CodeSchemaError))
	assert.Equal(t, audit.Path("$.result"), merged[0].Path)

	opened, problems := newRenderer("$").Render(tree.Root)
	assert.True(t, opened.Open)
	require.Len(t, problems, 2)
	assert.Len(t, problems.WithSchemaErrors(tree.Problems), 2, "paths already reported are not repeated")
}

func TestRender_Reference(t *testing.T) {
	tree := parse(t, `{"type": "reference", "name": "Core", "ok": true, "status": "pass", "rank": 0}`)
	root, _ := newRenderer().Render(tree.Root)
	assert.Equal(t, "reference", root.Header)
	assert.Equal(t, view.GlyphNone, root.Glyph)
}

func TestRender_Requirement(t *testing.T) {
	tree := parse(t, `{
		"type": "requirement", "name": "Writing", "ok": false, "status": "fail", "rank": 0,
		"message": "Take two writing courses.",
		"result": `+courseJSON("ENGL 150", false, "")+`,
		"requirements": {
			"Zeta": {"type": "requirement", "name": "Zeta", "ok": true, "status": "pass", "rank": 0, "audited_by": "registrar", "result": null},
			"Alpha": {"type": "requirement", "name": "Alpha", "ok": false, "status": "fail", "rank": 0, "result": `+courseJSON("ENGL 151", false, "")+`}
		}
	}`)
	require.Empty(t, tree.Problems)

	root, _ := newRenderer(`$.requirements["Zeta"]`).Render(tree.Root)
	assert.Equal(t, "Requirement “Writing” is incomplete.", root.Header)
	assert.Equal(t, []view.Block{view.Paragraph{Text: "Take two writing courses."}}, root.Body)

	require.Len(t, root.Children, 3)
	assert.Equal(t, "$.result", root.Children[0].Key)
	assert.Equal(t, `$.requirements["Alpha"]`, root.Children[1].Key)
	zeta := root.Children[2]
	assert.Equal(t, "Requirement “Zeta” is complete!", zeta.Header)
	assert.Equal(t, []view.Block{view.Paragraph{Text: "Audited by: registrar; assuming success"}}, zeta.Body)
	assert.Empty(t, zeta.Children)
}

func TestRender_ToggleCollapsesFailedNode(t *testing.T) {
	tree := parse(t, `{"type": "requirement", "name": "Writing", "ok": false, "status": "fail", "rank": 0,
		"result": `+courseJSON("ENGL 150", false, "")+`}`)

	root, _ := newRenderer("$").Render(tree.Root)
	assert.False(t, root.Open)
	assert.Empty(t, root.Children)
}

func TestDocument(t *testing.T) {
	tree := parse(t, `{"type": "count", "count": 1, "ok": true, "status": "pass", "rank": 3,
		"items": [`+courseJSON("CSCI 121", true, "1")+`, {"type": "reference", "name": "x", "ok": false}]}`)
	area := &audit.AreaOfStudy{Name: "Computer Science", Type: audit.AreaMajor, CatalogYear: 2019, SuccessRank: 4}

	doc, problems := newRenderer().Document(tree, nil, area)
	require.Empty(t, problems)
	assert.Equal(t, "test-session", doc.SessionID)
	assert.Equal(t, "Computer Science (major, 2019)", doc.Header)
	assert.Equal(t, "Complete", doc.Status)
	assert.Equal(t, &view.Progress{Rank: 3, SuccessRank: 4}, doc.Progress)
	require.NotNil(t, doc.Root)
}

func TestDocument_NotComplete(t *testing.T) {
	doc, _ := newRenderer().Document(nil, nil, nil)
	assert.Equal(t, NotCompleteMessage, doc.Message)
	assert.Nil(t, doc.Root)
}

func TestDocument_ErrorPayload(t *testing.T) {
	doc, _ := newRenderer().Document(nil, json.RawMessage(`{"error":"timeout"}`), nil)
	assert.Equal(t, "{\n  \"error\": \"timeout\"\n}", string(doc.Error))

	doc, _ = newRenderer().Document(nil, json.RawMessage(`null`), nil)
	assert.Equal(t, NotCompleteMessage, doc.Message)
}

func TestRenderer_ZeroValue(t *testing.T) {
	tree := parse(t, courseJSON("CSCI 121", true, "1"))
	var r Renderer
	root, problems := r.Render(tree.Root)
	assert.Equal(t, "CSCI 121: ???", root.Header)
	assert.Len(t, problems, 1)
}
