package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const collapseResult = `{
  "type": "count", "count": 1, "ok": true, "rank": 2, "status": "pass",
  "items": [
    {"type": "course", "course": "CSCI 121", "ok": false, "rank": 0, "status": "fail"},
    {"type": "course", "course": "CSCI 125", "ok": true, "rank": 1, "status": "pass",
     "claims": [{"claim": {"clbid": "2", "claimant_path": ["$"]}, "claimant_path": ["$"]}]}
  ]
}`

const fromResult = `{
  "type": "from", "ok": false, "rank": 1, "status": "fail",
  "source": {"itemtype": "courses", "mode": "student"},
  "where": {"type": "single-clause", "key": "gereqs", "operator": "EqualTo", "expected": "WRI"},
  "action": {"command": "count", "compare_to": 3, "operator": "GreaterThanOrEqualTo", "source": "courses"},
  "claims": [
    {"claim": {"clbid": "1", "claimant_path": ["$"]}, "claimant_path": ["$"]},
    {"claim": {"clbid": "404", "claimant_path": ["$"]}, "claimant_path": ["$"]}
  ]
}`

const fromText = "Status: ⚠️ Incomplete\n" +
	"Progress: 1\n" +
	"\n" +
	"▾ ⚠️ Given the courses from the transcript…\n" +
	"    Subject to the following restrictions…\n" +
	"        GE Requirement is WRI\n" +
	"    There must be at least 3 courses.\n" +
	"    There were only 2 courses.\n" +
	"    - CSCI 121: Principles of Computer Science\n" +
	"    - ???: ???\n"

const transcriptDoc = `[
  {"clbid": "2", "course": "CSCI 125", "name": "Computer Science for Scientists",
   "credits": 1, "grade": "A", "gereqs": ["IST", "HWC"], "term": {"year": 2019, "semester": 1}},
  {"clbid": "1", "course": "CSCI 121", "name": "Principles of Computer Science",
   "credits": 1, "grade": "B+", "gereqs": ["MCD"], "term": 20183, "year": 2018, "semester": 3}
]`

const areaYAML = `code: "0140"
name: Computer Science
type: major
catalog_year: 2019
success_rank: 2
`

// writeFile writes content into dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the full root command with args and returns stdout, stderr
// and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
