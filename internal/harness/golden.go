package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden renders a fixture and compares its text against a golden
// file stored in testdata/golden/{fixture.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the fixture cannot be rendered. Test failure (via goldie)
// occurs if the text doesn't match the golden file.
func RunWithGolden(t *testing.T, f *Fixture) (*Result, error) {
	t.Helper()

	result, err := Run(f)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, f.Name, result)
	return result, nil
}

// AssertGolden compares an already-rendered result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Text))
}
