package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtures_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "fixtures", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no fixtures found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			f, err := LoadFixture(path)
			require.NoError(t, err)
			assert.Equal(t, name, f.Name, "fixture name must match file name")

			result, err := RunWithGolden(t, f)
			require.NoError(t, err)
			assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "fixtures", "requirement_mixed.yaml"))
	require.NoError(t, err)

	first, err := Run(f)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(f)
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text)
	}
	assert.Equal(t, "fixed-session", first.Document.SessionID)
}

func TestRun_DefaultSessionID(t *testing.T) {
	result, err := Run(&Fixture{Name: "bare", Description: "no result"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionID, result.Document.SessionID)
	assert.True(t, result.Pass)
}

func TestRun_ExpectationFailures(t *testing.T) {
	f := &Fixture{
		Name:        "mismatch",
		Description: "expectations that do not hold",
		Result:      `{"type": "mystery", "ok": false, "rank": 0}`,
		Expect:      &Expect{Status: "Complete", Problems: []string{"UNRESOLVED_CLAIM"}},
	}

	result, err := Run(f)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "status")
	assert.Contains(t, result.Errors[1], "SCHEMA_ERROR")
}

func TestRun_BadTranscript(t *testing.T) {
	_, err := Run(&Fixture{Name: "bad", Description: "d", Transcript: `"nope"`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture bad")
}

func TestLoadFixture_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nresults: '{}'\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\n",
			wantErr: "description is required",
		},
		{
			name:    "invalid result json",
			content: "name: x\ndescription: d\nresult: '{'\n",
			wantErr: "result is not valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixture.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadFixture(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFixture_MissingFile(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixture file")
}
