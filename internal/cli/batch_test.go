package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/auditview/internal/store"
)

// seedStore imports n copies of the collapse result for student s1.
func seedStore(t *testing.T, dir string, n int) string {
	t.Helper()
	db := filepath.Join(dir, "results.db")
	result := writeFile(t, dir, "result.json", collapseResult)
	tr := writeFile(t, dir, "transcript.json", transcriptDoc)
	for i := 0; i < n; i++ {
		_, _, err := execute(t, "import", result, "--db", db, "--student", "s1", "--transcript", tr)
		require.NoError(t, err)
	}
	return db
}

func TestBatch_WritesOneFilePerResult(t *testing.T) {
	dir := t.TempDir()
	db := seedStore(t, dir, 5)
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "batch", "--db", db, "--out", out, "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rendered 5 result(s) into "+out)

	want := "Status: ❇️ Complete\n" +
		"Progress: 2\n" +
		"\n" +
		"▸ ❇️ CSCI 125: Computer Science for Scientists\n"
	for _, name := range []string{"1.txt", "2.txt", "3.txt", "4.txt", "5.txt"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(data), name)
	}
}

func TestBatch_JSON(t *testing.T) {
	dir := t.TempDir()
	db := seedStore(t, dir, 2)
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "batch", "--db", db, "--out", out, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		RunID  string       `json:"run_id"`
		Data   BatchSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, resp.RunID, resp.Data.RunID)
	id, err := uuid.Parse(resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	require.Len(t, resp.Data.Items, 2)
	for _, it := range resp.Data.Items {
		data, err := os.ReadFile(it.Path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "Complete", doc["status"])
	}
	assert.Equal(t, filepath.Join(out, "1.json"), resp.Data.Items[0].Path)
}

func TestBatch_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "results.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, "batch", "--db", db, "--out", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]: no results stored")
}

func TestBatch_RequiresOut(t *testing.T) {
	_, _, err := execute(t, "batch", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out")
}

func TestRenderAll_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	db := seedStore(t, dir, 3)
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = RenderAll(ctx, st, &RootOptions{Format: "text"}, &BatchOptions{Out: t.TempDir(), Jobs: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
