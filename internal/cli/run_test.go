package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/journal"
	"github.com/roach88/trycatch/internal/store"
)

func runOpts(format string, ids ...string) *RunOptions {
	opts := &RunOptions{RootOptions: &RootOptions{Format: format}}
	if len(ids) > 0 {
		opts.IDs = journal.NewFixedGenerator(ids...)
	}
	return opts
}

func TestRunMatched(t *testing.T) {
	out, err := execute(t, newRunCommand(runOpts("json")),
		tablesDir, "--table", "slices", "--type", "[]string", "--payload", `["this","is","a","test"]`)
	require.NoError(t, err)

	var result struct {
		Status   string         `json:"status"`
		Arm      int            `json:"arm"`
		Label    string         `json:"label"`
		Bindings map[string]any `json:"bindings"`
		Result   any            `json:"result"`
	}
	resp := decodeResponse(t, out, &result)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "matched", result.Status)
	assert.Equal(t, 2, result.Arm)
	assert.Equal(t, "this", result.Label)
	assert.Equal(t, "is_test", result.Result)
	assert.Equal(t, map[string]any{"h": "is", "t": []any{"a", "test"}}, result.Bindings)
}

func TestRunText(t *testing.T) {
	out, err := execute(t, newRunCommand(runOpts("text")),
		tablesDir, "--table", "slices", "--type", "[]string", "--payload", `["uh","oh","no"]`)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ matched arm 1 (uh)")
	assert.Contains(t, out, `bindings: {"s":"oh"}`)
	assert.Contains(t, out, `result:   "oh"`)
}

func TestRunRethrown(t *testing.T) {
	out, err := execute(t, newRunCommand(runOpts("text")),
		tablesDir, "--table", "slices", "--type", "string", "--payload", `"loose"`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ rethrown: loose")
}

func TestRunHandlerPanic(t *testing.T) {
	out, err := execute(t, newRunCommand(runOpts("text")),
		tablesDir, "--table", "slices", "--type", "int", "--payload", "5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "handler of arm 0 (int) panicked: Nope!")
}

func TestRunComplete(t *testing.T) {
	out, err := execute(t, newRunCommand(runOpts("text")),
		tablesDir, "--table", "slices", "--complete", `{"done":true}`)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ completed")
	assert.Contains(t, out, `result:   {"done":true}`)
}

func TestRunInputErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown table", []string{tablesDir, "--table", "nope", "--complete", "1"}, ExitCommandError},
		{"missing type", []string{tablesDir, "--table", "slices", "--payload", "1"}, ExitCommandError},
		{"unknown type", []string{tablesDir, "--table", "slices", "--type", "complex128", "--payload", "1"}, ExitCommandError},
		{"payload does not fit type", []string{tablesDir, "--table", "slices", "--type", "int", "--payload", `"x"`}, ExitCommandError},
		{"bad complete", []string{tablesDir, "--table", "slices", "--complete", "{"}, ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, newRunCommand(runOpts("text")), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}

func TestRunRequiresPayloadOrComplete(t *testing.T) {
	_, err := execute(t, newRunCommand(runOpts("text")), tablesDir, "--table", "slices")
	require.Error(t, err)

	_, err = execute(t, newRunCommand(runOpts("text")),
		tablesDir, "--table", "slices", "--payload", "1", "--complete", "1")
	require.Error(t, err)
}

func TestRunJournalsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	out, err := execute(t, newRunCommand(runOpts("text", "first")),
		tablesDir, "--table", "slices", "--type", "[]string", "--payload", `["uh","oh"]`, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "journal:  first (seq 1)")

	_, err = execute(t, newRunCommand(runOpts("text", "second")),
		tablesDir, "--table", "slices", "--type", "string", "--payload", `"loose"`, "--db", db)
	require.Error(t, err, "rethrown still exits 1")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	recs, err := st.ReadDispatches(context.Background(), "slices")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "first", recs[0].ID)
	assert.Equal(t, int64(1), recs[0].Seq)
	assert.Equal(t, ir.OutcomeMatched, recs[0].Outcome)
	assert.Equal(t, ir.IRObject{"s": ir.IRString("oh")}, recs[0].Bindings)

	assert.Equal(t, "second", recs[1].ID)
	assert.Equal(t, int64(2), recs[1].Seq, "seq resumes after the journal's maximum")
	assert.Equal(t, ir.OutcomeRethrown, recs[1].Outcome)
	assert.Equal(t, -1, recs[1].Arm)

	versions, err := st.ReadTableVersions(context.Background(), "slices")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, recs[0].TableHash, versions[0].Hash)
}
