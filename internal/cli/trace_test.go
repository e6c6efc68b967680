package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journalDispatches records a match, a rethrow and a completion in a
// fresh database and returns its path.
func journalDispatches(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "journal.db")

	steps := []struct {
		id   string
		args []string
		ok   bool
	}{
		{"d-1", []string{"--type", "[]string", "--payload", `["uh","oh"]`}, true},
		{"d-2", []string{"--type", "string", "--payload", `"loose"`}, false},
		{"d-3", []string{"--complete", "7"}, true},
	}
	for _, s := range steps {
		args := append([]string{tablesDir, "--table", "slices", "--db", db}, s.args...)
		_, err := execute(t, newRunCommand(runOpts("text", s.id)), args...)
		if s.ok {
			require.NoError(t, err, s.id)
		} else {
			require.Error(t, err, s.id)
		}
	}
	return db
}

func TestTraceText(t *testing.T) {
	db := journalDispatches(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--table", "slices")
	require.NoError(t, err)

	assert.Contains(t, out, "Table: slices")
	assert.Contains(t, out, `[1] d-1 matched arm 1 (uh) []string ["uh","oh"] {"s":"oh"}`)
	assert.Contains(t, out, `[2] d-2 rethrown string "loose"`)
	assert.Contains(t, out, "[3] d-3 completed\n")
	assert.Contains(t, out, "3 dispatch(es): 1 completed, 1 matched, 1 rethrown")
}

func TestTraceJSON(t *testing.T) {
	db := journalDispatches(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--db", db, "--table", "slices")
	require.NoError(t, err)

	var result struct {
		Table      string `json:"table"`
		Dispatches []struct {
			ID      string `json:"id"`
			Seq     int64  `json:"seq"`
			Outcome string `json:"outcome"`
		} `json:"dispatches"`
		Versions []string   `json:"versions"`
		Stats    TraceStats `json:"stats"`
	}
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "slices", result.Table)
	require.Len(t, result.Dispatches, 3)
	assert.Equal(t, "d-2", result.Dispatches[1].ID)
	assert.Equal(t, "rethrown", result.Dispatches[1].Outcome)
	assert.Len(t, result.Versions, 1)
	assert.Equal(t, TraceStats{Total: 3, Completed: 1, Matched: 1, Rethrown: 1}, result.Stats)
}

func TestTraceOutcomeFilter(t *testing.T) {
	db := journalDispatches(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--outcome", "rethrown")
	require.NoError(t, err)
	assert.Contains(t, out, "d-2")
	assert.NotContains(t, out, "d-1")
	assert.Contains(t, out, "3 dispatch(es)", "stats cover the whole journal")

	_, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--outcome", "exploded")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceEmptyTable(t *testing.T) {
	db := journalDispatches(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--table", "other")
	require.NoError(t, err)
	assert.Equal(t, "No dispatches found for table: other\n", out)
}

func TestTraceMissingDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "none.db"), "--table", "slices")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "d-1", truncateID("d-1"))
	assert.Equal(t, "0192f0c1-8b7a", truncateID("0192f0c1-8b7a-7c3e-9f00-123456789abc"))
}

func TestTraceArmAndLimitFilters(t *testing.T) {
	db := journalDispatches(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--arm=-1")
	require.NoError(t, err)
	assert.Contains(t, out, "d-2")
	assert.Contains(t, out, "d-3")
	assert.NotContains(t, out, "d-1")

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--type", "[]string", "--label", "uh")
	require.NoError(t, err)
	assert.Contains(t, out, "d-1")
	assert.NotContains(t, out, "d-2")

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "d-1")
	assert.NotContains(t, out, "d-2")

	_, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", db, "--table", "slices", "--limit=-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
