package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDispatch creates a matched dispatch record.
func createTestDispatch(id, table string, seq int64) ir.DispatchRecord {
	return ir.DispatchRecord{
		ID:            id,
		Seq:           seq,
		Table:         table,
		TableHash:     "test-hash",
		Outcome:       ir.OutcomeMatched,
		Arm:           0,
		Label:         "arm 0",
		PayloadType:   "int",
		Payload:       ir.IRInt(seq),
		PayloadHash:   "payload-hash",
		Bindings:      ir.IRObject{"i": ir.IRInt(seq)},
		EngineVersion: ir.EngineVersion,
	}
}
