package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
)

func TestWriteReadDispatchRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	recs := []ir.DispatchRecord{
		createTestDispatch("d-1", "slices", 1),
		{
			ID: "d-2", Seq: 2, Table: "slices", TableHash: "test-hash",
			Outcome: ir.OutcomeCompleted, Arm: -1, EngineVersion: ir.EngineVersion,
		},
		{
			ID: "d-3", Seq: 3, Table: "slices", TableHash: "test-hash",
			Outcome: ir.OutcomeRethrown, Arm: -1,
			PayloadType: "*float64", Payload: ir.IRNull{}, PayloadHash: "h",
			EngineVersion: ir.EngineVersion,
		},
		{
			ID:            "d-4",
			Seq:           4,
			Table:         "slices",
			TableHash:     "test-hash",
			Outcome:       ir.OutcomeMatched,
			Arm:           1,
			Label:         "this",
			PayloadType:   "[]string",
			Payload:       ir.IRArray{ir.IRString("this"), ir.IRString("is")},
			Bindings:      ir.IRObject{},
			EngineVersion: ir.EngineVersion,
		},
	}
	for _, rec := range recs {
		require.NoError(t, s.WriteDispatch(ctx, rec))
	}

	got, err := s.ReadDispatches(ctx, "slices")
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	one, err := s.ReadDispatch(ctx, "d-4")
	require.NoError(t, err)
	assert.Equal(t, recs[3], one)
}

func TestWriteDispatch_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestDispatch("d-1", "t", 1)
	require.NoError(t, s.WriteDispatch(ctx, rec))

	changed := rec
	changed.Label = "other"
	require.NoError(t, s.WriteDispatch(ctx, changed))

	got, err := s.ReadDispatch(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "arm 0", got.Label, "first write wins")
}

func TestWriteDispatch_InvalidOutcome(t *testing.T) {
	s := createTestStore(t)
	rec := createTestDispatch("d-1", "t", 1)
	rec.Outcome = "handler_panic"
	err := s.WriteDispatch(context.Background(), rec)
	assert.ErrorContains(t, err, `invalid outcome "handler_panic"`)
}

func TestWriteTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	spec := ir.TableSpec{Name: "t", Arms: []ir.ArmSpec{{
		Type:    "int",
		Pattern: ir.PatternSpec{Kind: ir.PatternWildcard, Name: "_"},
		Handler: ir.HandlerSpec{Kind: ir.HandlerValue, Value: ir.IRInt(1)},
	}}}
	hash, err := s.WriteTable(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, ir.MustTableHash(spec), hash)

	_, err = s.WriteTable(ctx, spec)
	require.NoError(t, err)

	spec.Arms[0].Label = "ints"
	hash2, err := s.WriteTable(ctx, spec)
	require.NoError(t, err)

	versions, err := s.ReadTableVersions(ctx, "t")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	hashes := []string{versions[0].Hash, versions[1].Hash}
	assert.ElementsMatch(t, []string{hash, hash2}, hashes)
	assert.Less(t, versions[0].Hash, versions[1].Hash)
	assert.Equal(t, ir.IRVersion, versions[0].IRVersion)
	assert.Contains(t, versions[0].Spec, `"name":"t"`)
}
