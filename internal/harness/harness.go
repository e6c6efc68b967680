package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/compiler"
	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/journal"
	"github.com/roach88/trycatch/internal/lower"
	"github.com/roach88/trycatch/internal/store"
	"github.com/roach88/trycatch/internal/testutil"
)

// Harness runs the cases of one scenario against a lowered table.
type Harness struct {
	store   *store.Store
	program *lower.Program
	journal *journal.Journal
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a fresh logical
// clock and sequential dispatch IDs, so traces are reproducible.
//
// Execution flow:
//  1. Load, compile and validate the scenario's table
//  2. Lower it and record the table version in the store
//  3. Dispatch each case with the journal observing
//  4. Join executions with their journal records into the trace
//
// An error is returned when the scenario cannot run at all. Failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	spec, err := compiler.LoadTable(scenario.Tables, scenario.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	if errs := compiler.Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("table %q is invalid: %w (%d errors)", spec.Name, errs[0], len(errs))
	}
	prog, err := lower.Lower(*spec)
	if err != nil {
		return nil, fmt.Errorf("failed to lower table: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.WriteTable(ctx, *spec); err != nil {
		return nil, fmt.Errorf("failed to record table: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		store:   st,
		program: prog,
		journal: journal.ForProgram(st, prog,
			journal.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.DispatchID)),
			journal.WithClock(testutil.NewDeterministicClock()),
			journal.WithLogger(logger),
			journal.WithContext(ctx),
		),
		logger: logger,
	}

	executions := make([]lower.Execution, len(scenario.Cases))
	for i, c := range scenario.Cases {
		ex, err := h.execute(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", caseName(i, c), err)
		}
		executions[i] = ex
	}
	if err := h.journal.Err(); err != nil {
		return nil, fmt.Errorf("journal write failed: %w", err)
	}

	records, err := st.ReadDispatches(ctx, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if len(records) != len(executions) {
		return nil, fmt.Errorf("journal has %d records for %d cases", len(records), len(executions))
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		name := caseName(i, c)
		ev := traceEvent(name, executions[i], records[i])
		result.Trace = append(result.Trace, ev)
		for _, msg := range checkExpect(name, c.Expect, executions[i], ev) {
			result.AddError(msg)
		}
	}
	return result, nil
}

// execute dispatches one case.
func (h *Harness) execute(c Case) (lower.Execution, error) {
	opts := []catch.Option{catch.WithLogger(h.logger)}

	if c.Payload == nil {
		v, err := ir.FromGo(c.Complete)
		if err != nil {
			return lower.Execution{}, fmt.Errorf("complete: %w", err)
		}
		return h.program.ExecuteCompleted(v, h.journal, opts...), nil
	}

	data, err := json.Marshal(c.Payload.Value)
	if err != nil {
		return lower.Execution{}, fmt.Errorf("payload: %w", err)
	}
	payload, err := lower.DecodePayload(c.Payload.Type, data)
	if err != nil {
		return lower.Execution{}, fmt.Errorf("payload: %w", err)
	}
	return h.program.ExecutePayload(payload, h.journal, opts...), nil
}

func traceEvent(name string, ex lower.Execution, rec ir.DispatchRecord) TraceEvent {
	ev := TraceEvent{
		Case:        name,
		Seq:         rec.Seq,
		DispatchID:  rec.ID,
		Status:      ex.Status(),
		Arm:         rec.Arm,
		Label:       rec.Label,
		PayloadType: rec.PayloadType,
		Payload:     rec.Payload,
		Result:      ex.Value,
	}
	if rec.Outcome == ir.OutcomeMatched {
		ev.Bindings = rec.Bindings
		if ev.Bindings == nil {
			ev.Bindings = ir.IRObject{}
		}
	}
	if ex.Panic != nil {
		ev.Panic = fmt.Sprint(ex.Panic)
	}
	return ev
}

// checkExpect returns one message per unmet expectation.
func checkExpect(name string, want Expect, ex lower.Execution, ev TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, name+": "+fmt.Sprintf(format, args...))
	}

	if got := ex.Status(); got != want.Outcome {
		fail("expected outcome %q, got %q", want.Outcome, got)
		return errs
	}
	if want.Arm != nil && *want.Arm != ex.Arm {
		fail("expected arm %d, got %d", *want.Arm, ex.Arm)
	}
	if want.Label != "" && want.Label != ex.Label {
		fail("expected label %q, got %q", want.Label, ex.Label)
	}
	if want.Result != nil {
		if msg := compareIR(want.Result, ex.Value); msg != "" {
			fail("result: %s", msg)
		}
	}
	if want.Bindings != nil {
		if msg := compareIR(want.Bindings, ev.Bindings); msg != "" {
			fail("bindings: %s", msg)
		}
	}
	if want.Panic != "" && want.Panic != ev.Panic {
		fail("expected panic %q, got %q", want.Panic, ev.Panic)
	}
	return errs
}

// compareIR compares a YAML-decoded expectation with an IR value by
// canonical form. It returns "" on equality.
func compareIR(want any, got ir.IRValue) string {
	wantIR, err := ir.FromGo(want)
	if err != nil {
		return fmt.Sprintf("invalid expectation: %v", err)
	}
	wantJSON, err := ir.MarshalCanonical(wantIR)
	if err != nil {
		return fmt.Sprintf("invalid expectation: %v", err)
	}
	gotJSON, err := ir.MarshalCanonical(orNull(got))
	if err != nil {
		return fmt.Sprintf("unencodable value: %v", err)
	}
	if !bytes.Equal(wantJSON, gotJSON) {
		return fmt.Sprintf("expected %s, got %s", wantJSON, gotJSON)
	}
	return ""
}
