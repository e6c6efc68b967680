package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/trycatch/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	Table    string       `json:"table"`
	Trace    []TraceEvent `json:"trace"`
}

func (s *TraceSnapshot) toIR() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = ev.toIR()
	}
	return ir.IRObject{
		"scenario": ir.IRString(s.Scenario),
		"table":    ir.IRString(s.Table),
		"trace":    trace,
	}
}

// MarshalTrace returns the canonical JSON of a snapshot. Table and
// payload hashes are left out so golden files survive hash changes that
// do not alter behavior.
func MarshalTrace(s *TraceSnapshot) ([]byte, error) {
	return ir.MarshalCanonical(s.toIR())
}

// RunWithGolden runs a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	snapshot := TraceSnapshot{
		Scenario: scenario.Name,
		Table:    scenario.Table,
		Trace:    result.Trace,
	}
	if err := assertSnapshot(t, scenario.Name, &snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace with a golden file.
func AssertGolden(t *testing.T, name, table string, result *Result) error {
	t.Helper()
	snapshot := TraceSnapshot{
		Scenario: name,
		Table:    table,
		Trace:    result.Trace,
	}
	return assertSnapshot(t, name, &snapshot)
}

func assertSnapshot(t *testing.T, name string, s *TraceSnapshot) error {
	t.Helper()
	data, err := MarshalTrace(s)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
