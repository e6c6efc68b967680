package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
)

func TestMarshalTraceOmitsEmptyFields(t *testing.T) {
	s := &TraceSnapshot{
		Scenario: "s",
		Table:    "t",
		Trace: []TraceEvent{
			{Case: "c", Seq: 1, DispatchID: "d-1", Status: "completed", Arm: -1, Result: ir.IRBool(true)},
			{Case: "n", Seq: 2, DispatchID: "d-2", Status: "rethrown", Arm: -1, PayloadType: "*int", Panic: "<nil>"},
		},
	}
	data, err := MarshalTrace(s)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario":"s","table":"t","trace":[`+
			`{"arm":-1,"case":"c","dispatch_id":"d-1","result":true,"seq":1,"status":"completed"},`+
			`{"arm":-1,"case":"n","dispatch_id":"d-2","panic":"<nil>","payload":null,"payload_type":"*int","seq":2,"status":"rethrown"}]}`,
		string(data))
}

func TestAssertGoldenReusesResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "codes.yaml"))
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "codes", "codes", result))
}
