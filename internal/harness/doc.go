// Package harness runs conformance scenarios against dispatch tables.
//
// A scenario names a CUE table and a list of cases. Each case either
// panics with a typed payload or completes with a value, and states the
// expected outcome:
//
//	name: codes
//	description: literal and binding arms over int payloads
//	tables: tables
//	table: codes
//	cases:
//	  - name: zero
//	    payload: {type: int, value: 0}
//	    expect: {outcome: matched, arm: 0, result: zero}
//	  - name: unmatched
//	    payload: {type: string, value: other}
//	    expect: {outcome: rethrown, panic: other}
//
// Cases are dispatched through the lowered table with the journal
// observing, so every run also writes and reads back one journal record
// per case. The resulting trace is deterministic and can be compared with
// a golden file through RunWithGolden.
package harness
