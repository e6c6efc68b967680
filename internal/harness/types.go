package harness

import "github.com/roach88/trycatch/internal/ir"

// TraceEvent is one executed case, joined with its journal record.
type TraceEvent struct {
	Case        string      `json:"case"`
	Seq         int64       `json:"seq"`
	DispatchID  string      `json:"dispatch_id"`
	Status      string      `json:"status"` // outcome, or handler_panic
	Arm         int         `json:"arm"`
	Label       string      `json:"label,omitempty"`
	PayloadType string      `json:"payload_type,omitempty"`
	Payload     ir.IRValue  `json:"payload,omitempty"`
	Bindings    ir.IRObject `json:"bindings,omitempty"`
	Result      ir.IRValue  `json:"result,omitempty"`
	Panic       string      `json:"panic,omitempty"`
}

// toIR converts the event to an IR object for canonical serialization.
func (e TraceEvent) toIR() ir.IRObject {
	obj := ir.IRObject{
		"case":        ir.IRString(e.Case),
		"seq":         ir.IRInt(e.Seq),
		"dispatch_id": ir.IRString(e.DispatchID),
		"status":      ir.IRString(e.Status),
		"arm":         ir.IRInt(e.Arm),
	}
	if e.Label != "" {
		obj["label"] = ir.IRString(e.Label)
	}
	if e.PayloadType != "" {
		obj["payload_type"] = ir.IRString(e.PayloadType)
		obj["payload"] = orNull(e.Payload)
	}
	if e.Bindings != nil {
		obj["bindings"] = e.Bindings
	}
	if e.Result != nil {
		obj["result"] = e.Result
	}
	if e.Panic != "" {
		obj["panic"] = ir.IRString(e.Panic)
	}
	return obj
}

func orNull(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.IRNull{}
	}
	return v
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every case met its expectation.
	Pass bool `json:"pass"`

	// Trace holds one event per case, in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
