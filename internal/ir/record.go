package ir

// Outcome is the terminal state of a journaled dispatch.
type Outcome string

const (
	// OutcomeCompleted means the protected computation returned normally.
	OutcomeCompleted Outcome = "completed"
	// OutcomeMatched means an arm was selected and its handler invoked.
	// A handler that panics still records matched.
	OutcomeMatched Outcome = "matched"
	// OutcomeRethrown means no arm matched and the payload was re-panicked.
	OutcomeRethrown Outcome = "rethrown"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeMatched, OutcomeRethrown:
		return true
	}
	return false
}

// DispatchRecord is one journaled dispatch.
//
// Arm is -1 unless Outcome is matched. Payload fields are empty for
// completed dispatches.
type DispatchRecord struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	Table         string   `json:"table"`
	TableHash     string   `json:"table_hash"`
	Outcome       Outcome  `json:"outcome"`
	Arm           int      `json:"arm"`
	Label         string   `json:"label,omitempty"`
	PayloadType   string   `json:"payload_type,omitempty"`
	Payload       IRValue  `json:"payload,omitempty"`
	PayloadHash   string   `json:"payload_hash,omitempty"`
	Bindings      IRObject `json:"bindings,omitempty"`
	EngineVersion string   `json:"engine_version"`
}
