package ir

// Version constants for the table IR and the dispatch engine.
const (
	// IRVersion is the table IR schema version.
	IRVersion = "1"

	// EngineVersion is recorded on every journaled dispatch.
	EngineVersion = "0.1.0"
)
