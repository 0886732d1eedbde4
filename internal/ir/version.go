package ir

// Version constants for the rule encoding and the engine.
const (
	// IRVersion is the version of the compiled rule encoding.
	IRVersion = "1"

	// EngineVersion is the cascade engine version.
	EngineVersion = "0.1.0"
)
