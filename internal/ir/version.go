package ir

// Version constants for the op log schema and engine.
const (
	// IRVersion is the op wire-format version.
	IRVersion = "1"

	// EngineVersion is the lockstep step-engine version. Bump when any engine
	// changes its emitted op sequence, since recorded traces stop replaying.
	EngineVersion = "0.1.0"
)
