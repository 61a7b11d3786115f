package ir

// Version constants for the bundle schema and generator.
const (
	// IRVersion is the bundle schema version.
	IRVersion = "1"

	// EngineVersion is the socgen generator version.
	EngineVersion = "0.1.0"
)
