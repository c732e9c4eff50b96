package ir

// Version constants for the persisted layout.
const (
	// SchemaVersion is the storage schema version shared by every engine.
	SchemaVersion = 1

	// Version is the thisme release version.
	Version = "0.1.0"
)
