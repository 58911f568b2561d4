package ir

// Version constants for the backup format and engine.
const (
	// CurrentFormatVersion is the backup format version written by this build.
	CurrentFormatVersion = 1

	// MinFormatVersion is the oldest backup format version this build can read.
	MinFormatVersion = 1

	// EngineVersion is the reconciliation engine version.
	EngineVersion = "0.1.0"
)

// SupportedFormat reports whether a backup written with format version v can be
// read by this build.
func SupportedFormat(v int) bool {
	return v >= MinFormatVersion && v <= CurrentFormatVersion
}
