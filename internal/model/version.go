package model

// Version constants for the persisted analysis format and the tool.
const (
	// FormatVersion is the version of the persisted run format.
	FormatVersion = "1"

	// ToolVersion is the ttverify version.
	ToolVersion = "0.1.0"
)
