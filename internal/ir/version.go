package ir

// Version constants for the document formats and the tool.
const (
	// DocumentVersion is the version of the query document and scenario formats.
	DocumentVersion = "1"

	// ToolVersion is the joinery release version.
	ToolVersion = "0.3.0"
)
