package logging

// LogEntry represents a structured log record with fields relevant to an
// evolutionary run.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	RunID      string // Identifier of the optimization run
	Generation int    // Generation counter, -1 when not in a generation

	// General structured data
	Fields map[string]interface{}
}
