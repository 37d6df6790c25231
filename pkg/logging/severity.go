package logging

import "strings"

// Severity represents log levels covering the stages of an optimization run.
type Severity int32

const (
	DEBUG Severity = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String provides human-readable severity levels.
func (s Severity) String() string {
	return [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}[s]
}

// ParseSeverity converts a string to a Severity level.
// Returns INFO level for unknown strings.
func ParseSeverity(level string) Severity {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// SeverityFromVerbosity maps the engine's numeric verbosity knob onto a
// severity threshold: 0 is quiet, 1 prints generation summaries, 2 and above
// print per-individual detail.
func SeverityFromVerbosity(verbosity int) Severity {
	switch {
	case verbosity <= 0:
		return ERROR
	case verbosity == 1:
		return INFO
	default:
		return DEBUG
	}
}
