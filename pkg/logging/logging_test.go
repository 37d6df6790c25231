package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{in: "DEBUG", want: DEBUG},
		{in: "info", want: INFO},
		{in: "Warn", want: WARN},
		{in: "ERROR", want: ERROR},
		{in: "fatal", want: FATAL},
		{in: "bogus", want: INFO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in), "ParseSeverity(%q)", tt.in)
	}
}

func TestSeverityFromVerbosity(t *testing.T) {
	assert.Equal(t, ERROR, SeverityFromVerbosity(0))
	assert.Equal(t, INFO, SeverityFromVerbosity(1))
	assert.Equal(t, DEBUG, SeverityFromVerbosity(2))
	assert.Equal(t, DEBUG, SeverityFromVerbosity(3))
}

func newBufferLogger(sev Severity) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Severity: sev,
		Outputs:  []Output{NewConsoleOutput(false, WithColor(false), WithWriter(&buf))},
	})
	return logger, &buf
}

func TestLoggerFiltersBySeverity(t *testing.T) {
	logger, buf := newBufferLogger(WARN)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerCarriesRunContext(t *testing.T) {
	logger, buf := newBufferLogger(INFO)

	ctx := WithRunID(context.Background(), "sphere")
	ctx = WithGeneration(ctx, 7)

	logger.Info(ctx, "generation done")

	out := buf.String()
	assert.Contains(t, out, "[run=sphere]")
	assert.Contains(t, out, "[gen=7]")
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()

	_, ok := GetRunID(ctx)
	assert.False(t, ok)
	_, ok = GetGeneration(ctx)
	assert.False(t, ok)

	ctx = WithRunID(ctx, "run-1")
	ctx = WithGeneration(ctx, 3)

	runID, ok := GetRunID(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-1", runID)

	gen, ok := GetGeneration(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, gen)
}

func TestGlobalLogger(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	logger, _ := newBufferLogger(INFO)
	SetLogger(logger)
	assert.Same(t, logger, GetLogger())
}
