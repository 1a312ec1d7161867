package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/processors/minsev"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInstrumentText(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	shutdown, err := instrument(t.Context(), &buf, slog.LevelWarn, FormatText)
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(t.Context())) }()

	slog.Info("hidden")
	slog.Warn("shown", "vehicle", "v1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "vehicle=v1")
}

func TestInstrumentJSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	_, err := instrument(t.Context(), &buf, slog.LevelInfo, FormatJSON)
	require.NoError(t, err)

	slog.Info("logged in", "user", "ana")
	assert.Contains(t, buf.String(), `"msg":"logged in"`)
	assert.Contains(t, buf.String(), `"user":"ana"`)
}

func TestInstrumentOTelStdout(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	shutdown, err := instrument(t.Context(), &buf, slog.LevelInfo, FormatOTelStdout)
	require.NoError(t, err)

	slog.Debug("filtered")
	slog.Info("dashboard refreshed")
	require.NoError(t, shutdown(t.Context()))

	assert.Contains(t, buf.String(), "dashboard refreshed")
	assert.NotContains(t, buf.String(), "filtered")
}

func TestInstrumentUnknownFormat(t *testing.T) {
	restoreDefault(t)
	_, err := instrument(t.Context(), &bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, minsev.SeverityDebug, severity(slog.LevelDebug))
	assert.Equal(t, minsev.SeverityInfo, severity(slog.LevelInfo))
	assert.Equal(t, minsev.SeverityWarn, severity(slog.LevelWarn))
	assert.Equal(t, minsev.SeverityError, severity(slog.LevelError))
}
