package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFieldsChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	With(logger).
		Str("component", "registry").
		Int("workers", 2).
		Dur("elapsed", 1500*time.Microsecond).
		Err(errors.New("boom")).
		Err(nil).
		Warn("model replaced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "model replaced", entry["msg"])
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "registry", entry["component"])
	require.Equal(t, float64(2), entry["workers"])
	require.Equal(t, 1.5, entry["elapsed_ms"])
	require.Equal(t, "boom", entry["error"])
}

func TestNewTextFormat(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := New("debug", "text", &buf)
	logger.Debug("hello", "k", "v")

	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "k=v")
	require.Same(t, logger, slog.Default())
}
