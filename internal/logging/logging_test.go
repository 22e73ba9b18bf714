package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuma-massage/shuma-backend/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, logging.FormatJSON, logging.ParseFormat("JSON", "dev"))
	assert.Equal(t, logging.FormatText, logging.ParseFormat("text", "prod"))
	assert.Equal(t, logging.FormatJSON, logging.ParseFormat("", "prod"))
	assert.Equal(t, logging.FormatText, logging.ParseFormat("", "dev"))
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: slog.LevelWarn, Format: logging.FormatJSON, Output: &buf})

	log.Info("hidden")
	log.Warn("shown", "booking_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "shuma-booking-api", rec["service"])
	assert.Equal(t, 7.0, rec["booking_id"])
}
