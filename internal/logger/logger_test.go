package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffguard/diffguard/internal/logger"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(slog.LevelInfo, "json", &buf)

	log.Info("review published", "pr", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "review published", record["msg"])
	assert.EqualValues(t, 7, record["pr"])
}

func TestNewLogger_TextFallback(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(slog.LevelInfo, "unknown-format", &buf)

	log.Info("review published")

	assert.Contains(t, buf.String(), "msg=\"review published\"")
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(slog.LevelWarn, "text", &buf)

	log.Debug("noisy detail")
	log.Info("routine progress")

	assert.Empty(t, buf.String())
}
