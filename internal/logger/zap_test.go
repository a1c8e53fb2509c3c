package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONWithServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{
		Level:   "debug",
		Format:  "json",
		Output:  path,
		Service: "reservation-service",
		Env:     "test",
	}, SentryConfig{})
	require.NoError(t, err)

	log.Info("reservation created", zap.String("reservation_id", "r-1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "reservation created", entry["message"])
	assert.Equal(t, "reservation-service", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "r-1", entry["reservation_id"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud", Output: "stderr"}, SentryConfig{})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestFieldsToMap(t *testing.T) {
	fields := []zapcore.Field{
		zap.String("name", "2026-10-20"),
		zap.Int("held", 2),
		zap.Float64("ratio", 0.5),
		zap.Bool("ok", true),
		zap.Duration("wait", 3*time.Second),
		zap.Error(errors.New("redis down")),
	}

	m := fieldsToMap(fields)

	assert.Equal(t, "2026-10-20", m["name"])
	assert.Equal(t, int64(2), m["held"])
	assert.Equal(t, 0.5, m["ratio"])
	assert.Equal(t, true, m["ok"])
	assert.Equal(t, "3s", m["wait"])
	assert.Equal(t, "redis down", m["error"])
}

func TestZapLevelToSentry(t *testing.T) {
	assert.Equal(t, "warning", string(zapLevelToSentry(zapcore.WarnLevel)))
	assert.Equal(t, "error", string(zapLevelToSentry(zapcore.ErrorLevel)))
	assert.Equal(t, "fatal", string(zapLevelToSentry(zapcore.PanicLevel)))
}
