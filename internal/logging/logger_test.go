package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeEntry(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(line, &entry))
	return entry
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.WithField("job_id", "abc").Info("Optimization job accepted", map[string]interface{}{
		"objective": "sphere",
	})

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Optimization job accepted", entry["message"])
	assert.Equal(t, "abc", entry["job_id"])
	assert.Equal(t, "sphere", entry["objective"])
	assert.NotEmpty(t, entry["caller"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("dropped")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLevel("debug"))
	assert.Equal(t, ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, InfoLevel, parseLevel("bogus"))
}

func TestZapAdapterForwards(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(DebugLevel, &buf))

	zl.Info("zap message", zap.String("objective", "rastrigin"), zap.Int64("seed", 42))

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "zap message", entry["message"])
	assert.Equal(t, "rastrigin", entry["objective"])
	assert.EqualValues(t, 42, entry["seed"])
}

func TestZapAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(ErrorLevel, &buf))

	zl.Info("dropped")
	assert.Zero(t, buf.Len())

	zl.Error("kept")
	assert.NotZero(t, buf.Len())
}
