package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestMoALogger_AttachesContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf}).
		WithComponent("engine").
		WithTurn("alice", "turn-1").
		WithContext("rounds", 2)

	l.Info("Turn started", "reference_count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Turn started", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "alice", entry["session_id"])
	assert.Equal(t, "turn-1", entry["turn_id"])
	assert.EqualValues(t, 2, entry["reference_count"])
	assert.EqualValues(t, 2, entry["rounds"])
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	LogTurn(l, "turn-9", 3, time.Second, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Turn completed", entry["msg"])
	assert.Equal(t, "turn-9", entry["turn_id"])
	assert.EqualValues(t, 3, entry["reference_count"])
}

func TestMoALogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	l.Info("hidden")
	l.LogModelCall("M1", "reference", time.Millisecond, nil)
	assert.Empty(t, buf.String())

	l.LogModelCall("M1", "reference", time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), "Model call failed")
	assert.Contains(t, buf.String(), "model=M1")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		l.Info("x")
		LogTurn(l, "t", 1, time.Second, errors.New("boom"))
	})
}
