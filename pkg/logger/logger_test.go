package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tc := range testCases {
		level, err := ParseLevel(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, level)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNew(t *testing.T) {
	t.Run("json handler honours level", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "warn", Format: FormatJSON, Output: &buf})
		require.NoError(t, err)

		log.Info("hidden")
		log.Warn("shown", "run", 7)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "shown", record["msg"])
		assert.Equal(t, float64(7), record["run"])
	})

	t.Run("text handler by default", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Output: &buf})
		require.NoError(t, err)
		log.Info("hello", "format", "knockout")
		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "format=knockout")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New(Config{Format: "xml"})
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := Discard()
	assert.Same(t, l, OrDiscard(l))
}
