package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"off", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Settings{Level: "debug", Format: FormatJSON}, &buf), "query")
	l.Debug().Int("hits", 2).Msg("cast")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "query", line["component"])
	assert.Equal(t, "cast", line["message"])
	assert.Equal(t, "debug", line["level"])
	assert.EqualValues(t, 2, line["hits"])
	assert.Contains(t, line, "time")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Settings{Level: "warn", Format: FormatJSON}, &buf)
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestAutoFormatOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New(Settings{}, &buf).Info().Msg("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Settings{Format: FormatConsole}, &buf).Info().Str("body", "3v1").Msg("hit")
	out := buf.String()
	assert.Contains(t, out, "hit")
	assert.Contains(t, out, "body=3v1")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
