package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"", WarnLevel},
		{"verbose", WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	ql := WithComponent("query")
	ql.Debug().Str("state", "started").Msg("State evaluated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "query", entry["component"])
	assert.Equal(t, "started", entry["state"])
	assert.Equal(t, "State evaluated", entry["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	sl := WithComponent("snapshot")
	sl.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	rl := WithResourceID("web-ip")
	rl.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"resource_id":"web-ip"`)
}
