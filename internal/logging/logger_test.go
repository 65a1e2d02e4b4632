package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "INFO")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Int("raw_items", 3).Msg("deduplicated batch")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "briefing", line["service"])
	assert.Equal(t, "deduplicated batch", line["message"])
	assert.Equal(t, float64(3), line["raw_items"])
}

func TestNewWithWriter_LocalIsConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "local", "debug")
	require.NoError(t, err)

	logger.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_RejectsBadLevel(t *testing.T) {
	t.Parallel()

	_, err := New("local", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}
