package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "debug", true)

	logger.Debug().Str("video_id", "abc123").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "abc123", entry["video_id"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetupWriter_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud", true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
