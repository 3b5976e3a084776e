package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", false)
	require.NoError(t, err)

	sl := SystemLogger(logger, "ParticleEmitterSystem")
	sl.Debug().Int("spawned", 3).Msg("emission queued")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "ParticleEmitterSystem", entry["system"])
	assert.Equal(t, float64(3), entry["spawned"])
	assert.Equal(t, "emission queued", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "", false)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len(), "默认 info 级别不输出 debug")

	logger.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "INFO", true)
	require.NoError(t, err)

	logger.Info().Str("preset", "thrust").Msg("viewer started")
	assert.Contains(t, buf.String(), "viewer started")
	assert.Contains(t, buf.String(), "thrust")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}
