package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DATABASE_URL", "AUTH_MODE", "MIDI_TEMPO_BPM", "MAX_SEGMENTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeNone, cfg.AuthMode)
	assert.Equal(t, 120.0, cfg.MIDITempoBPM)
	assert.Equal(t, 256, cfg.MaxSegments)
	assert.False(t, cfg.UsesDatabase())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/talea")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MIDI_TEMPO_BPM", "90.5")
	t.Setenv("MAX_SEGMENTS", "12")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.UsesDatabase())
	assert.True(t, cfg.IsJWTMode())
	assert.False(t, cfg.IsGatewayMode())
	assert.Equal(t, 90.5, cfg.MIDITempoBPM)
	assert.Equal(t, 12, cfg.MaxSegments)
}

func TestLoad_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("MIDI_TEMPO_BPM", "fast")
	t.Setenv("MAX_SEGMENTS", "-3")

	cfg := Load()
	assert.Equal(t, 120.0, cfg.MIDITempoBPM)
	assert.Equal(t, 256, cfg.MaxSegments)
}
