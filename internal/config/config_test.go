package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEngine_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadEngine(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEngine(), cfg)
}

func TestLoadEngine_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	body := `
log_level: debug
tick_interval: 20ms
realtime: true
pools:
  damage: 2
database:
  enabled: true
  host: db
observer:
  enabled: true
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadEngine(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.Realtime)
	assert.Equal(t, 2, cfg.Pools.Damage)
	assert.Equal(t, 16, cfg.Pools.EffectAssign, "unset keys keep defaults")
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://abilitycore:abilitycore@db:5432/abilitycore?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "127.0.0.1:9000", cfg.Observer.Addr())
}

func TestLoadEngine_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "log_level: [unterminated"},
		{"bad duration", "tick_interval: soon"},
		{"non-positive tick", "tick_interval: 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "engine.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := LoadEngine(path)
			assert.Error(t, err)
		})
	}
}
