package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	data := `
store_path: /var/lib/remedy/remedy.db
poll_interval: 30s
max_concurrent_missions: 5
collaborator_timeout: 90s
auto_apply_threshold: 90
enable_ai: true
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/remedy/remedy.db", cfg.StorePath)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5, cfg.MaxConcurrentMissions)
	assert.Equal(t, 90*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, 90.0, cfg.AutoApplyThreshold)
	assert.True(t, cfg.EnableAI)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Fields absent from the file keep their defaults
	assert.Equal(t, ".", cfg.WorkspaceRoot)
	assert.Equal(t, 85, cfg.HighConfidenceThreshold)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent_missions: 5\npoll_interval: 30s\n"), 0644))

	t.Setenv("REMEDY_MAX_CONCURRENT", "7")
	t.Setenv("REMEDY_POLL_INTERVAL", "15s")
	t.Setenv("REMEDY_ENABLE_AI", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxConcurrentMissions)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.True(t, cfg.EnableAI)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_path: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: often\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty store path", func(c *Config) { c.StorePath = "" }, true},
		{"empty workspace", func(c *Config) { c.WorkspaceRoot = "" }, true},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentMissions = 0 }, true},
		{"threshold over 100", func(c *Config) { c.AutoApplyThreshold = 101 }, true},
		{"negative finding floor", func(c *Config) { c.HighConfidenceThreshold = -1 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
