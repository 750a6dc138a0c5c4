package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every mapped variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "reminder.db", cfg.Database.Path)
	assert.False(t, cfg.Database.LogSQL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.Notifications.ExpirySweepSpec)
	assert.False(t, cfg.Line.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("BIND_ADDR", "0.0.0.0")
	t.Setenv("BLUEPRINT_DB_URL", "/tmp/r.db")
	t.Setenv("DB_LOG", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")
	t.Setenv("EXPIRY_SWEEP_SPEC", "@hourly")
	t.Setenv("CHANNEL_SECRET", "s")
	t.Setenv("CHANNEL_ACCESS_TOKEN", "tok")
	t.Setenv("MY_USER_ID", "U1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "/tmp/r.db", cfg.Database.Path)
	assert.True(t, cfg.Database.LogSQL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "@hourly", cfg.Notifications.ExpirySweepSpec)
	assert.True(t, cfg.Line.Enabled())
	assert.Equal(t, "U1", cfg.Line.UserID)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "reminder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
log:
  level: warn
notifications:
  expiry_sweep_spec: "0 0 3 * * *"
`), 0o600))
	t.Setenv("PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "0 0 3 * * *", cfg.Notifications.ExpirySweepSpec)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddr, "defaults kept")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080, BindAddr: "127.0.0.1"},
			Database: DatabaseConfig{Path: "r.db"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, false},
		{"bad sweep spec", func(c *Config) { c.Notifications.ExpirySweepSpec = "every tuesday" }, false},
		{"six field sweep spec", func(c *Config) { c.Notifications.ExpirySweepSpec = "0 */5 * * * *" }, true},
		{"secret without token", func(c *Config) { c.Line.ChannelSecret = "s" }, false},
		{"user without credentials", func(c *Config) { c.Line.UserID = "U1" }, false},
		{"full line config", func(c *Config) {
			c.Line = LineConfig{ChannelSecret: "s", ChannelAccessToken: "t", UserID: "U1"}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
