package config

import (
	"errors"
	"fmt"
	"os"
	"reminder/internal/infrastructure/scheduler"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// PathEnv names the optional YAML configuration file.
const PathEnv = "REMINDER_CONFIG"

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Line          LineConfig          `koanf:"line"`
}

type ServerConfig struct {
	Port     int    `koanf:"port"`
	BindAddr string `koanf:"bind_addr"`
}

type DatabaseConfig struct {
	Path   string `koanf:"path"`
	LogSQL bool   `koanf:"log_sql"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type NotificationsConfig struct {
	Enabled         bool   `koanf:"enabled"`
	ExpirySweepSpec string `koanf:"expiry_sweep_spec"` // cron spec with seconds, or a descriptor such as "@hourly"
}

type LineConfig struct {
	ChannelSecret      string `koanf:"channel_secret"`
	ChannelAccessToken string `koanf:"channel_access_token"`
	UserID             string `koanf:"user_id"` // push target for fired notifications
}

// Enabled reports whether LINE credentials are configured.
func (c LineConfig) Enabled() bool {
	return c.ChannelSecret != "" && c.ChannelAccessToken != ""
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// Load reads defaults, then the YAML file at configPath if non-empty, then
// the environment. A configPath that does not exist is an error.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if spec := c.Notifications.ExpirySweepSpec; spec != "" {
		if err := scheduler.ValidateSpec(spec); err != nil {
			errs = append(errs, err)
		}
	}
	if (c.Line.ChannelSecret == "") != (c.Line.ChannelAccessToken == "") {
		errs = append(errs, errors.New("CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN must be set together"))
	}
	if c.Line.UserID != "" && !c.Line.Enabled() {
		errs = append(errs, errors.New("MY_USER_ID needs LINE channel credentials"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
