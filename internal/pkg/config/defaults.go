package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"PORT":                  "server.port",
	"BIND_ADDR":             "server.bind_addr",
	"BLUEPRINT_DB_URL":      "database.path",
	"DB_LOG":                "database.log_sql",
	"LOG_LEVEL":             "log.level",
	"NOTIFICATIONS_ENABLED": "notifications.enabled",
	"EXPIRY_SWEEP_SPEC":     "notifications.expiry_sweep_spec",
	"CHANNEL_SECRET":        "line.channel_secret",
	"CHANNEL_ACCESS_TOKEN":  "line.channel_access_token",
	"MY_USER_ID":            "line.user_id",
}

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"port":      8080,
			"bind_addr": "127.0.0.1",
		},
		"database": map[string]interface{}{
			"path":    "reminder.db",
			"log_sql": false,
		},
		"log": map[string]interface{}{
			"level": "info",
		},
		"notifications": map[string]interface{}{
			"enabled":           true,
			"expiry_sweep_spec": "", // empty disables the periodic sweep
		},
		"line": map[string]interface{}{
			"channel_secret":       "",
			"channel_access_token": "",
			"user_id":              "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
