package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port      int
	LogLevel  string
	StorePath string
	// DatabaseURL switches the inbox backend from the JSON snapshot
	// file to Postgres when set.
	DatabaseURL string
	NatsURL     string
	NatsToken   string

	MaxInboxItems    int
	MaxContentLength int
}

// Load reads configuration from the environment under the HARBOR_ prefix
// (HARBOR_PORT, HARBOR_DATABASE_URL, ...), with defaults suitable for a
// single-operator deployment.
func Load() Config {
	v := viper.New()

	v.SetDefault("port", 8760)
	v.SetDefault("log_level", "info")
	v.SetDefault("store_path", "data/inbox.json")
	v.SetDefault("database_url", "")
	v.SetDefault("nats_url", "")
	v.SetDefault("nats_token", "")
	v.SetDefault("max_inbox_items", 500)
	v.SetDefault("max_content_length", 20000)

	v.SetEnvPrefix("harbor")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Port:             v.GetInt("port"),
		LogLevel:         v.GetString("log_level"),
		StorePath:        v.GetString("store_path"),
		DatabaseURL:      v.GetString("database_url"),
		NatsURL:          v.GetString("nats_url"),
		NatsToken:        v.GetString("nats_token"),
		MaxInboxItems:    v.GetInt("max_inbox_items"),
		MaxContentLength: v.GetInt("max_content_length"),
	}

	// Unparsable numeric env values coerce to zero; fall back to the
	// defaults rather than running unbounded.
	if cfg.Port <= 0 {
		cfg.Port = 8760
	}
	if cfg.MaxInboxItems <= 0 {
		cfg.MaxInboxItems = 500
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 20000
	}
	return cfg
}
