// Package config loads runtime settings from a YAML file and the
// environment. Environment variables use the SCHOLARSYNC_ prefix and
// override file values.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Config holds the settings the binary needs at startup.
type Config struct {
	// DatabasePath is the SQLite file backing the durable store. Empty
	// selects the in-memory store.
	DatabasePath string `mapstructure:"database_path"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// DefaultSource names the feed family assumed when an import run
	// does not say otherwise.
	DefaultSource string `mapstructure:"default_source"`

	// AuditDiffs enables field-level diff logging on record updates.
	AuditDiffs bool `mapstructure:"audit_diffs"`
}

// Load reads configuration from path (or the default search locations
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("scholarsync")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.scholarsync")
	}

	v.SetEnvPrefix("SCHOLARSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv values survive Unmarshal.
	v.SetDefault("database_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_source", "")
	v.SetDefault("audit_diffs", false)

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; defaults and the environment
		// suffice. An explicitly named file must exist.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.WrapValidation("config", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapValidation("config", err)
	}
	return cfg, nil
}
