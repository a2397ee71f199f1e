// Package config loads the service configuration from defaults, an
// optional YAML file and BACKLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/httpapi"
	"github.com/roach88/backlog/internal/ingest"
	"github.com/roach88/backlog/internal/search"
	"github.com/roach88/backlog/internal/store"
)

// EnvPrefix is the prefix of environment overrides: db-path is read from
// BACKLOG_DB_PATH.
const EnvPrefix = "BACKLOG"

// Config is the resolved service configuration.
type Config struct {
	DBPath       string `mapstructure:"db-path"`
	SelfNick     string `mapstructure:"self-nick"`
	ListenAddr   string `mapstructure:"listen-addr"`
	APIAddr      string `mapstructure:"api-addr"`
	APIEnabled   bool   `mapstructure:"api-enabled"`
	MaxLineSize  int    `mapstructure:"max-line-size"`
	LogLevel     string `mapstructure:"log-level"`
	AwayReason   string `mapstructure:"away-reason"`
	DefaultLimit int    `mapstructure:"default-limit"`
	Collation    string `mapstructure:"collation"`

	// ConfigPath is the file that was read, if any.
	ConfigPath string `mapstructure:"-"`
}

// DefaultConfigPath returns $HOME/.config/backlog/config.yml.
func DefaultConfigPath(home string) string {
	return filepath.Join(home, ".config", "backlog", "config.yml")
}

// Load resolves the configuration. An empty configPath means the default
// file; a missing file is not an error, any other read failure is.
func Load(configPath string) (Config, error) {
	var cfg Config

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "backlog", "backlog.db"))
	v.SetDefault("self-nick", "")
	v.SetDefault("listen-addr", ingest.DefaultAddr)
	v.SetDefault("api-addr", httpapi.DefaultAddr)
	v.SetDefault("api-enabled", false)
	v.SetDefault("max-line-size", ingest.DefaultMaxLineSize)
	v.SetDefault("log-level", "info")
	v.SetDefault("away-reason", away.DefaultReason)
	v.SetDefault("default-limit", search.DefaultLimit)
	v.SetDefault("collation", store.CollationFolded.String())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(DefaultConfigPath(home))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("invalid db-path: must not be empty")
	}
	if c.MaxLineSize <= 0 {
		return fmt.Errorf("invalid max-line-size: %d", c.MaxLineSize)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("invalid default-limit: %d", c.DefaultLimit)
	}
	if _, err := store.ParseCollation(c.Collation); err != nil {
		return fmt.Errorf("invalid collation: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	return nil
}

// StoreCollation returns the configured collation. Call after Validate.
func (c Config) StoreCollation() store.Collation {
	col, _ := store.ParseCollation(c.Collation)
	return col
}

// Level returns the configured log level. Call after Validate.
func (c Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps debug, info, warn or error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return lvl, nil
}
