package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIURL overrides source.http_url when set.
const EnvAPIURL = "STENO_PLAYER_API_URL"

// Source kinds.
const (
	SourceSQLite = "sqlite"
	SourceDaemon = "daemon"
	SourceHTTP   = "http"
)

// Config holds all application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Cache    CacheConfig    `yaml:"cache"`
	Playback PlaybackConfig `yaml:"playback"`
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
}

// SourceConfig selects where transcripts come from.
type SourceConfig struct {
	Kind       string `yaml:"kind"` // "sqlite", "daemon" or "http"
	DBPath     string `yaml:"db_path"`
	SocketPath string `yaml:"socket_path"`
	HTTPURL    string `yaml:"http_url"`
}

// CacheConfig holds the optional Redis transcript cache settings.
// An empty RedisAddr disables the cache.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// PlaybackConfig holds clock loop settings.
type PlaybackConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Tolerance    float64       `yaml:"tolerance"` // seconds
	SeekStep     float64       `yaml:"seek_step"` // seconds
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "steno-player")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()
	share := filepath.Join(home, ".local", "share", "steno-player")

	return &Config{
		Source: SourceConfig{
			Kind:       SourceSQLite,
			DBPath:     filepath.Join(share, "transcripts.sqlite"),
			SocketPath: filepath.Join(share, "player.sock"),
			HTTPURL:    "http://localhost:3000",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Playback: PlaybackConfig{
			TickInterval: 50 * time.Millisecond,
			Tolerance:    0.5,
			SeekStep:     5,
		},
		LogLevel: "info",
		LogFile:  filepath.Join(home, ".local", "state", "steno-player", "player.log"),
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Source.DBPath = expandTilde(cfg.Source.DBPath)
	cfg.Source.SocketPath = expandTilde(cfg.Source.SocketPath)
	cfg.LogFile = expandTilde(cfg.LogFile)
	cfg.applyEnv()

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Source.HTTPURL = v
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQLite:
		if c.Source.DBPath == "" {
			return fmt.Errorf("source.db_path must not be empty")
		}
	case SourceDaemon:
		if c.Source.SocketPath == "" {
			return fmt.Errorf("source.socket_path must not be empty")
		}
	case SourceHTTP:
		if !strings.HasPrefix(c.Source.HTTPURL, "http://") && !strings.HasPrefix(c.Source.HTTPURL, "https://") {
			return fmt.Errorf("source.http_url must be an http(s) URL, got %q", c.Source.HTTPURL)
		}
	default:
		return fmt.Errorf("source.kind must be sqlite, daemon, or http, got %q", c.Source.Kind)
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when cache.redis_addr is set")
	}

	if c.Playback.TickInterval <= 0 {
		return fmt.Errorf("playback.tick_interval must be > 0")
	}

	if c.Playback.Tolerance < 0 {
		return fmt.Errorf("playback.tolerance must be >= 0")
	}

	if c.Playback.SeekStep <= 0 {
		return fmt.Errorf("playback.seek_step must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
