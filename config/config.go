// Package config loads the shiftgate TOML configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendBbolt    = "bbolt"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Duration is a time.Duration written as a Go duration string ("5m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ServerConfig struct {
	Port          int    `toml:"port"`
	DataDir       string `toml:"data_dir"`
	TLSCert       string `toml:"tls_cert"`
	TLSKey        string `toml:"tls_key"`
	TLSSelfSigned bool   `toml:"tls_self_signed"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	// DSN is the PostgreSQL connection string, or the database file path for
	// bbolt and sqlite. File paths default to a file in the data directory.
	DSN string `toml:"dsn"`
}

// DirectoryConfig selects the session directory. An empty URL means the
// local session store.
type DirectoryConfig struct {
	URL        string   `toml:"url"`
	Timeout    Duration `toml:"timeout"`
	AuthHeader string   `toml:"auth_header"`
}

type CacheConfig struct {
	// TTL is a pointer so that an explicit "0s" disables caching.
	TTL        *Duration `toml:"ttl"`
	ServeStale bool     `toml:"serve_stale"`
}

type AttendanceConfig struct {
	Timezone string `toml:"timezone"`
	// Debounce is a pointer so that an explicit "0s" disables it.
	Debounce *Duration `toml:"debounce"`
}

type WebhookConfig struct {
	URL        string `toml:"url"`
	AuthHeader string `toml:"auth_header"`
}

type AlertsConfig struct {
	FallbackWindow    Duration `toml:"fallback_window"`
	FallbackThreshold int      `toml:"fallback_threshold"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Directory  DirectoryConfig  `toml:"directory"`
	Cache      CacheConfig      `toml:"cache"`
	Attendance AttendanceConfig `toml:"attendance"`
	Webhook    WebhookConfig    `toml:"webhook"`
	Alerts     AlertsConfig     `toml:"alerts"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefault()
	return c
}

// SetDefault fills unset fields with their defaults.
func (c *Config) SetDefault() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "./data"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendBbolt
	}
	if c.Directory.Timeout.Duration == 0 {
		c.Directory.Timeout.Duration = 5 * time.Second
	}
	if c.Cache.TTL == nil {
		c.Cache.TTL = &Duration{Duration: 5 * time.Minute}
	}
	if c.Attendance.Timezone == "" {
		c.Attendance.Timezone = "Local"
	}
	if c.Attendance.Debounce == nil {
		c.Attendance.Debounce = &Duration{Duration: 30 * time.Second}
	}
	if c.Alerts.FallbackWindow.Duration == 0 {
		c.Alerts.FallbackWindow.Duration = 5 * time.Minute
	}
	if c.Alerts.FallbackThreshold == 0 {
		c.Alerts.FallbackThreshold = 10
	}
}

// Validate checks values that SetDefault cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBbolt, BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server.tls_cert and server.tls_key must be set together")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if negative(c.Cache.TTL) || negative(c.Attendance.Debounce) || c.Directory.Timeout.Duration < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Alerts.FallbackThreshold < 0 {
		return fmt.Errorf("alerts.fallback_threshold must not be negative")
	}
	return nil
}

func negative(d *Duration) bool {
	return d != nil && d.Duration < 0
}

// Location resolves attendance.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return nil, fmt.Errorf("attendance.timezone: %w", err)
	}
	return loc, nil
}

// StoragePath returns the database file for file-backed backends.
func (c *Config) StoragePath() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	name := "shiftgate.db"
	if c.Storage.Backend == BackendSQLite {
		name = "shiftgate.sqlite"
	}
	return strings.TrimRight(c.Server.DataDir, "/") + "/" + name
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	c, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadBytes parses a TOML document. Unknown keys are rejected.
func LoadBytes(data []byte) (*Config, error) {
	var c Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}
	c.SetDefault()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
