package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dbFileName = "weekplanner.db"
	logDirName = "logs"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL      string
	DataDir        string
	RequestTimeout time.Duration
	Debug          bool
	KeyringService string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DataDir = defaultDataDir()
	c.RequestTimeout = 12 * time.Second
	c.Debug = false
	c.KeyringService = "weekplanner"
}

// DBPath is the SQLite file backing the local store.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, dbFileName) }

func (c *Config) LogDir() string { return filepath.Join(c.DataDir, logDirName) }

// Overrides carries values set on the command line or in the environment.
// Zero values leave the setting alone.
type Overrides struct {
	ServerURL      string
	DataDir        string
	RequestTimeout time.Duration
	Debug          bool
}

func (o Overrides) apply(c *Config) {
	if o.ServerURL != "" {
		c.ServerURL = o.ServerURL
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.RequestTimeout > 0 {
		c.RequestTimeout = o.RequestTimeout
	}
	if o.Debug {
		c.Debug = true
	}
}

// Load builds a Config from defaults, then the JSON file at jsonPath (if
// any), then o. Later sources take precedence over earlier ones.
func Load(jsonPath string, o Overrides) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	o.apply(cfg)
	cfg.DataDir = expandHome(cfg.DataDir)
	return cfg, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "weekplanner")
	}
	return ".weekplanner"
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
