package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/weekplanner/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an explicit false apart from an absent key.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	DataDir        string         `json:"data_dir"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	Debug          *bool          `json:"debug"`
}

// parseJson overlays cfg with the values present in the file at path. An
// empty path is a no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	return nil
}
