package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_Overlay(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays present keys", func(t *testing.T) {
		path := writeTempJSON(t, dir, "full.json", map[string]any{
			"server_url":      "https://planner.example:9000",
			"data_dir":        "/var/lib/wp",
			"request_timeout": "10s",
			"debug":           true,
		})

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, path))

		assert.Equal(t, "https://planner.example:9000", cfg.ServerURL)
		assert.Equal(t, "/var/lib/wp", cfg.DataDir)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.True(t, cfg.Debug)
	})

	t.Run("absent keys keep existing values", func(t *testing.T) {
		path := writeTempJSON(t, dir, "partial.json", map[string]any{
			"request_timeout": 5000000000,
		})

		cfg := &Config{ServerURL: "http://defaults:1234", DataDir: "/d", Debug: true}
		require.NoError(t, parseJson(cfg, path))

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, "/d", cfg.DataDir)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.True(t, cfg.Debug)
	})

	t.Run("explicit false turns debug off", func(t *testing.T) {
		path := writeTempJSON(t, dir, "debug.json", map[string]any{"debug": false})

		cfg := &Config{Debug: true}
		require.NoError(t, parseJson(cfg, path))
		assert.False(t, cfg.Debug)
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		cfg := &Config{ServerURL: "http://x"}
		require.NoError(t, parseJson(cfg, ""))
		assert.Equal(t, "http://x", cfg.ServerURL)
	})
}

func Test_parseJson_AcceptsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.jsonc")
	src := `{
  // local dev server
  "server_url": "http://localhost:8080",
  "request_timeout": "3s",
}`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	cfg := &Config{}
	require.NoError(t, parseJson(cfg, path))
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func Test_parseJson_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := parseJson(&Config{}, filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempJSON(t, "", "", map[string]any{"request_timeout": "soon"})
		err := parseJson(&Config{}, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}
