package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
api_base: https://farm.example.com
viewer:
  height: 420
  color: purple
fetch:
  timeout: 30s
watch:
  debounce: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://farm.example.com", cfg.APIBase)
	assert.Equal(t, 420, cfg.Viewer.Height)
	assert.Equal(t, "purple", cfg.Viewer.Color)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)

	// untouched keys keep their defaults
	assert.Equal(t, 60, cfg.Viewer.FPS)
	assert.Equal(t, 2.0, cfg.Viewer.MaxPixelRatio)
	assert.Equal(t, int64(64<<20), cfg.Fetch.MaxBytes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIBase, "http://localhost:9000")
	t.Setenv(EnvHeight, "200")

	cfg, err := Load(writeConfig(t, "viewer:\n  height: 420\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.APIBase)
	assert.Equal(t, 200, cfg.Viewer.Height)

	t.Setenv(EnvHeight, "tall")
	_, err = Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, EnvHeight)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "viewer: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "viewer:\n  damping: 2\n"))
	assert.ErrorContains(t, err, "viewer.damping")

	_, err = Load(writeConfig(t, "viewer:\n  height: -1\n"))
	assert.ErrorContains(t, err, "viewer.height")
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))
	assert.Contains(t, buf.String(), "debounce: 500ms")

	cfg, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.True(t, strings.HasSuffix(path, filepath.Join("meshview", "config.yaml")), path)
}
