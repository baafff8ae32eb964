// Package config loads meshview settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvAPIBase = "MESHVIEW_API_BASE"
	EnvHeight  = "MESHVIEW_HEIGHT"
)

// Config holds every tunable of the CLI
type Config struct {
	APIBase string `yaml:"api_base"`
	Viewer  Viewer `yaml:"viewer"`
	Fetch   Fetch  `yaml:"fetch"`
	Watch   Watch  `yaml:"watch"`
}

// Viewer configures the interactive view
type Viewer struct {
	Height        int     `yaml:"height"`
	Color         string  `yaml:"color"`
	MaxPixelRatio float64 `yaml:"max_pixel_ratio"`
	FPS           int     `yaml:"fps"`
	Damping       float64 `yaml:"damping"`
}

// Fetch configures mesh downloads. A zero timeout means none.
type Fetch struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// Watch configures reloading of local files
type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		APIBase: "http://127.0.0.1:8000",
		Viewer: Viewer{
			Height:        360,
			Color:         "gray",
			MaxPixelRatio: 2,
			FPS:           60,
			Damping:       0.05,
		},
		Fetch: Fetch{
			MaxBytes: 64 << 20,
		},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/meshview/config.yaml or its
// platform equivalent
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "meshview", "config.yaml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means DefaultPath. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, cfg.applyEnv()
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv(EnvHeight); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHeight, v, err)
		}
		c.Viewer.Height = h
	}
	return nil
}

// Validate rejects values the viewer cannot work with
func (c Config) Validate() error {
	switch {
	case c.Viewer.Height <= 0:
		return fmt.Errorf("viewer.height must be positive, got %d", c.Viewer.Height)
	case c.Viewer.FPS <= 0:
		return fmt.Errorf("viewer.fps must be positive, got %d", c.Viewer.FPS)
	case c.Viewer.MaxPixelRatio < 1:
		return fmt.Errorf("viewer.max_pixel_ratio must be at least 1, got %v", c.Viewer.MaxPixelRatio)
	case c.Viewer.Damping <= 0 || c.Viewer.Damping > 1:
		return fmt.Errorf("viewer.damping must be in (0, 1], got %v", c.Viewer.Damping)
	case c.Fetch.Timeout < 0:
		return fmt.Errorf("fetch.timeout must not be negative, got %v", c.Fetch.Timeout)
	}
	return nil
}

// Write encodes c as YAML
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
