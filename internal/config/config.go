// Package config loads editor and save-server settings from defaults, an optional
// TOML file and environment overrides, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSaveEndpoint  = "http://localhost:5000/save-mask"
	DefaultSurfaceWidth  = 500
	DefaultSurfaceHeight = 500
	DefaultServerAddr    = ":5000"
	DefaultMaskDir       = "masks"
)

// Environment variables consulted by Load.
const (
	EnvConfigFile   = "INPAINT_MASKER_CONFIG"
	EnvSaveEndpoint = "INPAINT_MASKER_SAVE_URL"
	EnvServerAddr   = "INPAINT_MASKER_ADDR"
	EnvMaskDir      = "INPAINT_MASKER_MASK_DIR"
	EnvLogLevel     = "LOG_LEVEL"
	EnvDebug        = "DEBUG"
)

type Config struct {
	LogLevel string       `toml:"log_level"`
	Editor   EditorConfig `toml:"editor"`
	Server   ServerConfig `toml:"server"`
}

type EditorConfig struct {
	SaveEndpoint  string        `toml:"save_endpoint"`
	SaveTimeout   time.Duration `toml:"save_timeout"`
	SaveDebounce  time.Duration `toml:"save_debounce"`
	LoadTimeout   time.Duration `toml:"load_timeout"`
	SurfaceWidth  int           `toml:"surface_width"`
	SurfaceHeight int           `toml:"surface_height"`
	InpaintRadius float64       `toml:"inpaint_radius"`
}

type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaskDir      string `toml:"mask_dir"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Default returns the settings the editor ships with.
func Default() Config {
	return Config{
		LogLevel: "info",
		Editor: EditorConfig{
			SaveEndpoint:  DefaultSaveEndpoint,
			SaveTimeout:   15 * time.Second,
			LoadTimeout:   30 * time.Second,
			SurfaceWidth:  DefaultSurfaceWidth,
			SurfaceHeight: DefaultSurfaceHeight,
			InpaintRadius: 3,
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			MaskDir:      DefaultMaskDir,
			MaxBodyBytes: 32 << 20,
		},
	}
}

// Load builds a Config. path may be empty, in which case EnvConfigFile is consulted;
// a missing file named only through the environment is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSaveEndpoint); v != "" {
		cfg.Editor.SaveEndpoint = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvMaskDir); v != "" {
		cfg.Server.MaskDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	} else if os.Getenv(EnvDebug) == "1" {
		cfg.LogLevel = "debug"
	}
}

// Validate rejects settings the editor cannot run with.
func (c Config) Validate() error {
	if c.Editor.SaveEndpoint == "" {
		return fmt.Errorf("editor.save_endpoint must be set")
	}
	if c.Editor.SurfaceWidth <= 0 || c.Editor.SurfaceHeight <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", c.Editor.SurfaceWidth, c.Editor.SurfaceHeight)
	}
	if c.Editor.SaveDebounce < 0 {
		return fmt.Errorf("editor.save_debounce must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	return nil
}
