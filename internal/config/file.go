package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the top-level application configuration.
type File struct {
	Camera   CameraConfig   `yaml:"camera"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Plugins  PluginConfig   `yaml:"plugins"`
	Log      LogConfig      `yaml:"log"`
	Screen   ScreenConfig   `yaml:"screen"`
	Keys     KeyConfig      `yaml:"keys"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Detector DetectorConfig `yaml:"detector"`
	Settings Settings       `yaml:"settings"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	ID     int  `yaml:"id"`
	Mirror bool `yaml:"mirror"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PluginConfig locates key plugins.
type PluginConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level   string `yaml:"level"` // debug | info | warn | error
	Dir     string `yaml:"dir"`
	Console bool   `yaml:"console"`
}

// ScreenConfig overrides the detected screen size. Zero means detect.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Margin int `yaml:"margin"`
}

// KeyConfig selects how logical keys are injected.
type KeyConfig struct {
	Backend string `yaml:"backend"` // desktop | plugin
	Plugin  string `yaml:"plugin"`
}

// PipelineConfig controls frame pacing.
type PipelineConfig struct {
	IdleFPS         int           `yaml:"idle_fps"`
	ActiveFPS       int           `yaml:"active_fps"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MotionThreshold float64       `yaml:"motion_threshold"`
}

// DetectorConfig controls the face mesh service.
type DetectorConfig struct {
	MinConfidence   float64 `yaml:"min_confidence"`
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`
	IdleTimeoutSec  int     `yaml:"idle_timeout_sec"`
}

// Key backends.
const (
	KeyBackendDesktop = "desktop"
	KeyBackendPlugin  = "plugin"
)

// Dir returns the per-user data directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".abhinaya"
	}
	return filepath.Join(home, ".abhinaya")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *File {
	dir := Dir()
	return &File{
		Camera:  CameraConfig{ID: 0, Mirror: true},
		Server:  ServerConfig{Addr: "127.0.0.1:8090", StaticDir: "web"},
		Store:   StoreConfig{Path: filepath.Join(dir, "abhinaya.db")},
		Plugins: PluginConfig{Dir: filepath.Join(dir, "plugins"), Timeout: 2 * time.Second},
		Log:     LogConfig{Level: "info", Console: true},
		Screen:  ScreenConfig{Margin: 15},
		Keys:    KeyConfig{Backend: KeyBackendDesktop},
		Pipeline: PipelineConfig{
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeout:     2 * time.Second,
			MotionThreshold: 0.01,
		},
		Detector: DetectorConfig{
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
			IdleTimeoutSec:  30,
		},
		Settings: DefaultSettings(),
	}
}

// Load reads a YAML configuration file over the defaults. A missing file
// yields the defaults.
func Load(path string) (*File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are usable.
func (c *File) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Pipeline.IdleFPS <= 0 || c.Pipeline.ActiveFPS <= 0 {
		return fmt.Errorf("pipeline fps must be > 0")
	}
	if c.Pipeline.IdleTimeout <= 0 {
		return fmt.Errorf("pipeline.idle_timeout must be > 0")
	}
	if c.Screen.Width < 0 || c.Screen.Height < 0 || c.Screen.Margin < 0 {
		return fmt.Errorf("screen dimensions must not be negative")
	}
	switch c.Keys.Backend {
	case KeyBackendDesktop:
	case KeyBackendPlugin:
		if c.Keys.Plugin == "" {
			return fmt.Errorf("keys.plugin is required for the plugin backend")
		}
	default:
		return fmt.Errorf("keys.backend %q: want %s or %s", c.Keys.Backend, KeyBackendDesktop, KeyBackendPlugin)
	}
	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
