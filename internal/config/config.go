package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Recorder modes.
const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
)

type Config struct {
	LogLevel     string      `json:"log_level"`
	Hotkey       string      `json:"hotkey"`
	HotkeyDarwin string      `json:"hotkey_darwin"`
	Mode         string      `json:"mode"` // "PushToTalk" or "Toggle"
	Audio        AudioConfig `json:"audio"`
	MaxTapes     int         `json:"max_tapes"`
	MetricsAddr  string      `json:"metrics_addr"` // empty disables /metrics

	// path is the file this config was loaded from; Save writes there.
	path string
}

type AudioConfig struct {
	Backend    string `json:"backend"` // "portaudio" or "miniaudio"
	SampleRate int    `json:"sample_rate"`
	ChunkMs    int    `json:"chunk_ms"`   // length of one Record request
	QueueSize  int    `json:"queue_size"` // bridge request queue capacity
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Hotkey:       "Alt+Space",
		HotkeyDarwin: "Ctrl+Space",
		Mode:         ModeToggle,
		Audio: AudioConfig{
			Backend:    "portaudio",
			SampleRate: 48000,
			ChunkMs:    100,
			QueueSize:  64,
		},
		MaxTapes: 10,
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads the config at path over the defaults. A missing file is not
// an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the recorder cannot run with.
func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case "portaudio", "miniaudio":
	default:
		return fmt.Errorf("invalid audio backend %q", c.Audio.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkMs <= 0 {
		return fmt.Errorf("invalid chunk length %dms", c.Audio.ChunkMs)
	}
	if c.Mode != ModePushToTalk && c.Mode != ModeToggle {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	return nil
}

// ChunkFrames is the number of frames captured per Record request.
func (c *Config) ChunkFrames() int {
	return c.Audio.SampleRate * c.Audio.ChunkMs / 1000
}

// Save writes the config to the file it was loaded from, or to the
// platform path for a config that was never loaded.
func (c *Config) Save() error {
	return c.SaveTo(c.File())
}

// File returns the path Save writes to.
func (c *Config) File() string {
	if c.path != "" {
		return c.path
	}
	return configPath()
}

// SaveMode persists mode into the config file, leaving every other value
// on disk as it is. Values overridden for this run only are not written.
func (c *Config) SaveMode(mode string) error {
	onDisk, err := LoadFrom(c.File())
	if err != nil {
		return err
	}
	onDisk.Mode = mode
	if err := onDisk.Validate(); err != nil {
		return err
	}
	return onDisk.Save()
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// Path returns the platform-specific config file path.
func Path() string {
	return configPath()
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "tapedeck", "config.json")
}
