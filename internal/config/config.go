// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string        `yaml:"addr"`
	HostKeyPath string        `yaml:"host_key"`
	ScenesDir   string        `yaml:"scenes_dir"`
	Scene       string        `yaml:"scene"`
	TickRate    int           `yaml:"tick_rate"`
	Camera      CameraConfig  `yaml:"camera"`
	Log         LogConfig     `yaml:"log"`
	Watch       bool          `yaml:"watch"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// CameraConfig sizes the per-session camera before the client reports its
// window.
type CameraConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	return Config{
		Addr:        ":2222",
		HostKeyPath: "host_key",
		ScenesDir:   "assets/scenes",
		Scene:       "Courtyard",
		TickRate:    20,
		Camera:      CameraConfig{Width: 60, Height: 20},
		Log:         LogConfig{Level: "info"},
		Watch:       true,
		IdleTimeout: 30 * time.Minute,
	}
}

// Load reads path (which may be empty or missing), then .env, then the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if scene := getenv("SCENE"); scene != "" {
		c.Scene = scene
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if rate := getenv("TICK_RATE"); rate != "" {
		n, err := strconv.Atoi(rate)
		if err != nil {
			return fmt.Errorf("TICK_RATE: %w", err)
		}
		c.TickRate = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is empty")
	}
	if c.TickRate < 1 || c.TickRate > 1000 {
		return fmt.Errorf("tick_rate %d out of range 1-1000", c.TickRate)
	}
	if c.Camera.Width < 1 || c.Camera.Height < 1 {
		return fmt.Errorf("camera size %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// TickInterval is the duration of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
