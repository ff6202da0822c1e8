package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())
}

func TestLoadFileAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("server.yaml", []byte(`
addr: ":3000"
scene: Caves
tick_rate: 10
camera: {width: 40, height: 12}
`), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("PORT", "4000")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load("server.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Addr, "env wins over file")
	assert.Equal(t, "Caves", cfg.Scene)
	assert.Equal(t, 10, cfg.TickRate)
	assert.Equal(t, CameraConfig{Width: 40, Height: 12}, cfg.Camera)
	assert.Equal(t, "debug", cfg.Log.Level, "read from .env")
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Addr, cfg.Addr)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"SCENE": "Lab", "TICK_RATE": "30"}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "Lab", cfg.Scene)
	assert.Equal(t, 30, cfg.TickRate)

	env["TICK_RATE"] = "fast"
	assert.Error(t, cfg.applyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"huge tick rate", func(c *Config) { c.TickRate = 5000 }},
		{"camera", func(c *Config) { c.Camera.Height = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir stands in for testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
