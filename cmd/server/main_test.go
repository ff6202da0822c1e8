package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"happy-place-engine/internal/config"
)

func TestEnsureHostKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "host_key")
	require.NoError(t, ensureHostKey(path, zap.NewNop()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(first), "PRIVATE KEY")

	require.NoError(t, ensureHostKey(path, zap.NewNop()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "existing key is kept")
}

func TestLoadWorldFallsBackToDefault(t *testing.T) {
	cfg := config.Default()
	cfg.ScenesDir = filepath.Join(t.TempDir(), "missing")
	w, err := loadWorld(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "Default", w.Map.Name)
}

func TestLoadWorldShippedScenes(t *testing.T) {
	cfg := config.Default()
	cfg.ScenesDir = filepath.Join("..", "..", "assets", "scenes")
	w, err := loadWorld(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, cfg.Scene, w.Map.Name)
	assert.Equal(t, "ground", w.SpawnLayer)
}

func TestServeExitCodes(t *testing.T) {
	t.Setenv("TICK_RATE", "")
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-nope"}, 2},
		{"invalid config", []string{"-config", write("bad.yaml", "tick_rate: -1\n")}, 1},
		{"run fails", []string{"-config", write("key.yaml", "host_key: "+filepath.Join(blocker, "host_key")+"\n")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(tt.args))
		})
	}
}
