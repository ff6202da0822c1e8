package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-place-engine/internal/maps"
)

func TestValidateScene(t *testing.T) {
	assert.Empty(t, validateScene(maps.DefaultScene()))

	walled := maps.DefaultScene()
	walled.Spawn = maps.Vec{X: 0, Y: 0}
	problems := validateScene(walled)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "covered by")

	outside := maps.DefaultScene()
	outside.Spawn = maps.Vec{X: 100, Y: 3}
	assert.Len(t, validateScene(outside), 1)
}

func TestRenderScene(t *testing.T) {
	lines, err := renderScene(maps.DefaultScene())
	require.NoError(t, err)
	require.Len(t, lines, 30)
	assert.Equal(t, "#", lines[0][:1])
	assert.Contains(t, lines[15], "▣")
}

func TestTileCounts(t *testing.T) {
	counts, tagged := tileCounts(maps.DefaultScene().Layers[0])
	assert.Equal(t, 60*2+28*2, counts["wall"])
	assert.Equal(t, 58*28, counts["grass"])
	assert.Equal(t, counts["wall"], tagged)
}
