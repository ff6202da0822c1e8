package maps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/render"
	"happy-place-engine/internal/world"
)

const yardYAML = `
name: yard
spawn: {x: 2, y: 1}
layers:
  - name: ground
    collides: true
    tiles:
      - "#####"
      - "#...#"
      - "#####"
    legend:
      "#": {char: "#", fg: gray, tag: solid, name: wall}
      ".": {char: ".", fg: green, name: grass}
    objects:
      - name: hero
        pos: {x: 1, y: 1}
        textures:
          - lines: ["@"]
            fg: "#ffffff"
        colliders:
          - tag: solid
            size: {x: 1, y: 1}
      - name: crate
        pos: {x: 2, y: 1}
        textures:
          - rect: {x: 1, y: 1}
            char: "o"
            fg: yellow
        colliders:
          - tag: pushable
            mask: ["#"]
  - name: sky
    hidden: true
    alpha: 128
    tint: {bg: "#0000ff80"}
cameras:
  - name: main
    size: {x: 3, y: 3}
    layers: [ground]
    background: black
    follow: hero
`

func TestParseYAML(t *testing.T) {
	sc, err := Parse([]byte(yardYAML), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "yard", sc.Name)
	assert.Equal(t, Vec{X: 2, Y: 1}, sc.Spawn)
	require.Len(t, sc.Layers, 2)
	assert.Len(t, sc.Layers[0].Objects, 2)
	require.NotNil(t, sc.Layers[1].Alpha)
	assert.Equal(t, 128, *sc.Layers[1].Alpha)
	assert.Equal(t, Vec{X: 5, Y: 3}, sc.Bounds())
}

func TestParseJSON(t *testing.T) {
	sc, err := Parse([]byte(`{
		"name": "tiny",
		"layers": [{"name": "l", "collides": true, "objects": [{"name": "a", "pos": {"x": 1, "y": 2}}]}]
	}`), ".JSON")
	require.NoError(t, err)
	assert.Equal(t, Vec{X: 1, Y: 2}, sc.Layers[0].Objects[0].Pos)
	assert.Equal(t, Vec{}, sc.Bounds())
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no name", `layers: []`},
		{"duplicate layer", "name: x\nlayers: [{name: a}, {name: a}]"},
		{"ragged tiles", "name: x\nlayers: [{name: a, tiles: ['##', '#'], legend: {'#': {char: '#'}}}]"},
		{"missing legend", "name: x\nlayers: [{name: a, tiles: ['#?']}]"},
		{"alpha range", "name: x\nlayers: [{name: a, alpha: 300}]"},
		{"collider shape", "name: x\nlayers: [{name: a, objects: [{name: o, colliders: [{tag: solid}]}]}]"},
		{"texture shape", "name: x\nlayers: [{name: a, objects: [{name: o, textures: [{char: x}]}]}]"},
		{"camera size", "name: x\ncameras: [{name: c}]"},
		{"camera layer", "name: x\ncameras: [{name: c, size: {x: 1, y: 1}, layers: [nope]}]"},
		{"camera follow", "name: x\ncameras: [{name: c, size: {x: 1, y: 1}, follow: ghost}]"},
		{"rule tag", "name: x\nrules: [{moving: a, result: block}]"},
		{"empty animation", "name: x\nlayers: [{name: a, objects: [{name: o, animation: {loop: true}}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), ".yaml")
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("name: x"), ".toml")
	assert.Error(t, err)
}

func TestBuildScene(t *testing.T) {
	sc, err := Parse([]byte(yardYAML), ".yaml")
	require.NoError(t, err)
	m, err := Build(sc, nil)
	require.NoError(t, err)

	ground, ok := m.LayerByName("ground")
	require.True(t, ok)
	assert.Equal(t, 3, ground.Len())
	sky, ok := m.LayerByName("sky")
	require.True(t, ok)
	assert.False(t, sky.Visible)
	assert.EqualValues(t, 128, sky.Alpha)
	assert.Equal(t, render.RGBA{B: 255, A: 128}, sky.Bg)

	tiles, ok := ground.Find(TilesObject)
	require.True(t, ok)
	require.Len(t, tiles.Colliders, 1, "only walls carry a tag")
	assert.Equal(t, world.TagSolid, tiles.Colliders[0].Tag)

	hero, ok := ground.Find("hero")
	require.True(t, ok)
	crate, ok := ground.Find("crate")
	require.True(t, ok)

	res, err := ground.Move(hero.ID(), geom.Pt(1, 0))
	require.NoError(t, err)
	assert.Equal(t, world.MoveCommitted, res.Outcome)
	assert.Equal(t, geom.Pt(3, 1), crate.Pos)

	res, err = ground.Move(hero.ID(), geom.Pt(1, 0))
	require.NoError(t, err)
	assert.Equal(t, world.MoveBlocked, res.Outcome, "crate is against the wall")

	cam, ok := m.CameraByName("main")
	require.True(t, ok)
	require.NoError(t, cam.Render())
	assert.Equal(t, []string{"###", ".@o", "###"}, cam.Image().Lines())
}

func TestBuildDefaultScene(t *testing.T) {
	m, err := Build(DefaultScene(), nil)
	require.NoError(t, err)
	ground, ok := m.LayerByName("ground")
	require.True(t, ok)
	crate, ok := ground.Find("crate")
	require.True(t, ok)

	res, err := ground.Move(crate.ID(), geom.Pt(25, 0))
	require.NoError(t, err)
	assert.Equal(t, world.MoveCommitted, res.Outcome)

	res, err = ground.Move(crate.ID(), geom.Pt(1, 0))
	require.NoError(t, err)
	assert.Equal(t, world.MoveBlocked, res.Outcome)
	assert.Equal(t, geom.Pt(58, 15), crate.Pos)
}

func TestBuildCustomRules(t *testing.T) {
	sc := DefaultScene()
	sc.Rules = []Rule{{Moving: "pushable", Stationary: "solid", Result: "overlap"}}
	m, err := Build(sc, nil)
	require.NoError(t, err)
	assert.Equal(t, world.Overlap, m.Rules.Lookup("pushable", "solid"))
	assert.Equal(t, world.Heedless, m.Rules.Lookup("solid", "solid"))

	sc.Rules = []Rule{{Moving: "a", Stationary: "b", Result: "explode"}}
	_, err = Build(sc, nil)
	assert.Error(t, err)
}

func TestBuildScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drift.tengo"), []byte(`
on_tick := func(e, s) {
	e.move(0, 1)
}
`), 0o644))

	sc, err := Parse([]byte(`
name: drift
layers:
  - name: l
    objects:
      - {name: a, script: drift.tengo}
      - {name: b, pos: {x: 5, y: 0}, script: drift.tengo}
`), ".yaml")
	require.NoError(t, err)
	sc.Dir = dir

	m, err := Build(sc, nil)
	require.NoError(t, err)
	m.Advance(nil)

	a, _ := m.FindObject("a")
	b, _ := m.FindObject("b")
	assert.Equal(t, geom.Pt(0, 1), a.Pos)
	assert.Equal(t, geom.Pt(5, 1), b.Pos)

	sc.Layers[0].Objects[0].Script = "missing.tengo"
	_, err = Build(sc, nil)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	def := render.RGBA{R: 1, A: 1}
	tests := []struct {
		in      string
		want    render.RGBA
		wantErr bool
	}{
		{"", def, false},
		{"none", render.Transparent, false},
		{"Red", render.RGBA{R: 170, A: 255}, false},
		{"#102030", render.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, false},
		{"#10203040", render.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, false},
		{"#12", render.RGBA{}, true},
		{"#zzzzzz", render.RGBA{}, true},
		{"chartreuse", render.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in, def)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"name": "b"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	all, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, dir, all["a"].Dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yml"), []byte("name: a"), 0o644))
	_, err = LoadDir(dir)
	assert.Error(t, err)
}

func TestWatcherReportsSceneChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil, dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(p string) { changed <- p }) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	path := filepath.Join(dir, "yard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: yard"), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestBuildAnimation(t *testing.T) {
	sc, err := Parse([]byte(`
name: lamp
layers:
  - name: l
    objects:
      - name: lamp
        textures:
          - lines: ["*"]
          - lines: ["+"]
        animation:
          loop: true
          steps:
            - {op: select, texture: 0}
            - {op: wait, ticks: 1}
            - {op: select, texture: 1}
            - {op: wait, ticks: 1}
`), ".yaml")
	require.NoError(t, err)
	m, err := Build(sc, nil)
	require.NoError(t, err)
	o, ok := m.FindObject("lamp")
	require.True(t, ok)
	require.NotNil(t, o.Animation)

	m.Advance(nil)
	assert.True(t, o.Textures[0].Active)
	assert.False(t, o.Textures[1].Active)
	m.Advance(nil)
	assert.False(t, o.Textures[0].Active)
	assert.True(t, o.Textures[1].Active)

	steps := sc.Layers[0].Objects[0].Animation.Steps
	steps[0].Op = "spin"
	_, err = Build(sc, nil)
	assert.Error(t, err, "unknown op")
	steps[0].Op = "select"
	steps[1].Ticks = 0
	_, err = Build(sc, nil)
	assert.Error(t, err, "zero wait")
}
