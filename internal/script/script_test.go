package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/world"
)

const walker = `
on_tick := func(e, s) {
	e.move(1, 0)
}

on_move := func(e, s, ev) {
	if is_undefined(s.moves) {
		s.moves = 0
	}
	s.moves = s.moves + ev.dx
	s.at = e.position()
}

on_blocked := func(e, s, ev) {
	s.blocker = ev.other
}

on_action := func(e, s, action) {
	s.last_action = action
}
`

func newWorld(t *testing.T, src string) (*world.Map, *world.Layer, *world.Object, *Behavior) {
	t.Helper()
	prog, err := Compile("walker", []byte(src))
	require.NoError(t, err)

	m := world.NewMap("test", nil)
	l := world.NewLayer("actors", true)
	m.AddLayer(l)

	o := world.NewObject("walker", geom.Pt(0, 0))
	_, err = o.AddCollider(world.RectCollider(world.TagSolid, geom.Point{}, geom.UPt(1, 1)))
	require.NoError(t, err)
	b := prog.Instantiate()
	o.Behavior = b
	l.Add(o)
	return m, l, o, b
}

func TestCompileDetectsHooks(t *testing.T) {
	prog, err := Compile("walker", []byte(walker))
	require.NoError(t, err)
	assert.True(t, prog.Defines("tick"))
	assert.True(t, prog.Defines("move"))
	assert.True(t, prog.Defines("blocked"))
	assert.False(t, prog.Defines("overlap"))
}

func TestCompileError(t *testing.T) {
	_, err := Compile("broken", []byte(`on_tick := func(e, s) {`))
	assert.Error(t, err)
}

func TestScriptMovesObject(t *testing.T) {
	m, _, o, b := newWorld(t, walker)

	m.Advance(nil)
	m.Advance(nil)

	assert.Equal(t, geom.Pt(2, 0), o.Pos)
	assert.EqualValues(t, 2, b.Var("moves"))
	assert.Equal(t, []any{int64(2), int64(0)}, b.Var("at"))
}

func TestScriptSeesCollisionEvents(t *testing.T) {
	m, l, o, b := newWorld(t, walker)
	wall := world.NewObject("wall", geom.Pt(1, 0))
	_, err := wall.AddCollider(world.RectCollider(world.TagSolid, geom.Point{}, geom.UPt(1, 1)))
	require.NoError(t, err)
	l.Add(wall)

	m.Advance(nil)
	assert.Equal(t, geom.Pt(0, 0), o.Pos)
	assert.Equal(t, "wall", b.Var("blocker"))
	assert.Nil(t, b.Var("moves"))
}

func TestScriptActions(t *testing.T) {
	m, l, o, b := newWorld(t, walker)
	m.Advance([]world.Intent{{
		Target: world.ObjectRef{Layer: l.ID(), Object: o.ID()},
		Action: "wave",
	}})
	assert.Equal(t, "wave", b.Var("last_action"))
}

func TestInstancesKeepSeparateState(t *testing.T) {
	prog, err := Compile("walker", []byte(walker))
	require.NoError(t, err)
	a, b := prog.Instantiate(), prog.Instantiate()

	l := world.NewLayer("l", false)
	oa := world.NewObject("a", geom.Point{})
	oa.Behavior = a
	ida := l.Add(oa)

	_, err = l.Move(ida, geom.Pt(3, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 3, a.Var("moves"))
	assert.Nil(t, b.Var("moves"))
}

func TestRuntimeErrorIsContained(t *testing.T) {
	m, _, o, _ := newWorld(t, `
on_tick := func(e, s) {
	e.move("left", 0)
}
`)
	require.NotPanics(t, func() { m.Advance(nil) })
	assert.Equal(t, geom.Pt(0, 0), o.Pos)
}

func TestRunawayScriptIsStopped(t *testing.T) {
	m, _, _, _ := newWorld(t, `
on_tick := func(e, s) {
	for {}
}
`)
	require.NotPanics(t, func() { m.Advance(nil) })
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walker.tengo")
	require.NoError(t, os.WriteFile(path, []byte(walker), 0o644))

	prog, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "walker.tengo", prog.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.tengo"))
	assert.Error(t, err)
}
