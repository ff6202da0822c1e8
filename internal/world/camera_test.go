package world

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
)

var (
	opaqueWhite = render.RGBA{R: 255, G: 255, B: 255, A: 255}
	opaqueBlack = render.RGBA{A: 255}
	halfRed     = render.RGBA{R: 255, A: 128}
)

type scene struct {
	m      *Map
	layers []registry.ID[Layer]
	cam    *Camera
}

// newScene builds three layers: a floor of dots, a translucent red wash and
// a hero sprite, viewed by a 4x3 camera at the origin.
func newScene(t *testing.T) *scene {
	t.Helper()
	m := NewMap("scene", nil)

	floor := NewLayer("floor", false)
	f := NewObject("floor", geom.Point{})
	tex := render.NewTexture(geom.UPt(6, 4), render.CellA{Ch: '.', Fg: opaqueWhite, Bg: opaqueBlack})
	f.AddTexture(tex)
	floor.Add(f)

	wash := NewLayer("wash", false)
	w := NewObject("wash", geom.Pt(1, 0))
	w.AddTexture(render.NewTexture(geom.UPt(2, 3), render.CellA{Ch: ' ', Bg: halfRed}))
	wash.Add(w)

	actors := NewLayer("actors", true)
	hero := NewObject("hero", geom.Pt(2, 1))
	sprite := render.Write([]string{"@"}, opaqueWhite, render.RGBA{})
	sprite.Offset = geom.Pt(0, 1)
	hero.AddTexture(sprite)
	actors.Add(hero)

	s := &scene{m: m}
	for _, l := range []*Layer{floor, wash, actors} {
		s.layers = append(s.layers, m.AddLayer(l))
	}
	s.cam = NewCamera("main", geom.Point{}, geom.UPt(4, 3))
	s.cam.Layers = slices.Clone(s.layers)
	m.AddCamera(s.cam)
	return s
}

func TestCameraRender(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.cam.Render())

	assert.Equal(t, []string{
		"....",
		"....",
		"..@.",
	}, s.cam.Image().Lines())

	washed, err := s.cam.Image().At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, render.RGBA{R: 128, A: 255}, washed.Bg)
	plain, err := s.cam.Image().At(3, 0)
	require.NoError(t, err)
	assert.Equal(t, opaqueBlack, plain.Bg)
}

func TestCameraRenderMatchesPairwiseComposition(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.cam.Render())

	want := render.NewTexture(s.cam.Size(), s.cam.Background.Opaque())
	for _, id := range s.layers {
		l, err := s.m.Layer(id)
		require.NoError(t, err)
		l.Each(func(o *Object) bool {
			for _, tex := range o.Textures {
				render.Draw(want, tex, o.Pos.Add(tex.Offset), l.Alpha)
			}
			return true
		})
	}
	assert.True(t, want.Equal(s.cam.Image()))
	assert.Equal(t, render.Fingerprint(want), render.Fingerprint(s.cam.Image()))
}

func TestRenderLayersLeavesConfigAlone(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.cam.RenderLayers(s.layers[2:]))

	assert.Equal(t, []string{"    ", "    ", "  @ "}, s.cam.Image().Lines())
	assert.Len(t, s.cam.Layers, 3)
}

func TestRenderSkipsHiddenAndStaleLayers(t *testing.T) {
	s := newScene(t)
	floor, err := s.m.Layer(s.layers[0])
	require.NoError(t, err)
	floor.Visible = false
	require.NoError(t, s.m.RemoveLayer(s.layers[2]))
	s.cam.Layers = slices.Clone(s.layers) // stale actors ID put back on purpose

	require.NoError(t, s.cam.Render())
	assert.Equal(t, []string{"    ", "    ", "    "}, s.cam.Image().Lines())
}

func TestLayerAlphaAndTint(t *testing.T) {
	s := newScene(t)
	floor, err := s.m.Layer(s.layers[0])
	require.NoError(t, err)
	floor.Bg = render.RGBA{B: 255, A: 255}

	require.NoError(t, s.cam.RenderLayers(s.layers[:1]))
	c, err := s.cam.Image().At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, render.RGBA{B: 255, A: 255}, c.Bg)
	assert.Equal(t, '.', c.Ch)

	floor.Bg = render.RGBA{}
	floor.Alpha = 0
	require.NoError(t, s.cam.RenderLayers(s.layers[:1]))
	assert.Equal(t, []string{"    ", "    ", "    "}, s.cam.Image().Lines())
}

func TestCameraOffsetAndResize(t *testing.T) {
	s := newScene(t)
	s.cam.Pos = geom.Pt(1, 1)
	s.cam.Resize(geom.UPt(2, 2))
	assert.Equal(t, geom.Pt(1, 1), s.cam.Pos)
	assert.Equal(t, geom.UPt(2, 2), s.cam.Image().Size())

	require.NoError(t, s.cam.Render())
	assert.Equal(t, []string{"..", ".@"}, s.cam.Image().Lines())
}

func TestCameraFollow(t *testing.T) {
	s := newScene(t)
	actors, err := s.m.Layer(s.layers[2])
	require.NoError(t, err)
	hero, ok := actors.Find("hero")
	require.True(t, ok)

	s.cam.Resize(geom.UPt(2, 2))
	s.cam.Follow(hero.Ref(), geom.R(0, 0, 6, 4))
	require.NoError(t, s.cam.Render())
	assert.Equal(t, geom.Pt(1, 0), s.cam.Pos)

	hero.Pos = geom.Pt(9, 9)
	require.NoError(t, s.cam.Render())
	assert.Equal(t, geom.Pt(4, 2), s.cam.Pos, "clamped to bounds")

	s.cam.Unfollow()
	s.cam.Pos = geom.Point{}
	require.NoError(t, s.cam.Render())
	assert.Equal(t, geom.Point{}, s.cam.Pos)
}

func TestCameraDrawTo(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.cam.Render())

	hud := render.NewTexture(geom.UPt(3, 1), render.CellA{Ch: '#', Fg: opaqueWhite, Bg: opaqueBlack})
	s.cam.DrawTo(hud, geom.Pt(1, 0), geom.R(2, 2, 2, 1), 255)
	assert.Equal(t, []string{"#@."}, hud.Lines())
}
