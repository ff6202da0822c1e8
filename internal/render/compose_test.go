package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-place-engine/internal/geom"
)

func TestDrawCell(t *testing.T) {
	base := CellA{Ch: '.', Fg: white, Bg: RGBA{A: 255}}

	tests := []struct {
		name  string
		src   CellA
		alpha uint8
		want  CellA
	}{
		{
			name:  "opaque source replaces",
			src:   CellA{Ch: '@', Fg: red, Bg: blue},
			alpha: 255,
			want:  CellA{Ch: '@', Fg: red, Bg: blue},
		},
		{
			name:  "transparent source is a no-op",
			src:   CellA{Ch: '@', Fg: RGBA{R: 255}, Bg: RGBA{B: 255}},
			alpha: 255,
			want:  base,
		},
		{
			name:  "zero layer alpha is a no-op",
			src:   CellA{Ch: '@', Fg: red, Bg: blue},
			alpha: 0,
			want:  base,
		},
		{
			name:  "half background keeps glyph below",
			src:   CellA{Ch: ' ', Bg: RGBA{R: 255, A: 255}},
			alpha: 128,
			want:  CellA{Ch: '.', Fg: white, Bg: RGBA{R: 128, A: 255}},
		},
		{
			name:  "visible foreground glyph wins",
			src:   CellA{Ch: 'x', Fg: RGBA{R: 255, A: 255}},
			alpha: 255,
			want:  CellA{Ch: 'x', Fg: RGBA{R: 255, A: 255}, Bg: RGBA{A: 255}},
		},
		{
			name:  "opaque control rune becomes space",
			src:   CellA{Ch: '\t', Fg: red, Bg: blue},
			alpha: 255,
			want:  CellA{Ch: ' ', Fg: red, Bg: blue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := base
			DrawCell(&dst, tt.src, tt.alpha)
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestDrawAccumulatesAlpha(t *testing.T) {
	dst := CellA{Ch: ' '}
	DrawCell(&dst, CellA{Ch: ' ', Bg: RGBA{G: 255, A: 128}}, 255)
	assert.Equal(t, uint8(128), dst.Bg.A)
	assert.Equal(t, uint8(128), dst.Bg.G)

	DrawCell(&dst, CellA{Ch: ' ', Bg: RGBA{G: 255, A: 128}}, 255)
	// 128 + 127*128/255 = 191
	assert.Equal(t, uint8(191), dst.Bg.A)
}

func TestDrawClipsAndOffsets(t *testing.T) {
	dst := NewTexture(geom.UPt(4, 2), CellA{Ch: '.', Bg: RGBA{A: 255}})
	src := Write([]string{"ab", "cd"}, white, blue)

	Draw(dst, src, geom.Pt(3, -1), 255)
	assert.Equal(t, []string{"...c", "...."}, dst.Lines())

	Draw(dst, src, geom.Pt(-1, 1), 255)
	assert.Equal(t, []string{"...c", "b..."}, dst.Lines())

	Draw(dst, src, geom.Pt(10, 10), 255)
	assert.Equal(t, []string{"...c", "b..."}, dst.Lines())
}

func TestDrawOrderIsPairwise(t *testing.T) {
	layers := []*Texture{
		NewTexture(geom.UPt(3, 3), CellA{Ch: ' ', Bg: RGBA{R: 200, A: 255}}),
		Write([]string{" x ", "xxx"}, RGBA{G: 255, A: 180}, RGBA{B: 255, A: 90}),
		Write([]string{"  o"}, white, RGBA{}),
	}

	all := NewTexture(geom.UPt(3, 3), Blank)
	for _, l := range layers {
		Draw(all, l, geom.Point{}, 200)
	}

	pair := NewTexture(geom.UPt(3, 3), Blank)
	for _, l := range layers {
		step := pair.Clone()
		Draw(step, l, geom.Point{}, 200)
		pair = step
	}

	assert.True(t, all.Equal(pair))
	assert.Equal(t, Fingerprint(all), Fingerprint(pair))
}

func TestDrawRegion(t *testing.T) {
	src := Write([]string{"abc", "def", "ghi"}, white, blue)
	dst := NewTexture(geom.UPt(3, 2), CellA{Ch: '.'})

	DrawRegion(dst, src, geom.Pt(1, 0), geom.R(1, 1, 2, 5), 255)
	assert.Equal(t, []string{".ef", ".hi"}, dst.Lines())
}

func TestTint(t *testing.T) {
	tex := Write([]string{"a"}, RGBA{A: 255}, RGBA{A: 255})
	Tint(tex, RGBA{R: 255, A: 255}, RGBA{})

	c, err := tex.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 'a', c.Ch)
	assert.Equal(t, RGBA{R: 255, A: 255}, c.Fg)
	assert.Equal(t, RGBA{A: 255}, c.Bg)
}

func TestCenterOn(t *testing.T) {
	bounds := geom.R(0, 0, 100, 50)

	tests := []struct {
		name  string
		focus geom.Point
		size  geom.UPoint
		want  geom.Point
	}{
		{"centered", geom.Pt(50, 25), geom.UPt(20, 10), geom.Pt(40, 20)},
		{"clamped top-left", geom.Pt(2, 1), geom.UPt(20, 10), geom.Pt(0, 0)},
		{"clamped bottom-right", geom.Pt(99, 49), geom.UPt(20, 10), geom.Pt(80, 40)},
		{"larger than bounds", geom.Pt(50, 25), geom.UPt(200, 80), geom.Pt(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := CenterOn(tt.focus, tt.size, bounds)
			assert.Equal(t, tt.want, v.Pos)
		})
	}

	v := CenterOn(geom.Pt(50, 25), geom.UPt(20, 10), bounds)
	s, ok := v.WorldToScreen(geom.Pt(41, 21))
	assert.True(t, ok)
	assert.Equal(t, geom.Pt(1, 1), s)
	_, ok = v.WorldToScreen(geom.Pt(60, 20))
	assert.False(t, ok)
}
