package render

import "happy-place-engine/internal/geom"

// Viewport is the visible window of a larger canvas.
type Viewport struct {
	Pos  geom.Point // top-left world coordinate
	Size geom.UPoint
}

// CenterOn calculates the viewport position centered on focus, clamped to
// bounds. A viewport larger than bounds is pinned to the bounds origin.
func CenterOn(focus geom.Point, size geom.UPoint, bounds geom.Rect) Viewport {
	w, h := int(size.X), int(size.Y)
	x := focus.X - w/2
	y := focus.Y - h/2

	bmax := bounds.Max()
	if x+w > bmax.X {
		x = bmax.X - w
	}
	if y+h > bmax.Y {
		y = bmax.Y - h
	}
	// Clamp to the near edge last so oversized views stay at the origin
	if x < bounds.Pos.X {
		x = bounds.Pos.X
	}
	if y < bounds.Pos.Y {
		y = bounds.Pos.Y
	}

	return Viewport{Pos: geom.Pt(x, y), Size: size}
}

// WorldToScreen converts world coordinates to viewport coordinates.
// ok is false if the position is outside the viewport.
func (v Viewport) WorldToScreen(p geom.Point) (geom.Point, bool) {
	s := p.Sub(v.Pos)
	if !(geom.Rect{Size: v.Size}).Contains(s) {
		return geom.Point{}, false
	}
	return s, true
}
