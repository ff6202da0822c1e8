package geom

// Rect is an axis-aligned rectangle anchored at Pos.
type Rect struct {
	Pos  Point
	Size UPoint
}

// R builds a rectangle from position and size.
func R(x, y int, w, h uint32) Rect {
	return Rect{Pos: Point{X: x, Y: y}, Size: UPoint{X: w, Y: h}}
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Size.X == 0 || r.Size.Y == 0
}

// Max is the exclusive bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Pos.X + int(r.Size.X), Y: r.Pos.Y + int(r.Size.Y)}
}

// Translate moves the rectangle by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Pos: r.Pos.Add(d), Size: r.Size}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	m := r.Max()
	return p.X >= r.Pos.X && p.X < m.X && p.Y >= r.Pos.Y && p.Y < m.Y
}

// Overlaps reports whether r and s share at least one cell.
func (r Rect) Overlaps(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	rm, sm := r.Max(), s.Max()
	return r.Pos.X < sm.X && s.Pos.X < rm.X && r.Pos.Y < sm.Y && s.Pos.Y < rm.Y
}

// Intersect returns the shared area of r and s. The result is empty when
// they do not overlap.
func (r Rect) Intersect(s Rect) Rect {
	if !r.Overlaps(s) {
		return Rect{}
	}
	rm, sm := r.Max(), s.Max()
	x0, y0 := max(r.Pos.X, s.Pos.X), max(r.Pos.Y, s.Pos.Y)
	x1, y1 := min(rm.X, sm.X), min(rm.Y, sm.Y)
	return Rect{Pos: Point{X: x0, Y: y0}, Size: UPoint{X: uint32(x1 - x0), Y: uint32(y1 - y0)}}
}
