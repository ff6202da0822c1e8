package world

import (
	"fmt"

	"happy-place-engine/internal/geom"
)

// Collider is a physical region of an Object, relative to the Object's
// position. A collider with a Mask is complex: only cells whose mask entry
// is true are solid. Otherwise the whole Size rectangle is solid.
type Collider struct {
	Tag    string
	Offset geom.Point
	Size   geom.UPoint
	Mask   []bool // row-major, len == Size.X*Size.Y when set
	Active bool
}

// RectCollider returns an active simple collider.
func RectCollider(tag string, offset geom.Point, size geom.UPoint) Collider {
	return Collider{Tag: tag, Offset: offset, Size: size, Active: true}
}

// MaskCollider builds an active complex collider from rows of text, where
// any non-space rune marks a solid cell.
func MaskCollider(tag string, offset geom.Point, rows []string) Collider {
	w := 0
	for _, r := range rows {
		w = max(w, len([]rune(r)))
	}
	c := Collider{Tag: tag, Offset: offset, Size: geom.UPt(uint32(w), uint32(len(rows))), Active: true}
	c.Mask = make([]bool, c.Size.Area())
	for y, row := range rows {
		for x, r := range []rune(row) {
			c.Mask[y*w+x] = r != ' '
		}
	}
	return c
}

// Validate checks the mask dimensions.
func (c Collider) Validate() error {
	if c.Mask != nil && len(c.Mask) != c.Size.Area() {
		return fmt.Errorf("collider %q: mask has %d cells, size %v needs %d", c.Tag, len(c.Mask), c.Size, c.Size.Area())
	}
	return nil
}

func (c Collider) usable() bool {
	return c.Active && !c.Size.Empty() && (c.Mask == nil || len(c.Mask) == c.Size.Area())
}

// Bounds is the collider rectangle when its object sits at origin.
func (c Collider) Bounds(origin geom.Point) geom.Rect {
	return geom.Rect{Pos: origin.Add(c.Offset), Size: c.Size}
}

func (c Collider) solid(x, y int) bool {
	return c.Mask == nil || c.Mask[y*int(c.Size.X)+x]
}

// Cells returns the world cells the collider occupies when its object sits at
// origin, in row-major order.
func (c Collider) Cells(origin geom.Point) []geom.Point {
	if !c.usable() {
		return nil
	}
	base := origin.Add(c.Offset)
	cells := make([]geom.Point, 0, c.Size.Area())
	for y := 0; y < int(c.Size.Y); y++ {
		for x := 0; x < int(c.Size.X); x++ {
			if c.solid(x, y) {
				cells = append(cells, base.Add(geom.Pt(x, y)))
			}
		}
	}
	return cells
}

// covers reports whether the collider, with its object at origin, occupies p.
func (c Collider) covers(origin, p geom.Point) bool {
	b := c.Bounds(origin)
	if !b.Contains(p) {
		return false
	}
	return c.solid(p.X-b.Pos.X, p.Y-b.Pos.Y)
}

// overlaps reports whether collider a at origin ao shares a solid cell with
// collider b at origin bo.
func overlaps(a Collider, ao geom.Point, b Collider, bo geom.Point) bool {
	if !a.usable() || !b.usable() {
		return false
	}
	area := a.Bounds(ao).Intersect(b.Bounds(bo))
	if area.Empty() {
		return false
	}
	if a.Mask == nil && b.Mask == nil {
		return true
	}
	end := area.Max()
	for y := area.Pos.Y; y < end.Y; y++ {
		for x := area.Pos.X; x < end.X; x++ {
			p := geom.Pt(x, y)
			if a.covers(ao, p) && b.covers(bo, p) {
				return true
			}
		}
	}
	return false
}

// footprint is a set of occupied cells.
type footprint map[geom.Point]struct{}

// Footprint returns the union of the object's usable collider cells at its
// current position.
func (o *Object) Footprint() map[geom.Point]struct{} {
	return o.footprintAt(o.Pos)
}

func (o *Object) footprintAt(origin geom.Point) footprint {
	fp := make(footprint)
	for _, c := range o.Colliders {
		for _, p := range c.Cells(origin) {
			fp[p] = struct{}{}
		}
	}
	return fp
}

// entersNew reports whether collider mc, moved from origin by delta, enters
// any cell of other (at oo) that the mover's current footprint did not
// already cover.
func entersNew(mc Collider, origin, delta geom.Point, current footprint, other Collider, oo geom.Point) bool {
	dest := origin.Add(delta)
	if !overlaps(mc, dest, other, oo) {
		return false
	}
	area := mc.Bounds(dest).Intersect(other.Bounds(oo))
	end := area.Max()
	for y := area.Pos.Y; y < end.Y; y++ {
		for x := area.Pos.X; x < end.X; x++ {
			p := geom.Pt(x, y)
			if _, held := current[p]; held {
				continue
			}
			if mc.covers(dest, p) && other.covers(oo, p) {
				return true
			}
		}
	}
	return false
}
