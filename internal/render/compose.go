package render

import "happy-place-engine/internal/geom"

const opaque = 255

// over blends src onto dst with alpha a: src*a + dst*(1-a).
func over(src, dst, a uint8) uint8 {
	return uint8((uint16(src)*uint16(a) + uint16(dst)*uint16(opaque-a)) / opaque)
}

// scale applies an extra alpha multiplier (layer alpha) to a channel alpha.
func scale(a, by uint8) uint8 {
	return uint8(uint16(a) * uint16(by) / opaque)
}

func blend(dst *RGBA, src RGBA, a uint8) {
	if a == 0 {
		return
	}
	dst.R = over(src.R, dst.R, a)
	dst.G = over(src.G, dst.G, a)
	dst.B = over(src.B, dst.B, a)
	dst.A = dst.A + uint8(uint16(opaque-dst.A)*uint16(a)/opaque)
}

// DrawCell composites src over dst with an extra alpha multiplier.
//
// The character is replaced when the source background is fully opaque, or
// when the source has a visible non-space glyph. A fully transparent source
// leaves dst untouched.
func DrawCell(dst *CellA, src CellA, alpha uint8) {
	fa := scale(src.Fg.A, alpha)
	ba := scale(src.Bg.A, alpha)
	switch {
	case ba == opaque:
		dst.Ch = printable(src.Ch)
	case src.Ch != ' ' && fa > 0:
		dst.Ch = printable(src.Ch)
	}
	blend(&dst.Fg, src.Fg, fa)
	blend(&dst.Bg, src.Bg, ba)
}

// Draw composites src onto dst with src's top-left at `at` (dst space).
// Cells falling outside dst are dropped.
func Draw(dst, src *Texture, at geom.Point, alpha uint8) {
	if alpha == 0 {
		return
	}
	area := geom.Rect{Size: dst.size}.Intersect(geom.Rect{Pos: at, Size: src.size})
	if area.Empty() {
		return
	}
	end := area.Max()
	for y := area.Pos.Y; y < end.Y; y++ {
		sy := y - at.Y
		for x := area.Pos.X; x < end.X; x++ {
			sx := x - at.X
			DrawCell(&dst.cells[y*int(dst.size.X)+x], src.cells[sy*int(src.size.X)+sx], alpha)
		}
	}
}

// DrawRegion composites the crop rectangle of src (src space) onto dst at `at`.
func DrawRegion(dst, src *Texture, at geom.Point, crop geom.Rect, alpha uint8) {
	crop = geom.Rect{Size: src.size}.Intersect(crop)
	if crop.Empty() || alpha == 0 {
		return
	}
	end := crop.Max()
	for sy := crop.Pos.Y; sy < end.Y; sy++ {
		dy := at.Y + sy - crop.Pos.Y
		if dy < 0 || dy >= int(dst.size.Y) {
			continue
		}
		for sx := crop.Pos.X; sx < end.X; sx++ {
			dx := at.X + sx - crop.Pos.X
			if dx < 0 || dx >= int(dst.size.X) {
				continue
			}
			DrawCell(&dst.cells[dy*int(dst.size.X)+dx], src.cells[sy*int(src.size.X)+sx], alpha)
		}
	}
}

// Tint paints uniform foreground and background colors over every cell
// without touching characters.
func Tint(dst *Texture, fg, bg RGBA) {
	if fg.A == 0 && bg.A == 0 {
		return
	}
	for i := range dst.cells {
		blend(&dst.cells[i].Fg, fg, fg.A)
		blend(&dst.cells[i].Bg, bg, bg.A)
	}
}
