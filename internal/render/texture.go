package render

import (
	"errors"
	"fmt"
	"strings"

	"happy-place-engine/internal/geom"
)

// ErrOutOfBounds is returned for cell access outside a texture's dimensions.
var ErrOutOfBounds = errors.New("texture index out of bounds")

// Texture is an owned 2D grid of CellA. Offset positions the texture relative
// to whatever it is composited into (usually its Object).
type Texture struct {
	Offset geom.Point
	Active bool

	size  geom.UPoint
	cells []CellA // row-major, len == size.X*size.Y
}

// NewTexture creates a texture of the given size filled with fill.
func NewTexture(size geom.UPoint, fill CellA) *Texture {
	t := &Texture{Active: true, size: size, cells: make([]CellA, size.Area())}
	for i := range t.cells {
		t.cells[i] = fill
	}
	return t
}

// Write builds a texture from rows of text. Spaces are transparent, every
// other rune gets fg and bg. Short rows are padded with transparent cells.
func Write(lines []string, fg, bg RGBA) *Texture {
	w := 0
	rows := make([][]rune, len(lines))
	for i, l := range lines {
		rows[i] = []rune(l)
		if len(rows[i]) > w {
			w = len(rows[i])
		}
	}
	t := NewTexture(geom.UPt(uint32(w), uint32(len(lines))), Blank)
	for y, row := range rows {
		for x, r := range row {
			if r == ' ' {
				continue
			}
			t.cells[y*w+x] = CellA{Ch: r, Fg: fg, Bg: bg}
		}
	}
	return t
}

// Null is a small magenta/black placeholder used when a texture can't be built.
func Null(offset geom.Point) *Texture {
	t := NewTexture(geom.UPt(2, 2), CellA{Ch: ' ', Bg: RGBA{A: 255}})
	t.Offset = offset
	t.cells[0].Bg = RGBA{R: 255, B: 220, A: 255}
	t.cells[1].Bg = RGBA{R: 255, B: 220, A: 255}
	return t
}

// Size returns the texture dimensions.
func (t *Texture) Size() geom.UPoint {
	return t.size
}

// Bounds is the texture rectangle in its parent's space.
func (t *Texture) Bounds() geom.Rect {
	return geom.Rect{Pos: t.Offset, Size: t.size}
}

func (t *Texture) index(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= int(t.size.X) || y >= int(t.size.Y) {
		return 0, fmt.Errorf("(%d,%d) in %v texture: %w", x, y, t.size, ErrOutOfBounds)
	}
	return y*int(t.size.X) + x, nil
}

// At returns the cell at (x, y).
func (t *Texture) At(x, y int) (CellA, error) {
	i, err := t.index(x, y)
	if err != nil {
		return CellA{}, err
	}
	return t.cells[i], nil
}

// Set overwrites the cell at (x, y).
func (t *Texture) Set(x, y int, c CellA) error {
	i, err := t.index(x, y)
	if err != nil {
		return err
	}
	t.cells[i] = c
	return nil
}

// Rect fills a size-sized rectangle at the texture's own origin, clipped.
func (t *Texture) Rect(size geom.UPoint, fill CellA) {
	t.RectAt(geom.Point{}, size, fill)
}

// RectAt fills a rectangle at pos, clipped to the texture bounds.
func (t *Texture) RectAt(pos geom.Point, size geom.UPoint, fill CellA) {
	area := geom.Rect{Size: t.size}.Intersect(geom.Rect{Pos: pos, Size: size})
	if area.Empty() {
		return
	}
	end := area.Max()
	for y := area.Pos.Y; y < end.Y; y++ {
		row := y * int(t.size.X)
		for x := area.Pos.X; x < end.X; x++ {
			t.cells[row+x] = fill
		}
	}
}

// Resize changes the dimensions, keeping cells that stay in bounds and
// filling newly exposed cells with fill.
func (t *Texture) Resize(size geom.UPoint, fill CellA) {
	next := make([]CellA, size.Area())
	for y := 0; y < int(size.Y); y++ {
		for x := 0; x < int(size.X); x++ {
			if x < int(t.size.X) && y < int(t.size.Y) {
				next[y*int(size.X)+x] = t.cells[y*int(t.size.X)+x]
			} else {
				next[y*int(size.X)+x] = fill
			}
		}
	}
	t.size = size
	t.cells = next
}

// Fill sets every cell to c.
func (t *Texture) Fill(c CellA) {
	for i := range t.cells {
		t.cells[i] = c
	}
}

// SetForeground sets the foreground color of every cell.
func (t *Texture) SetForeground(c RGBA) {
	for i := range t.cells {
		t.cells[i].Fg = c
	}
}

// SetBackground sets the background color of every cell.
func (t *Texture) SetBackground(c RGBA) {
	for i := range t.cells {
		t.cells[i].Bg = c
	}
}

// SetCharacter sets the rune of every cell.
func (t *Texture) SetCharacter(r rune) {
	for i := range t.cells {
		t.cells[i].Ch = r
	}
}

// SetAlpha sets both alpha channels of every cell.
func (t *Texture) SetAlpha(a uint8) {
	for i := range t.cells {
		t.cells[i].Fg.A = a
		t.cells[i].Bg.A = a
	}
}

// ReplaceCharacter swaps every occurrence of old for new.
func (t *Texture) ReplaceCharacter(old, new rune) {
	for i := range t.cells {
		if t.cells[i].Ch == old {
			t.cells[i].Ch = new
		}
	}
}

// Clone returns a deep copy.
func (t *Texture) Clone() *Texture {
	c := *t
	c.cells = make([]CellA, len(t.cells))
	copy(c.cells, t.cells)
	return &c
}

// Equal reports whether both textures have the same size and cells.
// Offset and Active are ignored.
func (t *Texture) Equal(o *Texture) bool {
	if t.size != o.size {
		return false
	}
	for i := range t.cells {
		if t.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Lines returns the characters of each row. Colors are not represented.
func (t *Texture) Lines() []string {
	lines := make([]string, t.size.Y)
	var sb strings.Builder
	for y := 0; y < int(t.size.Y); y++ {
		sb.Reset()
		for x := 0; x < int(t.size.X); x++ {
			sb.WriteRune(printable(t.cells[y*int(t.size.X)+x].Ch))
		}
		lines[y] = sb.String()
	}
	return lines
}

func (t *Texture) String() string {
	return strings.Join(t.Lines(), "\n")
}

// printable maps control runes and the zero rune to a space.
func printable(r rune) rune {
	if r < ' ' || r == 0x7f {
		return ' '
	}
	return r
}
