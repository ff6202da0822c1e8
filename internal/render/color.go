package render

import "strings"

// RGB is an opaque 24-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA is a color with an alpha channel. 0 is fully transparent, 255 opaque.
type RGBA struct {
	R, G, B, A uint8
}

// WithAlpha converts c to RGBA. The alpha is always explicit.
func (c RGB) WithAlpha(a uint8) RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// RGB drops the alpha channel.
func (c RGBA) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Transparent is the zero RGBA.
var Transparent = RGBA{}

// Cell is a single opaque terminal cell.
type Cell struct {
	Ch     rune
	Fg, Bg RGB
}

// CellA is a terminal cell whose colors carry alpha.
type CellA struct {
	Ch     rune
	Fg, Bg RGBA
}

// WithAlpha converts c to a CellA with the given foreground and background alpha.
func (c Cell) WithAlpha(fa, ba uint8) CellA {
	return CellA{Ch: c.Ch, Fg: c.Fg.WithAlpha(fa), Bg: c.Bg.WithAlpha(ba)}
}

// Opaque returns c with both alphas at 255.
func (c Cell) Opaque() CellA {
	return c.WithAlpha(255, 255)
}

// Cell drops the alpha channels.
func (c CellA) Cell() Cell {
	return Cell{Ch: c.Ch, Fg: c.Fg.RGB(), Bg: c.Bg.RGB()}
}

// Blank is a transparent space.
var Blank = CellA{Ch: ' '}

// colorNames maps scene-file color names to the basic 16-color palette.
var colorNames = map[string]RGB{
	"black":          {0, 0, 0},
	"red":            {170, 0, 0},
	"green":          {0, 170, 0},
	"yellow":         {170, 170, 0},
	"blue":           {0, 0, 170},
	"magenta":        {170, 0, 170},
	"cyan":           {0, 170, 170},
	"white":          {170, 170, 170},
	"gray":           {85, 85, 85},
	"grey":           {85, 85, 85},
	"bright_red":     {255, 85, 85},
	"bright_green":   {85, 255, 85},
	"bright_yellow":  {255, 255, 85},
	"bright_blue":    {85, 85, 255},
	"bright_magenta": {255, 85, 255},
	"bright_cyan":    {85, 255, 255},
	"bright_white":   {255, 255, 255},
}

// NamedColor resolves a palette name. Unknown names report false.
func NamedColor(name string) (RGB, bool) {
	c, ok := colorNames[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}
