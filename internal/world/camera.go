package world

import (
	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
)

// Camera renders an ordered list of layers into its own image.
type Camera struct {
	Name       string
	Pos        geom.Point
	Background render.Cell
	Layers     []registry.ID[Layer] // drawn first to last; not owned
	Behavior   any

	size   geom.UPoint
	image  *render.Texture
	follow *follow

	id registry.ID[Camera]
	m  *Map
}

type follow struct {
	target ObjectRef
	bounds geom.Rect
}

// NewCamera returns a camera with a black background.
func NewCamera(name string, pos geom.Point, size geom.UPoint) *Camera {
	c := &Camera{
		Name:       name,
		Pos:        pos,
		Background: render.Cell{Ch: ' '},
		size:       size,
	}
	c.image = render.NewTexture(size, c.Background.Opaque())
	return c
}

// ID returns the camera's identifier within its map.
func (c *Camera) ID() registry.ID[Camera] {
	return c.id
}

// Size returns the viewport size.
func (c *Camera) Size() geom.UPoint {
	return c.size
}

// Resize changes the viewport size. The position is kept.
func (c *Camera) Resize(size geom.UPoint) {
	c.size = size
	c.image.Resize(size, c.Background.Opaque())
}

// Image returns the last rendered image. It is overwritten by the next render.
func (c *Camera) Image() *render.Texture {
	return c.image
}

// Follow keeps target centred on every render, clamped to bounds.
func (c *Camera) Follow(target ObjectRef, bounds geom.Rect) {
	c.follow = &follow{target: target, bounds: bounds}
}

// Unfollow stops tracking.
func (c *Camera) Unfollow() {
	c.follow = nil
}

// Render draws the camera's configured layers.
func (c *Camera) Render() error {
	return c.RenderLayers(c.Layers)
}

// RenderLayers draws exactly the given layers without changing c.Layers.
// Stale layer IDs and hidden layers are skipped.
func (c *Camera) RenderLayers(ids []registry.ID[Layer]) error {
	if c.m == nil {
		return ErrDetached
	}
	if c.follow != nil {
		if o, err := c.m.Object(c.follow.target); err == nil {
			c.Pos = render.CenterOn(o.Pos, c.size, c.follow.bounds).Pos
		}
	}

	c.image.Fill(c.Background.Opaque())
	for _, id := range ids {
		l, err := c.m.Layer(id)
		if err != nil || !l.Visible {
			continue
		}
		c.drawLayer(l)
		render.Tint(c.image, l.Fg, l.Bg)
	}
	return nil
}

func (c *Camera) drawLayer(l *Layer) {
	if l.Alpha == 0 {
		return
	}
	l.Each(func(o *Object) bool {
		for _, t := range o.Textures {
			if t == nil || !t.Active {
				continue
			}
			render.Draw(c.image, t, o.Pos.Add(t.Offset).Sub(c.Pos), l.Alpha)
		}
		return true
	})
}

// DrawTo composites the crop rectangle of the last rendered image onto dst
// at pos.
func (c *Camera) DrawTo(dst *render.Texture, pos geom.Point, crop geom.Rect, alpha uint8) {
	render.DrawRegion(dst, c.image, pos, crop, alpha)
}
