package game

import (
	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
	"happy-place-engine/internal/world"
)

// Input carries one command into the game loop. An empty Object means the
// sender's own avatar.
type Input struct {
	PlayerID string
	Object   string
	Move     geom.Point
	Action   string

	ref *world.ObjectRef
}

// Frame is one rendered camera image. Image is owned by the receiver.
type Frame struct {
	Tick        uint64
	Image       *render.Texture
	Fingerprint uint64
}

// Player is a connected session's avatar and camera.
type Player struct {
	ID     string
	Name   string
	Frames <-chan Frame

	avatar world.ObjectRef
	camera registry.ID[world.Camera]
	color  render.RGB
	sub    int
}

// savedState holds the last position of a player who left.
type savedState struct {
	Pos   geom.Point
	Color render.RGB
}

var avatarColors = []string{"bright_yellow", "bright_cyan", "bright_magenta", "bright_green", "bright_red", "bright_blue"}

func (l *Loop) nextColor() render.RGB {
	c, _ := render.NamedColor(avatarColors[l.colorIndex%len(avatarColors)])
	l.colorIndex++
	return c
}

// spawn places an avatar and a following camera for p. Callers hold l.mu.
func (l *Loop) spawn(p *Player, pos geom.Point) {
	layer := l.world.spawnLayer()

	o := world.NewObject(p.ID, pos)
	o.AddTexture(render.Write([]string{"@"}, p.color.WithAlpha(255), render.Transparent))
	_, _ = o.AddCollider(world.RectCollider(world.TagSolid, geom.Point{}, geom.UPt(1, 1)))
	layer.Add(o)
	p.avatar = o.Ref()

	cam := world.NewCamera(p.ID, pos, l.opts.Camera)
	cam.Layers = l.world.Map.LayerIDs()
	cam.Follow(p.avatar, l.world.Bounds)
	p.camera = l.world.Map.AddCamera(cam)
}

// despawn removes p's avatar and camera and returns where it stood.
func (l *Loop) despawn(p *Player) geom.Point {
	var pos geom.Point
	if layer, err := l.world.Map.Layer(p.avatar.Layer); err == nil {
		if o, err := layer.Remove(p.avatar.Object); err == nil {
			pos = o.Pos
		}
	}
	_ = l.world.Map.RemoveCamera(p.camera)
	return pos
}
