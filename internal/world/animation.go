package world

import (
	"fmt"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
)

// AnimOp is one kind of animation step.
type AnimOp uint8

const (
	// AnimPlace sets the object's position without collision checks.
	AnimPlace AnimOp = iota
	// AnimMove queues a resolved move for the layer's movement phase.
	AnimMove
	// AnimSelect activates one texture and deactivates the rest.
	AnimSelect
	AnimShow
	AnimHide
	// AnimPlaceTexture and AnimMoveTexture change a texture's offset.
	AnimPlaceTexture
	AnimMoveTexture
	// AnimWait suspends the animation; the next step runs Ticks ticks later.
	AnimWait
)

var animOpNames = [...]string{"place", "move", "select", "show", "hide", "place_texture", "move_texture", "wait"}

func (op AnimOp) String() string {
	if int(op) < len(animOpNames) {
		return animOpNames[op]
	}
	return fmt.Sprintf("AnimOp(%d)", op)
}

// ParseAnimOp is the inverse of AnimOp.String.
func ParseAnimOp(s string) (AnimOp, error) {
	for i, n := range animOpNames {
		if n == s {
			return AnimOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown animation step %q", s)
}

// AnimStep is one instruction. Texture is ignored by object steps; Show and
// Hide with a negative Texture apply to every texture.
type AnimStep struct {
	Op      AnimOp
	Texture int
	Point   geom.Point
	Ticks   int
}

// Animation plays a list of steps on its object, advanced once per tick
// after the object's OnTick hook.
type Animation struct {
	Steps []AnimStep
	Loop  bool

	pc   int
	wait int
	done bool
}

// NewAnimation returns an animation that starts on the next tick.
func NewAnimation(loop bool, steps ...AnimStep) *Animation {
	return &Animation{Steps: steps, Loop: loop}
}

// Done reports whether a non-looping animation has run its last step.
func (a *Animation) Done() bool {
	return a.done
}

// Reset rewinds to the first step.
func (a *Animation) Reset() {
	a.pc, a.wait, a.done = 0, 0, false
}

// Validate rejects waits shorter than one tick.
func (a *Animation) Validate() error {
	for i, s := range a.Steps {
		if s.Op == AnimWait && s.Ticks < 1 {
			return fmt.Errorf("animation step %d: wait of %d ticks", i, s.Ticks)
		}
		if s.Op > AnimWait {
			return fmt.Errorf("animation step %d: %v", i, s.Op)
		}
	}
	return nil
}

// advance runs steps until a wait or the end of the list. A looping
// animation wraps at most once per tick.
func (a *Animation) advance(l *Layer, o *Object) {
	if a.done || len(a.Steps) == 0 {
		return
	}
	if a.wait > 0 {
		a.wait--
		if a.wait > 0 {
			return
		}
	}
	wrapped := false
	for {
		if a.pc >= len(a.Steps) {
			if !a.Loop {
				a.done = true
				return
			}
			if wrapped {
				return
			}
			a.pc, wrapped = 0, true
		}
		s := a.Steps[a.pc]
		a.pc++
		if s.Op == AnimWait {
			a.wait = s.Ticks
			return
		}
		a.apply(l, o, s)
	}
}

func (a *Animation) apply(l *Layer, o *Object, s AnimStep) {
	switch s.Op {
	case AnimPlace:
		o.Pos = s.Point
		return
	case AnimMove:
		l.schedule(o.id, s.Point)
		return
	case AnimSelect:
		if s.Texture < 0 || s.Texture >= len(o.Textures) {
			break
		}
		for i, t := range o.Textures {
			t.Active = i == s.Texture
		}
		return
	case AnimShow, AnimHide:
		if s.Texture < 0 {
			for _, t := range o.Textures {
				t.Active = s.Op == AnimShow
			}
			return
		}
		if s.Texture >= len(o.Textures) {
			break
		}
		o.Textures[s.Texture].Active = s.Op == AnimShow
		return
	case AnimPlaceTexture, AnimMoveTexture:
		if s.Texture < 0 || s.Texture >= len(o.Textures) {
			break
		}
		t := o.Textures[s.Texture]
		if s.Op == AnimPlaceTexture {
			t.Offset = s.Point
		} else {
			t.Offset = t.Offset.Add(s.Point)
		}
		return
	}
	l.log.Debug("animation step skipped",
		zap.String("object", o.Name),
		zap.Stringer("op", s.Op),
		zap.Int("texture", s.Texture),
	)
}
