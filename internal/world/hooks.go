package world

import (
	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
)

// Event describes one collision between the hook's own collider and another
// object's collider.
type Event struct {
	Delta         geom.Point
	Collider      int // index into the receiver's Colliders
	Other         registry.ID[Object]
	OtherCollider int
}

// Behaviors are plain values stored in Object.Behavior, Layer.Behavior or
// Camera.Behavior. Each hook is an optional interface; the resolver calls
// only what a behavior implements.
type (
	// Ticker runs once per Map advance, before movement.
	Ticker interface{ OnTick(ctx *Context) }
	// Actor receives named intents such as "use" or "jump".
	Actor interface {
		OnAction(ctx *Context, action string)
	}
	// Mover runs after the object itself moved.
	Mover interface {
		OnMove(ctx *Context, delta geom.Point)
	}

	Blocker           interface{ OnBlock(ctx *Context, ev Event) }
	BlockedHandler    interface{ OnBlocked(ctx *Context, ev Event) }
	Pusher            interface{ OnPush(ctx *Context, ev Event) }
	PushedHandler     interface{ OnPushed(ctx *Context, ev Event) }
	Overlapper        interface{ OnOverlap(ctx *Context, ev Event) }
	OverlappedHandler interface{ OnOverlapped(ctx *Context, ev Event) }
	OverlapExiter     interface{ OnOverlapExit(ctx *Context, ev Event) }
	OverlappedExiter  interface{ OnOverlappedExit(ctx *Context, ev Event) }
)

// Hooks adapts plain functions to every hook interface. Nil fields are no-ops.
type Hooks struct {
	Tick           func(ctx *Context)
	Action         func(ctx *Context, action string)
	Move           func(ctx *Context, delta geom.Point)
	Block          func(ctx *Context, ev Event)
	Blocked        func(ctx *Context, ev Event)
	Push           func(ctx *Context, ev Event)
	Pushed         func(ctx *Context, ev Event)
	Overlap        func(ctx *Context, ev Event)
	Overlapped     func(ctx *Context, ev Event)
	OverlapExit    func(ctx *Context, ev Event)
	OverlappedExit func(ctx *Context, ev Event)
}

func (h *Hooks) OnTick(ctx *Context) {
	if h.Tick != nil {
		h.Tick(ctx)
	}
}

func (h *Hooks) OnAction(ctx *Context, action string) {
	if h.Action != nil {
		h.Action(ctx, action)
	}
}

func (h *Hooks) OnMove(ctx *Context, delta geom.Point) {
	if h.Move != nil {
		h.Move(ctx, delta)
	}
}

func (h *Hooks) OnBlock(ctx *Context, ev Event)   { call(h.Block, ctx, ev) }
func (h *Hooks) OnBlocked(ctx *Context, ev Event) { call(h.Blocked, ctx, ev) }
func (h *Hooks) OnPush(ctx *Context, ev Event)    { call(h.Push, ctx, ev) }
func (h *Hooks) OnPushed(ctx *Context, ev Event)  { call(h.Pushed, ctx, ev) }
func (h *Hooks) OnOverlap(ctx *Context, ev Event) { call(h.Overlap, ctx, ev) }
func (h *Hooks) OnOverlapped(ctx *Context, ev Event) {
	call(h.Overlapped, ctx, ev)
}
func (h *Hooks) OnOverlapExit(ctx *Context, ev Event) {
	call(h.OverlapExit, ctx, ev)
}
func (h *Hooks) OnOverlappedExit(ctx *Context, ev Event) {
	call(h.OverlappedExit, ctx, ev)
}

func call(fn func(*Context, Event), ctx *Context, ev Event) {
	if fn != nil {
		fn(ctx, ev)
	}
}

// hook names collision callbacks for dispatch and logging.
type hook uint8

const (
	hookBlock hook = iota
	hookBlocked
	hookPush
	hookPushed
	hookOverlap
	hookOverlapped
	hookOverlapExit
	hookOverlappedExit
)

var hookNames = [...]string{
	hookBlock:          "OnBlock",
	hookBlocked:        "OnBlocked",
	hookPush:           "OnPush",
	hookPushed:         "OnPushed",
	hookOverlap:        "OnOverlap",
	hookOverlapped:     "OnOverlapped",
	hookOverlapExit:    "OnOverlapExit",
	hookOverlappedExit: "OnOverlappedExit",
}

func (h hook) String() string { return hookNames[h] }

// dispatch invokes the collision hook h on behavior b, if implemented.
func (h hook) dispatch(b any, ctx *Context, ev Event) bool {
	switch h {
	case hookBlock:
		if x, ok := b.(Blocker); ok {
			x.OnBlock(ctx, ev)
			return true
		}
	case hookBlocked:
		if x, ok := b.(BlockedHandler); ok {
			x.OnBlocked(ctx, ev)
			return true
		}
	case hookPush:
		if x, ok := b.(Pusher); ok {
			x.OnPush(ctx, ev)
			return true
		}
	case hookPushed:
		if x, ok := b.(PushedHandler); ok {
			x.OnPushed(ctx, ev)
			return true
		}
	case hookOverlap:
		if x, ok := b.(Overlapper); ok {
			x.OnOverlap(ctx, ev)
			return true
		}
	case hookOverlapped:
		if x, ok := b.(OverlappedHandler); ok {
			x.OnOverlapped(ctx, ev)
			return true
		}
	case hookOverlapExit:
		if x, ok := b.(OverlapExiter); ok {
			x.OnOverlapExit(ctx, ev)
			return true
		}
	case hookOverlappedExit:
		if x, ok := b.(OverlappedExiter); ok {
			x.OnOverlappedExit(ctx, ev)
			return true
		}
	}
	return false
}
