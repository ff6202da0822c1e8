// Package script runs object behaviors written in tengo.
//
// A script defines any of the hook functions below at top level. Each is
// called with an engine map, a per-object state map that survives between
// calls, and for collision hooks an event map:
//
//	on_tick(e, s)
//	on_action(e, s, action)
//	on_move(e, s, ev)
//	on_block(e, s, ev)           on_blocked(e, s, ev)
//	on_push(e, s, ev)            on_pushed(e, s, ev)
//	on_overlap(e, s, ev)         on_overlapped(e, s, ev)
//	on_overlap_exit(e, s, ev)    on_overlapped_exit(e, s, ev)
//
// The engine map exposes name, tick, position(), move(dx, dy), find(name)
// and log(...). Moves requested by a script always run in the layer's next
// movement phase.
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/world"
)

const (
	// DefaultBudget bounds a single hook invocation.
	DefaultBudget = 20 * time.Millisecond
	maxAllocs     = 50000
)

// Modules that don't touch the filesystem or process.
var safeModules = []string{"math", "text", "times", "rand", "fmt", "json", "enum", "base64", "hex"}

var hookFuncs = []struct {
	phase, fn, args string
}{
	{"tick", "on_tick", "__engine, __state"},
	{"action", "on_action", "__engine, __state, __action"},
	{"move", "on_move", "__engine, __state, __event"},
	{"block", "on_block", "__engine, __state, __event"},
	{"blocked", "on_blocked", "__engine, __state, __event"},
	{"push", "on_push", "__engine, __state, __event"},
	{"pushed", "on_pushed", "__engine, __state, __event"},
	{"overlap", "on_overlap", "__engine, __state, __event"},
	{"overlapped", "on_overlapped", "__engine, __state, __event"},
	{"overlap_exit", "on_overlap_exit", "__engine, __state, __event"},
	{"overlapped_exit", "on_overlapped_exit", "__engine, __state, __event"},
}

// Program is a compiled script. Instantiate it once per object.
type Program struct {
	Name   string
	Budget time.Duration

	compiled *tengo.Compiled
	phases   map[string]bool
}

func newScript(src []byte) *tengo.Script {
	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap(safeModules...))
	s.SetMaxAllocs(maxAllocs)
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__event", map[string]any{})
	_ = s.Add("__action", "")
	return s
}

// Compile checks src and records which hooks it defines.
func Compile(name string, src []byte) (*Program, error) {
	probe, err := newScript(src).Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultBudget*5)
	defer cancel()
	if err := probe.RunContext(ctx); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	phases := make(map[string]bool)
	var dispatch strings.Builder
	for _, h := range hookFuncs {
		if !probe.IsDefined(h.fn) {
			continue
		}
		phases[h.phase] = true
		fmt.Fprintf(&dispatch, "\nif __phase == %q {\n\t%s(%s)\n}\n", h.phase, h.fn, h.args)
	}

	full := make([]byte, 0, len(src)+dispatch.Len()+1)
	full = append(full, src...)
	full = append(full, '\n')
	full = append(full, dispatch.String()...)
	compiled, err := newScript(full).Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Program{Name: name, Budget: DefaultBudget, compiled: compiled, phases: phases}, nil
}

// LoadFile compiles the script at path.
func LoadFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Compile(filepath.Base(path), src)
}

// Defines reports whether the script implements the hook for phase
// (e.g. "tick", "overlap_exit").
func (p *Program) Defines(phase string) bool {
	return p.phases[phase]
}

// Instantiate returns a fresh behavior with its own globals and state.
func (p *Program) Instantiate() *Behavior {
	return &Behavior{
		prog:     p,
		compiled: p.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
}

// Behavior implements every world hook by calling into the script.
type Behavior struct {
	prog     *Program
	compiled *tengo.Compiled
	state    *tengo.Map
}

// Var returns a value from the script's state map converted to Go, or nil.
func (b *Behavior) Var(name string) any {
	v, ok := b.state.Value[name]
	if !ok {
		return nil
	}
	return tengo.ToInterface(v)
}

func (b *Behavior) OnTick(ctx *world.Context) {
	b.run(ctx, "tick", nil, "")
}

func (b *Behavior) OnAction(ctx *world.Context, action string) {
	b.run(ctx, "action", nil, action)
}

func (b *Behavior) OnMove(ctx *world.Context, delta geom.Point) {
	b.run(ctx, "move", &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"dx": &tengo.Int{Value: int64(delta.X)},
		"dy": &tengo.Int{Value: int64(delta.Y)},
	}}, "")
}

func (b *Behavior) OnBlock(ctx *world.Context, ev world.Event)   { b.collide(ctx, "block", ev) }
func (b *Behavior) OnBlocked(ctx *world.Context, ev world.Event) { b.collide(ctx, "blocked", ev) }
func (b *Behavior) OnPush(ctx *world.Context, ev world.Event)    { b.collide(ctx, "push", ev) }
func (b *Behavior) OnPushed(ctx *world.Context, ev world.Event)  { b.collide(ctx, "pushed", ev) }
func (b *Behavior) OnOverlap(ctx *world.Context, ev world.Event) { b.collide(ctx, "overlap", ev) }
func (b *Behavior) OnOverlapped(ctx *world.Context, ev world.Event) {
	b.collide(ctx, "overlapped", ev)
}
func (b *Behavior) OnOverlapExit(ctx *world.Context, ev world.Event) {
	b.collide(ctx, "overlap_exit", ev)
}
func (b *Behavior) OnOverlappedExit(ctx *world.Context, ev world.Event) {
	b.collide(ctx, "overlapped_exit", ev)
}

func (b *Behavior) collide(ctx *world.Context, phase string, ev world.Event) {
	if !b.prog.phases[phase] {
		return
	}
	other := ""
	if ctx.Layer != nil {
		if o, err := ctx.Layer.Get(ev.Other); err == nil {
			other = o.Name
		}
	}
	b.run(ctx, phase, &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"dx":             &tengo.Int{Value: int64(ev.Delta.X)},
		"dy":             &tengo.Int{Value: int64(ev.Delta.Y)},
		"collider":       &tengo.Int{Value: int64(ev.Collider)},
		"other":          &tengo.String{Value: other},
		"other_collider": &tengo.Int{Value: int64(ev.OtherCollider)},
	}}, "")
}

func (b *Behavior) run(ctx *world.Context, phase string, event *tengo.ImmutableMap, action string) {
	if !b.prog.phases[phase] {
		return
	}
	if event == nil {
		event = &tengo.ImmutableMap{Value: map[string]tengo.Object{}}
	}
	log := ctx.Log
	if log == nil {
		log = zap.NewNop()
	}

	err := b.set(map[string]any{
		"__phase":  phase,
		"__engine": engine(ctx, log),
		"__state":  b.state,
		"__event":  event,
		"__action": action,
	})
	if err == nil {
		rc, cancel := context.WithTimeout(context.Background(), b.prog.Budget)
		err = b.compiled.RunContext(rc)
		cancel()
	}
	if err != nil {
		log.Warn("script error",
			zap.String("script", b.prog.Name),
			zap.String("phase", phase),
			zap.Error(err),
		)
	}
}

func (b *Behavior) set(vars map[string]any) error {
	for k, v := range vars {
		if err := b.compiled.Set(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func point(p geom.Point) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{&tengo.Int{Value: int64(p.X)}, &tengo.Int{Value: int64(p.Y)}}}
}

func engine(ctx *world.Context, log *zap.Logger) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"tick": &tengo.Int{Value: int64(ctx.Tick)},
	}
	if o, err := ctx.Object(); err == nil {
		values["name"] = &tengo.String{Value: o.Name}
	}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		o, err := ctx.Object()
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		return point(o.Pos), nil
	}}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		dx, ok := tengo.ToInt(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "dx", Expected: "int", Found: args[0].TypeName()}
		}
		dy, ok := tengo.ToInt(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "dy", Expected: "int", Found: args[1].TypeName()}
		}
		ctx.Schedule(geom.Pt(dx, dy))
		return tengo.TrueValue, nil
	}}

	values["find"] = &tengo.UserFunction{Name: "find", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 || ctx.Map == nil {
			return tengo.UndefinedValue, nil
		}
		name, _ := tengo.ToString(args[0])
		o, ok := ctx.Map.FindObject(name)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return point(o.Pos), nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			s, _ := tengo.ToString(a)
			parts = append(parts, s)
		}
		log.Info("script", zap.String("msg", strings.Join(parts, " ")))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
