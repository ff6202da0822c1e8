package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
	"happy-place-engine/internal/world"
)

const (
	InputChanSize = 256
	frameBuffer   = 2
)

// Options configures a Loop.
type Options struct {
	TickRate int
	Camera   geom.UPoint // initial size of player cameras
	Log      *zap.Logger
}

type subscription struct {
	cam  registry.ID[world.Camera]
	name string
	ch   chan Frame
}

// Loop owns a World and advances it at a fixed rate. All map access
// happens under mu, either in the tick or in the player methods.
type Loop struct {
	opts    Options
	log     *zap.Logger
	inputCh chan Input

	mu         sync.Mutex
	world      *World
	next       *World
	players    map[string]*Player
	saved      map[string]savedState // keyed by name
	subs       map[int]*subscription
	nextSub    int
	colorIndex int
	statsEvery int
	closed     bool
}

func NewLoop(w *World, opts Options) *Loop {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.Camera.Empty() {
		opts.Camera = geom.UPt(60, 20)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Loop{
		opts:       opts,
		log:        opts.Log.Named("loop"),
		inputCh:    make(chan Input, InputChanSize),
		world:      w,
		players:    make(map[string]*Player),
		saved:      make(map[string]savedState),
		subs:       make(map[int]*subscription),
		statsEvery: SecsToTicks(StatsInterval, opts.TickRate),
	}
}

// Send queues in for the next tick. It reports false if the queue is full.
func (l *Loop) Send(in Input) bool {
	select {
	case l.inputCh <- in:
		return true
	default:
		return false
	}
}

// Submit queues an intent that already names its target.
func (l *Loop) Submit(in world.Intent) bool {
	ref := in.Target
	return l.Send(Input{Move: in.Move, Action: in.Action, ref: &ref})
}

// Subscribe delivers a frame from cam after every tick. Slow receivers
// miss frames.
func (l *Loop) Subscribe(cam registry.ID[world.Camera]) (int, <-chan Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, err := l.world.Map.Camera(cam)
	if err != nil {
		return 0, nil, fmt.Errorf("subscribe: %w", err)
	}
	id, ch := l.subscribe(cam, c.Name)
	return id, ch, nil
}

func (l *Loop) subscribe(cam registry.ID[world.Camera], name string) (int, chan Frame) {
	l.nextSub++
	ch := make(chan Frame, frameBuffer)
	l.subs[l.nextSub] = &subscription{cam: cam, name: name, ch: ch}
	return l.nextSub, ch
}

// Unsubscribe stops delivery and closes the channel.
func (l *Loop) Unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unsubscribe(id)
}

func (l *Loop) unsubscribe(id int) {
	if s, ok := l.subs[id]; ok {
		close(s.ch)
		delete(l.subs, id)
	}
}

// Join spawns an avatar for name. A name seen before gets its saved
// position back.
func (l *Loop) Join(name string) (*Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, fmt.Errorf("loop stopped")
	}

	id := name
	for n := 2; l.players[id] != nil; n++ {
		id = fmt.Sprintf("%s_%d", name, n)
	}

	p := &Player{ID: id, Name: name}
	pos := l.world.Spawn
	if ss, ok := l.saved[name]; ok {
		pos, p.color = ss.Pos, ss.Color
	} else {
		p.color = l.nextColor()
	}
	l.spawn(p, pos)

	var ch chan Frame
	p.sub, ch = l.subscribe(p.camera, p.ID)
	p.Frames = ch
	l.players[id] = p
	l.log.Info("player joined", zap.String("player", id), zap.Stringer("pos", pos))
	return p, nil
}

// Leave removes the player and remembers where they stood.
func (l *Loop) Leave(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[id]
	if !ok {
		return
	}
	pos := l.despawn(p)
	l.saved[p.Name] = savedState{Pos: pos, Color: p.color}
	l.unsubscribe(p.sub)
	delete(l.players, id)
	l.log.Info("player left", zap.String("player", id))
}

// Resize changes the size of a player's camera.
func (l *Loop) Resize(id string, size geom.UPoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[id]
	if !ok || size.Empty() {
		return
	}
	if cam, err := l.world.Map.Camera(p.camera); err == nil {
		cam.Resize(size)
	}
}

// Replace swaps in w before the next tick. Players are respawned at the new
// spawn point and saved positions are forgotten.
func (l *Loop) Replace(w *World) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = w
}

func (l *Loop) swap() {
	old := l.world
	l.world = l.next
	l.next = nil
	clear(l.saved)

	for _, p := range l.players {
		l.spawn(p, l.world.Spawn)
		if s, ok := l.subs[p.sub]; ok {
			s.cam = p.camera
		}
	}
	for id, s := range l.subs {
		if _, own := l.players[s.name]; own {
			continue
		}
		c, ok := l.world.Map.CameraByName(s.name)
		if !ok {
			l.unsubscribe(id)
			continue
		}
		s.cam = c.ID()
	}
	l.log.Info("world replaced", zap.String("from", old.Map.Name), zap.String("to", l.world.Map.Name))
}

// Run ticks until ctx is done, then closes every frame channel.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.opts.TickRate))
	defer ticker.Stop()
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for id := range l.subs {
		l.unsubscribe(id)
	}
}

func (l *Loop) drain() []Input {
	var inputs []Input
	for {
		select {
		case in := <-l.inputCh:
			inputs = append(inputs, in)
		default:
			return inputs
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	start := time.Now()
	inputs := l.drain()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.next != nil {
		l.swap()
	}

	m := l.world.Map
	intents := make([]world.Intent, 0, len(inputs))
	for _, in := range inputs {
		if it, ok := l.resolve(in); ok {
			intents = append(intents, it)
		}
	}
	m.Advance(intents)

	if err := m.RenderCameras(ctx); err != nil {
		l.log.Warn("render failed", zap.Error(err))
	}
	l.publish(m)

	if l.statsEvery > 0 && m.Tick()%uint64(l.statsEvery) == 0 {
		l.log.Debug("tick",
			zap.Uint64("tick", m.Tick()),
			zap.Int("players", len(l.players)),
			zap.Int("inputs", len(inputs)),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (l *Loop) resolve(in Input) (world.Intent, bool) {
	it := world.Intent{Move: in.Move, Action: in.Action}
	switch {
	case in.ref != nil:
		it.Target = *in.ref
	case in.Object != "":
		o, ok := l.world.Map.FindObject(in.Object)
		if !ok {
			l.log.Debug("input for unknown object", zap.String("object", in.Object), zap.String("player", in.PlayerID))
			return it, false
		}
		it.Target = o.Ref()
	default:
		p, ok := l.players[in.PlayerID]
		if !ok {
			return it, false
		}
		it.Target = p.avatar
	}
	return it, true
}

func (l *Loop) publish(m *world.Map) {
	for _, s := range l.subs {
		cam, err := m.Camera(s.cam)
		if err != nil {
			continue
		}
		img := cam.Image().Clone()
		f := Frame{Tick: m.Tick(), Image: img, Fingerprint: render.Fingerprint(img)}
		select {
		case s.ch <- f:
		default:
			// Drop frame for slow client
		}
	}
}
