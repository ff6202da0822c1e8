package world

import (
	"fmt"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
)

// MoveOutcome is the result of a Layer.Move call.
type MoveOutcome uint8

const (
	MoveNoop MoveOutcome = iota
	MoveCommitted
	MoveBlocked
	MoveDeferred
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveNoop:
		return "noop"
	case MoveCommitted:
		return "committed"
	case MoveBlocked:
		return "blocked"
	case MoveDeferred:
		return "deferred"
	}
	return fmt.Sprintf("MoveOutcome(%d)", uint8(o))
}

// MoveResult reports what a move did.
type MoveResult struct {
	Outcome MoveOutcome
	// Moved lists every object that changed position, the mover first and
	// then pushed objects in discovery order.
	Moved []registry.ID[Object]
	// Blockers are the mover's direct contacts that blocked it, or whose push
	// chain could not be displaced.
	Blockers []registry.ID[Object]
	Overflow bool
	Err      error // ErrPushOverflow when Overflow is set
}

// contact is one collider pair found while expanding a move.
type contact struct {
	mover  int // index into plan.movers
	other  registry.ID[Object]
	mc, oc int
}

type moving struct {
	id      registry.ID[Object]
	obj     *Object
	current footprint
	via     contact // the push that added this mover; unset for the root
	root    int     // index of the root's direct contact this mover descends from
}

type plan struct {
	delta    geom.Point
	movers   []moving
	index    map[registry.ID[Object]]int
	blocks   []contact
	pushes   []contact
	enters   []contact
	exits    []contact
	overflow *contact
}

func (p *plan) isMoving(id registry.ID[Object]) bool {
	_, ok := p.index[id]
	return ok
}

// Move tries to displace an object by delta.
//
// The whole push tree is evaluated before anything moves. If any contact
// in it blocks, nothing moves and only block callbacks fire, even when the
// blocker is itself pushed by another part of the tree. A Move issued from a hook while this
// layer is resolving is queued and reported as MoveDeferred.
func (l *Layer) Move(id registry.ID[Object], delta geom.Point) (MoveResult, error) {
	obj, err := l.Get(id)
	if err != nil {
		return MoveResult{}, fmt.Errorf("move: %w", err)
	}
	if delta.IsZero() {
		return MoveResult{Outcome: MoveNoop}, nil
	}
	if l.resolving {
		l.schedule(id, delta)
		return MoveResult{Outcome: MoveDeferred}, nil
	}
	l.resolving = true
	defer func() { l.resolving = false }()

	if !l.Collides {
		obj.Pos = obj.Pos.Add(delta)
		l.fireMove(id, delta)
		return MoveResult{Outcome: MoveCommitted, Moved: []registry.ID[Object]{id}}, nil
	}

	p := l.expand(id, obj, delta)

	if p.overflow != nil {
		res := MoveResult{Outcome: MoveBlocked, Overflow: true, Err: ErrPushOverflow}
		root := p.directContact(*p.overflow)
		res.Blockers = []registry.ID[Object]{root.other}
		l.log.Debug("push chain overflow",
			zap.String("object", obj.Name),
			zap.Stringer("delta", delta),
			zap.Int("movers", len(p.movers)),
		)
		l.fireBlockedPair(p, root)
		return res, nil
	}

	if blocks := p.blocks; len(blocks) > 0 {
		res := MoveResult{Outcome: MoveBlocked}
		var roots []contact
		seen := make(map[registry.ID[Object]]bool)
		for _, b := range blocks {
			r := p.directContact(b)
			if seen[r.other] {
				continue
			}
			seen[r.other] = true
			roots = append(roots, r)
			res.Blockers = append(res.Blockers, r.other)
		}
		l.log.Debug("move blocked",
			zap.String("object", obj.Name),
			zap.Stringer("delta", delta),
			zap.Int("blockers", len(roots)),
		)
		for _, r := range roots {
			l.fireBlockedPair(p, r)
		}
		for _, b := range blocks {
			if b.mover != 0 {
				l.fireBlockedPair(p, b)
			}
		}
		return res, nil
	}

	res := MoveResult{Outcome: MoveCommitted, Moved: make([]registry.ID[Object], 0, len(p.movers))}
	for _, m := range p.movers {
		m.obj.Pos = m.obj.Pos.Add(delta)
		res.Moved = append(res.Moved, m.id)
	}

	l.fireMove(id, delta)
	for _, c := range prune(p, p.enters) {
		l.firePair(p, c, hookOverlap, hookOverlapped)
	}
	for _, c := range prune(p, p.exits) {
		l.firePair(p, c, hookOverlapExit, hookOverlappedExit)
	}
	for _, c := range p.pushes {
		active, passive := p.events(c)
		l.fire(hookPushed, c.other, passive)
		l.fire(hookPush, p.movers[c.mover].id, active)
	}
	return res, nil
}

// expand builds the push tree with an explicit work-list. Every object
// appears in it at most once, so its length is bounded by the layer size.
func (l *Layer) expand(id registry.ID[Object], obj *Object, delta geom.Point) *plan {
	p := &plan{
		delta: delta,
		index: map[registry.ID[Object]]int{id: 0},
	}
	p.movers = append(p.movers, moving{id: id, obj: obj, current: obj.Footprint(), root: -1})

	limit := l.objects.Len()
	if l.MaxPush > 0 && l.MaxPush+1 < limit {
		limit = l.MaxPush + 1
	}
	rules := l.rules()
	order := l.objects.IDs()

	for i := 0; i < len(p.movers); i++ {
		m := p.movers[i]
		dest := m.obj.Pos.Add(delta)
		for _, oid := range order {
			if p.isMoving(oid) {
				continue
			}
			other, err := l.objects.Get(oid)
			if err != nil {
				continue
			}

			pair := Heedless
			var hit contact
			for mi, mc := range m.obj.Colliders {
				if !mc.usable() {
					continue
				}
				for oi, oc := range other.Colliders {
					if !oc.usable() {
						continue
					}
					before := overlaps(mc, m.obj.Pos, oc, other.Pos)
					after := overlaps(mc, dest, oc, other.Pos)
					if !before && !after {
						continue
					}
					c := contact{mover: i, other: oid, mc: mi, oc: oi}
					switch rules.Lookup(mc.Tag, oc.Tag) {
					case Overlap:
						if !before && after {
							p.enters = append(p.enters, c)
						} else if before && !after {
							p.exits = append(p.exits, c)
						}
					case Block:
						if pair == Heedless && entersNew(mc, m.obj.Pos, delta, m.current, oc, other.Pos) {
							pair, hit = Block, c
						}
					case Push:
						// Any pushing collider pair makes the whole object pushed.
						if pair != Push && entersNew(mc, m.obj.Pos, delta, m.current, oc, other.Pos) {
							pair, hit = Push, c
						}
					}
				}
			}

			switch pair {
			case Block:
				p.blocks = append(p.blocks, hit)
			case Push:
				if len(p.movers) >= limit {
					p.overflow = &hit
					return p
				}
				root := m.root
				if i == 0 {
					root = len(p.movers)
				}
				p.index[oid] = len(p.movers)
				p.movers = append(p.movers, moving{id: oid, obj: other, current: other.Footprint(), via: hit, root: root})
				p.pushes = append(p.pushes, hit)
			}
		}
	}
	return p
}

// prune drops overlap records whose passive object joined the moving set
// after the record was made: it moves by the same delta, so the contact
// never happens. Block records are never pruned.
func prune(p *plan, cs []contact) []contact {
	out := cs[:0:0]
	for _, c := range cs {
		if !p.isMoving(c.other) {
			out = append(out, c)
		}
	}
	return out
}

// directContact maps a contact anywhere in the tree to the root mover's
// contact it descends from.
func (p *plan) directContact(c contact) contact {
	if c.mover == 0 {
		return c
	}
	return p.movers[p.movers[c.mover].root].via
}

func (p *plan) events(c contact) (active, passive Event) {
	mover := p.movers[c.mover].id
	active = Event{Delta: p.delta, Collider: c.mc, Other: c.other, OtherCollider: c.oc}
	passive = Event{Delta: p.delta, Collider: c.oc, Other: mover, OtherCollider: c.mc}
	return active, passive
}

func (l *Layer) firePair(p *plan, c contact, activeHook, passiveHook hook) {
	active, passive := p.events(c)
	l.fire(activeHook, p.movers[c.mover].id, active)
	l.fire(passiveHook, c.other, passive)
}

func (l *Layer) fireBlockedPair(p *plan, c contact) {
	l.firePair(p, c, hookBlocked, hookBlock)
}
