package world

import (
	"fmt"
	"strings"
)

// Result classifies the interaction between a moving collider and a
// stationary one.
type Result uint8

const (
	Heedless Result = iota
	Overlap
	Block
	Push
)

func (r Result) String() string {
	switch r {
	case Heedless:
		return "heedless"
	case Overlap:
		return "overlap"
	case Block:
		return "block"
	case Push:
		return "push"
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// ParseResult accepts the names produced by Result.String.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heedless", "ignore", "":
		return Heedless, nil
	case "overlap":
		return Overlap, nil
	case "block":
		return Block, nil
	case "push":
		return Push, nil
	}
	return Heedless, fmt.Errorf("unknown collision result %q", s)
}

type tagPair struct {
	moving, stationary string
}

// CollisionTable maps (moving tag, stationary tag) to a Result. Undeclared
// pairs are Heedless.
type CollisionTable struct {
	rules map[tagPair]Result
}

// NewCollisionTable returns an empty table.
func NewCollisionTable() *CollisionTable {
	return &CollisionTable{rules: make(map[tagPair]Result)}
}

// DefaultCollisionTable has three tags: solid, pushable and trigger.
// Solid and pushable movers are blocked by solid colliders, push pushable
// ones and overlap triggers. Trigger movers overlap everything.
func DefaultCollisionTable() *CollisionTable {
	t := NewCollisionTable()
	for _, m := range []string{TagSolid, TagPushable} {
		t.Set(m, TagSolid, Block)
		t.Set(m, TagPushable, Push)
		t.Set(m, TagTrigger, Overlap)
	}
	for _, s := range []string{TagSolid, TagPushable, TagTrigger} {
		t.Set(TagTrigger, s, Overlap)
	}
	return t
}

// Tags used by DefaultCollisionTable.
const (
	TagSolid    = "solid"
	TagPushable = "pushable"
	TagTrigger  = "trigger"
)

// Set declares the result for a tag pair, replacing any previous rule.
func (t *CollisionTable) Set(moving, stationary string, r Result) {
	if t.rules == nil {
		t.rules = make(map[tagPair]Result)
	}
	t.rules[tagPair{moving, stationary}] = r
}

// Lookup returns the declared result, or Heedless.
func (t *CollisionTable) Lookup(moving, stationary string) Result {
	if t == nil {
		return Heedless
	}
	return t.rules[tagPair{moving, stationary}]
}

// Len returns the number of declared pairs.
func (t *CollisionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
