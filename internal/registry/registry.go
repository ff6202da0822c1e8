// Package registry owns entities behind generation-checked identifiers.
//
// A removed entity's slot may be reused, but its generation is bumped first,
// so an ID held from before the removal can never resolve to the newcomer.
package registry

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound is returned when an ID is null or stale.
var ErrNotFound = errors.New("entity not found")

// ID identifies an entity of type T. The zero value is the null ID.
type ID[T any] struct {
	slot uint32 // 1-based; 0 means null
	gen  uint32
}

// IsNull reports whether id is the zero ID.
func (id ID[T]) IsNull() bool {
	return id.slot == 0
}

func (id ID[T]) String() string {
	if id.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d.%d", id.slot, id.gen)
}

type entry[T any] struct {
	gen  uint32
	item *T
}

// Registry holds *T values. It is not safe for concurrent mutation; the
// owning Layer or Map is driven from a single goroutine.
type Registry[T any] struct {
	slots []entry[T]
	free  []uint32
	order []ID[T] // iteration order, front first
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add takes ownership of item and returns its new ID. It is appended to the
// back of the iteration order.
func (r *Registry[T]) Add(item *T) ID[T] {
	var slot uint32
	if n := len(r.free); n > 0 {
		slot = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, entry[T]{gen: 1})
		slot = uint32(len(r.slots))
	}
	e := &r.slots[slot-1]
	e.item = item
	id := ID[T]{slot: slot, gen: e.gen}
	r.order = append(r.order, id)
	return id
}

func (r *Registry[T]) lookup(id ID[T]) (*entry[T], bool) {
	if id.slot == 0 || int(id.slot) > len(r.slots) {
		return nil, false
	}
	e := &r.slots[id.slot-1]
	if e.gen != id.gen || e.item == nil {
		return nil, false
	}
	return e, true
}

// Get resolves id.
func (r *Registry[T]) Get(id ID[T]) (*T, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("id %v: %w", id, ErrNotFound)
	}
	return e.item, nil
}

// Contains reports whether id resolves.
func (r *Registry[T]) Contains(id ID[T]) bool {
	_, ok := r.lookup(id)
	return ok
}

// Remove deletes the entity and invalidates id. The removed value is
// returned so the caller can release its resources.
func (r *Registry[T]) Remove(id ID[T]) (*T, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("remove %v: %w", id, ErrNotFound)
	}
	item := e.item
	e.item = nil
	e.gen++
	if e.gen == 0 {
		// A wrapped generation could collide with an old ID; retire the slot.
		e.gen = 1
	} else {
		r.free = append(r.free, id.slot)
	}
	r.order = slices.DeleteFunc(r.order, func(o ID[T]) bool { return o == id })
	return item, nil
}

// Len returns the number of live entities.
func (r *Registry[T]) Len() int {
	return len(r.order)
}

// IDs returns a snapshot of the iteration order. Entities added or removed
// while iterating the snapshot do not disturb it.
func (r *Registry[T]) IDs() []ID[T] {
	return slices.Clone(r.order)
}

// Each calls fn for every entity in iteration order, stopping early if fn
// returns false. Entries removed during iteration are skipped.
func (r *Registry[T]) Each(fn func(ID[T], *T) bool) {
	for _, id := range r.IDs() {
		e, ok := r.lookup(id)
		if !ok {
			continue
		}
		if !fn(id, e.item) {
			return
		}
	}
}

// Front returns the first entity in iteration order.
func (r *Registry[T]) Front() (ID[T], *T, bool) {
	if len(r.order) == 0 {
		return ID[T]{}, nil, false
	}
	id := r.order[0]
	e, _ := r.lookup(id)
	return id, e.item, true
}

// Back returns the last entity in iteration order.
func (r *Registry[T]) Back() (ID[T], *T, bool) {
	if len(r.order) == 0 {
		return ID[T]{}, nil, false
	}
	id := r.order[len(r.order)-1]
	e, _ := r.lookup(id)
	return id, e.item, true
}

// MoveToFront makes id the first entity visited.
func (r *Registry[T]) MoveToFront(id ID[T]) error {
	i := slices.Index(r.order, id)
	if i < 0 || !r.Contains(id) {
		return fmt.Errorf("reorder %v: %w", id, ErrNotFound)
	}
	copy(r.order[1:i+1], r.order[:i])
	r.order[0] = id
	return nil
}

// MoveToBack makes id the last entity visited.
func (r *Registry[T]) MoveToBack(id ID[T]) error {
	i := slices.Index(r.order, id)
	if i < 0 || !r.Contains(id) {
		return fmt.Errorf("reorder %v: %w", id, ErrNotFound)
	}
	copy(r.order[i:], r.order[i+1:])
	r.order[len(r.order)-1] = id
	return nil
}

// Clear removes every entity, invalidating all outstanding IDs.
func (r *Registry[T]) Clear() []*T {
	out := make([]*T, 0, len(r.order))
	for _, id := range r.IDs() {
		if item, err := r.Remove(id); err == nil {
			out = append(out, item)
		}
	}
	return out
}
