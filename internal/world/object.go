package world

import (
	"fmt"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
)

// Object is an entity in a Layer: textures to draw, colliders to resolve
// against, an optional Behavior implementing any of the hook interfaces and
// an optional Animation.
type Object struct {
	Name      string
	Pos       geom.Point
	Textures  []*render.Texture
	Colliders []Collider
	Behavior  any
	Animation *Animation

	id    registry.ID[Object]
	layer *Layer
}

// NewObject returns an object at pos with no textures or colliders.
func NewObject(name string, pos geom.Point) *Object {
	return &Object{Name: name, Pos: pos}
}

// ID returns the object's identifier, or the null ID if it isn't in a layer.
func (o *Object) ID() registry.ID[Object] {
	return o.id
}

// Layer returns the owning layer, or nil once the object has been removed.
func (o *Object) Layer() *Layer {
	return o.layer
}

// LayerID returns the owning layer's identifier within its map.
func (o *Object) LayerID() registry.ID[Layer] {
	if o.layer == nil {
		return registry.ID[Layer]{}
	}
	return o.layer.id
}

// Ref returns a map-wide reference to the object.
func (o *Object) Ref() ObjectRef {
	return ObjectRef{Layer: o.LayerID(), Object: o.id}
}

// AddTexture appends a texture and returns its index.
func (o *Object) AddTexture(t *render.Texture) int {
	o.Textures = append(o.Textures, t)
	return len(o.Textures) - 1
}

// AddCollider appends a collider and returns its index.
func (o *Object) AddCollider(c Collider) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("object %q: %w", o.Name, err)
	}
	o.Colliders = append(o.Colliders, c)
	return len(o.Colliders) - 1, nil
}

func (o *Object) String() string {
	return fmt.Sprintf("%s#%v", o.Name, o.id)
}

// ObjectRef addresses an object anywhere in a Map.
type ObjectRef struct {
	Layer  registry.ID[Layer]
	Object registry.ID[Object]
}

// Intent is one externally produced request for the next tick: a move, an
// action, or both. Actions are delivered before the move.
type Intent struct {
	Target ObjectRef
	Move   geom.Point
	Action string
}
