package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnderflow is returned when unsigned arithmetic would go below zero.
var ErrUnderflow = errors.New("unsigned point underflow")

// Point is a signed 2D integer coordinate.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Neg returns -p.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// IsZero reports whether p is (0,0).
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// UPoint is an unsigned 2D size or coordinate.
type UPoint struct {
	X, Y uint32
}

// UPt is shorthand for UPoint{x, y}.
func UPt(x, y uint32) UPoint {
	return UPoint{X: x, Y: y}
}

// Add returns u+v.
func (u UPoint) Add(v UPoint) UPoint {
	return UPoint{X: u.X + v.X, Y: u.Y + v.Y}
}

// Sub returns u-v, or ErrUnderflow if either component of v exceeds u.
func (u UPoint) Sub(v UPoint) (UPoint, error) {
	if v.X > u.X || v.Y > u.Y {
		return UPoint{}, fmt.Errorf("%v - %v: %w", u, v, ErrUnderflow)
	}
	return UPoint{X: u.X - v.X, Y: u.Y - v.Y}, nil
}

// Area is the number of cells covered by a size.
func (u UPoint) Area() int {
	return int(u.X) * int(u.Y)
}

// Empty reports whether a size covers no cells.
func (u UPoint) Empty() bool {
	return u.X == 0 || u.Y == 0
}

// Point converts u to a signed Point.
func (u UPoint) Point() Point {
	return Point{X: int(u.X), Y: int(u.Y)}
}

func (u UPoint) String() string {
	return fmt.Sprintf("%dx%d", u.X, u.Y)
}

// ToUPoint converts p to a UPoint, failing on negative components.
func ToUPoint(p Point) (UPoint, error) {
	if p.X < 0 || p.Y < 0 {
		return UPoint{}, fmt.Errorf("%v: %w", p, ErrUnderflow)
	}
	if uint64(p.X) > math.MaxUint32 || uint64(p.Y) > math.MaxUint32 {
		return UPoint{}, fmt.Errorf("%v exceeds uint32 range", p)
	}
	return UPoint{X: uint32(p.X), Y: uint32(p.Y)}, nil
}
