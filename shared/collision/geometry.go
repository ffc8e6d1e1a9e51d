// Package collision resolves a kinematic body against static map rectangles.
// Rectangles may be rotated around their top-left corner, as Tiled places them.
package collision

import (
	"math"

	"github.com/automoto/twinflame/shared/gamemath"
	"github.com/automoto/twinflame/shared/tilemap"
)

// Rect is a static obstacle. Rotation is in degrees, 0 means axis-aligned.
type Rect struct {
	X, Y, W, H float64
	Rotation   float64
}

// Body is the axis-aligned box of a moving player plus its vertical velocity
// in px/s.
type Body struct {
	X, Y, W, H float64
	VY         float64
}

func (b Body) Bottom() float64 { return b.Y + b.H }
func (b Body) Right() float64  { return b.X + b.W }

// Rect returns the body's box as an unrotated Rect.
func (b Body) Rect() Rect {
	return Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

func (r Rect) Rotated() bool { return r.Rotation != 0 }

// FromObject converts a map object to a Rect.
func FromObject(o tilemap.Object) Rect {
	return Rect{X: o.X, Y: o.Y, W: o.Width, H: o.Height, Rotation: o.Rotation}
}

// FromObjects converts a whole object layer.
func FromObjects(objs []tilemap.Object) []Rect {
	out := make([]Rect, 0, len(objs))
	for _, o := range objs {
		out = append(out, FromObject(o))
	}
	return out
}

// ToLocal maps a world point into the rectangle's unrotated frame, where the
// rectangle spans [0,W]x[0,H].
func (r Rect) ToLocal(px, py float64) (float64, float64) {
	if !r.Rotated() {
		return px - r.X, py - r.Y
	}
	return gamemath.ToLocal(r.X, r.Y, r.Rotation, px, py)
}

// Contains reports whether the world point lies inside the rectangle,
// edges included.
func (r Rect) Contains(px, py float64) bool {
	lx, ly := r.ToLocal(px, py)
	return lx >= 0 && lx <= r.W && ly >= 0 && ly <= r.H
}

// Corners returns the world corners in outline order, starting at the
// rotation origin.
func (r Rect) Corners() [4][2]float64 {
	var out [4][2]float64
	for i, c := range [4][2]float64{{0, 0}, {r.W, 0}, {r.W, r.H}, {0, r.H}} {
		if r.Rotated() {
			out[i][0], out[i][1] = gamemath.ToWorld(r.X, r.Y, r.Rotation, c[0], c[1])
		} else {
			out[i][0], out[i][1] = r.X+c[0], r.Y+c[1]
		}
	}
	return out
}

// Bounds returns the axis-aligned box enclosing the rectangle.
func (r Rect) Bounds() Rect {
	if !r.Rotated() {
		return r
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range r.Corners() {
		minX, maxX = math.Min(minX, c[0]), math.Max(maxX, c[0])
		minY, maxY = math.Min(minY, c[1]), math.Max(maxY, c[1])
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// normalized returns an equivalent rectangle whose rotation lies in
// [-90, 90]. A rectangle turned past 90 degrees covers the same area as one
// turned the other way around its opposite corner.
func (r Rect) normalized() Rect {
	deg := gamemath.NormalizeDegrees(r.Rotation)
	if deg > 90 || deg < -90 {
		ox, oy := gamemath.ToWorld(r.X, r.Y, deg, r.W, r.H)
		if deg > 0 {
			deg -= 180
		} else {
			deg += 180
		}
		return Rect{X: ox, Y: oy, W: r.W, H: r.H, Rotation: deg}
	}
	r.Rotation = deg
	return r
}

// Overlaps reports whether two unrotated rectangles intersect with positive
// area.
func Overlaps(a, b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X && a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// BodyOverlaps tests a body against a zone. Rotated zones are tested against
// the body's corners and center.
func BodyOverlaps(b Body, r Rect) bool {
	if !r.Rotated() {
		return Overlaps(b.Rect(), r)
	}
	points := [5][2]float64{
		{b.X, b.Y}, {b.Right(), b.Y},
		{b.X, b.Bottom()}, {b.Right(), b.Bottom()},
		{b.X + b.W/2, b.Y + b.H/2},
	}
	for _, p := range points {
		if r.Contains(p[0], p[1]) {
			return true
		}
	}
	return false
}

// OverlapsAny reports whether the body overlaps any of the zones.
func OverlapsAny(b Body, zones []Rect) bool {
	for _, z := range zones {
		if BodyOverlaps(b, z) {
			return true
		}
	}
	return false
}
