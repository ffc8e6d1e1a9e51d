package collision

import (
	"math"
	"sort"

	"github.com/automoto/twinflame/shared/gamemath"
	"github.com/solarlune/resolv"
)

// Resolv tags for the broadphase space.
const (
	tagSolid = "solid"
	tagSlope = "slope"
	tagProbe = "probe"
)

const (
	cellSize    = 16
	probeMargin = 4.0

	// touchSlack absorbs float error when a body was snapped flush to an
	// edge on the previous frame.
	touchSlack = 1e-6
)

// Params tune the vertical pass and ground check.
type Params struct {
	Gravity        float64 // px/s^2
	MaxFallSpeed   float64 // px/s
	GroundEpsilon  float64 // px
	RotatedDamping float64 // velocity scale after landing on a rotated rect
}

// DefaultParams returns the stock platformer tuning.
func DefaultParams() Params {
	return Params{
		Gravity:        1500,
		MaxFallSpeed:   1000,
		GroundEpsilon:  3,
		RotatedDamping: 0.3,
	}
}

// Resolver corrects a body against a fixed set of rectangles. The rectangles'
// bounds are indexed in a resolv space so each pass only looks at nearby
// obstacles. A Resolver is not safe for concurrent use.
type Resolver struct {
	rects  []Rect
	params Params
	space  *resolv.Space
	probe  *resolv.Object

	// origin of the space in world coordinates; resolv cells start at 0.
	originX, originY float64
}

// NewResolver indexes rects. worldW and worldH size the broadphase grid;
// rectangles reaching past them, on either side, grow it.
func NewResolver(rects []Rect, params Params, worldW, worldH float64) *Resolver {
	r := &Resolver{
		rects:  make([]Rect, len(rects)),
		params: params,
	}

	minX, minY := 0.0, 0.0
	maxX, maxY := worldW, worldH
	for i, rect := range rects {
		r.rects[i] = rect.normalized()
		b := r.rects[i].Bounds()
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	r.originX = math.Floor(minX) - cellSize
	r.originY = math.Floor(minY) - cellSize

	w := int(maxX-r.originX) + cellSize*2
	h := int(maxY-r.originY) + cellSize*2
	r.space = resolv.NewSpace(w, h, cellSize, cellSize)
	for i, rect := range r.rects {
		b := rect.Bounds()
		tags := []string{tagSolid}
		if rect.Rotated() {
			tags = append(tags, tagSlope)
		}
		obj := resolv.NewObject(b.X-r.originX, b.Y-r.originY, math.Max(b.W, 1), math.Max(b.H, 1), tags...)
		obj.Data = i
		r.space.Add(obj)
	}

	r.probe = resolv.NewObject(0, 0, 1, 1, tagProbe)
	r.space.Add(r.probe)
	return r
}

// Rects returns the indexed rectangles.
func (r *Resolver) Rects() []Rect { return r.rects }

// Params returns the tuning in use.
func (r *Resolver) Params() Params { return r.params }

// nearby returns indices of rectangles whose broadphase cells touch the given
// box, in map order.
func (r *Resolver) nearby(x, y, w, h float64) []int {
	r.probe.X = x - probeMargin - r.originX
	r.probe.Y = y - probeMargin - r.originY
	r.probe.W = w + probeMargin*2
	r.probe.H = h + probeMargin*2
	r.probe.Update()

	check := r.probe.Check(0, 0, tagSolid)
	if check == nil {
		return nil
	}

	seen := make(map[int]bool)
	var out []int
	for _, obj := range check.ObjectsByTags(tagSolid) {
		i, ok := obj.Data.(int)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// HorizontalPass pushes the body out of every rectangle it overlaps, along
// the x axis. Each rectangle is visited once.
func (r *Resolver) HorizontalPass(b *Body) {
	for _, i := range r.nearby(b.X, b.Y, b.W, b.H) {
		rect := r.rects[i]
		if rect.Rotated() {
			b.X += rotatedHorizontal(*b, rect)
		} else {
			b.X += alignedHorizontal(*b, rect)
		}
	}
}

// alignedHorizontal returns the x correction for an unrotated rectangle.
// Ties push left.
func alignedHorizontal(b Body, rect Rect) float64 {
	if !Overlaps(b.Rect(), rect) {
		return 0
	}
	overlapLeft := b.Right() - rect.X
	overlapRight := rect.X + rect.W - b.X
	if overlapLeft <= overlapRight {
		return -overlapLeft
	}
	return overlapRight
}

// rotatedHorizontal tests the body's mid-height edge points in the
// rectangle's frame and re-projects the penetration along its x axis.
func rotatedHorizontal(b Body, rect Rect) float64 {
	midY := b.Y + b.H/2
	cos := math.Cos(gamemath.DegToRad(rect.Rotation))

	var push float64
	found := false
	if rect.Contains(b.Right(), midY) {
		lx, _ := rect.ToLocal(b.Right(), midY)
		push = -lx * cos
		found = true
	}
	if rect.Contains(b.X, midY) {
		lx, _ := rect.ToLocal(b.X, midY)
		right := (rect.W - lx) * cos
		if !found || right < -push {
			push = right
		}
	}
	return push
}

// VerticalPass integrates gravity over dt seconds, moves the body and snaps
// it onto floors or under ceilings it would cross.
func (r *Resolver) VerticalPass(b *Body, dt float64) {
	b.VY = gamemath.Integrate(b.VY, r.params.Gravity, dt, r.params.MaxFallSpeed)
	newY := b.Y + b.VY*dt

	top := math.Min(b.Y, newY)
	span := math.Abs(newY-b.Y) + b.H
	for _, i := range r.nearby(b.X, top, b.W, span) {
		rect := r.rects[i]
		if rect.Rotated() {
			newY = r.rotatedVertical(b, rect, newY)
			continue
		}

		if b.Right() <= rect.X || b.X >= rect.X+rect.W {
			continue
		}
		if b.Bottom() <= rect.Y+touchSlack && newY+b.H >= rect.Y {
			newY = rect.Y - b.H
			b.VY = 0
		} else if b.Y >= rect.Y+rect.H-touchSlack && newY <= rect.Y+rect.H {
			newY = rect.Y + rect.H
			b.VY = 0
		}
	}

	b.Y = newY
}

// rotatedVertical lifts the body out of a rotated surface when one of its
// bottom points at the candidate position sits inside it. Velocity is damped
// rather than zeroed so bodies slide.
func (r *Resolver) rotatedVertical(b *Body, rect Rect, newY float64) float64 {
	cos := math.Cos(gamemath.DegToRad(rect.Rotation))
	if math.Abs(cos) < 1e-9 {
		return newY
	}

	bottom := newY + b.H
	depth := -1.0
	for _, px := range [3]float64{b.X, b.X + b.W/2, b.Right()} {
		if !rect.Contains(px, bottom) {
			continue
		}
		_, ly := rect.ToLocal(px, bottom)
		depth = math.Max(depth, ly)
	}
	if depth < 0 {
		return newY
	}

	b.VY *= r.params.RotatedDamping
	return newY - depth*cos
}

// Grounded reports whether the body stands on something: an unrotated top
// edge within GroundEpsilon of its bottom, or a rotated surface under one of
// its bottom points.
func (r *Resolver) Grounded(b Body) bool {
	eps := r.params.GroundEpsilon
	for _, i := range r.nearby(b.X, b.Y, b.W, b.H+eps) {
		rect := r.rects[i]
		if !rect.Rotated() {
			if b.Right() > rect.X && b.X < rect.X+rect.W && math.Abs(b.Bottom()-rect.Y) < eps {
				return true
			}
			continue
		}
		for _, px := range [3]float64{b.X, b.X + b.W/2, b.Right()} {
			lx, ly := rect.ToLocal(px, b.Bottom())
			if lx >= 0 && lx <= rect.W && ly > -eps && ly <= rect.H {
				return true
			}
		}
	}
	return false
}
