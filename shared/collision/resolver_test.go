package collision

import (
	"math"
	"testing"

	"github.com/pixil98/go-testutil"
	"pgregory.net/rapid"
)

const frame = 1.0 / 60

func TestVerticalPassLandsOnFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		floor := Rect{
			X: rapid.Float64Range(0, 400).Draw(t, "rx"),
			Y: rapid.Float64Range(100, 900).Draw(t, "ry"),
			W: rapid.Float64Range(40, 400).Draw(t, "rw"),
			H: rapid.Float64Range(20, 64).Draw(t, "rh"),
		}
		res := NewResolver([]Rect{floor}, DefaultParams(), 1200, 1000)

		gap := rapid.Float64Range(0, 10).Draw(t, "gap")
		b := Body{
			X:  floor.X + rapid.Float64Range(-30, floor.W-5).Draw(t, "offset"),
			W:  35,
			H:  64,
			VY: rapid.Float64Range(700, 1000).Draw(t, "vy"),
		}
		b.Y = floor.Y - b.H - gap

		res.VerticalPass(&b, frame)

		if math.Abs(b.Bottom()-floor.Y) > 1e-9 {
			t.Fatalf("bottom = %v, want %v", b.Bottom(), floor.Y)
		}
		if b.VY != 0 {
			t.Fatalf("vy = %v, want 0", b.VY)
		}
	})
}

func TestVerticalPassCeiling(t *testing.T) {
	ceiling := Rect{X: 0, Y: 100, W: 200, H: 20}
	res := NewResolver([]Rect{ceiling}, DefaultParams(), 400, 400)

	b := Body{X: 50, Y: 125, W: 35, H: 64, VY: -650}
	res.VerticalPass(&b, frame)

	testutil.AssertEqual(t, "y", b.Y, 120.0)
	testutil.AssertEqual(t, "vy", b.VY, 0.0)
}

func TestVerticalPassFallSpeedClamp(t *testing.T) {
	res := NewResolver(nil, DefaultParams(), 400, 400)

	b := Body{X: 0, Y: 0, W: 10, H: 10, VY: 990}
	res.VerticalPass(&b, 0.1)

	testutil.AssertEqual(t, "vy", b.VY, 1000.0)
	testutil.AssertEqual(t, "y", b.Y, 100.0)
}

func TestHorizontalPass(t *testing.T) {
	wall := Rect{X: 100, Y: 0, W: 50, H: 200}

	tests := map[string]struct {
		x    float64
		expX float64
	}{
		"clear":            {x: 20, expX: 20},
		"touching":         {x: 65, expX: 65},
		"enter from left":  {x: 70, expX: 65},
		"enter from right": {x: 140, expX: 150},
		"tie pushes left":  {x: 107.5, expX: 65},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := NewResolver([]Rect{wall}, DefaultParams(), 400, 400)
			b := Body{X: tt.x, Y: 50, W: 35, H: 64}
			res.HorizontalPass(&b)
			testutil.AssertEqual(t, "x", b.X, tt.expX)
		})
	}
}

func TestAlignedHorizontalTie(t *testing.T) {
	wall := Rect{X: 100, Y: 0, W: 50, H: 200}

	tests := map[string]struct {
		x   float64
		exp float64
	}{
		"exact tie":         {x: 107.5, exp: -42.5},
		"just left of tie":  {x: 107.4, exp: -42.4},
		"just right of tie": {x: 107.6, exp: 42.4},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := alignedHorizontal(Body{X: tt.x, Y: 50, W: 35, H: 64}, wall)
			if math.Abs(got-tt.exp) > 1e-9 {
				t.Fatalf("push = %v, want %v", got, tt.exp)
			}
		})
	}
}

func TestHorizontalPassRotated(t *testing.T) {
	const deg = 10.0
	wall := Rect{X: 100, Y: 0, W: 50, H: 200, Rotation: deg}
	sin, cos := math.Sincos(deg * math.Pi / 180)

	// localX is where a world point at mid-body height lands along the
	// wall's own x axis.
	midY := 50.0 + 32
	localX := func(px float64) float64 { return (px-wall.X)*cos + (midY-wall.Y)*sin }

	tests := map[string]struct {
		x    float64
		expX float64
	}{
		"clear":            {x: 0, expX: 0},
		"enter from left":  {x: 70, expX: 70 - localX(105)*cos},
		"enter from right": {x: 120, expX: 120 + (wall.W-localX(120))*cos},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := NewResolver([]Rect{wall}, DefaultParams(), 400, 400)
			b := Body{X: tt.x, Y: 50, W: 35, H: 64}
			res.HorizontalPass(&b)
			if math.Abs(b.X-tt.expX) > 1e-9 {
				t.Fatalf("x = %v, want %v", b.X, tt.expX)
			}
			testutil.AssertEqual(t, "y untouched", b.Y, 50.0)
		})
	}
}

func TestNegativeCoordinates(t *testing.T) {
	wall := Rect{X: -200, Y: -300, W: 100, H: 400}
	res := NewResolver([]Rect{wall}, DefaultParams(), 400, 400)

	b := Body{X: -130, Y: -100, W: 35, H: 64}
	res.HorizontalPass(&b)
	testutil.AssertEqual(t, "x", b.X, -100.0)

	floor := Rect{X: -300, Y: -50, W: 600, H: 20}
	res = NewResolver([]Rect{floor}, DefaultParams(), 400, 400)
	b = Body{X: -80, Y: -50 - 64, W: 35, H: 64}
	testutil.AssertEqual(t, "grounded", res.Grounded(b), true)
}

func TestHorizontalPassIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var rects []Rect
		n := rapid.IntRange(1, 4).Draw(t, "n")
		for i := 0; i < n; i++ {
			rects = append(rects, Rect{
				X: float64(i) * 300,
				Y: rapid.Float64Range(0, 300).Draw(t, "ry"),
				W: rapid.Float64Range(40, 200).Draw(t, "rw"),
				H: rapid.Float64Range(40, 200).Draw(t, "rh"),
			})
		}
		res := NewResolver(rects, DefaultParams(), 1200, 600)

		b := Body{
			X: rapid.Float64Range(0, 1100).Draw(t, "x"),
			Y: rapid.Float64Range(0, 500).Draw(t, "y"),
			W: 35,
			H: 64,
		}
		res.HorizontalPass(&b)
		once := b
		res.HorizontalPass(&b)

		if math.Abs(b.X-once.X) > 1e-9 || b.Y != once.Y {
			t.Fatalf("second pass moved body from %+v to %+v", once, b)
		}
	})
}

func TestRotatedDegeneratesToAligned(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rect := Rect{
			X: rapid.Float64Range(0, 200).Draw(t, "rx"),
			Y: rapid.Float64Range(0, 200).Draw(t, "ry"),
			W: rapid.Float64Range(80, 200).Draw(t, "rw"),
			H: rapid.Float64Range(80, 200).Draw(t, "rh"),
		}
		// Keep mid-height inside the rect's vertical span so both tests see it.
		b := Body{
			X: rect.X + rapid.Float64Range(-30, rect.W-5).Draw(t, "dx"),
			W: 35,
			H: 64,
		}
		b.Y = rect.Y + rapid.Float64Range(1, rect.H-1).Draw(t, "mid") - b.H/2

		aligned := alignedHorizontal(b, rect)
		rotated := rotatedHorizontal(b, rect)
		if math.Abs(aligned-rotated) > 1e-9 {
			t.Fatalf("aligned %v != rotated %v for %+v in %+v", aligned, rotated, b, rect)
		}

		for _, p := range [][2]float64{{b.X, b.Y}, {b.Right(), b.Bottom()}} {
			ax, ay := p[0]-rect.X, p[1]-rect.Y
			rx, ry := rect.ToLocal(p[0], p[1])
			zero := rect
			zero.Rotation = 360
			zx, zy := zero.ToLocal(p[0], p[1])
			if math.Abs(ax-rx) > 1e-9 || math.Abs(ay-ry) > 1e-9 || math.Abs(ax-zx) > 1e-9 || math.Abs(ay-zy) > 1e-9 {
				t.Fatalf("local frame mismatch at %v", p)
			}
		}
	})
}

func TestRotatedLandingDamps(t *testing.T) {
	ramp := Rect{X: 0, Y: 300, W: 400, H: 40, Rotation: -20}
	res := NewResolver([]Rect{ramp}, DefaultParams(), 600, 600)

	b := Body{X: 100, W: 35, H: 64, VY: 600}
	// Put the bottom-center just above the ramp surface.
	var surfaceY float64
	for y := 0.0; y < 400; y++ {
		if ramp.Contains(b.X+b.W/2, y) {
			surfaceY = y
			break
		}
	}
	b.Y = surfaceY - b.H - 1

	res.VerticalPass(&b, frame)

	if b.VY >= 600*DefaultParams().RotatedDamping+DefaultParams().Gravity*frame {
		t.Errorf("vy = %v, expected damping", b.VY)
	}
	if b.Bottom() > surfaceY+10 {
		t.Errorf("bottom = %v sank below surface %v", b.Bottom(), surfaceY)
	}
}

func TestGrounded(t *testing.T) {
	floor := Rect{X: 0, Y: 500, W: 300, H: 32}
	res := NewResolver([]Rect{floor}, DefaultParams(), 600, 600)

	tests := map[string]struct {
		body Body
		exp  bool
	}{
		"resting":          {body: Body{X: 10, Y: 436, W: 35, H: 64}, exp: true},
		"within epsilon":   {body: Body{X: 10, Y: 434, W: 35, H: 64}, exp: true},
		"too high":         {body: Body{X: 10, Y: 430, W: 35, H: 64}, exp: false},
		"beside the floor": {body: Body{X: 320, Y: 436, W: 35, H: 64}, exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "grounded", res.Grounded(tt.body), tt.exp)
		})
	}
}

func TestNormalizedKeepsArea(t *testing.T) {
	r := Rect{X: 100, Y: 100, W: 60, H: 20, Rotation: 150}
	n := r.normalized()

	if math.Abs(n.Rotation-(-30)) > 1e-9 {
		t.Fatalf("rotation = %v, want -30", n.Rotation)
	}
	for _, p := range [][2]float64{{120, 110}, {80, 120}, {60, 140}} {
		testutil.AssertEqual(t, "contains", n.Contains(p[0], p[1]), r.Contains(p[0], p[1]))
	}
}

func TestBodyOverlaps(t *testing.T) {
	zone := Rect{X: 100, Y: 100, W: 50, H: 50}
	testutil.AssertEqual(t, "inside", BodyOverlaps(Body{X: 110, Y: 110, W: 10, H: 10}, zone), true)
	testutil.AssertEqual(t, "touching", BodyOverlaps(Body{X: 150, Y: 110, W: 10, H: 10}, zone), false)

	tilted := Rect{X: 100, Y: 100, W: 50, H: 50, Rotation: 45}
	testutil.AssertEqual(t, "tilted inside", BodyOverlaps(Body{X: 95, Y: 130, W: 10, H: 10}, tilted), true)
	testutil.AssertEqual(t, "tilted outside", BodyOverlaps(Body{X: 140, Y: 100, W: 5, H: 5}, tilted), false)
}

func TestCornersAndBounds(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	c := r.Corners()
	testutil.AssertEqual(t, "origin", c[0], [2]float64{10, 20})
	testutil.AssertEqual(t, "opposite", c[2], [2]float64{40, 60})
	testutil.AssertEqual(t, "aligned bounds", r.Bounds(), r)

	turned := Rect{X: 0, Y: 0, W: 10, H: 10, Rotation: 90}
	b := turned.Bounds()
	if math.Abs(b.X+10) > 1e-9 || math.Abs(b.W-10) > 1e-9 || math.Abs(b.H-10) > 1e-9 {
		t.Errorf("Bounds() of 90 degree square = %+v", b)
	}
}
