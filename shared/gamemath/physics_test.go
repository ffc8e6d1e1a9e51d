package gamemath

import (
	"math"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestClampFloat(t *testing.T) {
	tests := map[string]struct {
		v, exp float64
	}{
		"below":  {v: -5, exp: 0},
		"inside": {v: 3, exp: 3},
		"above":  {v: 12, exp: 10},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "clamped", ClampFloat(tt.v, 0, 10), tt.exp)
		})
	}
}

func TestIntegrateCapsFallOnly(t *testing.T) {
	testutil.AssertEqual(t, "falling", Integrate(0, 1500, 0.5, 1000), 750.0)
	testutil.AssertEqual(t, "capped", Integrate(900, 1500, 0.5, 1000), 1000.0)
	testutil.AssertEqual(t, "rising", Integrate(-650, 0, 1, 1000), -650.0)
}

func TestRotationRoundTrip(t *testing.T) {
	lx, ly := ToLocal(100, 50, 30, 140, 90)
	px, py := ToWorld(100, 50, 30, lx, ly)
	if math.Abs(px-140) > 1e-9 || math.Abs(py-90) > 1e-9 {
		t.Fatalf("round trip = (%v, %v), want (140, 90)", px, py)
	}
	testutil.AssertEqual(t, "wrap", NormalizeDegrees(270), -90.0)
	testutil.AssertEqual(t, "half turn", NormalizeDegrees(-180), 180.0)
}
