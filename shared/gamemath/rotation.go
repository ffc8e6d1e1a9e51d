package gamemath

import "math"

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToLocal maps the world point (px, py) into the frame of a rectangle whose
// top-left corner sits at (ox, oy) and which is rotated by deg degrees
// clockwise around that corner.
func ToLocal(ox, oy, deg, px, py float64) (lx, ly float64) {
	rad := -DegToRad(deg)
	relX := px - ox
	relY := py - oy
	sin, cos := math.Sincos(rad)
	return relX*cos - relY*sin, relX*sin + relY*cos
}

// ToWorld is the inverse of ToLocal.
func ToWorld(ox, oy, deg, lx, ly float64) (px, py float64) {
	sin, cos := math.Sincos(DegToRad(deg))
	return ox + lx*cos - ly*sin, oy + lx*sin + ly*cos
}

// NormalizeDegrees maps deg into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
