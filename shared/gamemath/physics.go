package gamemath

// ClampFloat clamps v to [min, max].
func ClampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Integrate applies acceleration over dt seconds and caps the result at
// maxFall in the positive (downward) direction.
func Integrate(velocity, accel, dt, maxFall float64) float64 {
	velocity += accel * dt
	if velocity > maxFall {
		velocity = maxFall
	}
	return velocity
}
