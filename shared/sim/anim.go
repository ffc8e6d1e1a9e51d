package sim

import "time"

// Animation names, matching the sprite sheet rows.
const (
	AnimIdle     = "idle"
	AnimRun      = "run"
	AnimJumpUp   = "jump_up"
	AnimJumpDown = "jump_down"
)

// Animation picks the sprite set for a player state.
func Animation(k Kinematics) string {
	switch k.Phase {
	case PhaseJump:
		return AnimJumpUp
	case PhaseFall:
		return AnimJumpDown
	case PhaseIdleAir:
		return AnimIdle
	}
	if k.Moving {
		return AnimRun
	}
	return AnimIdle
}

// animClock advances a frame index on a wall-clock cadence, independent of
// the simulation delta.
type animClock struct {
	interval time.Duration
	frames   int
	frame    int
	last     time.Time
}

func (a *animClock) tick(now time.Time) {
	if a.frames <= 0 {
		return
	}
	if a.last.IsZero() {
		a.last = now
		return
	}
	if now.Sub(a.last) > a.interval {
		a.last = now
		a.frame = (a.frame + 1) % a.frames
	}
}
