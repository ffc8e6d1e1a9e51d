// Package sim runs one player's platformer simulation against a tile map.
// It owns no goroutines and touches no network state: the caller feeds it an
// input snapshot and a frame delta, and acts on the returned Events.
package sim

import "fmt"

// JumpPhase is the coarse vertical state used for animation.
type JumpPhase int

const (
	PhaseIdle JumpPhase = iota
	PhaseJump
	PhaseFall
	PhaseIdleAir
)

var phaseNames = [...]string{
	PhaseIdle:    "idle",
	PhaseJump:    "jump",
	PhaseFall:    "fall",
	PhaseIdleAir: "idle_air",
}

func (p JumpPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return phaseNames[PhaseIdle]
	}
	return phaseNames[p]
}

// ParseJumpPhase maps a wire name back to a phase. Unknown names are idle.
func ParseJumpPhase(s string) JumpPhase {
	for p, name := range phaseNames {
		if name == s {
			return JumpPhase(p)
		}
	}
	return PhaseIdle
}

// DerivePhase classifies a vertical velocity. threshold is the dead zone
// around zero; resting bodies inside it are idle, airborne ones idle_air.
func DerivePhase(vy float64, resting bool, threshold float64) JumpPhase {
	switch {
	case vy < -threshold:
		return PhaseJump
	case vy > threshold:
		return PhaseFall
	case resting:
		return PhaseIdle
	default:
		return PhaseIdleAir
	}
}

// Character is one of the two fixed roles in a session.
type Character int

const (
	CharacterNone   Character = -1
	CharacterOrange Character = 1
	CharacterCyan   Character = 2
)

// Valid reports whether c is one of the two playable roles.
func (c Character) Valid() bool {
	return c == CharacterOrange || c == CharacterCyan
}

// Other returns the partner's role.
func (c Character) Other() Character {
	switch c {
	case CharacterOrange:
		return CharacterCyan
	case CharacterCyan:
		return CharacterOrange
	}
	return CharacterNone
}

// Color is the sprite tint published with the player's position.
func (c Character) Color() string {
	switch c {
	case CharacterOrange:
		return "orange"
	case CharacterCyan:
		return "cyan"
	}
	return ""
}

// CharacterFromColor maps a published color back to a role.
func CharacterFromColor(color string) Character {
	switch color {
	case "orange":
		return CharacterOrange
	case "cyan":
		return CharacterCyan
	}
	return CharacterNone
}

func (c Character) String() string {
	if !c.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d(%s)", int(c), c.Color())
}

// Direction is the horizontal facing of a sprite.
type Direction int

const (
	DirRight Direction = iota
	DirLeft
)

func (d Direction) String() string {
	if d == DirLeft {
		return "left"
	}
	return "right"
}

// Point is a world position in pixels.
type Point struct {
	X, Y float64
}

// Kinematics is a player's replicated state.
type Kinematics struct {
	X, Y   float64
	W, H   float64
	VY     float64
	Color  string
	Phase  JumpPhase
	Moving bool
	Facing Direction
}
