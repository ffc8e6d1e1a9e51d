package sim

import (
	"time"

	"github.com/automoto/twinflame/shared/tilemap"
)

// Config holds the tunables of a session. Differences between levels are
// expressed here rather than in code.
type Config struct {
	MoveSpeed      float64 // px/s
	Gravity        float64 // px/s^2
	JumpVelocity   float64 // px/s, negative is up
	MaxFallSpeed   float64 // px/s
	PhaseThreshold float64 // px/s dead zone for phase changes
	GroundEpsilon  float64 // px
	RotatedDamping float64

	PlayerW, PlayerH float64

	AnimInterval time.Duration
	AnimFrames   int

	DefaultGemSize float64

	Spawns       map[Character]Point
	HazardLayers map[Character]string
	ExitLayers   map[Character]string
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:      350,
		Gravity:        1500,
		JumpVelocity:   -650,
		MaxFallSpeed:   1000,
		PhaseThreshold: 0.5,
		GroundEpsilon:  3,
		RotatedDamping: 0.3,

		PlayerW: 35,
		PlayerH: 64,

		AnimInterval: 150 * time.Millisecond,
		AnimFrames:   5,

		DefaultGemSize: 32,

		Spawns: map[Character]Point{
			CharacterOrange: {X: 81, Y: 830},
			CharacterCyan:   {X: 81, Y: 703.1875},
		},
		HazardLayers: map[Character]string{
			CharacterOrange: tilemap.LayerFire,
			CharacterCyan:   tilemap.LayerWater,
		},
		ExitLayers: map[Character]string{
			CharacterOrange: tilemap.LayerFireExit,
			CharacterCyan:   tilemap.LayerWaterExit,
		},
	}
}

// Spawn returns the spawn point of c, or the origin if none is configured.
func (c Config) Spawn(ch Character) Point {
	return c.Spawns[ch]
}
