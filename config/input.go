package config

import "github.com/hajimehoshi/ebiten/v2"

// ActionID represents a logical game action outside of movement
type ActionID int

const (
	ActionNone ActionID = iota
	ActionToggleHitboxes
	ActionEndGame
	ActionCount // Must be last - used for array sizing
)

// InputConfig holds key mappings. Movement is bound by character so every
// keyboard layout resolves to the same physical keys.
type InputConfig struct {
	Bindings map[ActionID][]ebiten.Key
	RuneKeys map[rune]ebiten.Key
}

// Input is the global input configuration
var Input InputConfig

func init() {
	Input = InputConfig{
		Bindings: map[ActionID][]ebiten.Key{
			ActionToggleHitboxes: {ebiten.KeyH},
			ActionEndGame:        {ebiten.KeyEscape},
		},
		RuneKeys: map[rune]ebiten.Key{
			'a': ebiten.KeyA,
			'd': ebiten.KeyD,
			'w': ebiten.KeyW,
			' ': ebiten.KeySpace,
			'ф': ebiten.KeyA,
			'в': ebiten.KeyD,
			'ц': ebiten.KeyW,
		},
	}
}
