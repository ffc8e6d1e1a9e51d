package systems

import (
	"log"

	"github.com/automoto/twinflame/archetypes"
	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi/ecs"
)

// keyHeld reports whether the physical key behind a layout character is
// down. Ebiten keys are positional, so every layout maps to the same keys.
func keyHeld(r rune) bool {
	k, ok := cfg.Input.RuneKeys[r]
	return ok && ebiten.IsKeyPressed(k)
}

// UpdateInput polls the keyboard into the InputComponent.
// Must run BEFORE UpdateControls and the simulation in the system order.
func UpdateInput(ecs *ecs.ECS) {
	input := getOrCreateInput(ecs)
	pollInput(input, keyHeld, ebiten.IsKeyPressed)
}

func pollInput(input *components.InputData, held func(rune) bool, pressed func(ebiten.Key) bool) {
	input.Previous = input.Current
	input.Current = [cfg.ActionCount]bool{}
	for action, keys := range cfg.Input.Bindings {
		for _, k := range keys {
			if pressed(k) {
				input.Current[action] = true
			}
		}
	}
	input.Move = sim.SampleInput(held, sim.DefaultLayouts...)
}

func getOrCreateInput(ecs *ecs.ECS) *components.InputData {
	if entry, ok := components.Input.First(ecs.World); ok {
		return components.Input.Get(entry)
	}
	entry := archetypes.Input.Spawn(ecs)
	return components.Input.Get(entry)
}

// UpdateControls handles the non-movement actions of the game scene.
func UpdateControls(ecs *ecs.ECS) {
	sessEntry, ok := components.Session.First(ecs.World)
	if !ok {
		return
	}
	sess := components.Session.Get(sessEntry)
	input := getOrCreateInput(ecs)

	if input.JustPressed(cfg.ActionToggleHitboxes) {
		sess.ShowHitboxes = !sess.ShowHitboxes
		if err := SaveShowHitboxes(sess.ShowHitboxes); err != nil {
			log.Printf("Warning: Could not save hitbox setting: %v", err)
		}
	}
	if input.JustPressed(cfg.ActionEndGame) {
		sess.Exit = components.ExitEndGame
	}
}
