package components

import (
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/yohamta/donburi"
)

// InputData stores the movement snapshot for the simulator and the
// current and previous frame's pressed state for the other actions.
type InputData struct {
	Move     sim.Input
	Current  [cfg.ActionCount]bool
	Previous [cfg.ActionCount]bool
}

// JustPressed reports a press that started this frame.
func (d *InputData) JustPressed(a cfg.ActionID) bool {
	return d.Current[a] && !d.Previous[a]
}

var Input = donburi.NewComponentType[InputData]()
