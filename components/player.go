package components

import (
	"github.com/automoto/twinflame/shared/sim"
	"github.com/yohamta/donburi"
)

type PlayerData struct {
	UID       string
	Name      string
	Character sim.Character
	Local     bool
	Visible   bool // remote players stay hidden until their first snapshot
}

var Player = donburi.NewComponentType[PlayerData]()

// Kinematics is the rendered state of a player, copied from the session
// every frame.
var Kinematics = donburi.NewComponentType[sim.Kinematics]()
