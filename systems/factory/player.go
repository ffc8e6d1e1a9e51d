package factory

import (
	"github.com/automoto/twinflame/archetypes"
	"github.com/automoto/twinflame/components"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateLocalPlayer spawns the entity mirroring the simulated player.
func CreateLocalPlayer(ecs *ecs.ECS, uid, name string, game *sim.GameSession) *donburi.Entry {
	player := archetypes.LocalPlayer.Spawn(ecs)
	components.Player.SetValue(player, components.PlayerData{
		UID:       uid,
		Name:      name,
		Character: game.Character(),
		Local:     true,
		Visible:   true,
	})
	components.Kinematics.SetValue(player, game.Self())
	return player
}

// CreateRemotePlayer spawns the partner's entity. It stays hidden until the
// session has a remote snapshot.
func CreateRemotePlayer(ecs *ecs.ECS, uid string, game *sim.GameSession) *donburi.Entry {
	player := archetypes.RemotePlayer.Spawn(ecs)
	remote, ok := game.Remote()
	components.Player.SetValue(player, components.PlayerData{
		UID:       uid,
		Character: game.Character().Other(),
		Visible:   ok,
	})
	components.Kinematics.SetValue(player, remote)
	return player
}
