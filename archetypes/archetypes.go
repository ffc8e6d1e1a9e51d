package archetypes

import (
	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	LocalPlayer = newArchetype(
		tags.Player,
		tags.Local,
		components.Player,
		components.Kinematics,
	)
	RemotePlayer = newArchetype(
		tags.Player,
		tags.Remote,
		components.Player,
		components.Kinematics,
	)
	Level = newArchetype(
		components.Level,
	)
	Session = newArchetype(
		components.Session,
	)
	Input = newArchetype(
		components.Input,
	)
	Overlay = newArchetype(
		components.Overlay,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(ecs *ecs.ECS, cs ...donburi.IComponentType) *donburi.Entry {
	e := ecs.World.Entry(ecs.Create(
		cfg.Default,
		append(a.components, cs...)...,
	))
	return e
}
