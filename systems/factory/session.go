package factory

import (
	"github.com/automoto/twinflame/archetypes"
	"github.com/automoto/twinflame/components"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateSession spawns the singleton that ties the running game to the
// store.
func CreateSession(ecs *ecs.ECS, data components.SessionData) *donburi.Entry {
	entry := archetypes.Session.Spawn(ecs)
	components.Session.SetValue(entry, data)
	return entry
}
