package factory

import (
	"github.com/automoto/twinflame/archetypes"
	"github.com/automoto/twinflame/assets"
	"github.com/automoto/twinflame/components"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateLevel spawns the level entity. The background is rendered lazily on
// the first draw.
func CreateLevel(ecs *ecs.ECS, level assets.Level) *donburi.Entry {
	entry := archetypes.Level.Spawn(ecs)
	components.Level.SetValue(entry, components.LevelData{
		Name:    level.Name,
		Map:     level.Map,
		Tileset: assets.NewTileset(level.Map.TileWidth),
		Columns: assets.TilesetColumns,
	})
	return entry
}
