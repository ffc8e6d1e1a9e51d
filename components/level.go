package components

import (
	"github.com/automoto/twinflame/shared/tilemap"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi"
)

type LevelData struct {
	Name    string
	Map     *tilemap.Map
	Tileset *ebiten.Image
	Columns int
	// Background is the tile layers pre-rendered once.
	Background *ebiten.Image
}

var Level = donburi.NewComponentType[LevelData]()
