package sim

import (
	"github.com/automoto/twinflame/shared/collision"
	"github.com/automoto/twinflame/shared/tilemap"
)

// Gem is a collectible. Collected only ever goes from false to true.
type Gem struct {
	ID         int
	X, Y, W, H float64
	Collected  bool
}

// GemsFromMap builds the gem list from the map's gems layer. Objects without a
// size get defaultSize on each side.
func GemsFromMap(m *tilemap.Map, defaultSize float64) []Gem {
	objs := m.Gems()
	gems := make([]Gem, 0, len(objs))
	for _, o := range objs {
		g := Gem{ID: o.ID, X: o.X, Y: o.Y, W: o.Width, H: o.Height}
		if g.W <= 0 {
			g.W = defaultSize
		}
		if g.H <= 0 {
			g.H = defaultSize
		}
		gems = append(gems, g)
	}
	return gems
}

// CollectGems marks every uncollected gem the body overlaps and returns their
// ids. Gems already collected are never reported again.
func CollectGems(gems []Gem, body collision.Body) []int {
	var ids []int
	for i := range gems {
		g := &gems[i]
		if g.Collected {
			continue
		}
		if collision.Overlaps(body.Rect(), collision.Rect{X: g.X, Y: g.Y, W: g.W, H: g.H}) {
			g.Collected = true
			ids = append(ids, g.ID)
		}
	}
	return ids
}
