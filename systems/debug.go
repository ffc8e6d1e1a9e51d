package systems

import (
	"image/color"

	"github.com/automoto/twinflame/components"
	"github.com/automoto/twinflame/shared/collision"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	hitboxColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	bodyColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// DrawHitboxes outlines every collision rectangle and player box when the
// H toggle is on.
func DrawHitboxes(ecs *ecs.ECS, screen *ebiten.Image) {
	sessEntry, ok := components.Session.First(ecs.World)
	if !ok || !components.Session.Get(sessEntry).ShowHitboxes {
		return
	}
	if levelEntry, ok := components.Level.First(ecs.World); ok {
		if m := components.Level.Get(levelEntry).Map; m != nil {
			for _, r := range collision.FromObjects(m.Collision()) {
				strokeRect(screen, r, hitboxColor)
			}
		}
	}
	playerQuery.Each(ecs.World, func(e *donburi.Entry) {
		if p := components.Player.Get(e); !p.Local && !p.Visible {
			return
		}
		k := components.Kinematics.Get(e)
		strokeRect(screen, collision.Rect{X: k.X, Y: k.Y, W: k.W, H: k.H}, bodyColor)
	})
}

func strokeRect(screen *ebiten.Image, r collision.Rect, c color.Color) {
	corners := r.Corners()
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		vector.StrokeLine(screen, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]), 1, c, false)
	}
}
