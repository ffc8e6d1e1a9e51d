package systems

import (
	"fmt"

	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/yohamta/donburi/ecs"
)

// DrawHUD shows the gem count, and sync counters while hitboxes are on.
func DrawHUD(ecs *ecs.ECS, screen *ebiten.Image) {
	sessEntry, ok := components.Session.First(ecs.World)
	if !ok {
		return
	}
	sess := components.Session.Get(sessEntry)

	drawText(screen, fmt.Sprintf("Gems: %d", sess.GemCount), fonts.Bold.Get(), 12, 8)
	if sess.Game != nil {
		drawText(screen, "Playing as "+sess.Game.Character().Color(), fonts.Small.Get(), 12, 32)
	}

	if !sess.ShowHitboxes || sess.Sync == nil {
		return
	}
	st := sess.Sync.Stats()
	line := fmt.Sprintf("sync %s  pub %d  drop %d  fail %d  in %d",
		sess.Sync.State(), st.Published, st.Dropped, st.Failed, st.Ingested)
	drawText(screen, line, fonts.Small.Get(), 12, float64(cfg.C.Height)-24)
}

func drawText(screen *ebiten.Image, msg string, face text.Face, x, y float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(cfg.White)
	text.Draw(screen, msg, face, op)
}
