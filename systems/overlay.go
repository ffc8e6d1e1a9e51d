package systems

import (
	"image/color"

	"github.com/automoto/twinflame/archetypes"
	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi/ecs"
)

const overlayFadeSeconds = 0.6

func getOrCreateOverlay(ecs *ecs.ECS) *components.OverlayData {
	if entry, ok := components.Overlay.First(ecs.World); ok {
		return components.Overlay.Get(entry)
	}
	entry := archetypes.Overlay.Spawn(ecs)
	return components.Overlay.Get(entry)
}

// startOverlay begins the win fade. Later calls are ignored.
func startOverlay(ecs *ecs.ECS) {
	o := getOrCreateOverlay(ecs)
	if o.Active {
		return
	}
	o.Active = true
	o.Tween = gween.New(0, 1, overlayFadeSeconds, ease.OutQuad)
}

// UpdateOverlay advances the fade by one 60 Hz tick.
func UpdateOverlay(ecs *ecs.ECS) {
	o := getOrCreateOverlay(ecs)
	if !o.Active || o.Tween == nil {
		return
	}
	alpha, done := o.Tween.Update(1.0 / float32(ebiten.TPS()))
	o.Alpha = alpha
	if done {
		o.Alpha = 1
	}
}

func DrawOverlay(ecs *ecs.ECS, screen *ebiten.Image) {
	entry, ok := components.Overlay.First(ecs.World)
	if !ok {
		return
	}
	o := components.Overlay.Get(entry)
	if !o.Active {
		return
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	bg := cfg.BlackOverlay
	bg.A = uint8(float32(bg.A) * o.Alpha)
	vector.FillRect(screen, 0, 0, float32(w), float32(h), bg, false)

	drawCentered(screen, "YOU WIN!", fonts.Title.Get(), float64(w)/2, float64(h)/2-20, cfg.Yellow, o.Alpha)
	drawCentered(screen, "Press Esc to leave", fonts.Regular.Get(), float64(w)/2, float64(h)/2+24, cfg.White, o.Alpha)
}

func drawCentered(screen *ebiten.Image, msg string, face text.Face, x, y float64, c color.Color, alpha float32) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	op.ColorScale.ScaleAlpha(alpha)
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	text.Draw(screen, msg, face, op)
}
