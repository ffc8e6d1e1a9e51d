package scenes

import (
	"github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// BlockedScene is shown while the game is open in another window.
type BlockedScene struct {
	sceneChanger SceneChanger
	env          *Env
}

func NewBlockedScene(sc SceneChanger, env *Env) *BlockedScene {
	return &BlockedScene{sceneChanger: sc, env: env}
}

func (bs *BlockedScene) Update() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		bs.sceneChanger.ChangeScene(NewGameScene(bs.sceneChanger, bs.env))
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		bs.sceneChanger.ChangeScene(NewLobbyScene(bs.sceneChanger, bs.env))
	}
}

func (bs *BlockedScene) Draw(screen *ebiten.Image) {
	screen.Fill(config.Background)
	cx, cy := float64(config.C.Width)/2, float64(config.C.Height)/2
	lines := []struct {
		msg  string
		face fonts.FontName
		dy   float64
	}{
		{"The game is already open in another window.", fonts.Bold, -20},
		{"Close it, then press Enter to retry. Esc returns to the lobby.", fonts.Regular, 16},
	}
	for _, l := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(cx, cy+l.dy)
		op.PrimaryAlign = text.AlignCenter
		op.ColorScale.ScaleWithColor(config.White)
		text.Draw(screen, l.msg, l.face.Get(), op)
	}
}
