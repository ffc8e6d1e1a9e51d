package systems

import (
	"image"
	"image/color"

	"github.com/automoto/twinflame/components"
	cfg "github.com/automoto/twinflame/config"
	"github.com/automoto/twinflame/shared/collision"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/tilemap"
	"github.com/automoto/twinflame/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/filter"
)

var (
	fireColor      = color.RGBA{R: 220, G: 70, B: 20, A: 200}
	waterColor     = color.RGBA{R: 30, G: 110, B: 230, A: 200}
	fireExitColor  = color.RGBA{R: 255, G: 140, B: 0, A: 110}
	waterExitColor = color.RGBA{R: 0, G: 200, B: 255, A: 110}
	gemColor       = color.RGBA{R: 120, G: 255, B: 160, A: 255}
)

var playerQuery = donburi.NewQuery(filter.Contains(tags.Player, components.Player, components.Kinematics))

// DrawLevel draws the pre-rendered tile layers.
func DrawLevel(ecs *ecs.ECS, screen *ebiten.Image) {
	levelEntry, ok := components.Level.First(ecs.World)
	if !ok {
		return
	}
	level := components.Level.Get(levelEntry)
	if level.Background == nil {
		level.Background = renderTiles(level)
	}
	if level.Background != nil {
		screen.DrawImage(level.Background, nil)
	}
}

// renderTiles composes every tile layer once. Tiles with no image in the
// tileset are skipped.
func renderTiles(level *components.LevelData) *ebiten.Image {
	if level.Map == nil || level.Tileset == nil {
		return nil
	}
	m := level.Map
	w, h := m.PixelSize()
	img := ebiten.NewImage(int(w), int(h))
	tw := m.TileWidth
	for _, layer := range m.TileLayers() {
		for i, idx := range layer.Data {
			sx, sy, ok := tilemap.TileSource(idx, level.Columns, tw)
			if !ok || sx+tw > level.Tileset.Bounds().Dx() || sy+tw > level.Tileset.Bounds().Dy() {
				continue
			}
			src := level.Tileset.SubImage(rectAt(sx, sy, tw, tw)).(*ebiten.Image)
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(float64((i%layer.Width)*tw), float64((i/layer.Width)*m.TileHeight))
			img.DrawImage(src, op)
		}
	}
	return img
}

// DrawZones draws hazards and exits.
func DrawZones(ecs *ecs.ECS, screen *ebiten.Image) {
	levelEntry, ok := components.Level.First(ecs.World)
	if !ok {
		return
	}
	m := components.Level.Get(levelEntry).Map
	if m == nil {
		return
	}
	for _, z := range []struct {
		objs []tilemap.Object
		c    color.RGBA
	}{
		{m.Fire(), fireColor},
		{m.Water(), waterColor},
		{m.FireExits(), fireExitColor},
		{m.WaterExits(), waterExitColor},
	} {
		for _, r := range collision.FromObjects(z.objs) {
			fillRect(screen, r, z.c)
		}
	}
}

// DrawGems draws the gems still to be collected.
func DrawGems(ecs *ecs.ECS, screen *ebiten.Image) {
	sessEntry, ok := components.Session.First(ecs.World)
	if !ok {
		return
	}
	sess := components.Session.Get(sessEntry)
	if sess.Game == nil {
		return
	}
	for _, g := range sess.Game.Gems() {
		if g.Collected {
			continue
		}
		cx, cy := float32(g.X+g.W/2), float32(g.Y+g.H/2)
		var p vector.Path
		p.MoveTo(cx, float32(g.Y))
		p.LineTo(float32(g.X+g.W), cy)
		p.LineTo(cx, float32(g.Y+g.H))
		p.LineTo(float32(g.X), cy)
		p.Close()
		vector.FillPath(screen, &p, nil, &vector.DrawPathOptions{ColorScale: scaleOf(gemColor)})
	}
}

// DrawPlayers draws both characters as tinted boxes. The frame index pulses
// the box height and a notch shows the facing.
func DrawPlayers(ecs *ecs.ECS, screen *ebiten.Image) {
	var game *sim.GameSession
	if sessEntry, ok := components.Session.First(ecs.World); ok {
		game = components.Session.Get(sessEntry).Game
	}

	playerQuery.Each(ecs.World, func(e *donburi.Entry) {
		player := components.Player.Get(e)
		if !player.Local && !player.Visible {
			return
		}
		k := components.Kinematics.Get(e)
		c := cfg.Player.OrangeColor
		if sim.CharacterFromColor(k.Color) == sim.CharacterCyan {
			c = cfg.Player.CyanColor
		}

		squash := squashOf(playerPose(game, *k, player.Local))
		x, y := float32(k.X), float32(k.Y)
		w, h := float32(k.W), float32(k.H)
		vector.FillRect(screen, x, y+squash, w, h-squash, c, false)

		eyeX := x + w - 10
		if k.Facing == sim.DirLeft {
			eyeX = x + 4
		}
		vector.FillRect(screen, eyeX, y+squash+10, 6, 6, cfg.White, false)
	})
}

// playerPose picks the animation and frame for a player. The local player
// uses the session's own animation state; the remote mirror shares its clock.
func playerPose(game *sim.GameSession, k sim.Kinematics, local bool) (string, int) {
	switch {
	case game == nil:
		return sim.Animation(k), 0
	case local:
		return game.CurrentAnimation()
	}
	return sim.Animation(k), game.Frame()
}

// squashOf shifts the top edge of the box for a pose.
func squashOf(anim string, frame int) float32 {
	switch anim {
	case sim.AnimRun:
		return float32(frame%2) * 2
	case sim.AnimJumpUp:
		return -3
	case sim.AnimJumpDown:
		return 3
	}
	return 0
}

func fillRect(screen *ebiten.Image, r collision.Rect, c color.RGBA) {
	if !r.Rotated() {
		vector.FillRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), c, false)
		return
	}
	p := outline(r)
	vector.FillPath(screen, &p, nil, &vector.DrawPathOptions{ColorScale: scaleOf(c)})
}

func outline(r collision.Rect) vector.Path {
	var p vector.Path
	corners := r.Corners()
	p.MoveTo(float32(corners[0][0]), float32(corners[0][1]))
	for _, c := range corners[1:] {
		p.LineTo(float32(c[0]), float32(c[1]))
	}
	p.Close()
	return p
}

func rectAt(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

func scaleOf(c color.Color) ebiten.ColorScale {
	var cs ebiten.ColorScale
	cs.ScaleWithColor(c)
	return cs
}
