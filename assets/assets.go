package assets

import (
	"embed"
	"fmt"
	"image/color"
	"path"
	"sort"
	"strings"

	"github.com/automoto/twinflame/shared/tilemap"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	//go:embed all:levels
	assetFS embed.FS
)

const levelDir = "levels"

// TilesetColumns is the width, in tiles, of the generated tileset.
const TilesetColumns = 8

// Level is a loaded map plus the name it was loaded under.
type Level struct {
	Name string
	Map  *tilemap.Map
}

type LevelLoader struct {
	cache map[string]*tilemap.Map
}

func NewLevelLoader() *LevelLoader {
	return &LevelLoader{cache: make(map[string]*tilemap.Map)}
}

// ListLevelNames returns the embedded level stems in sorted order.
func (l *LevelLoader) ListLevelNames() []string {
	entries, err := assetFS.ReadDir(levelDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".json" && ext != ".tmx") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names
}

// LoadLevel loads a level by stem, trying JSON first and then TMX.
func (l *LevelLoader) LoadLevel(name string) (Level, error) {
	if m, ok := l.cache[name]; ok {
		return Level{Name: name, Map: m}, nil
	}
	var lastErr error
	for _, ext := range []string{".json", ".tmx"} {
		m, err := tilemap.LoadFile(assetFS, path.Join(levelDir, name+ext))
		if err == nil {
			l.cache[name] = m
			return Level{Name: name, Map: m}, nil
		}
		lastErr = err
	}
	return Level{}, fmt.Errorf("level %q: %w", name, lastErr)
}

func (l *LevelLoader) MustLoadLevel(name string) Level {
	level, err := l.LoadLevel(name)
	if err != nil {
		panic(err)
	}
	return level
}

var tilePalette = []color.RGBA{
	{R: 90, G: 80, B: 70, A: 255},    // 1 stone
	{R: 60, G: 60, B: 75, A: 255},    // 2 wall
	{R: 140, G: 90, B: 50, A: 255},   // 3 brick
	{R: 70, G: 120, B: 60, A: 255},   // 4 moss
	{R: 180, G: 160, B: 110, A: 255}, // 5 sand
}

// NewTileset draws a flat-colored tileset so maps render without image
// assets. Tile index i sits at column (i-1)%TilesetColumns.
func NewTileset(tileSize int) *ebiten.Image {
	rows := (len(tilePalette) + TilesetColumns - 1) / TilesetColumns
	img := ebiten.NewImage(TilesetColumns*tileSize, rows*tileSize)
	for i, c := range tilePalette {
		sx, sy, _ := tilemap.TileSource(i+1, TilesetColumns, tileSize)
		tile := ebiten.NewImage(tileSize, tileSize)
		tile.Fill(c)
		edge := color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255}
		for p := 0; p < tileSize; p++ {
			tile.Set(p, 0, edge)
			tile.Set(0, p, edge)
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(sx), float64(sy))
		img.DrawImage(tile, op)
	}
	return img
}
