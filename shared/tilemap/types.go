// Package tilemap provides tile map parsing shared between the client and tests.
// It has no dependencies on ebitengine, donburi, or resolv, pure data only.
package tilemap

// Reserved object layer names.
const (
	LayerCollision = "coll"
	LayerGems      = "gems"
	LayerWater     = "water"
	LayerFire      = "fire"
	LayerWaterExit = "waterexit"
	LayerFireExit  = "fireexit"
)

// Defaults applied when a map document omits its dimensions.
const (
	DefaultTileSize = 32
	DefaultWidth    = 25
	DefaultHeight   = 16
)

type LayerKind int

const (
	TileLayer LayerKind = iota
	ObjectLayer
)

func (k LayerKind) String() string {
	switch k {
	case TileLayer:
		return "tilelayer"
	case ObjectLayer:
		return "objectgroup"
	}
	return "unknown"
}

// Map is a parsed tile map. It is not modified after loading.
type Map struct {
	Width      int // in tiles
	Height     int // in tiles
	TileWidth  int
	TileHeight int
	Layers     []Layer
}

// Layer is either a grid of tile indices or a named set of objects.
type Layer struct {
	Kind    LayerKind
	Name    string
	Width   int
	Height  int
	Data    []int // tile indices, 0 = empty
	Objects []Object
}

// Object is a rectangle placed on an object layer. Rotation is in degrees
// around the top-left corner.
type Object struct {
	ID       int
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
}

// Objects returns the objects of the named object layer. A missing layer
// yields an empty slice.
func (m *Map) Objects(name string) []Object {
	if m == nil {
		return nil
	}
	var out []Object
	for _, l := range m.Layers {
		if l.Kind == ObjectLayer && l.Name == name {
			out = append(out, l.Objects...)
		}
	}
	return out
}

func (m *Map) Collision() []Object  { return m.Objects(LayerCollision) }
func (m *Map) Gems() []Object       { return m.Objects(LayerGems) }
func (m *Map) Water() []Object      { return m.Objects(LayerWater) }
func (m *Map) Fire() []Object       { return m.Objects(LayerFire) }
func (m *Map) WaterExits() []Object { return m.Objects(LayerWaterExit) }
func (m *Map) FireExits() []Object  { return m.Objects(LayerFireExit) }

// TileLayers returns the tile layers in draw order.
func (m *Map) TileLayers() []Layer {
	var out []Layer
	for _, l := range m.Layers {
		if l.Kind == TileLayer {
			out = append(out, l)
		}
	}
	return out
}

// PixelSize returns the map size in pixels.
func (m *Map) PixelSize() (float64, float64) {
	return float64(m.Width * m.TileWidth), float64(m.Height * m.TileHeight)
}

// TileSource returns the top-left pixel of a tile index inside a spritesheet
// with the given number of columns. Index 0 is the empty tile.
func TileSource(index, columns, tileSize int) (sx, sy int, ok bool) {
	if index <= 0 || columns <= 0 {
		return 0, 0, false
	}
	i := index - 1
	return (i % columns) * tileSize, (i / columns) * tileSize, true
}
