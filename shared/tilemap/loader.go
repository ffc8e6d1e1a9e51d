package tilemap

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"
)

type jsonMap struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	TileWidth  int         `json:"tilewidth"`
	TileHeight int         `json:"tileheight"`
	Layers     []jsonLayer `json:"layers"`
}

type jsonLayer struct {
	Type    string       `json:"type"`
	Name    string       `json:"name"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Data    []int        `json:"data"`
	Objects []jsonObject `json:"objects"`
}

type jsonObject struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Parse reads a Tiled JSON map document. Layers of unknown type are skipped.
func Parse(r io.Reader) (*Map, error) {
	var doc jsonMap
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}

	m := &Map{
		Width:      doc.Width,
		Height:     doc.Height,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
	}
	applyDefaults(m)

	for _, l := range doc.Layers {
		switch l.Type {
		case "tilelayer":
			if l.Width > 0 && l.Height > 0 && len(l.Data) != l.Width*l.Height {
				return nil, fmt.Errorf("tile layer %q: %d tiles for %dx%d grid", l.Name, len(l.Data), l.Width, l.Height)
			}
			m.Layers = append(m.Layers, Layer{
				Kind:   TileLayer,
				Name:   l.Name,
				Width:  l.Width,
				Height: l.Height,
				Data:   l.Data,
			})
		case "objectgroup":
			layer := Layer{Kind: ObjectLayer, Name: l.Name}
			for _, o := range l.Objects {
				layer.Objects = append(layer.Objects, Object{
					ID:       o.ID,
					X:        o.X,
					Y:        o.Y,
					Width:    o.Width,
					Height:   o.Height,
					Rotation: o.Rotation,
				})
			}
			m.Layers = append(m.Layers, layer)
		}
	}

	return m, nil
}

// LoadFile loads a map from fsys. JSON maps go through Parse, TMX maps
// through go-tiled. It takes an fs.FS so callers can pass embed.FS or os.DirFS.
func LoadFile(fsys fs.FS, p string) (*Map, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		f, err := fsys.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open map %s: %w", p, err)
		}
		defer f.Close()
		m, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("load map %s: %w", p, err)
		}
		return m, nil
	case ".tmx":
		return loadTMX(fsys, p)
	}
	return nil, fmt.Errorf("load map %s: unsupported format", p)
}

func loadTMX(fsys fs.FS, p string) (*Map, error) {
	levelMap, err := tiled.LoadFile(p, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", p, err)
	}

	m := &Map{
		Width:      levelMap.Width,
		Height:     levelMap.Height,
		TileWidth:  levelMap.TileWidth,
		TileHeight: levelMap.TileHeight,
	}
	applyDefaults(m)

	for _, layer := range levelMap.Layers {
		data := make([]int, len(layer.Tiles))
		for i, tile := range layer.Tiles {
			if tile == nil || tile.IsNil() {
				continue
			}
			data[i] = int(tile.Tileset.FirstGID + tile.ID)
		}
		m.Layers = append(m.Layers, Layer{
			Kind:   TileLayer,
			Name:   layer.Name,
			Width:  levelMap.Width,
			Height: levelMap.Height,
			Data:   data,
		})
	}

	for _, og := range levelMap.ObjectGroups {
		layer := Layer{Kind: ObjectLayer, Name: og.Name}
		for _, o := range og.Objects {
			layer.Objects = append(layer.Objects, Object{
				ID:       int(o.ID),
				X:        o.X,
				Y:        o.Y,
				Width:    o.Width,
				Height:   o.Height,
				Rotation: o.Rotation,
			})
		}
		m.Layers = append(m.Layers, layer)
	}

	return m, nil
}

// LoadAll discovers every .json and .tmx map in dir, and returns them keyed by
// stem name plus a sorted list of names.
func LoadAll(fsys fs.FS, dir string) (map[string]*Map, []string, error) {
	var matches []string
	for _, ext := range []string{"json", "tmx"} {
		found, err := fs.Glob(fsys, dir+"/*."+ext)
		if err != nil {
			return nil, nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		matches = append(matches, found...)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no maps found in %s", dir)
	}

	maps := make(map[string]*Map, len(matches))
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		m, err := LoadFile(fsys, p)
		if err != nil {
			return nil, nil, err
		}
		stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if _, dup := maps[stem]; dup {
			continue
		}
		maps[stem] = m
		names = append(names, stem)
	}

	sort.Strings(names)
	return maps, names, nil
}

func applyDefaults(m *Map) {
	if m.TileWidth <= 0 {
		m.TileWidth = DefaultTileSize
	}
	if m.TileHeight <= 0 {
		m.TileHeight = m.TileWidth
	}
	if m.Width <= 0 {
		m.Width = DefaultWidth
	}
	if m.Height <= 0 {
		m.Height = DefaultHeight
	}
}
