package sim

import (
	"github.com/automoto/twinflame/shared/collision"
	"github.com/automoto/twinflame/shared/tilemap"
)

// Zones are the hazard and exit rectangles per character.
type Zones struct {
	Hazards map[Character][]collision.Rect
	Exits   map[Character][]collision.Rect
}

// ZonesFromMap resolves the configured layer names against m.
func ZonesFromMap(m *tilemap.Map, cfg Config) Zones {
	z := Zones{
		Hazards: make(map[Character][]collision.Rect),
		Exits:   make(map[Character][]collision.Rect),
	}
	for ch, layer := range cfg.HazardLayers {
		z.Hazards[ch] = collision.FromObjects(m.Objects(layer))
	}
	for ch, layer := range cfg.ExitLayers {
		z.Exits[ch] = collision.FromObjects(m.Objects(layer))
	}
	return z
}

// InHazard reports whether a player of role ch stands in one of its hazards.
func (z Zones) InHazard(ch Character, k Kinematics) bool {
	return collision.OverlapsAny(bodyOf(k), z.Hazards[ch])
}

// AtExit reports whether a player of role ch stands in one of its exits.
func (z Zones) AtExit(ch Character, k Kinematics) bool {
	return collision.OverlapsAny(bodyOf(k), z.Exits[ch])
}

// WinCondition reports whether every role is at its own exit. players holds
// the latest known state per role; a missing role means no win.
func (z Zones) WinCondition(players map[Character]Kinematics) bool {
	for _, ch := range []Character{CharacterOrange, CharacterCyan} {
		k, ok := players[ch]
		if !ok || !z.AtExit(ch, k) {
			return false
		}
	}
	return true
}

// WinCondition is the map-level shorthand used by tools and tests.
func WinCondition(m *tilemap.Map, cfg Config, orange, cyan Kinematics) bool {
	return ZonesFromMap(m, cfg).WinCondition(map[Character]Kinematics{
		CharacterOrange: orange,
		CharacterCyan:   cyan,
	})
}

func bodyOf(k Kinematics) collision.Body {
	return collision.Body{X: k.X, Y: k.Y, W: k.W, H: k.H, VY: k.VY}
}
