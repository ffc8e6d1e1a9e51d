package components

import (
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// OverlayData is the win banner. Tween drives Alpha from 0 to 1 once the
// win condition holds.
type OverlayData struct {
	Active bool
	Tween  *gween.Tween
	Alpha  float32
}

var Overlay = donburi.NewComponentType[OverlayData]()
