package network

import "github.com/automoto/twinflame/shared/sim"

// PositionRecord is the wire form of a player's state under
// servers/{id}/positions/{uid}.
type PositionRecord struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Color     string  `json:"color,omitempty"`
	IsMoving  bool    `json:"isMoving"`
	JumpPhase string  `json:"jumpPhase,omitempty"`
}

// PositionsChanged carries every published position of a session.
type PositionsChanged struct {
	Positions map[string]PositionRecord
}

// RecordOf converts local state for publishing.
func RecordOf(k sim.Kinematics) PositionRecord {
	return PositionRecord{
		X:         k.X,
		Y:         k.Y,
		Width:     k.W,
		Height:    k.H,
		Color:     k.Color,
		IsMoving:  k.Moving,
		JumpPhase: k.Phase.String(),
	}
}

// Kinematics converts a record to a mirror state facing right.
func (r PositionRecord) Kinematics() sim.Kinematics {
	return sim.Kinematics{
		X:      r.X,
		Y:      r.Y,
		W:      r.Width,
		H:      r.Height,
		Color:  r.Color,
		Phase:  sim.ParseJumpPhase(r.JumpPhase),
		Moving: r.IsMoving,
		Facing: sim.DirRight,
	}
}
