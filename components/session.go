package components

import (
	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/network"
	"github.com/automoto/twinflame/shared/sim"
	"github.com/yohamta/donburi"
)

// SessionData wires one running game to the shared store.
type SessionData struct {
	ID      string
	PeerUID string

	Game   *sim.GameSession
	Sync   *network.Synchronizer
	Ledger *lobby.Ledger
	Lobby  *lobby.Lobby

	GemCount     int64
	ShowHitboxes bool

	// Exit is set by systems; the scene acts on it after the frame.
	Exit ExitReason
}

type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitEndGame
	ExitPeerLeft
	ExitInvalid
)

var Session = donburi.NewComponentType[SessionData]()
