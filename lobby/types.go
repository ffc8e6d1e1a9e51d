// Package lobby implements server-less matchmaking over the shared store:
// creating and joining sessions, ready checks, owner hand-off, the start
// handshake, the single-tab guard and the per-user gem ledger.
//
// Every write is a set or a merge of known values. The store offers no
// cross-key atomicity, so concurrent writers converge rather than lock.
package lobby

import (
	"errors"

	"github.com/automoto/twinflame/network"
)

var (
	ErrEmptyName        = errors.New("session name is empty")
	ErrDuplicateName    = errors.New("a session with this name already exists")
	ErrAlreadyInSession = errors.New("already in a session")
	ErrSessionFull      = errors.New("session is full")
	ErrNotOwner         = errors.New("only the owner can start the game")
	ErrNotReady         = errors.New("not every player is ready")
	ErrNoSession        = errors.New("session does not exist")
	ErrTabActive        = errors.New("game is already open in another tab")
	ErrSessionInvalid   = errors.New("no valid game session")
)

// DefaultMaxPlayers applies to records that do not carry maxPlayers.
const DefaultMaxPlayers = 2

// Tab guard values of users/{uid}/isGamePageActive.
const (
	TabActive   = 1
	TabInactive = -1
)

// SessionRecord is servers/{id}.
type SessionRecord struct {
	Name       string                            `json:"name"`
	MaxPlayers int                               `json:"maxPlayers"`
	Players    map[string]string                 `json:"players,omitempty"`
	Owner      string                            `json:"owner,omitempty"`
	Ready      map[string]bool                   `json:"ready,omitempty"`
	Start      bool                              `json:"start"`
	Positions  map[string]network.PositionRecord `json:"positions,omitempty"`
}

// Capacity returns MaxPlayers, defaulting when unset.
func (r SessionRecord) Capacity() int {
	if r.MaxPlayers <= 0 {
		return DefaultMaxPlayers
	}
	return r.MaxPlayers
}

// Has reports whether uid is a player of the session.
func (r SessionRecord) Has(uid string) bool {
	_, ok := r.Players[uid]
	return ok
}

// AllReady reports whether ready holds exactly Capacity entries, all true.
func (r SessionRecord) AllReady() bool {
	if len(r.Ready) != r.Capacity() {
		return false
	}
	for _, ok := range r.Ready {
		if !ok {
			return false
		}
	}
	return true
}

// UserRecord is users/{uid}.
type UserRecord struct {
	Name             string  `json:"name,omitempty"`
	AuthKind         string  `json:"authKind,omitempty"`
	IsPlaying        bool    `json:"isPlaying"`
	PlayingWith      *string `json:"playingWith,omitempty"`
	Character        int     `json:"character"`
	CurrentGame      *string `json:"currentGame,omitempty"`
	IsGamePageActive int     `json:"isGamePageActive"`
	GemCount         int64   `json:"gemCount"`
}

// Auth kinds stored in UserRecord.AuthKind.
const (
	AuthGuest = "guest"
	AuthPhone = "phone"
)

// Event is produced by HandleSnapshot.
type Event interface {
	isEvent()
}

// SessionsChanged is the recomputed lobby view. Mine is the session the
// local user is a player of, or empty.
type SessionsChanged struct {
	Sessions map[string]SessionRecord
	Mine     string
}

// StartSignal tells the local user that their session has started.
type StartSignal struct {
	SessionID string
}

func (SessionsChanged) isEvent() {}
func (StartSignal) isEvent()     {}

// Status is the lobby text for a session.
type Status int

const (
	WaitingForPlayers Status = iota
	WaitingForReady
	AllReady
)

func (s Status) String() string {
	switch s {
	case WaitingForPlayers:
		return "Waiting for more players"
	case WaitingForReady:
		return "Waiting for everyone to be ready"
	case AllReady:
		return "Everyone is ready, waiting for the host"
	}
	return "unknown"
}

// StatusOf derives the lobby status of a session.
func StatusOf(r SessionRecord) Status {
	switch {
	case len(r.Players) < r.Capacity():
		return WaitingForPlayers
	case !r.AllReady():
		return WaitingForReady
	default:
		return AllReady
	}
}

// CanStart reports whether uid may start the session.
func CanStart(r SessionRecord, uid string) error {
	if uid == "" || r.Owner != uid {
		return ErrNotOwner
	}
	if !r.AllReady() {
		return ErrNotReady
	}
	return nil
}
