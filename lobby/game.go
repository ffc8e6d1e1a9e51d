package lobby

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/store"
)

func (l *Lobby) tabPath() string {
	return store.Join(store.UserPath(l.uid), "isGamePageActive")
}

// ClaimTab marks the game page active for the caller. It fails with
// ErrTabActive if another page already holds it. The guard is advisory: a
// crashed page never releases it.
func (l *Lobby) ClaimTab(ctx context.Context) error {
	snap, err := l.store.Get(ctx, l.tabPath())
	if err != nil {
		return fmt.Errorf("read tab guard: %w", err)
	}
	if store.AsInt64(snap.Value) == TabActive {
		return ErrTabActive
	}
	if err := l.store.Set(ctx, l.tabPath(), TabActive); err != nil {
		return fmt.Errorf("claim tab guard: %w", err)
	}
	return nil
}

// ReleaseTab clears the guard set by ClaimTab.
func (l *Lobby) ReleaseTab(ctx context.Context) error {
	if err := l.store.Set(ctx, l.tabPath(), TabInactive); err != nil {
		return fmt.Errorf("release tab guard: %w", err)
	}
	return nil
}

// User reads the caller's record. A missing record is the zero value.
func (l *Lobby) User(ctx context.Context) (UserRecord, error) {
	return readUser(ctx, l.store, l.uid)
}

func readUser(ctx context.Context, s store.Store, uid string) (UserRecord, error) {
	rec := UserRecord{Character: int(sim.CharacterNone), IsGamePageActive: TabInactive}
	snap, err := s.Get(ctx, store.UserPath(uid))
	if err != nil {
		return rec, fmt.Errorf("read user %s: %w", uid, err)
	}
	if err := snap.Decode(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// ValidateGame checks that the caller has a game to enter. sessionID is the
// locally remembered session and may be empty; when set it must match.
func (l *Lobby) ValidateGame(ctx context.Context, sessionID string) (UserRecord, error) {
	u, err := l.User(ctx)
	if err != nil {
		return u, err
	}
	switch {
	case !u.IsPlaying:
		return u, fmt.Errorf("%w: not playing", ErrSessionInvalid)
	case u.CurrentGame == nil || *u.CurrentGame == "":
		return u, fmt.Errorf("%w: no current game", ErrSessionInvalid)
	case !sim.Character(u.Character).Valid():
		return u, fmt.Errorf("%w: no character", ErrSessionInvalid)
	case sessionID != "" && sessionID != *u.CurrentGame:
		return u, fmt.Errorf("%w: session %s is not %s", ErrSessionInvalid, sessionID, *u.CurrentGame)
	}
	return u, nil
}

// WatchPlaying emits the isPlaying flag of uid on every change. A missing
// flag is false.
func (l *Lobby) WatchPlaying(ctx context.Context, uid string) (<-chan bool, error) {
	ch, cancel, err := l.store.Subscribe(ctx, store.Join(store.UserPath(uid), "isPlaying"))
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", uid, err)
	}
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		defer cancel()
		for snap := range ch {
			playing, _ := snap.Value.(bool)
			select {
			case out <- playing:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// WatchPeer reports the partner's isPlaying flag. A false value is the only
// signal that the partner has gone.
func (l *Lobby) WatchPeer(ctx context.Context, peerUID string) (<-chan bool, error) {
	return l.WatchPlaying(ctx, peerUID)
}

// EndGame tears down a running game for both players. The gem count is
// kept.
func (l *Lobby) EndGame(ctx context.Context, sessionID, peerUID string) error {
	path := store.ServerPath(sessionID)
	if err := l.store.Set(ctx, store.Join(path, "start"), false); err != nil {
		return fmt.Errorf("stop session %s: %w", sessionID, err)
	}

	fields := map[string]any{}
	for _, uid := range []string{l.uid, peerUID} {
		if uid == "" {
			continue
		}
		fields[store.Join("players", uid)] = nil
		fields[store.Join("ready", uid)] = nil
		fields[store.Join("positions", uid)] = nil
	}
	if err := l.store.Update(ctx, path, fields); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}

	reset := func(uid string, extra map[string]any) error {
		f := map[string]any{
			"isPlaying":   false,
			"playingWith": nil,
			"character":   int(sim.CharacterNone),
			"currentGame": nil,
		}
		for k, v := range extra {
			f[k] = v
		}
		return l.store.Update(ctx, store.UserPath(uid), f)
	}
	if err := reset(l.uid, map[string]any{"isGamePageActive": TabInactive}); err != nil {
		return fmt.Errorf("reset user %s: %w", l.uid, err)
	}
	if peerUID != "" {
		if err := reset(peerUID, nil); err != nil {
			return fmt.Errorf("reset user %s: %w", peerUID, err)
		}
	}

	rec, err := l.session(ctx, sessionID)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := l.settle(ctx, sessionID, rec); err != nil {
		return err
	}
	log.Printf("[lobby] %s ended game %s", l.uid, sessionID)
	return nil
}
