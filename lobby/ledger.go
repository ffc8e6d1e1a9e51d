package lobby

import (
	"context"
	"fmt"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/store"
)

// Ledger is the per-user gem counter at users/{uid}/gemCount.
type Ledger struct {
	store store.Store
	uid   string
}

func NewLedger(s store.Store, uid string) *Ledger {
	return &Ledger{store: s, uid: uid}
}

func (g *Ledger) path() string {
	return store.Join(store.UserPath(g.uid), "gemCount")
}

// Add atomically adds n gems and returns the new count.
func (g *Ledger) Add(ctx context.Context, n int64) (int64, error) {
	return store.Increment(ctx, g.store, g.path(), n)
}

// Count reads the current count.
func (g *Ledger) Count(ctx context.Context) (int64, error) {
	snap, err := g.store.Get(ctx, g.path())
	if err != nil {
		return 0, fmt.Errorf("read gem count: %w", err)
	}
	return store.AsInt64(snap.Value), nil
}

// EnsureUser writes the sign-in fields of uid and fills the play fields of
// a new record. Existing play state and gem count are left alone.
func EnsureUser(ctx context.Context, s store.Store, uid, name string, guest bool) error {
	snap, err := s.Get(ctx, store.UserPath(uid))
	if err != nil {
		return fmt.Errorf("read user %s: %w", uid, err)
	}
	kind := AuthPhone
	if guest {
		kind = AuthGuest
	}
	fields := map[string]any{"name": name, "authKind": kind}

	existing, _ := snap.Value.(map[string]any)
	defaults := map[string]any{
		"isPlaying":        false,
		"character":        int(sim.CharacterNone),
		"isGamePageActive": TabInactive,
		"gemCount":         0,
	}
	for k, v := range defaults {
		if _, ok := existing[k]; !ok {
			fields[k] = v
		}
	}
	if err := s.Update(ctx, store.UserPath(uid), fields); err != nil {
		return fmt.Errorf("write user %s: %w", uid, err)
	}
	return nil
}
