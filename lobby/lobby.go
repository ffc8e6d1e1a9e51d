package lobby

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/store"
)

// Lobby performs session operations on behalf of one user.
type Lobby struct {
	store store.Store
	uid   string
	name  string
	now   func() time.Time
}

func New(s store.Store, uid, name string) *Lobby {
	return &Lobby{store: s, uid: uid, name: name, now: time.Now}
}

func (l *Lobby) UID() string  { return l.uid }
func (l *Lobby) Name() string { return l.name }

// Sessions reads every session once.
func (l *Lobby) Sessions(ctx context.Context) (map[string]SessionRecord, error) {
	snap, err := l.store.Get(ctx, store.ServersRoot)
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	return decodeSessions(snap)
}

func decodeSessions(snap store.Snapshot) (map[string]SessionRecord, error) {
	sessions := make(map[string]SessionRecord)
	if err := snap.Decode(&sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (l *Lobby) session(ctx context.Context, id string) (SessionRecord, error) {
	var rec SessionRecord
	snap, err := l.store.Get(ctx, store.ServerPath(id))
	if err != nil {
		return rec, fmt.Errorf("read session %s: %w", id, err)
	}
	if !snap.Exists {
		return rec, ErrNoSession
	}
	if err := snap.Decode(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Mine returns the id of the first session, in id order, that has uid as a
// player.
func Mine(sessions map[string]SessionRecord, uid string) string {
	for _, id := range sortedKeys(sessions) {
		if sessions[id].Has(uid) {
			return id
		}
	}
	return ""
}

// Create opens a new session with the caller as its only player and owner.
func (l *Lobby) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	sessions, err := l.Sessions(ctx)
	if err != nil {
		return "", err
	}
	if Mine(sessions, l.uid) != "" {
		return "", ErrAlreadyInSession
	}
	for _, s := range sessions {
		if s.Name == name {
			return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	id := nextSessionID(l.now())
	rec := SessionRecord{
		Name:       name,
		MaxPlayers: DefaultMaxPlayers,
		Players:    map[string]string{l.uid: l.name},
		Owner:      l.uid,
		Ready:      map[string]bool{l.uid: false},
	}
	if err := l.store.Set(ctx, store.ServerPath(id), rec); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	log.Printf("[lobby] %s created session %s (%q)", l.uid, id, name)
	return id, nil
}

// Join adds the caller to a session, claiming ownership if it has none.
func (l *Lobby) Join(ctx context.Context, id string) error {
	sessions, err := l.Sessions(ctx)
	if err != nil {
		return err
	}
	if Mine(sessions, l.uid) != "" {
		return ErrAlreadyInSession
	}
	rec, ok := sessions[id]
	if !ok {
		return ErrNoSession
	}
	if len(rec.Players) >= rec.Capacity() {
		return ErrSessionFull
	}

	fields := map[string]any{
		store.Join("players", l.uid): l.name,
		store.Join("ready", l.uid):   false,
	}
	if rec.Owner == "" {
		fields["owner"] = l.uid
	}
	if err := l.store.Update(ctx, store.ServerPath(id), fields); err != nil {
		return fmt.Errorf("join session %s: %w", id, err)
	}
	return nil
}

// Leave removes the caller from a session. The owner role passes to the
// first remaining player; an empty session is deleted.
func (l *Lobby) Leave(ctx context.Context, id string) error {
	path := store.ServerPath(id)
	err := l.store.Update(ctx, path, map[string]any{
		store.Join("players", l.uid): nil,
		store.Join("ready", l.uid):   nil,
	})
	if err != nil {
		return fmt.Errorf("leave session %s: %w", id, err)
	}

	rec, err := l.session(ctx, id)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	return l.settle(ctx, id, rec)
}

// settle deletes an empty session or repairs its owner.
func (l *Lobby) settle(ctx context.Context, id string, rec SessionRecord) error {
	path := store.ServerPath(id)
	if len(rec.Players) == 0 {
		if err := l.store.Remove(ctx, path); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
		return nil
	}
	if rec.Has(rec.Owner) {
		return nil
	}
	next := sortedKeys(rec.Players)[0]
	if err := l.store.Set(ctx, store.Join(path, "owner"), next); err != nil {
		return fmt.Errorf("transfer owner of %s: %w", id, err)
	}
	return nil
}

// SetReady sets the caller's ready flag.
func (l *Lobby) SetReady(ctx context.Context, id string, ready bool) error {
	if err := l.store.Set(ctx, store.Join(store.ServerPath(id), "ready", l.uid), ready); err != nil {
		return fmt.Errorf("set ready: %w", err)
	}
	return nil
}

// Start begins the game. It is refused unless the caller owns the session
// and every seat is ready. The owner plays character 1.
func (l *Lobby) Start(ctx context.Context, id string) error {
	rec, err := l.session(ctx, id)
	if err != nil {
		return err
	}
	if err := CanStart(rec, l.uid); err != nil {
		return err
	}

	var partner string
	for _, uid := range sortedKeys(rec.Players) {
		if uid != rec.Owner {
			partner = uid
			break
		}
	}
	assign := func(uid, with string, ch sim.Character) error {
		fields := map[string]any{
			"isPlaying":   true,
			"character":   int(ch),
			"currentGame": id,
		}
		if with != "" {
			fields["playingWith"] = with
		}
		return l.store.Update(ctx, store.UserPath(uid), fields)
	}
	if err := assign(rec.Owner, partner, sim.CharacterOrange); err != nil {
		return fmt.Errorf("assign owner: %w", err)
	}
	if partner != "" {
		if err := assign(partner, rec.Owner, sim.CharacterCyan); err != nil {
			return fmt.Errorf("assign partner: %w", err)
		}
	}
	// start goes last so a peer reacting to it finds its assignment.
	if err := l.store.Set(ctx, store.Join(store.ServerPath(id), "start"), true); err != nil {
		return fmt.Errorf("start session %s: %w", id, err)
	}
	log.Printf("[lobby] session %s started by %s", id, l.uid)
	return nil
}

// HandleSnapshot processes one delivery of the whole servers subtree. Empty
// sessions are deleted. If the caller's session has started the only event
// is a StartSignal.
func (l *Lobby) HandleSnapshot(ctx context.Context, sessions map[string]SessionRecord) []Event {
	started := ""
	for _, id := range sortedKeys(sessions) {
		rec := sessions[id]
		if len(rec.Players) == 0 {
			if err := l.store.Remove(ctx, store.ServerPath(id)); err != nil {
				log.Printf("[lobby] failed to remove empty session %s: %v", id, err)
			}
			delete(sessions, id)
			continue
		}
		if started == "" && rec.Start && rec.Has(l.uid) {
			started = id
		}
	}
	if started != "" {
		return []Event{StartSignal{SessionID: started}}
	}
	return []Event{SessionsChanged{Sessions: sessions, Mine: Mine(sessions, l.uid)}}
}

// Watch keeps a subscription on every session and emits the events of each
// delivery. The channel closes when ctx ends.
func (l *Lobby) Watch(ctx context.Context) (<-chan Event, error) {
	ch, cancel, err := l.store.Subscribe(ctx, store.ServersRoot)
	if err != nil {
		return nil, fmt.Errorf("watch sessions: %w", err)
	}

	out := make(chan Event, 4)
	go func() {
		defer close(out)
		defer cancel()
		for snap := range ch {
			sessions, err := decodeSessions(snap)
			if err != nil {
				log.Printf("[lobby] bad sessions snapshot: %v", err)
				continue
			}
			for _, ev := range l.HandleSnapshot(ctx, sessions) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
