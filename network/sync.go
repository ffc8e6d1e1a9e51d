package network

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/store"
)

type SyncState int

const (
	StateIdle SyncState = iota
	StateSubscribed
	StateStopped
	StateError
)

func (s SyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Stats counts synchronizer traffic for the debug overlay.
type Stats struct {
	Published int
	Dropped   int // superseded before they were sent
	Failed    int
	Ingested  int
}

// Synchronizer replicates the local player's state to the session and mirrors
// everyone else's. All shared fields are protected by mu; Publish never
// blocks on the store.
type Synchronizer struct {
	store     store.Store
	sessionID string
	uid       string

	writeTimeout       time.Duration
	defaultW, defaultH float64

	mu        sync.RWMutex
	state     SyncState
	lastError error
	mirrors   map[string]sim.Kinematics
	stats     Stats

	remoteCh chan sim.Kinematics // size-1 buffered; latest wins

	pubMu    sync.Mutex
	pending  *PositionRecord
	inFlight bool
}

type Option func(*Synchronizer)

// WithWriteTimeout bounds each position write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.writeTimeout = d }
}

// WithDefaultSize is used for peers that publish no size.
func WithDefaultSize(w, h float64) Option {
	return func(s *Synchronizer) { s.defaultW, s.defaultH = w, h }
}

func NewSynchronizer(st store.Store, sessionID, uid string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:        st,
		sessionID:    sessionID,
		uid:          uid,
		writeTimeout: 2 * time.Second,
		defaultW:     35,
		defaultH:     64,
		mirrors:      make(map[string]sim.Kinematics),
		remoteCh:     make(chan sim.Kinematics, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish sends the local state without waiting. While a write is in flight
// only the newest state is kept; failed writes are logged and not retried.
func (s *Synchronizer) Publish(k sim.Kinematics) {
	rec := RecordOf(k)

	s.pubMu.Lock()
	if s.inFlight {
		if s.pending != nil {
			s.bump(func(st *Stats) { st.Dropped++ })
		}
		s.pending = &rec
		s.pubMu.Unlock()
		return
	}
	s.inFlight = true
	s.pubMu.Unlock()

	go s.flush(rec)
}

func (s *Synchronizer) flush(rec PositionRecord) {
	path := store.PositionPath(s.sessionID, s.uid)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		err := s.store.Set(ctx, path, rec)
		cancel()
		if err != nil {
			log.Printf("[sync] position write failed: %v", err)
			s.bump(func(st *Stats) { st.Failed++ })
		} else {
			s.bump(func(st *Stats) { st.Published++ })
		}

		s.pubMu.Lock()
		if s.pending == nil {
			s.inFlight = false
			s.pubMu.Unlock()
			return
		}
		rec = *s.pending
		s.pending = nil
		s.pubMu.Unlock()
	}
}

// Flush waits until no write is in flight or ctx ends. Used on shutdown so
// the last position is persisted for a later resume.
func (s *Synchronizer) Flush(ctx context.Context) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		s.pubMu.Lock()
		busy := s.inFlight
		s.pubMu.Unlock()
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// HandlePositions ingests a positions snapshot. The local uid is skipped.
// A uid seen for the first time is mirrored in full; afterwards only
// position, movement and jump phase are taken, and facing is inferred from
// the change in x.
func (s *Synchronizer) HandlePositions(ev PositionsChanged) {
	uids := make([]string, 0, len(ev.Positions))
	for uid := range ev.Positions {
		if uid != s.uid {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)

	s.mu.Lock()
	var partner *sim.Kinematics
	for _, uid := range uids {
		rec := ev.Positions[uid]
		m, seen := s.mirrors[uid]
		if !seen {
			m = s.sized(rec.Kinematics())
		} else {
			if rec.X < m.X {
				m.Facing = sim.DirLeft
			} else if rec.X > m.X {
				m.Facing = sim.DirRight
			}
			m.X, m.Y = rec.X, rec.Y
			m.Moving = rec.IsMoving
			m.Phase = sim.ParseJumpPhase(rec.JumpPhase)
		}
		s.mirrors[uid] = m
		if partner == nil {
			p := m
			partner = &p
		}
	}
	s.stats.Ingested++
	s.mu.Unlock()

	if partner != nil {
		select { // drain stale, push latest
		case <-s.remoteCh:
		default:
		}
		s.remoteCh <- *partner
	}
}

// Seed installs a mirror for uid before any snapshot arrives, e.g. from the
// partner's last persisted position. It returns the mirror now held for uid.
func (s *Synchronizer) Seed(uid string, k sim.Kinematics) sim.Kinematics {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mirrors[uid]
	if !ok {
		m = s.sized(k)
		s.mirrors[uid] = m
	}
	return m
}

// sized fills in the default size for peers that published none.
func (s *Synchronizer) sized(k sim.Kinematics) sim.Kinematics {
	if k.W <= 0 {
		k.W = s.defaultW
	}
	if k.H <= 0 {
		k.H = s.defaultH
	}
	return k
}

// Mirror returns the current mirror of uid.
func (s *Synchronizer) Mirror(uid string) (sim.Kinematics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.mirrors[uid]
	return k, ok
}

// Remote returns the partner mirror, the first non-local uid in sorted order.
func (s *Synchronizer) Remote() (sim.Kinematics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uids := make([]string, 0, len(s.mirrors))
	for uid := range s.mirrors {
		uids = append(uids, uid)
	}
	if len(uids) == 0 {
		return sim.Kinematics{}, false
	}
	sort.Strings(uids)
	return s.mirrors[uids[0]], true
}

// Latest returns the partner state received since the last call, if any.
// Non-blocking.
func (s *Synchronizer) Latest() (sim.Kinematics, bool) {
	select {
	case k := <-s.remoteCh:
		return k, true
	default:
		return sim.Kinematics{}, false
	}
}

// Run subscribes to the session's positions and feeds HandlePositions until
// ctx ends.
func (s *Synchronizer) Run(ctx context.Context) error {
	ch, cancel, err := s.store.Subscribe(ctx, store.PositionsPath(s.sessionID))
	if err != nil {
		s.setError(fmt.Errorf("subscribe positions: %w", err))
		return err
	}
	defer cancel()
	s.setState(StateSubscribed)
	log.Printf("[sync] watching positions of session %s", s.sessionID)

	for snap := range ch {
		if !snap.Exists {
			continue
		}
		var positions map[string]PositionRecord
		if err := snap.Decode(&positions); err != nil {
			log.Printf("[sync] bad positions snapshot: %v", err)
			continue
		}
		s.HandlePositions(PositionsChanged{Positions: positions})
	}

	s.setState(StateStopped)
	return ctx.Err()
}

// LastPosition reads the persisted position of uid, or nil if none.
func (s *Synchronizer) LastPosition(ctx context.Context, uid string) (*PositionRecord, error) {
	snap, err := s.store.Get(ctx, store.PositionPath(s.sessionID, uid))
	if err != nil {
		return nil, fmt.Errorf("read position of %s: %w", uid, err)
	}
	if !snap.Exists {
		return nil, nil
	}
	var rec PositionRecord
	if err := snap.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Synchronizer) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Synchronizer) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Synchronizer) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Synchronizer) setState(st SyncState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Synchronizer) setError(err error) {
	s.mu.Lock()
	s.state = StateError
	s.lastError = err
	s.mu.Unlock()
}

func (s *Synchronizer) bump(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
