package network

import (
	"context"
	"testing"
	"time"

	"github.com/automoto/twinflame/shared/sim"
	"github.com/automoto/twinflame/shared/store"
	"github.com/pixil98/go-testutil"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPublishWritesRecord(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := NewSynchronizer(mem, "42", "alice")

	s.Publish(sim.Kinematics{X: 10, Y: 20, W: 35, H: 64, Color: "orange", Phase: sim.PhaseFall, Moving: true})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	rec, err := s.LastPosition(ctx, "alice")
	if err != nil {
		t.Fatalf("LastPosition() error = %v", err)
	}
	if rec == nil {
		t.Fatal("LastPosition() = nil")
	}
	testutil.AssertEqual(t, "x", rec.X, 10.0)
	testutil.AssertEqual(t, "y", rec.Y, 20.0)
	testutil.AssertEqual(t, "color", rec.Color, "orange")
	testutil.AssertEqual(t, "moving", rec.IsMoving, true)
	testutil.AssertEqual(t, "phase", rec.JumpPhase, "fall")
}

func TestPublishLatestWins(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := NewSynchronizer(mem, "42", "alice")

	for i := 0; i < 100; i++ {
		s.Publish(sim.Kinematics{X: float64(i)})
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	rec, _ := s.LastPosition(ctx, "alice")
	testutil.AssertEqual(t, "final x", rec.X, 99.0)
	st := s.Stats()
	testutil.AssertEqual(t, "accounted", st.Published+st.Dropped+st.Failed, 100)
}

func TestLastPositionMissing(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice")
	rec, err := s.LastPosition(context.Background(), "bob")
	if err != nil {
		t.Fatalf("LastPosition() error = %v", err)
	}
	if rec != nil {
		t.Errorf("LastPosition() = %+v, want nil", rec)
	}
}

func TestHandlePositionsSkipsSelf(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice")
	s.HandlePositions(PositionsChanged{Positions: map[string]PositionRecord{
		"alice": {X: 1, Y: 1},
	}})

	if _, ok := s.Mirror("alice"); ok {
		t.Error("local uid was mirrored")
	}
	if _, ok := s.Latest(); ok {
		t.Error("Latest() reported a partner")
	}
}

func TestHandlePositionsSeedThenUpdate(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice")

	s.HandlePositions(PositionsChanged{Positions: map[string]PositionRecord{
		"bob": {X: 100, Y: 50, Color: "cyan", JumpPhase: "idle"},
	}})
	m, ok := s.Mirror("bob")
	if !ok {
		t.Fatal("bob not mirrored")
	}
	testutil.AssertEqual(t, "seed facing", m.Facing, sim.DirRight)
	testutil.AssertEqual(t, "default width", m.W, 35.0)
	testutil.AssertEqual(t, "default height", m.H, 64.0)
	testutil.AssertEqual(t, "color", m.Color, "cyan")

	// Later records only move the mirror; color and size stick.
	s.HandlePositions(PositionsChanged{Positions: map[string]PositionRecord{
		"bob": {X: 90, Y: 40, Width: 1, Color: "orange", IsMoving: true, JumpPhase: "jump"},
	}})
	m, _ = s.Mirror("bob")
	testutil.AssertEqual(t, "x", m.X, 90.0)
	testutil.AssertEqual(t, "y", m.Y, 40.0)
	testutil.AssertEqual(t, "facing", m.Facing, sim.DirLeft)
	testutil.AssertEqual(t, "moving", m.Moving, true)
	testutil.AssertEqual(t, "phase", m.Phase, sim.PhaseJump)
	testutil.AssertEqual(t, "width kept", m.W, 35.0)
	testutil.AssertEqual(t, "color kept", m.Color, "cyan")

	// No x change keeps the facing.
	s.HandlePositions(PositionsChanged{Positions: map[string]PositionRecord{
		"bob": {X: 90, Y: 30},
	}})
	m, _ = s.Mirror("bob")
	testutil.AssertEqual(t, "facing unchanged", m.Facing, sim.DirLeft)
	testutil.AssertEqual(t, "unknown phase", m.Phase, sim.PhaseIdle)
}

func TestLatestIsNonBlockingAndLatestWins(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice")
	if _, ok := s.Latest(); ok {
		t.Fatal("Latest() on empty synchronizer reported a value")
	}

	for x := 1.0; x <= 3; x++ {
		s.HandlePositions(PositionsChanged{Positions: map[string]PositionRecord{"bob": {X: x}}})
	}
	k, ok := s.Latest()
	if !ok {
		t.Fatal("Latest() = false")
	}
	testutil.AssertEqual(t, "latest x", k.X, 3.0)
	if _, ok := s.Latest(); ok {
		t.Error("Latest() returned the same state twice")
	}
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice")
	s.Seed("bob", sim.Kinematics{X: 5})
	got := s.Seed("bob", sim.Kinematics{X: 7})
	testutil.AssertEqual(t, "returned x", got.X, 5.0)
	m, _ := s.Mirror("bob")
	testutil.AssertEqual(t, "x", m.X, 5.0)
}

func TestSeedFillsDefaultSize(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "42", "alice", WithDefaultSize(30, 60))

	got := s.Seed("bob", sim.Kinematics{X: 5})
	testutil.AssertEqual(t, "width", got.W, 30.0)
	testutil.AssertEqual(t, "height", got.H, 60.0)
	m, _ := s.Mirror("bob")
	testutil.AssertEqual(t, "mirror", m, got)

	sized := s.Seed("carol", sim.Kinematics{W: 40, H: 70})
	testutil.AssertEqual(t, "kept width", sized.W, 40.0)
	testutil.AssertEqual(t, "kept height", sized.H, 70.0)
}

func TestRunMirrorsPartner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mem := store.NewMemory()
	alice := NewSynchronizer(mem, "42", "alice")
	bob := NewSynchronizer(mem, "42", "bob")

	done := make(chan error, 1)
	go func() { done <- alice.Run(ctx) }()
	waitFor(t, "subscription", func() bool { return alice.State() == StateSubscribed })

	bob.Publish(sim.Kinematics{X: 300, Y: 120, Color: "cyan", Phase: sim.PhaseJump})
	waitFor(t, "mirror", func() bool {
		m, ok := alice.Mirror("bob")
		return ok && m.X == 300
	})
	m, _ := alice.Mirror("bob")
	testutil.AssertEqual(t, "phase", m.Phase, sim.PhaseJump)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	testutil.AssertEqual(t, "state", alice.State(), StateStopped)
}

func TestRunInvalidSession(t *testing.T) {
	s := NewSynchronizer(store.NewMemory(), "bad.id", "alice")
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want invalid path")
	}
	testutil.AssertEqual(t, "state", s.State(), StateError)
}
