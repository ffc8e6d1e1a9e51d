package lobby

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/automoto/twinflame/shared/store"
	"github.com/pixil98/go-testutil"
	"pgregory.net/rapid"
)

func seed(t *testing.T, m *store.Memory, id string, rec SessionRecord) {
	t.Helper()
	if err := m.Set(context.Background(), store.ServerPath(id), rec); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func read(t *testing.T, m *store.Memory, id string) (SessionRecord, bool) {
	t.Helper()
	snap, err := m.Get(context.Background(), store.ServerPath(id))
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	var rec SessionRecord
	if err := snap.Decode(&rec); err != nil {
		t.Fatalf("Decode(%s) error = %v", id, err)
	}
	return rec, snap.Exists
}

func twoPlayer(ready bool) SessionRecord {
	return SessionRecord{
		Name:       "Arena",
		MaxPlayers: 2,
		Players:    map[string]string{"alice": "Alice", "bob": "Bob"},
		Owner:      "alice",
		Ready:      map[string]bool{"alice": ready, "bob": ready},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	l := New(m, "alice", "Alice")

	id, err := l.Create(ctx, "  Arena ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rec, ok := read(t, m, id)
	testutil.AssertEqual(t, "exists", ok, true)
	testutil.AssertEqual(t, "name", rec.Name, "Arena")
	testutil.AssertEqual(t, "max players", rec.MaxPlayers, 2)
	testutil.AssertEqual(t, "owner", rec.Owner, "alice")
	testutil.AssertEqual(t, "player", rec.Players["alice"], "Alice")
	testutil.AssertEqual(t, "ready recorded", len(rec.Ready), 1)
	testutil.AssertEqual(t, "not ready", rec.Ready["alice"], false)
	testutil.AssertEqual(t, "start", rec.Start, false)
}

func TestCreateRejects(t *testing.T) {
	tests := map[string]struct {
		existing map[string]SessionRecord
		name     string
		want     error
	}{
		"empty name": {
			name: "   ",
			want: ErrEmptyName,
		},
		"already in a session": {
			existing: map[string]SessionRecord{"1": {Name: "Mine", Players: map[string]string{"alice": "Alice"}, Owner: "alice"}},
			name:     "Other",
			want:     ErrAlreadyInSession,
		},
		"duplicate name": {
			existing: map[string]SessionRecord{
				"1": {Name: "Arena", Players: map[string]string{"x": "X"}, Owner: "x"},
				"2": {Name: "Arena", Players: map[string]string{"y": "Y"}, Owner: "y"},
			},
			name: "Arena",
			want: ErrDuplicateName,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := store.NewMemory()
			for id, rec := range tt.existing {
				seed(t, m, id, rec)
			}
			before, _ := m.Get(context.Background(), store.ServersRoot)

			_, err := New(m, "alice", "Alice").Create(context.Background(), tt.name)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create() error = %v, want %v", err, tt.want)
			}
			after, _ := m.Get(context.Background(), store.ServersRoot)
			testutil.AssertEqual(t, "sessions unchanged", len(after.Children()), len(before.Children()))
		})
	}
}

func TestNextSessionIDIncreases(t *testing.T) {
	now := time.UnixMilli(5_000_000_000_000)
	a := nextSessionID(now)
	b := nextSessionID(now)
	c := nextSessionID(now.Add(-time.Second))
	if !(a < b && b < c) {
		t.Errorf("ids not increasing: %s %s %s", a, b, c)
	}
}

func TestJoin(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "1", SessionRecord{Name: "Arena", MaxPlayers: 2, Players: map[string]string{"alice": "Alice"}, Owner: "alice", Ready: map[string]bool{"alice": true}})

	if err := New(m, "bob", "Bob").Join(ctx, "1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	rec, _ := read(t, m, "1")
	testutil.AssertEqual(t, "players", len(rec.Players), 2)
	testutil.AssertEqual(t, "bob ready entry", len(rec.Ready), 2)
	testutil.AssertEqual(t, "bob not ready", rec.Ready["bob"], false)
	testutil.AssertEqual(t, "owner kept", rec.Owner, "alice")

	err := New(m, "carol", "Carol").Join(ctx, "1")
	if !errors.Is(err, ErrSessionFull) {
		t.Errorf("third Join() error = %v, want ErrSessionFull", err)
	}
	err = New(m, "bob", "Bob").Join(ctx, "1")
	if !errors.Is(err, ErrAlreadyInSession) {
		t.Errorf("repeat Join() error = %v, want ErrAlreadyInSession", err)
	}
	err = New(m, "dave", "Dave").Join(ctx, "404")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Join(missing) error = %v, want ErrNoSession", err)
	}
}

func TestJoinClaimsOwner(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", SessionRecord{Name: "Arena", MaxPlayers: 2})

	if err := New(m, "bob", "Bob").Join(context.Background(), "1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	rec, _ := read(t, m, "1")
	testutil.AssertEqual(t, "owner", rec.Owner, "bob")
}

func TestLeaveOwnerTransfers(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", twoPlayer(false))

	if err := New(m, "alice", "Alice").Leave(context.Background(), "1"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	rec, ok := read(t, m, "1")
	testutil.AssertEqual(t, "session kept", ok, true)
	testutil.AssertEqual(t, "owner", rec.Owner, "bob")
	testutil.AssertEqual(t, "players", len(rec.Players), 1)
	testutil.AssertEqual(t, "ready", len(rec.Ready), 1)
}

func TestLeaveNonOwnerKeepsOwner(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", twoPlayer(false))

	if err := New(m, "bob", "Bob").Leave(context.Background(), "1"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	rec, _ := read(t, m, "1")
	testutil.AssertEqual(t, "owner", rec.Owner, "alice")
}

func TestLeaveLastPlayerDeletes(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", SessionRecord{Name: "Arena", MaxPlayers: 2, Players: map[string]string{"alice": "Alice"}, Owner: "alice", Ready: map[string]bool{"alice": false}})

	if err := New(m, "alice", "Alice").Leave(context.Background(), "1"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if _, ok := read(t, m, "1"); ok {
		t.Error("session still exists after the last player left")
	}
}

func TestSetReady(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", twoPlayer(false))

	if err := New(m, "bob", "Bob").SetReady(context.Background(), "1", true); err != nil {
		t.Fatalf("SetReady() error = %v", err)
	}
	rec, _ := read(t, m, "1")
	testutil.AssertEqual(t, "bob", rec.Ready["bob"], true)
	testutil.AssertEqual(t, "alice", rec.Ready["alice"], false)
	testutil.AssertEqual(t, "status", StatusOf(rec), WaitingForReady)
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed(t, m, "1", twoPlayer(true))

	if err := New(m, "alice", "Alice").Start(ctx, "1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	rec, _ := read(t, m, "1")
	testutil.AssertEqual(t, "start", rec.Start, true)

	alice, _ := readUser(ctx, m, "alice")
	bob, _ := readUser(ctx, m, "bob")
	testutil.AssertEqual(t, "alice character", alice.Character, 1)
	testutil.AssertEqual(t, "bob character", bob.Character, 2)
	testutil.AssertEqual(t, "alice playing", alice.IsPlaying, true)
	testutil.AssertEqual(t, "bob playing", bob.IsPlaying, true)
	testutil.AssertEqual(t, "alice with", *alice.PlayingWith, "bob")
	testutil.AssertEqual(t, "bob with", *bob.PlayingWith, "alice")
	testutil.AssertEqual(t, "bob game", *bob.CurrentGame, "1")
}

func TestStartGate(t *testing.T) {
	uids := []string{"alice", "bob", "carol"}
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		rec := SessionRecord{
			Name:       "Arena",
			MaxPlayers: 2,
			Players:    map[string]string{"alice": "Alice", "bob": "Bob"},
			Owner:      rapid.SampledFrom(uids[:2]).Draw(t, "owner"),
			Ready:      map[string]bool{},
		}
		for _, uid := range uids {
			if rapid.Bool().Draw(t, "has "+uid) {
				rec.Ready[uid] = rapid.Bool().Draw(t, "ready "+uid)
			}
		}
		requester := rapid.SampledFrom(uids).Draw(t, "requester")

		m := store.NewMemory()
		if err := m.Set(ctx, store.ServerPath("1"), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
		err := New(m, requester, requester).Start(ctx, "1")

		allTrue := true
		for _, ok := range rec.Ready {
			allTrue = allTrue && ok
		}
		want := requester == rec.Owner && len(rec.Ready) == rec.MaxPlayers && allTrue

		snap, _ := m.Get(ctx, store.Join(store.ServerPath("1"), "start"))
		started, _ := snap.Value.(bool)
		if started != want {
			t.Fatalf("start = %v, want %v (err %v)", started, want, err)
		}
		if want != (err == nil) {
			t.Fatalf("Start() error = %v, want success %v", err, want)
		}
	})
}

func TestStartErrors(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "1", twoPlayer(false))

	err := New(m, "bob", "Bob").Start(context.Background(), "1")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner Start() error = %v", err)
	}
	err = New(m, "alice", "Alice").Start(context.Background(), "1")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("unready Start() error = %v", err)
	}
	err = New(m, "alice", "Alice").Start(context.Background(), "2")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("missing Start() error = %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[string]struct {
		rec  SessionRecord
		want Status
	}{
		"one player": {
			rec:  SessionRecord{MaxPlayers: 2, Players: map[string]string{"a": "A"}, Ready: map[string]bool{"a": true}},
			want: WaitingForPlayers,
		},
		"unready": {rec: twoPlayer(false), want: WaitingForReady},
		"ready":   {rec: twoPlayer(true), want: AllReady},
		"default capacity": {
			rec:  SessionRecord{Players: map[string]string{"a": "A", "b": "B"}, Ready: map[string]bool{"a": true, "b": true}},
			want: AllReady,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "status", StatusOf(tt.rec), tt.want)
		})
	}
}

func TestHandleSnapshot(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	empty := SessionRecord{Name: "Ghost", MaxPlayers: 2, Owner: "zed"}
	seed(t, m, "9", empty)

	l := New(m, "alice", "Alice")
	evs := l.HandleSnapshot(ctx, map[string]SessionRecord{
		"1": twoPlayer(false),
		"9": empty,
	})
	testutil.AssertEqual(t, "events", len(evs), 1)
	changed, ok := evs[0].(SessionsChanged)
	if !ok {
		t.Fatalf("event = %T, want SessionsChanged", evs[0])
	}
	testutil.AssertEqual(t, "mine", changed.Mine, "1")
	testutil.AssertEqual(t, "sessions", len(changed.Sessions), 1)
	if _, ok := read(t, m, "9"); ok {
		t.Error("empty session was not removed")
	}

	started := twoPlayer(true)
	started.Start = true
	evs = l.HandleSnapshot(ctx, map[string]SessionRecord{"1": started})
	sig, ok := evs[0].(StartSignal)
	if !ok {
		t.Fatalf("event = %T, want StartSignal", evs[0])
	}
	testutil.AssertEqual(t, "start session", sig.SessionID, "1")

	evs = New(m, "carol", "Carol").HandleSnapshot(ctx, map[string]SessionRecord{"1": started})
	changed = evs[0].(SessionsChanged)
	testutil.AssertEqual(t, "outsider mine", changed.Mine, "")
}

func TestHandleSnapshotCollectsAfterStart(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	empty := SessionRecord{Name: "Ghost", MaxPlayers: 2, Owner: "zed"}
	seed(t, m, "9", empty)

	started := twoPlayer(true)
	started.Start = true
	evs := New(m, "alice", "Alice").HandleSnapshot(ctx, map[string]SessionRecord{
		"1": started,
		"9": empty,
	})
	testutil.AssertEqual(t, "events", len(evs), 1)
	if _, ok := evs[0].(StartSignal); !ok {
		t.Fatalf("event = %T, want StartSignal", evs[0])
	}
	if _, ok := read(t, m, "9"); ok {
		t.Error("empty session listed after a started one was not removed")
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := store.NewMemory()
	l := New(m, "alice", "Alice")

	events, err := l.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	first := <-events
	if ev, ok := first.(SessionsChanged); !ok || len(ev.Sessions) != 0 {
		t.Fatalf("first event = %#v", first)
	}

	id, err := l.Create(ctx, "Arena")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if c, ok := ev.(SessionsChanged); ok && c.Mine == id {
				cancel()
				for range events {
				}
				return
			}
		case <-timeout:
			t.Fatal("no SessionsChanged with the new session")
		}
	}
}
