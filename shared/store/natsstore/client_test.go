package natsstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/automoto/twinflame/shared/store"
	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-testutil"
)

// startHost runs an embedded broker with a Host and returns a dial func for
// clients.
func startHost(t *testing.T) func() *Client {
	t.Helper()

	srv, err := NewServer(WithPort(-1))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(srv.Shutdown)

	hostConn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect host: %v", err)
	}
	t.Cleanup(hostConn.Close)

	mem := store.NewMemory()
	host := NewHost(hostConn, mem)
	if err := host.Start(); err != nil {
		t.Fatalf("host.Start() error = %v", err)
	}
	t.Cleanup(host.Stop)

	return func() *Client {
		c, err := Dial(srv.ClientURL(), WithTimeout(2*time.Second))
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		t.Cleanup(c.Close)
		return c
	}
}

func TestClientReadWrite(t *testing.T) {
	dial := startHost(t)
	c := dial()
	ctx := context.Background()

	if err := c.Set(ctx, "servers/1", map[string]any{"name": "Arena", "maxPlayers": 2}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Update(ctx, "servers/1", map[string]any{"players/alice": "Alice", "name": nil}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	snap, err := c.Get(ctx, "servers/1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var got struct {
		Name       string            `json:"name"`
		MaxPlayers int               `json:"maxPlayers"`
		Players    map[string]string `json:"players"`
	}
	if err := snap.Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	testutil.AssertEqual(t, "name", got.Name, "")
	testutil.AssertEqual(t, "max players", got.MaxPlayers, 2)
	testutil.AssertEqual(t, "alice", got.Players["alice"], "Alice")

	if err := c.Remove(ctx, "servers/1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	snap, _ = c.Get(ctx, "servers/1")
	testutil.AssertEqual(t, "removed", snap.Exists, false)
}

func TestClientInvalidPath(t *testing.T) {
	dial := startHost(t)
	c := dial()

	err := c.Set(context.Background(), "users/a.b", 1)
	if !errors.Is(err, store.ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}

func TestClientIncrementAcrossClients(t *testing.T) {
	dial := startHost(t)
	clients := []*Client{dial(), dial()}
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, c := range clients {
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				if _, err := store.Increment(ctx, c, "users/u1/gemCount", 1); err != nil {
					t.Errorf("Increment() error = %v", err)
				}
			}(c)
		}
	}
	wg.Wait()

	snap, err := clients[0].Get(ctx, "users/u1/gemCount")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	testutil.AssertEqual(t, "count", store.AsInt64(snap.Value), int64(12))
}

func TestClientSubscribe(t *testing.T) {
	dial := startHost(t)
	writer, reader := dial(), dial()
	ctx := context.Background()

	ch, cancel, err := reader.Subscribe(ctx, "servers/1/positions")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	wait := func(match func(store.Snapshot) bool) store.Snapshot {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case s, ok := <-ch:
				if !ok {
					t.Fatal("subscription closed")
				}
				if match(s) {
					return s
				}
			case <-deadline:
				t.Fatal("timed out waiting for snapshot")
			}
		}
	}

	first := wait(func(store.Snapshot) bool { return true })
	testutil.AssertEqual(t, "first exists", first.Exists, false)

	if err := writer.Set(ctx, "servers/1/positions/alice", map[string]any{"x": 10.0}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	snap := wait(func(s store.Snapshot) bool { return s.Exists })
	testutil.AssertEqual(t, "children", len(snap.Children()), 1)

	if err := writer.Remove(ctx, "servers/1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	gone := wait(func(s store.Snapshot) bool { return !s.Exists })
	testutil.AssertEqual(t, "deleted", gone.Deleted, true)

	cancel()
	wait2 := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-wait2:
			t.Fatal("channel not closed after cancel")
		}
	}
}
