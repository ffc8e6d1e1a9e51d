package natsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/automoto/twinflame/shared/store"
	"github.com/nats-io/nats.go"
)

// Host answers store requests from a Memory tree and publishes a change
// notice after every successful write to the tree, including writes made
// in-process by the host binary itself.
type Host struct {
	conn   *nats.Conn
	mem    *store.Memory
	prefix string

	mu     sync.Mutex
	sub    *nats.Subscription
	unhook func()
}

type HostOpt func(*Host)

func WithHostPrefix(prefix string) HostOpt {
	return func(h *Host) { h.prefix = prefix }
}

func NewHost(conn *nats.Conn, mem *store.Memory, opts ...HostOpt) *Host {
	h := &Host{conn: conn, mem: mem, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start subscribes to the request subject and starts announcing tree changes.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sub != nil {
		return nil
	}
	sub, err := h.conn.Subscribe(requestSubject(h.prefix), h.handle)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", requestSubject(h.prefix), err)
	}
	if err := h.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flushing host subscription: %w", err)
	}
	h.sub = sub
	h.unhook = h.mem.OnChange(h.announce)
	log.Printf("[storehost] serving store on %s", requestSubject(h.prefix))
	return nil
}

func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unhook != nil {
		h.unhook()
		h.unhook = nil
	}
	if h.sub != nil {
		_ = h.sub.Unsubscribe()
		h.sub = nil
	}
}

func (h *Host) handle(msg *nats.Msg) {
	var req request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.reply(msg, response{Code: codeBadRequest, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	h.reply(msg, h.apply(req))
}

// apply runs one request against the tree. Change notices come from the
// tree hook, not from here.
func (h *Host) apply(req request) response {
	ctx := context.Background()
	fail := func(err error) response {
		return response{Code: errorCode(err), Error: err.Error()}
	}

	switch req.Op {
	case opGet:
		snap, err := h.mem.Get(ctx, req.Path)
		if err != nil {
			return fail(err)
		}
		return response{Exists: snap.Exists, Value: snap.Value}
	case opSet:
		if err := h.mem.Set(ctx, req.Path, req.Value); err != nil {
			return fail(err)
		}
		return response{}
	case opUpdate:
		if err := h.mem.Update(ctx, req.Path, req.Fields); err != nil {
			return fail(err)
		}
		return response{}
	case opCAS:
		ok, err := h.mem.CompareAndSwap(ctx, req.Path, req.Expect, req.Value)
		if err != nil {
			return fail(err)
		}
		return response{Swapped: ok}
	}
	return response{Code: codeBadRequest, Error: fmt.Sprintf("unknown op %q", req.Op)}
}

func (h *Host) reply(msg *nats.Msg, resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[storehost] encode response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("[storehost] respond: %v", err)
	}
}

func (h *Host) announce(path string) {
	data, err := json.Marshal(notice{Path: store.Join(path)})
	if err != nil {
		return
	}
	if err := h.conn.Publish(watchSubject(h.prefix), data); err != nil {
		log.Printf("[storehost] publish notice for %s: %v", path, err)
	}
}
