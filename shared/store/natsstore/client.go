package natsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/automoto/twinflame/shared/store"
	"github.com/nats-io/nats.go"
)

// MaxTxnRetries bounds optimistic transaction attempts.
const MaxTxnRetries = 25

// Client implements store.Store over a NATS connection.
type Client struct {
	conn       *nats.Conn
	prefix     string
	timeout    time.Duration
	maxRetries int
}

type ClientOpt func(*Client)

func WithPrefix(prefix string) ClientOpt {
	return func(c *Client) { c.prefix = prefix }
}

// WithTimeout bounds requests whose context carries no deadline.
func WithTimeout(d time.Duration) ClientOpt {
	return func(c *Client) { c.timeout = d }
}

func WithMaxRetries(n int) ClientOpt {
	return func(c *Client) { c.maxRetries = n }
}

func NewClient(conn *nats.Conn, opts ...ClientOpt) *Client {
	c := &Client{
		conn:       conn,
		prefix:     DefaultPrefix,
		timeout:    5 * time.Second,
		maxRetries: MaxTxnRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to url and wraps the connection.
func Dial(url string, opts ...ClientOpt) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("twinflame"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return NewClient(conn, opts...), nil
}

// Close drains and closes the underlying connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}

var _ store.Store = (*Client)(nil)

func (c *Client) do(ctx context.Context, req request) (response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return response{}, fmt.Errorf("encode %s %s: %w", req.Op, req.Path, err)
	}
	msg, err := c.conn.RequestWithContext(ctx, requestSubject(c.prefix), data)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", req.Op, req.Path, err)
	}

	var resp response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return response{}, fmt.Errorf("decode %s %s: %w", req.Op, req.Path, err)
	}
	if resp.Error != "" {
		return response{}, &remoteError{code: resp.Code, msg: resp.Error}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string) (store.Snapshot, error) {
	resp, err := c.do(ctx, request{Op: opGet, Path: path})
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Path: store.Join(path), Exists: resp.Exists, Value: resp.Value}, nil
}

func (c *Client) Set(ctx context.Context, path string, value any) error {
	v, err := store.Normalize(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	_, err = c.do(ctx, request{Op: opSet, Path: path, Value: v})
	return err
}

func (c *Client) Update(ctx context.Context, path string, fields map[string]any) error {
	norm := make(map[string]any, len(fields))
	for k, v := range fields {
		n, err := store.Normalize(v)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", path, k, err)
		}
		norm[k] = n
	}
	_, err := c.do(ctx, request{Op: opUpdate, Path: path, Fields: norm})
	return err
}

func (c *Client) Remove(ctx context.Context, path string) error {
	return c.Set(ctx, path, nil)
}

// Transaction reads, applies fn locally and commits with a compare-and-swap,
// retrying when another writer got there first.
func (c *Client) Transaction(ctx context.Context, path string, fn store.TxnFunc) (any, error) {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		snap, err := c.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		next, err := fn(snap.Value)
		if err != nil {
			return nil, err
		}
		v, err := store.Normalize(next)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", path, err)
		}
		resp, err := c.do(ctx, request{Op: opCAS, Path: path, Expect: snap.Value, Value: v})
		if err != nil {
			return nil, err
		}
		if resp.Swapped {
			return v, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", path, store.ErrConflict)
}

// Subscribe listens for change notices touching path and re-reads the subtree
// for each one.
func (c *Client) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, func(), error) {
	segs, err := store.Split(path)
	if err != nil {
		return nil, nil, err
	}

	wake := make(chan struct{}, 1)
	sub, err := c.conn.Subscribe(watchSubject(c.prefix), func(msg *nats.Msg) {
		var n notice
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			return
		}
		changed, err := store.Split(n.Path)
		if err != nil {
			return
		}
		if store.IsPrefix(segs, changed) || store.IsPrefix(changed, segs) {
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", path, err)
	}
	if err := c.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription for %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan store.Snapshot, 1)
	go c.watch(ctx, store.Join(path), wake, out)

	stop := func() {
		cancel()
		_ = sub.Unsubscribe()
	}
	return out, stop, nil
}

func (c *Client) watch(ctx context.Context, path string, wake <-chan struct{}, out chan store.Snapshot) {
	defer close(out)
	existed := false

	read := func() {
		snap, err := c.Get(ctx, path)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[store] read %s: %v", path, err)
			}
			return
		}
		if snap.Exists {
			existed = true
		} else if existed {
			snap.Deleted = true
		}
		select {
		case <-out:
		default:
		}
		out <- snap
	}

	read()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
			read()
		}
	}
}
