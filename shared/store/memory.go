package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process tree. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	root   map[string]any
	subs   map[int]*subscription
	hooks  map[int]func(path string)
	nextID int
	closed bool
}

type subscription struct {
	segs    []string
	path    string
	ch      chan Snapshot
	mu      sync.Mutex
	existed bool
	done    bool
}

func NewMemory() *Memory {
	return &Memory{
		root:  make(map[string]any),
		subs:  make(map[int]*subscription),
		hooks: make(map[int]func(string)),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, path string) (Snapshot, error) {
	segs, err := Split(path)
	if err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := clone(lookup(m.root, segs))
	return Snapshot{Path: Join(path), Exists: v != nil, Value: v}, nil
}

func (m *Memory) Set(_ context.Context, path string, value any) error {
	segs, err := writableSegs(path)
	if err != nil {
		return err
	}
	v, err := Normalize(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	assign(m.root, segs, v)
	m.notify(segs)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	base, err := Split(path)
	if err != nil {
		return err
	}

	type write struct {
		segs  []string
		value any
	}
	writes := make([]write, 0, len(fields))
	for k, raw := range fields {
		rel, err := Split(k)
		if err != nil {
			return err
		}
		segs := append(append([]string{}, base...), rel...)
		if len(segs) == 0 {
			return fmt.Errorf("%w: update of root", ErrInvalidPath)
		}
		v, err := Normalize(raw)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", path, k, err)
		}
		writes = append(writes, write{segs: segs, value: v})
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	for _, w := range writes {
		assign(m.root, w.segs, w.value)
	}
	m.notify(base)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(ctx context.Context, path string) error {
	return m.Set(ctx, path, nil)
}

// Transaction runs fn under the tree lock, so it never conflicts. fn must not
// call back into the store.
func (m *Memory) Transaction(_ context.Context, path string, fn TxnFunc) (any, error) {
	segs, err := writableSegs(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	next, err := fn(clone(lookup(m.root, segs)))
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	v, err := Normalize(next)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("transaction %s: %w", path, err)
	}
	assign(m.root, segs, v)
	m.notify(segs)
	m.mu.Unlock()
	return clone(v), nil
}

// CompareAndSwap writes next only if the current value equals expected. It
// backs optimistic transactions for remote clients.
func (m *Memory) CompareAndSwap(_ context.Context, path string, expected, next any) (bool, error) {
	segs, err := writableSegs(path)
	if err != nil {
		return false, err
	}
	exp, err := Normalize(expected)
	if err != nil {
		return false, err
	}
	v, err := Normalize(next)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, ErrClosed
	}
	if !sameValue(lookup(m.root, segs), exp) {
		m.mu.Unlock()
		return false, nil
	}
	assign(m.root, segs, v)
	m.notify(segs)
	m.mu.Unlock()
	return true, nil
}

func (m *Memory) Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error) {
	segs, err := Split(path)
	if err != nil {
		return nil, nil, err
	}
	sub := &subscription{
		segs: segs,
		path: Join(path),
		ch:   make(chan Snapshot, 1),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, ErrClosed
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	sub.push(clone(lookup(m.root, segs)))
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return sub.ch, cancel, nil
}

// OnChange registers fn to run after every successful write with the written
// path. fn runs under the tree lock in write order and must not call back
// into the Memory. The returned func unregisters it.
func (m *Memory) OnChange(fn func(path string)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.hooks[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.hooks, id)
		m.mu.Unlock()
	}
}

// Close ends every subscription. Later writes fail with ErrClosed.
func (m *Memory) Close() {
	m.mu.Lock()
	m.closed = true
	subs := m.subs
	m.subs = make(map[int]*subscription)
	m.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// notify pushes a fresh snapshot to every subscription affected by a write
// at segs. Caller holds m.mu so deliveries keep write order.
func (m *Memory) notify(segs []string) {
	if len(m.hooks) > 0 {
		path := Join(segs...)
		for _, fn := range m.hooks {
			fn(path)
		}
	}
	for _, s := range m.subs {
		if IsPrefix(s.segs, segs) || IsPrefix(segs, s.segs) {
			s.push(clone(lookup(m.root, s.segs)))
		}
	}
}

// push replaces any undelivered snapshot with the newest one.
func (s *subscription) push(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	snap := Snapshot{Path: s.path, Exists: v != nil, Value: v}
	if snap.Exists {
		s.existed = true
	} else if s.existed {
		snap.Deleted = true
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.ch)
}

func writableSegs(path string) ([]string, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: write to root", ErrInvalidPath)
	}
	return segs, nil
}
