// Package store defines the shared key-value tree both clients coordinate
// through, and an in-memory implementation of it.
//
// Values are JSON-shaped: map[string]any, []any, float64, string, bool. A nil
// value means the path does not exist. Empty maps are pruned on write, so a
// node whose last child is removed disappears too.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrConflict    = errors.New("transaction conflict")
	ErrClosed      = errors.New("store closed")
)

// Snapshot is the state of a subtree at one moment.
type Snapshot struct {
	Path   string
	Exists bool
	// Deleted is set on a subscription snapshot when the path existed in an
	// earlier delivery and no longer does. It tells "removed" apart from
	// "never written".
	Deleted bool
	Value   any
}

// Decode unmarshals the snapshot value into v. A missing value leaves v as is.
func (s Snapshot) Decode(v any) error {
	if !s.Exists {
		return nil
	}
	data, err := json.Marshal(s.Value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// Children returns the immediate child snapshots of a map value.
func (s Snapshot) Children() map[string]Snapshot {
	m, ok := s.Value.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]Snapshot, len(m))
	for k, v := range m {
		out[k] = Snapshot{Path: Join(s.Path, k), Exists: v != nil, Value: v}
	}
	return out
}

// TxnFunc computes a new value from the current one. Returning an error
// aborts the transaction without writing.
type TxnFunc func(current any) (any, error)

// Store is the contract the game needs from the shared database.
type Store interface {
	// Get reads a subtree once.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set overwrites a subtree. A nil value deletes it.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields under path. Keys may be relative sub-paths and a
	// nil value deletes that field.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Remove deletes a subtree.
	Remove(ctx context.Context, path string) error
	// Transaction atomically replaces the value at path with fn(current),
	// retrying on concurrent modification. It returns the committed value.
	Transaction(ctx context.Context, path string, fn TxnFunc) (any, error)
	// Subscribe delivers the subtree at path now and after every change to
	// it. Deliveries are latest-wins: a slow reader sees the newest state,
	// not every intermediate one. The channel closes when ctx ends or the
	// returned cancel func is called.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error)
}

// Increment atomically adds delta to the number at path. A missing or
// non-numeric value counts as zero.
func Increment(ctx context.Context, s Store, path string, delta int64) (int64, error) {
	v, err := s.Transaction(ctx, path, func(current any) (any, error) {
		return AsInt64(current) + delta, nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", path, err)
	}
	return AsInt64(v), nil
}

// AsInt64 converts a JSON-shaped number to int64. Anything else is zero.
func AsInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

// Normalize converts any JSON-encodable value into its JSON-shaped form.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return prune(out), nil
}
