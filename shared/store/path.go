package store

import (
	"fmt"
	"strings"
)

// Top-level collections.
const (
	UsersRoot   = "users"
	ServersRoot = "servers"
)

// Join concatenates path segments, ignoring empty ones.
func Join(parts ...string) string {
	var segs []string
	for _, p := range parts {
		for _, s := range strings.Split(p, "/") {
			if s != "" {
				segs = append(segs, s)
			}
		}
	}
	return strings.Join(segs, "/")
}

// Split returns the segments of a path. The root path has none.
func Split(path string) ([]string, error) {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		if strings.ContainsAny(s, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// IsPrefix reports whether a is b or an ancestor of b.
func IsPrefix(a, b []string) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func UserPath(uid string) string         { return Join(UsersRoot, uid) }
func ServerPath(id string) string        { return Join(ServersRoot, id) }
func PositionsPath(id string) string     { return Join(ServersRoot, id, "positions") }
func PositionPath(id, uid string) string { return Join(ServersRoot, id, "positions", uid) }
