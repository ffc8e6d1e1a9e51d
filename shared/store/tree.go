package store

import "reflect"

// lookup returns the value at segs, or nil.
func lookup(root map[string]any, segs []string) any {
	var cur any = root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[s]
	}
	if m, ok := cur.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	return cur
}

// assign writes value at segs, creating intermediate maps and pruning empty
// ones. segs must not be empty.
func assign(root map[string]any, segs []string, value any) {
	if len(segs) == 1 {
		if value == nil {
			delete(root, segs[0])
		} else {
			root[segs[0]] = value
		}
		return
	}
	child, ok := root[segs[0]].(map[string]any)
	if !ok {
		if value == nil {
			return
		}
		child = make(map[string]any)
		root[segs[0]] = child
	}
	assign(child, segs[1:], value)
	if len(child) == 0 {
		delete(root, segs[0])
	}
}

// prune drops nil entries and empty maps from a normalized value.
func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			c := prune(child)
			if c == nil {
				delete(t, k)
			} else {
				t[k] = c
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		for i := range t {
			t[i] = prune(t[i])
		}
	}
	return v
}

// clone deep-copies a JSON-shaped value so readers never alias the tree.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = clone(child)
		}
		return out
	}
	return v
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
