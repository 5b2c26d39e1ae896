package course

// The tree mutators below implement the immutable-update discipline shared by
// the Module/Category/Material operations: they always return fresh slices and
// leave the input untouched, so a previously rendered (possibly pruned) tree
// stays stable while a new one is persisted.

type node interface {
	nodeID() string
}

func (m Module) nodeID() string   { return m.ID }
func (c Category) nodeID() string { return c.ID }
func (m Material) nodeID() string { return m.ID }

// appendNode returns a new slice with n appended; the input slice is not grown in place.
func appendNode[T node](items []T, n T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, n)
}

// replaceByID maps the item with the given id through fn.
// The second return is false when no item matched.
func replaceByID[T node](items []T, id string, fn func(T) T) ([]T, bool) {
	out := make([]T, len(items))
	var found bool
	for i, item := range items {
		if item.nodeID() == id {
			item = fn(item)
			found = true
		}
		out[i] = item
	}
	return out, found
}

// removeByID drops the item with the given id.
// The second return is false when no item matched.
func removeByID[T node](items []T, id string) ([]T, bool) {
	out := make([]T, 0, len(items))
	var found bool
	for _, item := range items {
		if item.nodeID() == id {
			found = true
			continue
		}
		out = append(out, item)
	}
	return out, found
}
