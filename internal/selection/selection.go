// Package selection implements a generic multi-select controller over an
// externally supplied, ordered list of visible items.
package selection

// Manager tracks a selection of items identified by a caller-supplied key
// function. The selection is always scoped to the current visible list:
// SetVisible intersects the selection with the new list, so items that
// scroll out of view are dropped, not remembered.
//
// Range selection anchors on the last plainly toggled item. The anchor is
// kept as a key rather than an index so it survives reordering; it resolves
// to an index in the visible list at use time and is dropped when the item
// leaves the visible set.
type Manager[T any] struct {
	key      func(T) string
	visible  []T
	index    map[string]int
	selected map[string]struct{}
	anchor   string
	max      int
}

// NewManager creates a selection manager. max caps the selection size; zero
// means unlimited. Adding beyond the cap silently stops rather than erroring.
func NewManager[T any](key func(T) string, max int) *Manager[T] {
	return &Manager[T]{
		key:      key,
		index:    make(map[string]int),
		selected: make(map[string]struct{}),
		max:      max,
	}
}

// SetVisible replaces the visible list and prunes the selection to the
// intersection with it.
func (m *Manager[T]) SetVisible(items []T) {
	m.visible = items
	m.index = make(map[string]int, len(items))
	for i, item := range items {
		m.index[m.key(item)] = i
	}

	for k := range m.selected {
		if _, ok := m.index[k]; !ok {
			delete(m.selected, k)
		}
	}
	if _, ok := m.index[m.anchor]; !ok {
		m.anchor = ""
	}
}

// Toggle flips the selection state of item. When rangeModifier is set and an
// anchor exists, the contiguous run between the anchor and item (both
// endpoints inclusive) is selected instead, without deselecting anything
// outside the run. A plain toggle moves the anchor to item.
func (m *Manager[T]) Toggle(item T, rangeModifier bool) {
	k := m.key(item)
	i, ok := m.index[k]
	if !ok {
		return
	}

	if rangeModifier && m.anchor != "" {
		if a, ok := m.index[m.anchor]; ok {
			lo, hi := a, i
			if lo > hi {
				lo, hi = hi, lo
			}
			for j := lo; j <= hi; j++ {
				m.add(m.key(m.visible[j]))
			}
			return
		}
	}

	if _, on := m.selected[k]; on {
		delete(m.selected, k)
	} else {
		m.add(k)
	}
	m.anchor = k
}

// SelectAll selects every currently visible item, up to the cap.
func (m *Manager[T]) SelectAll() {
	for _, item := range m.visible {
		m.add(m.key(item))
	}
}

// Clear empties the selection and drops the anchor.
func (m *Manager[T]) Clear() {
	m.selected = make(map[string]struct{})
	m.anchor = ""
}

// Deselect removes the given keys from the selection. Unknown keys are
// ignored.
func (m *Manager[T]) Deselect(keys ...string) {
	for _, k := range keys {
		delete(m.selected, k)
	}
}

// Has reports whether the item with the given key is selected.
func (m *Manager[T]) Has(key string) bool {
	_, ok := m.selected[key]
	return ok
}

// Keys returns the selected keys in visible-list order.
func (m *Manager[T]) Keys() []string {
	out := make([]string, 0, len(m.selected))
	for _, item := range m.visible {
		k := m.key(item)
		if _, ok := m.selected[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Count returns the number of selected items.
func (m *Manager[T]) Count() int {
	return len(m.selected)
}

// AnchorIndex returns the anchor's position in the visible list, or -1 when
// no anchor is set.
func (m *Manager[T]) AnchorIndex() int {
	if m.anchor == "" {
		return -1
	}
	i, ok := m.index[m.anchor]
	if !ok {
		return -1
	}
	return i
}

// add inserts a key, respecting the cap.
func (m *Manager[T]) add(k string) {
	if m.max > 0 && len(m.selected) >= m.max {
		if _, on := m.selected[k]; !on {
			return
		}
	}
	m.selected[k] = struct{}{}
}
