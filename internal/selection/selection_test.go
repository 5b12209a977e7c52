package selection

import (
	"reflect"
	"testing"
)

type row struct {
	ID string
}

func rowKey(r row) string { return r.ID }

func rows(ids ...string) []row {
	out := make([]row, len(ids))
	for i, id := range ids {
		out[i] = row{ID: id}
	}
	return out
}

func TestToggle(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c"))

	m.Toggle(row{ID: "b"}, false)
	if !m.Has("b") || m.Count() != 1 {
		t.Fatalf("expected only b selected, got %v", m.Keys())
	}

	m.Toggle(row{ID: "b"}, false)
	if m.Count() != 0 {
		t.Fatalf("expected empty selection after second toggle, got %v", m.Keys())
	}

	// toggling an item outside the visible list is a no-op
	m.Toggle(row{ID: "zz"}, false)
	if m.Count() != 0 {
		t.Errorf("hidden item toggled into selection")
	}
}

func TestRangeSelection(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c", "d", "e"))

	m.Toggle(row{ID: "b"}, false) // anchor at b
	m.Toggle(row{ID: "d"}, true)  // range b..d

	want := []string{"b", "c", "d"}
	if got := m.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("range selection = %v; want %v", got, want)
	}

	// range select upward keeps prior selection outside the run
	m.Toggle(row{ID: "a"}, true)
	want = []string{"a", "b", "c", "d"}
	if got := m.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("upward range = %v; want %v", got, want)
	}

	if m.AnchorIndex() != 1 {
		t.Errorf("anchor moved during range select: index %d", m.AnchorIndex())
	}
}

func TestRangeWithoutAnchorFallsBackToToggle(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c"))

	m.Toggle(row{ID: "c"}, true)
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected plain toggle without anchor, got %v", got)
	}
}

func TestSetVisiblePrunesToIntersection(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c"))
	m.Toggle(row{ID: "a"}, false)
	m.Toggle(row{ID: "b"}, false)

	// filter change: only a and c remain visible
	m.SetVisible(rows("a", "c"))

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected selection pruned to {a}, got %v", got)
	}
	if m.AnchorIndex() != -1 {
		t.Errorf("anchor should be dropped when its item leaves the visible set")
	}
}

func TestSelectAllAndClear(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c"))

	m.SelectAll()
	if m.Count() != 3 {
		t.Fatalf("select all picked %d items", m.Count())
	}

	m.Clear()
	if m.Count() != 0 || m.AnchorIndex() != -1 {
		t.Fatalf("clear left state behind: %v", m.Keys())
	}
}

func TestSelectionCap(t *testing.T) {
	m := NewManager(rowKey, 2)
	m.SetVisible(rows("a", "b", "c", "d"))

	m.SelectAll()
	if m.Count() != 2 {
		t.Fatalf("cap not enforced: %d selected", m.Count())
	}

	// adding beyond the cap is silent, deselect still works
	m.Toggle(row{ID: "d"}, false)
	if m.Has("d") {
		t.Errorf("toggle exceeded cap")
	}
	m.Toggle(row{ID: "a"}, false)
	if m.Count() != 1 {
		t.Errorf("deselect under cap failed: %v", m.Keys())
	}
}

func TestDeselect(t *testing.T) {
	m := NewManager(rowKey, 0)
	m.SetVisible(rows("a", "b", "c"))
	m.SelectAll()

	m.Deselect("a", "c", "nope")
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("deselect = %v; want [b]", got)
	}
}
