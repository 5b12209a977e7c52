package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/testhelpers"
	"github.com/camdeck/camdeck/internal/transport"
	"github.com/camdeck/camdeck/internal/triage"
)

const waitFor = 2 * time.Second

func newTestModel(t *testing.T) (Model, *testhelpers.FakeClient) {
	t.Helper()

	client := testhelpers.NewFakeClient()
	client.SetPage(alerts.SeverityCritical, 0, transport.Page{
		Items: []alerts.Alert{
			testhelpers.NewAlertBuilder("c1").WithSeverity(alerts.SeverityCritical).StartedOffset(-time.Minute).Build(),
		},
		Total: 1,
	})
	client.SetPage(alerts.SeverityHigh, 0, transport.Page{
		Items: []alerts.Alert{
			testhelpers.NewAlertBuilder("h1").WithSeverity(alerts.SeverityHigh).StartedOffset(-2 * time.Minute).Build(),
			testhelpers.NewAlertBuilder("h2").WithSeverity(alerts.SeverityHigh).StartedOffset(-3 * time.Minute).Build(),
		},
		Total: 2,
	})

	coord := triage.NewCoordinator(client, triage.Options{
		Logger: zerolog.Nop(),
		Now:    testhelpers.BaseTime,
	})
	coord.Start(context.Background())
	testhelpers.Eventually(t, waitFor, func() bool {
		f := coord.Flags()
		return !f.IsLoading && len(coord.VisibleAlerts()) == 3
	}, "initial load")

	m := NewModel(coord, 500)
	m.syncVisible()
	return m, client
}

func press(m Model, key tea.KeyMsg) Model {
	updated, _ := m.Update(key)
	return updated.(Model)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSelectAllChord(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.sel.Count(); got != 3 {
		t.Errorf("selected %d after ctrl+a; want 3", got)
	}
}

func TestSelectAllChordSuspendedWhileTyping(t *testing.T) {
	m, _ := newTestModel(t)

	// "s" opens the snooze prompt for the alert under the cursor.
	m = press(m, keyRune('s'))
	if !m.inputActive {
		t.Fatal("snooze prompt did not open")
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.sel.Count(); got != 0 {
		t.Errorf("ctrl+a selected %d alerts while the prompt was focused; want 0", got)
	}
}

func TestEscClearsUnconditionally(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	m = press(m, keyRune('s'))
	if !m.inputActive {
		t.Fatal("snooze prompt did not open")
	}

	// Esc clears the selection even with the prompt focused, and closes it.
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.sel.Count(); got != 0 {
		t.Errorf("selection has %d after esc; want 0", got)
	}
	if m.inputActive {
		t.Error("snooze prompt still open after esc")
	}
}

func TestToggleAndRangeSelect(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, keyRune('x')) // row 0
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, keyRune('X')) // range to row 2

	if got := m.sel.Count(); got != 3 {
		t.Errorf("selected %d after range toggle; want 3", got)
	}

	m = press(m, keyRune('x')) // plain toggle deselects the cursor row
	if got := m.sel.Count(); got != 2 {
		t.Errorf("selected %d after deselect; want 2", got)
	}
}

func TestCriterionCyclePrunesSelection(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if m.sel.Count() != 3 {
		t.Fatalf("selected %d; want 3", m.sel.Count())
	}

	// all -> unread keeps everything (all three are pending), then
	// unread -> critical narrows the visible set to c1.
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})

	if got := m.coord.Criterion(); got != triage.CriterionCritical {
		t.Fatalf("criterion = %s; want critical", got)
	}
	if got := m.sel.Count(); got != 1 {
		t.Errorf("selection has %d after narrowing; want 1", got)
	}
	if !m.sel.Has("c1") {
		t.Error("surviving selection should be c1")
	}
}

func TestDismissBatchDeselectsSucceeded(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA})

	updated, cmd := m.Update(keyRune('d'))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("dismiss produced no command")
	}

	msg := cmd() // blocks until every item settles
	done, ok := msg.(batchDoneMsg)
	if !ok {
		t.Fatalf("command returned %T; want batchDoneMsg", msg)
	}
	if len(done.result.Succeeded) != 3 || len(done.result.Failed) != 0 {
		t.Fatalf("batch result = %+v", done.result)
	}

	updated, _ = m.Update(done)
	m = updated.(Model)

	if got := m.sel.Count(); got != 0 {
		t.Errorf("selection has %d after batch settle; want 0", got)
	}
	if got := len(m.coord.VisibleAlerts()); got != 0 {
		t.Errorf("%d alerts still visible after dismissal; want 0", got)
	}
}

func TestActionFallsBackToCursorRow(t *testing.T) {
	m, client := newTestModel(t)

	updated, cmd := m.Update(keyRune('a'))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("acknowledge produced no command")
	}
	if _, ok := cmd().(batchDoneMsg); !ok {
		t.Fatal("acknowledge command did not settle")
	}

	calls := client.MutateCalls()
	if len(calls) != 1 {
		t.Fatalf("%d mutations recorded; want 1", len(calls))
	}
	if calls[0].ID != "c1" {
		t.Errorf("mutated %s; want the cursor row c1", calls[0].ID)
	}
}
