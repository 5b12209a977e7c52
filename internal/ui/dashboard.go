// Package ui renders the alert triage dashboard as a terminal interface.
// The model is a thin view over the triage coordinator: all alert state
// lives in the coordinator and the selection manager, and the model only
// tracks presentation concerns such as the cursor and the snooze prompt.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/selection"
	"github.com/camdeck/camdeck/internal/triage"
)

// refreshMsg signals that the coordinator state changed and the view must
// re-derive its rows.
type refreshMsg struct{}

// batchDoneMsg carries the settled outcome of a batch action.
type batchDoneMsg struct {
	result triage.BatchResult
}

// Model is the bubbletea model for the triage dashboard.
type Model struct {
	coord *triage.Coordinator
	sel   *selection.Manager[alerts.Alert]

	cursor  int
	grouped bool

	snoozeInput textinput.Model
	inputActive bool

	width  int
	height int

	status   string
	quitting bool
}

// NewModel creates a dashboard model over an already-started coordinator.
func NewModel(coord *triage.Coordinator, maxSelection int) Model {
	input := textinput.New()
	input.Placeholder = "snooze minutes"
	input.CharLimit = 5
	input.Width = 16

	return Model{
		coord:       coord,
		sel:         selection.NewManager(func(a alerts.Alert) string { return a.ID }, maxSelection),
		snoozeInput: input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.syncVisible()
		return m, nil

	case batchDoneMsg:
		// Only items the server confirmed leave the selection; failed
		// items stay selected so the operator can retry them.
		m.sel.Deselect(msg.result.Succeeded...)
		if len(msg.result.Failed) > 0 {
			m.status = fmt.Sprintf("%d of %d actions failed",
				len(msg.result.Failed), len(msg.result.Failed)+len(msg.result.Succeeded))
		} else {
			m.status = ""
		}
		m.syncVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Esc always clears the selection, focused input or not.
	if key == "esc" {
		m.sel.Clear()
		if m.inputActive {
			m.closeSnoozeInput()
		}
		return m, nil
	}

	if m.inputActive {
		return m.handleSnoozeInput(msg)
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}

	case "ctrl+a":
		m.sel.SelectAll()

	case "x", " ":
		if a, ok := m.cursorAlert(); ok {
			m.sel.Toggle(a, false)
		}

	case "X":
		if a, ok := m.cursorAlert(); ok {
			m.sel.Toggle(a, true)
		}

	case "tab":
		m.cycleCriterion()

	case "f":
		m.coord.SetTierFilter(context.Background(), nextTierFilter(m.coord.TierFilter()))

	case "g":
		m.grouped = !m.grouped
		m.cursor = 0

	case "r":
		m.coord.Refresh(context.Background())

	case "m":
		if m.coord.HasMore() {
			m.coord.LoadMore(context.Background())
		}

	case "a":
		return m, m.actOnTargets(triage.Acknowledge())

	case "d":
		return m, m.actOnTargets(triage.Dismiss())

	case "u":
		return m, m.actOnTargets(triage.Unsnooze())

	case "s":
		if len(m.targets()) > 0 {
			m.inputActive = true
			m.snoozeInput.SetValue("")
			return m, m.snoozeInput.Focus()
		}

	case "o":
		if notices := m.coord.Notices(); len(notices) > 0 {
			m.coord.DismissNotice(notices[0].ID)
		}
	}

	return m, nil
}

// handleSnoozeInput routes keys to the snooze prompt while it is focused.
// The global select-all chord is suspended here so the operator can type.
func (m Model) handleSnoozeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		minutes, err := strconv.Atoi(strings.TrimSpace(m.snoozeInput.Value()))
		m.closeSnoozeInput()
		if err != nil || minutes <= 0 {
			m.status = "snooze duration must be a positive number of minutes"
			return m, nil
		}
		return m, m.actOnTargets(triage.Snooze(time.Duration(minutes) * time.Minute))
	}

	var cmd tea.Cmd
	m.snoozeInput, cmd = m.snoozeInput.Update(msg)
	return m, cmd
}

func (m *Model) closeSnoozeInput() {
	m.inputActive = false
	m.snoozeInput.Blur()
}

// targets returns the alert ids an action applies to: the selection when
// non-empty, otherwise the alert under the cursor.
func (m *Model) targets() []string {
	if keys := m.sel.Keys(); len(keys) > 0 {
		return keys
	}
	if a, ok := m.cursorAlert(); ok {
		return []string{a.ID}
	}
	return nil
}

// actOnTargets dispatches the action as a batch and waits for every item to
// settle before reporting back into the event loop.
func (m *Model) actOnTargets(action triage.Action) tea.Cmd {
	ids := m.targets()
	if len(ids) == 0 {
		return nil
	}
	coord := m.coord
	return func() tea.Msg {
		done := make(chan triage.BatchResult, 1)
		coord.DispatchBatch(context.Background(), ids, action, func(res triage.BatchResult) {
			done <- res
		})
		return batchDoneMsg{result: <-done}
	}
}

// syncVisible re-reads the coordinator's visible set, prunes the selection
// against it and clamps the cursor.
func (m *Model) syncVisible() {
	m.sel.SetVisible(m.coord.VisibleAlerts())
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// rows returns the alerts in display order: the flat visible list, or the
// group buckets flattened in group order.
func (m *Model) rows() []alerts.Alert {
	if !m.grouped {
		return m.coord.VisibleAlerts()
	}
	var out []alerts.Alert
	for _, g := range m.coord.CameraGroups() {
		out = append(out, g.Alerts...)
	}
	return out
}

func (m *Model) cursorAlert() (alerts.Alert, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return alerts.Alert{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) cycleCriterion() {
	order := triage.Criteria()
	current := m.coord.Criterion()
	for i, c := range order {
		if c == current {
			m.coord.SetCriterion(order[(i+1)%len(order)])
			break
		}
	}
	m.cursor = 0
	m.syncVisible()
}

func nextTierFilter(f triage.TierFilter) triage.TierFilter {
	switch f {
	case triage.TierAll:
		return triage.TierCritical
	case triage.TierCritical:
		return triage.TierHigh
	default:
		return triage.TierAll
	}
}
