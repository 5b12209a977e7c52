package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/triage"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	activeBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	severityStyles = map[alerts.Severity]lipgloss.Style{
		alerts.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		alerts.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		alerts.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		alerts.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.grouped {
		b.WriteString(m.renderGroups())
	} else {
		b.WriteString(m.renderFlat())
	}

	b.WriteString(m.renderNotices())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	counts := m.coord.Counts()
	active := m.coord.Criterion()

	badges := make([]string, 0, len(triage.Criteria()))
	for _, c := range triage.Criteria() {
		label := fmt.Sprintf("%s %d", c, counts.For(c))
		if c == active {
			badges = append(badges, activeBadgeStyle.Render(label))
		} else {
			badges = append(badges, badgeStyle.Render(label))
		}
	}

	line := headerStyle.Render("camdeck") + "  " +
		strings.Join(badges, " ") + "  " +
		dimStyle.Render(fmt.Sprintf("tier:%s total:%d", m.coord.TierFilter(), m.coord.Total()))

	flags := m.coord.Flags()
	switch {
	case flags.IsLoading:
		line += "  " + dimStyle.Render("loading…")
	case flags.IsFetchingMore:
		line += "  " + dimStyle.Render("fetching more…")
	case flags.Err != nil:
		line += "  " + errorStyle.Render(flags.Err.Error())
	}
	return line + "\n"
}

func (m Model) renderFlat() string {
	rows := m.rows()
	if len(rows) == 0 {
		return dimStyle.Render("no alerts match the current filter") + "\n"
	}

	var b strings.Builder
	for i, a := range rows {
		b.WriteString(m.renderRow(a, i))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderGroups() string {
	groups := m.coord.CameraGroups()
	if len(groups) == 0 {
		return dimStyle.Render("no alerts match the current filter") + "\n"
	}

	var b strings.Builder
	i := 0
	for _, g := range groups {
		b.WriteString(groupStyle.Render(fmt.Sprintf("%s (%d, worst %s)", g.CameraName, len(g.Alerts), g.HighestSeverity)))
		b.WriteString("\n")
		for _, a := range g.Alerts {
			b.WriteString(m.renderRow(a, i))
			b.WriteString("\n")
			i++
		}
	}
	return b.String()
}

func (m Model) renderRow(a alerts.Alert, idx int) string {
	marker := "  "
	if m.sel.Has(a.ID) {
		marker = selectedStyle.Render("▪ ")
	}
	pointer := "  "
	if idx == m.cursor {
		pointer = cursorStyle.Render("> ")
	}

	sev := string(a.Severity)
	if style, ok := severityStyles[a.Severity]; ok {
		sev = style.Render(sev)
	}

	state := string(a.Status)
	if a.Snoozed(time.Now()) {
		state = "snoozed"
	}

	return fmt.Sprintf("%s%s%-20s %s %-12s %s  %s",
		pointer, marker,
		sev,
		a.StartedAt.Format("15:04:05"),
		dimStyle.Render(state),
		a.CameraName,
		a.Summary)
}

func (m Model) renderNotices() string {
	notices := m.coord.Notices()
	if len(notices) == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range notices {
		style := dimStyle
		if n.Level == triage.NoticeError {
			style = errorStyle
		}
		b.WriteString(style.Render("! " + n.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	if m.inputActive {
		return "snooze for: " + m.snoozeInput.View() + dimStyle.Render("  enter apply · esc cancel") + "\n"
	}

	parts := []string{
		fmt.Sprintf("%d selected", m.sel.Count()),
		"x/X select", "ctrl+a all", "esc clear",
		"a ack", "d dismiss", "s snooze", "u unsnooze",
		"tab filter", "f tier", "g group", "m more", "r refresh", "o clear notice", "q quit",
	}
	line := dimStyle.Render(strings.Join(parts, " · "))
	if m.status != "" {
		line = errorStyle.Render(m.status) + "\n" + line
	}
	return line + "\n"
}
