package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard event loop and blocks until the operator quits.
// Coordinator change notifications are forwarded into the loop so pushes,
// settled mutations and background fetches all repaint the view.
func Run(model Model) error {
	program := tea.NewProgram(model, tea.WithAltScreen())
	model.coord.SetOnChange(func() {
		program.Send(refreshMsg{})
	})
	_, err := program.Run()
	return err
}
