// Package jobs contains background tickers supporting the triage views.
package jobs

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/camdeck/camdeck/internal/triage"
)

// SnoozeMonitor periodically wakes alerts whose snooze has elapsed so they
// return to the unread views without waiting for the next refetch.
type SnoozeMonitor struct {
	coord  *triage.Coordinator
	logger zerolog.Logger
	now    func() time.Time
}

// NewSnoozeMonitor creates a monitor over the coordinator.
func NewSnoozeMonitor(coord *triage.Coordinator, logger zerolog.Logger) *SnoozeMonitor {
	return &SnoozeMonitor{
		coord:  coord,
		logger: logger.With().Str("component", "snooze_monitor").Logger(),
		now:    time.Now,
	}
}

// CheckAndWake clears elapsed snoozes, returning how many alerts woke.
func (m *SnoozeMonitor) CheckAndWake() int {
	woken := m.coord.WakeExpiredSnoozes(m.now())
	if woken > 0 {
		m.logger.Debug().Int("woken", woken).Msg("snoozes elapsed")
	}
	return woken
}

// Start begins the periodic check. It blocks until stop is closed.
func (m *SnoozeMonitor) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckAndWake()
		case <-stop:
			m.logger.Debug().Msg("snooze monitor stopped")
			return
		}
	}
}
