// Package testhelpers provides reusable testing utilities:
// - Data builders for alerts and cameras
// - A fake backend client with scriptable responses
// - Polling assertion helpers for asynchronous state
package testhelpers

import (
	"time"

	"github.com/camdeck/camdeck/internal/alerts"
)

// baseTime anchors builder timestamps so tests are deterministic.
var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// AlertBuilder builds Alert values for testing.
type AlertBuilder struct {
	alert alerts.Alert
}

// NewAlertBuilder creates a builder with sensible defaults.
func NewAlertBuilder(id string) *AlertBuilder {
	return &AlertBuilder{
		alert: alerts.Alert{
			ID:         id,
			EventID:    "evt-" + id,
			CameraID:   "cam-1",
			CameraName: "Front Entrance",
			Severity:   alerts.SeverityHigh,
			Status:     alerts.StatusPending,
			RiskScore:  60,
			Summary:    "Motion detected",
			StartedAt:  baseTime,
			Version:    1,
		},
	}
}

// OnCamera sets the camera id and name.
func (b *AlertBuilder) OnCamera(id, name string) *AlertBuilder {
	b.alert.CameraID = id
	b.alert.CameraName = name
	return b
}

// WithoutCameraName clears the denormalized camera name.
func (b *AlertBuilder) WithoutCameraName() *AlertBuilder {
	b.alert.CameraName = ""
	return b
}

// WithSeverity sets the explicit severity label.
func (b *AlertBuilder) WithSeverity(s alerts.Severity) *AlertBuilder {
	b.alert.Severity = s
	return b
}

// WithRiskScore sets the risk score and clears the explicit label so the
// classifier decides.
func (b *AlertBuilder) WithRiskScore(score float64) *AlertBuilder {
	b.alert.RiskScore = score
	b.alert.Severity = ""
	return b
}

// WithStatus sets the lifecycle status.
func (b *AlertBuilder) WithStatus(s alerts.Status) *AlertBuilder {
	b.alert.Status = s
	return b
}

// WithVersion sets the optimistic-lock token.
func (b *AlertBuilder) WithVersion(v int64) *AlertBuilder {
	b.alert.Version = v
	return b
}

// StartedAt sets the start timestamp.
func (b *AlertBuilder) StartedAt(t time.Time) *AlertBuilder {
	b.alert.StartedAt = t
	return b
}

// StartedOffset shifts the start timestamp from the base time.
func (b *AlertBuilder) StartedOffset(d time.Duration) *AlertBuilder {
	b.alert.StartedAt = baseTime.Add(d)
	return b
}

// SnoozedUntil sets the snooze deadline.
func (b *AlertBuilder) SnoozedUntil(t time.Time) *AlertBuilder {
	b.alert.SnoozeUntil = &t
	return b
}

// Build returns the constructed alert.
func (b *AlertBuilder) Build() alerts.Alert {
	return b.alert
}

// BaseTime returns the timestamp anchor the builders use.
func BaseTime() time.Time {
	return baseTime
}

// NewCamera builds a camera directory entry.
func NewCamera(id, name string) alerts.Camera {
	return alerts.Camera{ID: id, Name: name, Online: true}
}
