package alerts

import "time"

// UnknownCameraName is used when the camera lookup cannot resolve a camera ID.
const UnknownCameraName = "Unknown Camera"

// Severity represents normalized alert severity levels
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort rank for a severity. Lower rank means more severe.
// Unrecognized severities rank last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Status represents the alert lifecycle state
type Status string

const (
	StatusPending      Status = "pending"
	StatusDelivered    Status = "delivered"
	StatusAcknowledged Status = "acknowledged"
	StatusDismissed    Status = "dismissed"
)

// Alert is the unit of triage: one risk event raised against a camera.
type Alert struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	CameraID   string     `json:"camera_id"`
	CameraName string     `json:"camera_name"`
	Severity   Severity   `json:"severity,omitempty"`
	Status     Status     `json:"status"`
	RiskScore  float64    `json:"risk_score"`
	Summary    string     `json:"summary"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	// Version is the optimistic-lock token supplied by the backend. It is
	// opaque to the client except for equality and must be echoed back on
	// every mutating request.
	Version int64 `json:"version"`

	// SnoozeUntil suppresses the alert from the unread criterion while it is
	// in the future.
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

// Snoozed reports whether the alert is under a live snooze at the given time.
func (a Alert) Snoozed(now time.Time) bool {
	return a.SnoozeUntil != nil && a.SnoozeUntil.After(now)
}

// Camera represents a monitored camera as returned by the camera directory.
type Camera struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Model    string `json:"model,omitempty"`
	Online   bool   `json:"online"`
}
