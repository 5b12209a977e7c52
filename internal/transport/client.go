// Package transport defines the interfaces to the monitoring backend and
// provides the HTTP and WebSocket implementations used by the dashboard.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camdeck/camdeck/internal/alerts"
)

// PageQuery selects one page of a tier query.
type PageQuery struct {
	Limit  int
	Offset int
}

// Page is one page of alerts for a single tier, with the server-reported
// total for that tier.
type Page struct {
	Items   []alerts.Alert `json:"items"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

// MutationPatch describes the state change requested for an alert. Nil fields
// are left untouched; ClearSnooze explicitly removes the snooze.
type MutationPatch struct {
	Status      *alerts.Status
	SnoozeUntil *time.Time
	ClearSnooze bool
}

// Client is the backend interface consumed by the triage coordinator. The
// backend only accepts single-tier alert queries, so callers that want a
// combined view issue one FetchAlerts call per tier.
type Client interface {
	// FetchAlerts returns one page of alerts for a single severity tier.
	FetchAlerts(ctx context.Context, tier alerts.Severity, q PageQuery) (Page, error)

	// FetchCameras returns the camera directory used to resolve camera names.
	FetchCameras(ctx context.Context) ([]alerts.Camera, error)

	// MutateAlert applies a state change to one alert. The observed version
	// must match the backend's current version or the call fails with
	// *ConflictError.
	MutateAlert(ctx context.Context, id string, patch MutationPatch, observedVersion int64) (alerts.Alert, error)
}

// Envelope is a push channel message.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Push envelope types relevant to the alert collection.
const (
	EnvelopeAlertCreated = "alert_created"
	EnvelopeAlertUpdated = "alert_updated"
)

// AlertRelevant reports whether the envelope should be folded into the alert
// collection.
func (e Envelope) AlertRelevant() bool {
	return e.Type == EnvelopeAlertCreated || e.Type == EnvelopeAlertUpdated
}
