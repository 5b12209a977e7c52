// Package triage implements the alert triage state engine for the dashboard:
// merging the severity-tiered alert streams into one deduplicated collection,
// deriving the filtered views the operator sees, and applying optimistic,
// version-checked state transitions against the backend.
package triage

import (
	"github.com/camdeck/camdeck/internal/alerts"
)

// Criterion selects which alerts are visible to the operator.
type Criterion string

const (
	CriterionAll      Criterion = "all"
	CriterionCritical Criterion = "critical"
	CriterionHigh     Criterion = "high"
	CriterionMedium   Criterion = "medium"
	CriterionUnread   Criterion = "unread"
)

// Criteria returns the filter criteria in display order.
func Criteria() []Criterion {
	return []Criterion{CriterionAll, CriterionUnread, CriterionCritical, CriterionHigh, CriterionMedium}
}

// TierFilter selects which backend streams are queried. The backend only
// accepts single-tier queries, so TierAll queries once per tier and
// interleaves the results.
type TierFilter string

const (
	TierAll      TierFilter = "all"
	TierCritical TierFilter = "critical"
	TierHigh     TierFilter = "high"
)

// Tiers returns the severity tiers the filter queries.
func (f TierFilter) Tiers() []alerts.Severity {
	switch f {
	case TierCritical:
		return []alerts.Severity{alerts.SeverityCritical}
	case TierHigh:
		return []alerts.Severity{alerts.SeverityHigh}
	default:
		return []alerts.Severity{alerts.SeverityCritical, alerts.SeverityHigh}
	}
}

// Counts holds one badge count per criterion, computed over the
// dismissed-excluded collection independent of the active criterion.
type Counts struct {
	All      int
	Critical int
	High     int
	Medium   int
	Unread   int
}

// For returns the count for a criterion.
func (c Counts) For(criterion Criterion) int {
	switch criterion {
	case CriterionCritical:
		return c.Critical
	case CriterionHigh:
		return c.High
	case CriterionMedium:
		return c.Medium
	case CriterionUnread:
		return c.Unread
	default:
		return c.All
	}
}

// CameraGroup buckets visible alerts by originating camera. Groups are
// derived, recomputed on every collection change and never mutated in place.
type CameraGroup struct {
	CameraID        string
	CameraName      string
	Alerts          []alerts.Alert
	HighestSeverity alerts.Severity
}

// Flags is the query status surface exposed to the rendering layer.
type Flags struct {
	IsLoading      bool
	IsFetchingMore bool
	Err            error
}

// JournalRecorder records settled mutations for the local audit trail.
// Implementations must be safe for concurrent use.
type JournalRecorder interface {
	RecordMutation(alertID, action, outcome, detail string, version int64) error
}
