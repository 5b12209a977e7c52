package triage

import (
	"sort"
	"time"

	"github.com/camdeck/camdeck/internal/alerts"
)

// The derivation layer is pure: every function here is a deterministic
// function of its inputs with no hidden state and no I/O.

// matches applies the dismissed-exclusion rule and the criterion. Dismissed
// alerts are excluded under every criterion.
func matches(a alerts.Alert, criterion Criterion, now time.Time) bool {
	if a.Status == alerts.StatusDismissed {
		return false
	}
	switch criterion {
	case CriterionCritical:
		return a.Severity == alerts.SeverityCritical
	case CriterionHigh:
		return a.Severity == alerts.SeverityHigh
	case CriterionMedium:
		return a.Severity == alerts.SeverityMedium
	case CriterionUnread:
		return a.Status != alerts.StatusAcknowledged && !a.Snoozed(now)
	default:
		return true
	}
}

// FilteredAlerts returns the subset of the collection visible under the
// criterion, preserving collection order.
func FilteredAlerts(collection []alerts.Alert, criterion Criterion, now time.Time) []alerts.Alert {
	out := make([]alerts.Alert, 0, len(collection))
	for _, a := range collection {
		if matches(a, criterion, now) {
			out = append(out, a)
		}
	}
	return out
}

// DeriveCounts computes the badge count for every criterion in one pass, so
// switching filters never requires a refetch.
func DeriveCounts(collection []alerts.Alert, now time.Time) Counts {
	var c Counts
	for _, a := range collection {
		if a.Status == alerts.StatusDismissed {
			continue
		}
		c.All++
		switch a.Severity {
		case alerts.SeverityCritical:
			c.Critical++
		case alerts.SeverityHigh:
			c.High++
		case alerts.SeverityMedium:
			c.Medium++
		}
		if a.Status != alerts.StatusAcknowledged && !a.Snoozed(now) {
			c.Unread++
		}
	}
	return c
}

// GroupByCamera buckets the visible alerts by camera. Each group's
// HighestSeverity is the most severe member, and groups are ordered worst
// first; ties break by camera name for determinism. Member order follows the
// input order.
func GroupByCamera(visible []alerts.Alert) []CameraGroup {
	byCamera := make(map[string]*CameraGroup)
	order := make([]string, 0)

	for _, a := range visible {
		g, ok := byCamera[a.CameraID]
		if !ok {
			g = &CameraGroup{
				CameraID:        a.CameraID,
				CameraName:      a.CameraName,
				HighestSeverity: a.Severity,
			}
			byCamera[a.CameraID] = g
			order = append(order, a.CameraID)
		}
		g.Alerts = append(g.Alerts, a)
		if a.Severity.Rank() < g.HighestSeverity.Rank() {
			g.HighestSeverity = a.Severity
		}
	}

	groups := make([]CameraGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byCamera[id])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := groups[i].HighestSeverity.Rank(), groups[j].HighestSeverity.Rank()
		if ri != rj {
			return ri < rj
		}
		return groups[i].CameraName < groups[j].CameraName
	})
	return groups
}
