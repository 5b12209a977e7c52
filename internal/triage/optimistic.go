package triage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/transport"
)

// ErrMutationInFlight is returned when a mutation is dispatched for an alert
// that already has one in flight. Mutations against a single alert are
// serialized by rejection: the caller must wait for the first to settle and
// re-observe the resulting version.
var ErrMutationInFlight = errors.New("a mutation is already in flight for this alert")

// ErrUnknownAlert is returned when the target id is not in the collection.
var ErrUnknownAlert = errors.New("alert not present in the collection")

// ActionKind enumerates the operator actions.
type ActionKind string

const (
	ActionAcknowledge ActionKind = "acknowledge"
	ActionDismiss     ActionKind = "dismiss"
	ActionSnooze      ActionKind = "snooze"
	ActionUnsnooze    ActionKind = "unsnooze"
)

// Action is one operator-initiated state transition.
type Action struct {
	Kind      ActionKind
	SnoozeFor time.Duration
}

// Acknowledge transitions an alert to acknowledged.
func Acknowledge() Action { return Action{Kind: ActionAcknowledge} }

// Dismiss transitions an alert to dismissed, removing it from every view.
func Dismiss() Action { return Action{Kind: ActionDismiss} }

// Snooze suppresses an alert from the unread criterion for the duration.
func Snooze(d time.Duration) Action { return Action{Kind: ActionSnooze, SnoozeFor: d} }

// Unsnooze clears a snooze early.
func Unsnooze() Action { return Action{Kind: ActionUnsnooze} }

// pendingMutation is the in-flight record for one dispatched mutation: the
// version observed at dispatch time plus the pre-mutation snapshot used for
// rollback. It is destroyed when the mutation settles.
type pendingMutation struct {
	id              string
	requestID       string
	action          Action
	observedVersion int64
	prevStatus      alerts.Status
	prevSnooze      *time.Time
	settled         func(error)
}

// BatchResult reports the per-item outcome of a batch action.
type BatchResult struct {
	Succeeded []string
	Failed    map[string]error
}

// Dispatch applies the action to the local view immediately, then sends the
// mutation carrying the observed version. On success the server's alert
// replaces the optimistic value; on failure or conflict the pre-dispatch
// snapshot is restored exactly and a notice is raised.
func (c *Coordinator) Dispatch(ctx context.Context, id string, action Action) error {
	return c.dispatch(ctx, id, action, nil)
}

// DispatchBatch fans out one independent mutation per id. Items settle
// independently: a partial failure leaves succeeded items transitioned and
// failed items rolled back. done fires once after all items have settled.
func (c *Coordinator) DispatchBatch(ctx context.Context, ids []string, action Action, done func(BatchResult)) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = BatchResult{Failed: make(map[string]error)}
	)

	record := func(id string, err error) {
		mu.Lock()
		if err != nil {
			res.Failed[id] = err
		} else {
			res.Succeeded = append(res.Succeeded, id)
		}
		mu.Unlock()
		wg.Done()
	}

	for _, id := range ids {
		id := id
		wg.Add(1)
		if err := c.dispatch(ctx, id, action, func(err error) { record(id, err) }); err != nil {
			record(id, err)
		}
	}

	go func() {
		wg.Wait()
		sort.Strings(res.Succeeded)
		if done != nil {
			done(res)
		}
	}()
}

func (c *Coordinator) dispatch(ctx context.Context, id string, action Action, settled func(error)) error {
	c.mu.Lock()
	if _, inflight := c.pending[id]; inflight {
		c.mu.Unlock()
		return ErrMutationInFlight
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrUnknownAlert
	}

	al := c.collection[idx]
	pm := &pendingMutation{
		id:              id,
		requestID:       uuid.New().String(),
		action:          action,
		observedVersion: al.Version,
		prevStatus:      al.Status,
		prevSnooze:      al.SnoozeUntil,
		settled:         settled,
	}

	now := c.now()
	patch := c.applyActionLocked(idx, action, now)
	c.pending[id] = pm
	c.mu.Unlock()
	c.notify()

	c.logger.Debug().
		Str("request_id", pm.requestID).
		Str("alert_id", id).
		Str("action", string(action.Kind)).
		Int64("version", pm.observedVersion).
		Msg("dispatching mutation")

	go func() {
		updated, err := c.client.MutateAlert(ctx, id, patch, pm.observedVersion)
		c.settle(pm, updated, err)
	}()
	return nil
}

// applyActionLocked writes the optimistic state into the collection and
// returns the matching wire patch. Local state and patch are built from the
// same timestamp so a confirmed snooze matches what the operator saw.
func (c *Coordinator) applyActionLocked(idx int, action Action, now time.Time) transport.MutationPatch {
	var patch transport.MutationPatch
	switch action.Kind {
	case ActionAcknowledge:
		status := alerts.StatusAcknowledged
		c.collection[idx].Status = status
		patch.Status = &status
	case ActionDismiss:
		status := alerts.StatusDismissed
		c.collection[idx].Status = status
		patch.Status = &status
	case ActionSnooze:
		until := now.Add(action.SnoozeFor)
		c.collection[idx].SnoozeUntil = &until
		patch.SnoozeUntil = &until
	case ActionUnsnooze:
		c.collection[idx].SnoozeUntil = nil
		patch.ClearSnooze = true
	}
	return patch
}

// settle commits or rolls back one mutation once its response arrives.
// Responses are applied in completion order; each settle touches only its own
// alert, so out-of-order completion across different alerts is safe.
func (c *Coordinator) settle(pm *pendingMutation, updated alerts.Alert, err error) {
	c.mu.Lock()
	if c.pending[pm.id] != pm {
		c.mu.Unlock()
		return
	}
	delete(c.pending, pm.id)

	idx := c.indexLocked(pm.id)
	outcome := journalOutcome(err)
	detail := ""
	version := pm.observedVersion

	if err != nil {
		if idx >= 0 {
			// Restore the rollback snapshot exactly. The optimistic apply
			// never touched the version, so it is already the pre-dispatch
			// value.
			c.collection[idx].Status = pm.prevStatus
			c.collection[idx].SnoozeUntil = pm.prevSnooze
		}
		detail = err.Error()
		c.addNoticeLocked(NoticeError, pm.id, transitionFailureMessage(pm, err))
	} else if idx >= 0 {
		c.collection[idx] = c.normalizeLocked(updated)
		version = updated.Version
	}
	c.mu.Unlock()
	c.notify()

	if c.journal != nil {
		if jerr := c.journal.RecordMutation(pm.id, string(pm.action.Kind), outcome, detail, version); jerr != nil {
			c.logger.Warn().Err(jerr).Str("alert_id", pm.id).Msg("journal write failed")
		}
	}

	if err != nil {
		c.logger.Warn().Err(err).
			Str("request_id", pm.requestID).
			Str("alert_id", pm.id).
			Str("action", string(pm.action.Kind)).
			Msg("mutation rolled back")
	}

	if pm.settled != nil {
		pm.settled(err)
	}
}

// journalOutcome maps a settle error to a journal outcome label.
func journalOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case transport.IsConflict(err):
		return "conflict"
	default:
		return "failed"
	}
}

// transitionFailureMessage builds the operator-facing notice text.
func transitionFailureMessage(pm *pendingMutation, err error) string {
	if transport.IsConflict(err) {
		return "Alert " + pm.id + " was changed by someone else; your " +
			string(pm.action.Kind) + " was not applied. Review the current state and retry."
	}
	return "Could not " + string(pm.action.Kind) + " alert " + pm.id + "; the change was undone. Try again."
}
