package testhelpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/transport"
)

// FakeClient is a scriptable transport.Client. Pages are keyed by tier and
// offset; MutateFunc, when set, decides mutation outcomes.
type FakeClient struct {
	mu sync.Mutex

	pages      map[alerts.Severity]map[int]transport.Page
	cameras    []alerts.Camera
	camerasErr error
	fetchErr   map[alerts.Severity]error

	// FetchGate, when non-nil, is received from before every FetchAlerts
	// returns, letting tests hold responses in flight.
	FetchGate chan struct{}

	// MutateFunc decides mutation outcomes. Nil means echo the alert back
	// with the version bumped.
	MutateFunc func(id string, patch transport.MutationPatch, observedVersion int64) (alerts.Alert, error)

	fetchCalls  []FetchCall
	mutateCalls []MutateCall
}

// FetchCall records one FetchAlerts invocation.
type FetchCall struct {
	Tier   alerts.Severity
	Limit  int
	Offset int
}

// MutateCall records one MutateAlert invocation.
type MutateCall struct {
	ID              string
	Patch           transport.MutationPatch
	ObservedVersion int64
}

// NewFakeClient creates an empty fake backend.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		pages:    make(map[alerts.Severity]map[int]transport.Page),
		fetchErr: make(map[alerts.Severity]error),
	}
}

// SetPage scripts the response for one tier query at one offset.
func (f *FakeClient) SetPage(tier alerts.Severity, offset int, page transport.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages[tier] == nil {
		f.pages[tier] = make(map[int]transport.Page)
	}
	f.pages[tier][offset] = page
}

// SetCameras scripts the camera directory response.
func (f *FakeClient) SetCameras(cams ...alerts.Camera) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cameras = cams
}

// SetCamerasError makes FetchCameras fail.
func (f *FakeClient) SetCamerasError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.camerasErr = err
}

// SetFetchError makes FetchAlerts fail for one tier.
func (f *FakeClient) SetFetchError(tier alerts.Severity, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr[tier] = err
}

// FetchAlerts returns the scripted page for the tier and offset.
func (f *FakeClient) FetchAlerts(ctx context.Context, tier alerts.Severity, q transport.PageQuery) (transport.Page, error) {
	f.mu.Lock()
	f.fetchCalls = append(f.fetchCalls, FetchCall{Tier: tier, Limit: q.Limit, Offset: q.Offset})
	gate := f.FetchGate
	err := f.fetchErr[tier]
	page := f.pages[tier][q.Offset]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return transport.Page{}, ctx.Err()
		}
	}
	if err != nil {
		return transport.Page{}, err
	}
	return page, nil
}

// FetchCameras returns the scripted camera directory.
func (f *FakeClient) FetchCameras(ctx context.Context) ([]alerts.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.camerasErr != nil {
		return nil, f.camerasErr
	}
	return f.cameras, nil
}

// MutateAlert applies MutateFunc, or echoes success with a bumped version.
func (f *FakeClient) MutateAlert(ctx context.Context, id string, patch transport.MutationPatch, observedVersion int64) (alerts.Alert, error) {
	f.mu.Lock()
	f.mutateCalls = append(f.mutateCalls, MutateCall{ID: id, Patch: patch, ObservedVersion: observedVersion})
	fn := f.MutateFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(id, patch, observedVersion)
	}

	updated := alerts.Alert{ID: id, Status: alerts.StatusPending, Version: observedVersion + 1}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.SnoozeUntil != nil {
		updated.SnoozeUntil = patch.SnoozeUntil
	}
	return updated, nil
}

// FetchCalls returns a copy of the recorded fetch calls.
func (f *FakeClient) FetchCalls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FetchCall, len(f.fetchCalls))
	copy(out, f.fetchCalls)
	return out
}

// MutateCalls returns a copy of the recorded mutation calls.
func (f *FakeClient) MutateCalls() []MutateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MutateCall, len(f.mutateCalls))
	copy(out, f.mutateCalls)
	return out
}

// Eventually polls cond until it returns true or the timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
