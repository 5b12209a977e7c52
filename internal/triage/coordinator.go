package triage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdeck/camdeck/internal/alerts"
	"github.com/camdeck/camdeck/internal/transport"
)

const defaultPageSize = 50

// Options configures a Coordinator.
type Options struct {
	// Thresholds for the severity classifier. Zero value means defaults.
	Thresholds alerts.Thresholds

	// PageSize per tier query. Zero means 50.
	PageSize int

	Logger zerolog.Logger

	// Journal records settled mutations. May be nil.
	Journal JournalRecorder

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// tierState tracks pagination for one backing tier query.
type tierState struct {
	offset  int
	total   int
	hasMore bool
	loaded  bool
}

// Coordinator owns the canonical alert collection. It merges the per-tier
// paginated streams, deduplicates by id, keeps the collection sorted, and is
// the only component that writes to it: reads go through derived views, and
// writes flow through the optimistic transition methods in optimistic.go.
type Coordinator struct {
	client     transport.Client
	thresholds alerts.Thresholds
	pageSize   int
	logger     zerolog.Logger
	journal    JournalRecorder
	now        func() time.Time

	mu          sync.Mutex
	filter      TierFilter
	criterion   Criterion
	generation  uint64
	fetchCtx    context.Context
	cancelFetch context.CancelFunc
	outstanding int

	cameras    map[string]string
	collection []alerts.Alert
	tiers      map[alerts.Severity]*tierState

	loading      bool
	fetchingMore bool
	queryErr     error

	pending map[string]*pendingMutation
	notices []Notice

	onChange func()
}

// NewCoordinator creates a coordinator over the given backend client.
func NewCoordinator(client transport.Client, opts Options) *Coordinator {
	th := opts.Thresholds
	if th == (alerts.Thresholds{}) {
		th = alerts.DefaultThresholds()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		client:     client,
		thresholds: th,
		pageSize:   pageSize,
		logger:     opts.Logger.With().Str("component", "triage").Logger(),
		journal:    opts.Journal,
		now:        now,
		filter:     TierAll,
		criterion:  CriterionAll,
		cameras:    make(map[string]string),
		tiers:      make(map[alerts.Severity]*tierState),
		pending:    make(map[string]*pendingMutation),
	}
}

// SetOnChange registers the callback fired after every state change. Safe to
// call while fetches are already in flight.
func (c *Coordinator) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// notify fires the change callback. Never call while holding the lock.
func (c *Coordinator) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Start loads the camera directory in the background and issues the initial
// queries.
func (c *Coordinator) Start(ctx context.Context) {
	go c.loadCameras(ctx)
	c.Refresh(ctx)
}

// Refresh resets pagination and refetches every tier of the active filter.
// Any fetch still in flight for the previous state is superseded: its
// response will carry a stale generation and be discarded.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	gen, fctx := c.beginGenerationLocked(ctx)
	tiers := c.filter.Tiers()
	c.collection = nil
	c.queryErr = nil
	c.tiers = make(map[alerts.Severity]*tierState, len(tiers))
	for _, tier := range tiers {
		c.tiers[tier] = &tierState{}
	}
	c.loading = true
	c.fetchingMore = false
	c.outstanding = len(tiers)
	c.mu.Unlock()

	for _, tier := range tiers {
		go c.fetchTier(fctx, gen, tier, 0)
	}
	c.notify()
}

// SetTierFilter switches the backing query mode, cancelling in-flight fetches
// for the superseded filter.
func (c *Coordinator) SetTierFilter(ctx context.Context, f TierFilter) {
	c.mu.Lock()
	if f == c.filter {
		c.mu.Unlock()
		return
	}
	c.filter = f
	c.mu.Unlock()
	c.Refresh(ctx)
}

// LoadMore fetches the next page for every tier that still has more results.
func (c *Coordinator) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.loading || c.fetchingMore || c.fetchCtx == nil {
		c.mu.Unlock()
		return
	}
	type fetch struct {
		tier   alerts.Severity
		offset int
	}
	var fetches []fetch
	for tier, ts := range c.tiers {
		if ts.hasMore {
			fetches = append(fetches, fetch{tier: tier, offset: ts.offset})
		}
	}
	if len(fetches) == 0 {
		c.mu.Unlock()
		return
	}
	gen, fctx := c.generation, c.fetchCtx
	c.fetchingMore = true
	c.outstanding = len(fetches)
	c.mu.Unlock()

	for _, f := range fetches {
		go c.fetchTier(fctx, gen, f.tier, f.offset)
	}
	c.notify()
}

// beginGenerationLocked supersedes any in-flight fetch work and opens a new
// fetch context under a fresh generation token.
func (c *Coordinator) beginGenerationLocked(ctx context.Context) (uint64, context.Context) {
	c.generation++
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.fetchCtx = fctx
	c.cancelFetch = cancel
	return c.generation, fctx
}

// fetchTier fetches one page for one tier and folds the result in, unless the
// response turns out to be stale.
func (c *Coordinator) fetchTier(ctx context.Context, gen uint64, tier alerts.Severity, offset int) {
	page, err := c.client.FetchAlerts(ctx, tier, transport.PageQuery{Limit: c.pageSize, Offset: offset})

	c.mu.Lock()
	if gen != c.generation {
		// Late response for a superseded filter: discard rather than merge.
		c.mu.Unlock()
		return
	}
	c.outstanding--
	settled := c.outstanding == 0

	if err != nil {
		if ctx.Err() == nil {
			c.queryErr = &transport.QueryError{Tier: tier, Err: err}
			c.logger.Warn().Err(err).Str("tier", string(tier)).Msg("tier fetch failed")
		}
	} else {
		ts := c.tiers[tier]
		if ts != nil {
			ts.offset = offset + len(page.Items)
			ts.total = page.Total
			ts.hasMore = page.HasMore
			ts.loaded = true
		}
		c.mergeLocked(page.Items)
	}
	if settled {
		c.loading = false
		c.fetchingMore = false
	}
	c.mu.Unlock()
	c.notify()
}

// mergeLocked folds new items into the canonical collection: duplicate ids
// are dropped keeping the first occurrence, severities are classified, camera
// names denormalized, and the collection re-sorted.
func (c *Coordinator) mergeLocked(items []alerts.Alert) {
	seen := make(map[string]struct{}, len(c.collection))
	for _, a := range c.collection {
		seen[a.ID] = struct{}{}
	}
	for _, a := range items {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		c.collection = append(c.collection, c.normalizeLocked(a))
	}
	c.sortLocked()
}

// normalizeLocked classifies severity and resolves the camera name.
func (c *Coordinator) normalizeLocked(a alerts.Alert) alerts.Alert {
	a.Severity = c.thresholds.Classify(a.RiskScore, a.Severity)
	if a.CameraName == "" {
		if name, ok := c.cameras[a.CameraID]; ok {
			a.CameraName = name
		} else {
			a.CameraName = alerts.UnknownCameraName
		}
	}
	return a
}

// sortLocked keeps the default ordering: startedAt descending, ties broken by
// severity rank then id so the collection is deterministic.
func (c *Coordinator) sortLocked() {
	sort.SliceStable(c.collection, func(i, j int) bool {
		ai, aj := c.collection[i], c.collection[j]
		if !ai.StartedAt.Equal(aj.StartedAt) {
			return ai.StartedAt.After(aj.StartedAt)
		}
		if ai.Severity.Rank() != aj.Severity.Rank() {
			return ai.Severity.Rank() < aj.Severity.Rank()
		}
		return ai.ID < aj.ID
	})
}

// indexLocked returns the collection index for an alert id, or -1.
func (c *Coordinator) indexLocked(id string) int {
	for i, a := range c.collection {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// loadCameras fetches the camera directory. Failure never blocks alert
// rendering; alerts fall back to the unknown-camera sentinel.
func (c *Coordinator) loadCameras(ctx context.Context) {
	cams, err := c.client.FetchCameras(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("camera lookup failed; alerts will show as Unknown Camera")
		return
	}

	c.mu.Lock()
	c.cameras = make(map[string]string, len(cams))
	for _, cam := range cams {
		c.cameras[cam.ID] = cam.Name
	}
	for i := range c.collection {
		if c.collection[i].CameraName == alerts.UnknownCameraName {
			if name, ok := c.cameras[c.collection[i].CameraID]; ok {
				c.collection[i].CameraName = name
			}
		}
	}
	c.mu.Unlock()
	c.notify()
}

// ApplyEnvelope folds a push message into the canonical collection using the
// same merge rule as query results: last write wins by version, never by
// arrival order. Malformed payloads are dropped silently.
func (c *Coordinator) ApplyEnvelope(env transport.Envelope) {
	if !env.AlertRelevant() {
		return
	}
	var a alerts.Alert
	if err := json.Unmarshal(env.Data, &a); err != nil || a.ID == "" {
		c.logger.Debug().Str("type", env.Type).Msg("dropping malformed alert envelope")
		return
	}

	c.mu.Lock()
	if _, inflight := c.pending[a.ID]; inflight {
		// An in-flight mutation owns this id until it settles; the settle
		// path reconciles against the server's authoritative response.
		c.mu.Unlock()
		return
	}
	changed := false
	if idx := c.indexLocked(a.ID); idx >= 0 {
		if a.Version > c.collection[idx].Version {
			c.collection[idx] = c.normalizeLocked(a)
			changed = true
		}
	} else {
		c.collection = append(c.collection, c.normalizeLocked(a))
		c.sortLocked()
		changed = true
	}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// SetCriterion changes the active view criterion. Counts never change with
// the criterion, so no refetch happens.
func (c *Coordinator) SetCriterion(criterion Criterion) {
	c.mu.Lock()
	if criterion == c.criterion {
		c.mu.Unlock()
		return
	}
	c.criterion = criterion
	c.mu.Unlock()
	c.notify()
}

// Criterion returns the active view criterion.
func (c *Coordinator) Criterion() Criterion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criterion
}

// TierFilter returns the active backing query mode.
func (c *Coordinator) TierFilter() TierFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Collection returns a copy of the canonical alert collection.
func (c *Coordinator) Collection() []alerts.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]alerts.Alert, len(c.collection))
	copy(out, c.collection)
	return out
}

// VisibleAlerts returns the alerts visible under the active criterion.
func (c *Coordinator) VisibleAlerts() []alerts.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilteredAlerts(c.collection, c.criterion, c.now())
}

// Counts returns the badge counts for every criterion.
func (c *Coordinator) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeriveCounts(c.collection, c.now())
}

// CameraGroups returns the visible alerts grouped by camera, worst first.
func (c *Coordinator) CameraGroups() []CameraGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GroupByCamera(FilteredAlerts(c.collection, c.criterion, c.now()))
}

// Flags returns the query status surface.
func (c *Coordinator) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Flags{IsLoading: c.loading, IsFetchingMore: c.fetchingMore, Err: c.queryErr}
}

// Total returns the running total: the sum of each tier's server-reported
// total, not the locally merged length, since pages may be partial.
func (c *Coordinator) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, ts := range c.tiers {
		total += ts.total
	}
	return total
}

// HasMore reports whether any tier still has results to page in.
func (c *Coordinator) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ts := range c.tiers {
		if ts.hasMore {
			return true
		}
	}
	return false
}

// WakeExpiredSnoozes clears snoozes that have elapsed by now, returning the
// number of alerts woken. Elapsed snoozes are already ineffective for
// derivation; clearing them lets observers re-derive the unread views.
func (c *Coordinator) WakeExpiredSnoozes(now time.Time) int {
	c.mu.Lock()
	woken := 0
	for i := range c.collection {
		su := c.collection[i].SnoozeUntil
		if su != nil && !su.After(now) {
			c.collection[i].SnoozeUntil = nil
			woken++
		}
	}
	c.mu.Unlock()

	if woken > 0 {
		c.notify()
	}
	return woken
}
