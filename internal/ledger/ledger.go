// Package ledger implements the activity ledger: the in-memory collection of
// one user's activities for one day, mediating between the local cache and the
// authoritative remote store.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/observability"
)

// RemoteStore is the authoritative per-day activity store. Mutations are
// remote-first: no in-memory change happens unless the remote call succeeds.
type RemoteStore interface {
	List(ctx context.Context, scope domain.Scope) ([]domain.Activity, error)
	Create(ctx context.Context, scope domain.Scope, activity domain.Activity) (string, error)
	Update(ctx context.Context, scope domain.Scope, id string, update domain.ActivityUpdate) error
	Delete(ctx context.Context, scope domain.Scope, id string) error
}

// CacheStore is the advisory local mirror. A failed Get behaves as miss; a
// failed Put is logged and ignored.
type CacheStore interface {
	Get(ctx context.Context, scope domain.Scope) ([]domain.Activity, bool)
	Put(ctx context.Context, scope domain.Scope, activities []domain.Activity) error
}

// Ledger owns the activity collection for the currently selected scope.
//
// Every operation that leaves the lock for I/O captures the scope generation
// first and re-checks it before applying results, so a scope change made while
// a call was in flight discards that call's effect instead of merging it into
// the newly selected day.
type Ledger struct {
	remote RemoteStore
	cache  CacheStore
	log    *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	scope       domain.Scope
	gen         uint64
	activities  []domain.Activity
	loaded      bool
	provisional bool
	busy        bool
}

// Option configures optional Ledger behaviour.
type Option func(*Ledger)

// WithLogger overrides the ledger's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.log = logger
	}
}

// WithClock overrides the time source, used by tests for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New constructs a Ledger over the given stores. cache may be nil to run
// remote-only.
func New(remote RemoteStore, cache CacheStore, opts ...Option) *Ledger {
	l := &Ledger{
		remote: remote,
		cache:  cache,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetUser selects the active user. The day defaults to today's local date when
// none is selected yet, then the scope is loaded.
func (l *Ledger) SetUser(ctx context.Context, userID string) error {
	if userID == "" {
		l.SignOut()
		return nil
	}

	l.mu.Lock()
	l.scope.UserID = userID
	if l.scope.Day == "" {
		l.scope.Day = l.now().Format(domain.DayLayout)
	}
	l.reset()
	l.mu.Unlock()

	return l.Load(ctx)
}

// SignOut clears the scope and the in-memory collection.
func (l *Ledger) SignOut() {
	l.mu.Lock()
	userID := l.scope.UserID
	l.scope = domain.Scope{}
	l.reset()
	l.mu.Unlock()

	if userID != "" {
		observability.ClearDayTotal(userID)
	}
}

// SetDate selects a day. The collection is cleared immediately; the new scope
// is loaded only when a user is signed in.
func (l *Ledger) SetDate(ctx context.Context, day string) error {
	if !domain.ValidDay(day) {
		return domain.Validationf("date %q is not a valid YYYY-MM-DD day", day)
	}

	l.mu.Lock()
	l.scope.Day = day
	l.reset()
	signedIn := l.scope.UserID != ""
	l.mu.Unlock()

	if !signedIn {
		return nil
	}
	return l.Load(ctx)
}

// EnsureScope points the ledger at (userID, day) and makes sure an
// authoritative load has happened, re-fetching when the last load only
// produced a provisional cache snapshot. An empty day keeps the current day,
// defaulting to today.
func (l *Ledger) EnsureScope(ctx context.Context, userID, day string) error {
	if userID == "" {
		return domain.ErrNoScope
	}
	if day != "" && !domain.ValidDay(day) {
		return domain.Validationf("date %q is not a valid YYYY-MM-DD day", day)
	}

	l.mu.Lock()
	target := domain.Scope{UserID: userID, Day: day}
	if target.Day == "" {
		target.Day = l.scope.Day
	}
	if target.Day == "" {
		target.Day = l.now().Format(domain.DayLayout)
	}
	changed := l.scope != target
	if changed {
		l.scope = target
		l.reset()
	}
	settled := l.loaded && !l.provisional
	l.mu.Unlock()

	if !changed && settled {
		return nil
	}
	return l.Load(ctx)
}

// reset clears the collection for a new scope. Callers hold l.mu.
func (l *Ledger) reset() {
	l.gen++
	l.activities = nil
	l.loaded = false
	l.provisional = false
}

// Load populates the collection for the current scope: first from the cache
// (provisional, possibly stale), then from the remote store, which always wins
// and is written back through the cache. With an incomplete scope Load is a
// no-op. A remote failure leaves any provisional snapshot in place and is
// returned as a PersistenceError.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	scope, gen := l.scope, l.gen
	l.mu.Unlock()

	if !scope.Complete() {
		return nil
	}

	if l.cache != nil {
		if cached, ok := l.cache.Get(ctx, scope); ok {
			l.mu.Lock()
			if l.gen == gen {
				l.activities = cached
				l.provisional = true
			}
			l.mu.Unlock()
		}
	}

	activities, err := l.remote.List(ctx, scope)
	if err != nil {
		l.log.Warn("authoritative load failed",
			zap.String("scope", scope.String()), zap.Error(err))
		return &domain.PersistenceError{Op: "load", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		// A different scope was selected while the fetch was in flight.
		l.log.Debug("discarding stale load", zap.String("scope", scope.String()))
		return nil
	}
	l.activities = activities
	l.loaded = true
	l.provisional = false
	l.writeThrough(ctx, scope)
	observability.SetDayTotal(scope.UserID, domain.TotalMinutes(l.activities))
	return nil
}

// Add validates and creates a new activity. Validation failures happen before
// any I/O; the in-memory append happens only after the remote create succeeds.
func (l *Ledger) Add(ctx context.Context, name, category string, durationMin int) (domain.Activity, error) {
	activity, err := l.add(ctx, name, category, durationMin)
	observability.RecordMutation("add", err)
	return activity, err
}

func (l *Ledger) add(ctx context.Context, name, category string, durationMin int) (domain.Activity, error) {
	l.mu.Lock()
	if !l.scope.Complete() {
		l.mu.Unlock()
		return domain.Activity{}, domain.ErrNoScope
	}
	if l.busy {
		l.mu.Unlock()
		return domain.Activity{}, domain.ErrMutationInFlight
	}

	trimmed := domain.NormalizeName(name)
	if trimmed == "" {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf("activity name must not be empty")
	}
	if durationMin <= 0 {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf("duration must be a positive number of minutes")
	}
	if total := domain.TotalMinutes(l.activities); total+durationMin > domain.DayCapMinutes {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf(
			"day total would reach %d minutes, exceeding the %d minute cap",
			total+durationMin, domain.DayCapMinutes)
	}

	l.busy = true
	scope, gen := l.scope, l.gen
	l.mu.Unlock()

	activity := domain.Activity{
		Name:        trimmed,
		Category:    category,
		DurationMin: durationMin,
		CreatedAt:   l.now().UnixMilli(),
	}
	id, err := l.remote.Create(ctx, scope, activity)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return domain.Activity{}, &domain.PersistenceError{Op: "create", Err: err}
	}
	if l.gen != gen {
		return domain.Activity{}, domain.ErrStaleScope
	}

	activity.ID = id
	l.activities = append(l.activities, activity)
	l.writeThrough(ctx, scope)
	observability.SetDayTotal(scope.UserID, domain.TotalMinutes(l.activities))
	return activity, nil
}

// Update validates and edits an existing activity's name and duration. The cap
// is re-checked against the prospective sum with the old duration swapped out.
func (l *Ledger) Update(ctx context.Context, id, name string, durationMin int) (domain.Activity, error) {
	activity, err := l.update(ctx, id, name, durationMin)
	observability.RecordMutation("update", err)
	return activity, err
}

func (l *Ledger) update(ctx context.Context, id, name string, durationMin int) (domain.Activity, error) {
	l.mu.Lock()
	if !l.scope.Complete() {
		l.mu.Unlock()
		return domain.Activity{}, domain.ErrNoScope
	}
	if l.busy {
		l.mu.Unlock()
		return domain.Activity{}, domain.ErrMutationInFlight
	}

	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return domain.Activity{}, domain.ErrActivityNotFound
	}

	trimmed := domain.NormalizeName(name)
	if trimmed == "" {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf("activity name must not be empty")
	}
	if durationMin <= 0 {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf("duration must be a positive number of minutes")
	}
	prospective := domain.TotalMinutes(l.activities) - l.activities[idx].DurationMin + durationMin
	if prospective > domain.DayCapMinutes {
		l.mu.Unlock()
		return domain.Activity{}, domain.Validationf(
			"day total would reach %d minutes, exceeding the %d minute cap",
			prospective, domain.DayCapMinutes)
	}

	l.busy = true
	scope, gen := l.scope, l.gen
	l.mu.Unlock()

	err := l.remote.Update(ctx, scope, id, domain.ActivityUpdate{Name: trimmed, DurationMin: durationMin})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return domain.Activity{}, &domain.PersistenceError{Op: "update", Err: err}
	}
	if l.gen != gen {
		return domain.Activity{}, domain.ErrStaleScope
	}

	idx = l.indexOf(id)
	if idx < 0 {
		// The remote accepted the edit but the entry is gone locally; the
		// next load reconciles.
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	l.activities[idx].Name = trimmed
	l.activities[idx].DurationMin = durationMin
	l.writeThrough(ctx, scope)
	observability.SetDayTotal(scope.UserID, domain.TotalMinutes(l.activities))
	return l.activities[idx], nil
}

// Remove deletes an existing activity, remote-first.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	err := l.remove(ctx, id)
	observability.RecordMutation("remove", err)
	return err
}

func (l *Ledger) remove(ctx context.Context, id string) error {
	l.mu.Lock()
	if !l.scope.Complete() {
		l.mu.Unlock()
		return domain.ErrNoScope
	}
	if l.busy {
		l.mu.Unlock()
		return domain.ErrMutationInFlight
	}
	if l.indexOf(id) < 0 {
		l.mu.Unlock()
		return domain.ErrActivityNotFound
	}

	l.busy = true
	scope, gen := l.scope, l.gen
	l.mu.Unlock()

	err := l.remote.Delete(ctx, scope, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return &domain.PersistenceError{Op: "delete", Err: err}
	}
	if l.gen != gen {
		return domain.ErrStaleScope
	}

	if idx := l.indexOf(id); idx >= 0 {
		l.activities = append(l.activities[:idx], l.activities[idx+1:]...)
	}
	l.writeThrough(ctx, scope)
	observability.SetDayTotal(scope.UserID, domain.TotalMinutes(l.activities))
	return nil
}

// indexOf finds an activity by ID. Callers hold l.mu.
func (l *Ledger) indexOf(id string) int {
	for i, a := range l.activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// writeThrough mirrors the collection into the cache, best effort. Callers
// hold l.mu.
func (l *Ledger) writeThrough(ctx context.Context, scope domain.Scope) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Put(ctx, scope, l.activities); err != nil {
		observability.RecordCacheWriteError()
		l.log.Warn("cache write-through failed",
			zap.String("scope", scope.String()), zap.Error(err))
	}
}

// Scope returns the currently selected scope.
func (l *Ledger) Scope() domain.Scope {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scope
}

// Provisional reports whether the visible snapshot came from the cache and has
// not been confirmed against the remote store.
func (l *Ledger) Provisional() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.provisional
}

// Snapshot returns a copy of the current collection in insertion order.
func (l *Ledger) Snapshot() []domain.Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Activity, len(l.activities))
	copy(out, l.activities)
	return out
}

// TotalMinutes sums the durations of the current collection.
func (l *Ledger) TotalMinutes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.TotalMinutes(l.activities)
}

// RemainingMinutes is the day cap minus the current total. It is computed, not
// clamped; the cap invariant keeps it non-negative after successful mutations.
func (l *Ledger) RemainingMinutes() int {
	return domain.DayCapMinutes - l.TotalMinutes()
}
