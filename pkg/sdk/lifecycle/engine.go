package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

var (
	// ErrAlreadyLaunched is returned by a second OnLaunch on the same Engine
	ErrAlreadyLaunched = errors.New("lifecycle: launch already recorded for this process")
	// ErrNoLifecycle is returned by Snapshot when no record has ever been written
	ErrNoLifecycle = errors.New("lifecycle: no record")
)

// PersistenceError wraps a store failure. The cached state is left untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("lifecycle %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LaunchKind classifies a launch
type LaunchKind string

const (
	LaunchFirst       LaunchKind = "first"
	LaunchImported    LaunchKind = "imported"
	LaunchAfterUpdate LaunchKind = "after_update"
	LaunchOrdinary    LaunchKind = "ordinary"
)

// Engine maintains the lifecycle record of one install.
// It owns an in-memory copy of the record; nothing is kept in package state.
type Engine struct {
	store  storage.Store
	legacy storage.Store
	clock  func() time.Time
	loc    *time.Location
	newID  func() string
	logger logrus.FieldLogger

	mu       sync.Mutex
	state    *State
	launched bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLegacy sets the store holding records of the first tracker generation
func WithLegacy(store storage.Store) Option {
	return func(e *Engine) { e.legacy = store }
}

// WithClock sets the time source used by Snapshot
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLocation sets the calendar used for day, week and month boundaries. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSessionIDs replaces the session id generator
func WithSessionIDs(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New creates an Engine on top of store
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		clock:  time.Now,
		loc:    time.UTC,
		newID:  uuid.NewString,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnLaunch records the launch of version at now. It runs at most once per Engine;
// on failure nothing is persisted and it may be retried.
func (e *Engine) OnLaunch(ctx context.Context, version string, now time.Time) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.launched {
		return State{}, ErrAlreadyLaunched
	}

	prev, err := loadState(ctx, e.store)
	if err != nil {
		return State{}, &PersistenceError{Op: "load", Err: err}
	}

	var (
		next State
		kind LaunchKind
	)
	switch {
	case prev == nil:
		var legacy *legacyRecord
		if e.legacy != nil {
			legacy, err = loadLegacy(ctx, e.legacy)
			if err != nil {
				return State{}, &PersistenceError{Op: "legacy import", Err: err}
			}
		}
		if legacy != nil {
			next, kind = e.imported(legacy, version), LaunchImported
		} else {
			next, kind = e.first(version, now), LaunchFirst
		}
	case prev.InstalledVersion != version:
		next, kind = e.afterUpdate(*prev, version, now), LaunchAfterUpdate
	default:
		next, kind = e.ordinary(*prev, now), LaunchOrdinary
	}

	if err := e.store.Commit(ctx, next.batch()); err != nil {
		return State{}, &PersistenceError{Op: "commit", Err: err}
	}

	e.state = &next
	e.launched = true

	e.logger.WithFields(logrus.Fields{
		"launch":       string(kind),
		"version":      version,
		"launch_count": next.LaunchCount,
	}).Debug("lifecycle updated")

	return next, nil
}

func (e *Engine) first(version string, now time.Time) State {
	today := e.date(now)
	return State{
		FirstLaunch:            true,
		FirstLaunchDate:        today,
		LastLaunchDate:         today,
		LaunchCount:            1,
		LaunchCountSinceUpdate: 1,
		LaunchCountOnDay:       1,
		LaunchCountOnWeek:      1,
		LaunchCountOnMonth:     1,
		InstalledVersion:       version,
		SessionID:              e.sessionID(""),
	}
}

// imported seeds the record from legacy data. Dates are kept verbatim.
func (e *Engine) imported(legacy *legacyRecord, version string) State {
	count := legacy.LaunchCount
	if count < 1 {
		count = 1
	}
	return State{
		FirstLaunchDate:        legacy.FirstLaunchDate,
		LastLaunchDate:         legacy.LastLaunchDate,
		LaunchCount:            count,
		LaunchCountSinceUpdate: 1,
		LaunchCountOnDay:       1,
		LaunchCountOnWeek:      1,
		LaunchCountOnMonth:     1,
		InstalledVersion:       version,
		SessionID:              e.sessionID(""),
	}
}

func (e *Engine) afterUpdate(prev State, version string, now time.Time) State {
	next := e.ordinary(prev, now)
	next.FirstLaunchAfterUpdate = true
	next.LastUpdateDate = e.date(now)
	next.LaunchCountSinceUpdate = 1
	next.InstalledVersion = version
	return next
}

func (e *Engine) ordinary(prev State, now time.Time) State {
	next := prev
	next.FirstLaunch = false
	next.FirstLaunchAfterUpdate = false
	next.LaunchCount++
	next.LaunchCountSinceUpdate++

	last, err := e.parseDate(prev.LastLaunchDate)
	if err != nil {
		next.LaunchCountOnDay = 1
		next.LaunchCountOnWeek = 1
		next.LaunchCountOnMonth = 1
		next.DaysSinceLastUse = 0
	} else {
		current := now.In(e.loc)
		next.LaunchCountOnDay = bump(prev.LaunchCountOnDay, sameDay(last, current))
		next.LaunchCountOnWeek = bump(prev.LaunchCountOnWeek, sameWeek(last, current))
		next.LaunchCountOnMonth = bump(prev.LaunchCountOnMonth, sameMonth(last, current))
		next.DaysSinceLastUse = daysBetween(last, current)
	}

	next.LastLaunchDate = e.date(now)
	next.SessionID = e.sessionID(prev.SessionID)
	return next
}

// sessionID draws ids until one differs from prev
func (e *Engine) sessionID(prev string) string {
	id := e.newID()
	for id == prev {
		id = e.newID()
	}
	return id
}

// Snapshot projects the current record into hit metrics. Without a launch in this
// process the persisted record is used.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		s, err := loadState(ctx, e.store)
		if err != nil {
			return Snapshot{}, &PersistenceError{Op: "load", Err: err}
		}
		if s == nil {
			return Snapshot{}, ErrNoLifecycle
		}
		e.state = s
	}
	return e.snapshot(*e.state, e.clock()), nil
}

// State returns a copy of the cached record
func (e *Engine) State() (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		return State{}, false
	}
	return *e.state, true
}

// Launched reports whether OnLaunch completed on this Engine
func (e *Engine) Launched() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launched
}

// Reset clears the persisted record and the cache. The Engine then accepts a
// new OnLaunch, which records a first launch.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Clear(ctx); err != nil {
		return &PersistenceError{Op: "reset", Err: err}
	}
	e.state = nil
	e.launched = false
	return nil
}

func (e *Engine) date(t time.Time) string {
	return t.In(e.loc).Format(DateLayout)
}

func (e *Engine) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, e.loc)
}

func bump(count int, same bool) int {
	if same {
		return count + 1
	}
	return 1
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// daysBetween counts calendar days from a to b, both read in their own location
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
