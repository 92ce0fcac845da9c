package lifecycle

import (
	"context"
	"fmt"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

// State is the persisted lifecycle record of one install
type State struct {
	FirstLaunch            bool
	FirstLaunchAfterUpdate bool
	FirstLaunchDate        string
	LastLaunchDate         string
	LastUpdateDate         string
	LaunchCount            int
	LaunchCountSinceUpdate int
	LaunchCountOnDay       int
	LaunchCountOnWeek      int
	LaunchCountOnMonth     int
	DaysSinceLastUse       int
	InstalledVersion       string
	SessionID              string
}

// Updated reports whether the install has gone through at least one version change
func (s State) Updated() bool {
	return s.LastUpdateDate != ""
}

// batch stages every field of the record for a single commit.
// LastUpdateDate is only written once an update has happened.
func (s State) batch() *storage.Batch {
	b := storage.NewBatch().
		Put(KeyFirstLaunch, storage.BoolValue(s.FirstLaunch)).
		Put(KeyFirstLaunchAfterUpdate, storage.BoolValue(s.FirstLaunchAfterUpdate)).
		Put(KeyFirstLaunchDate, storage.StringValue(s.FirstLaunchDate)).
		Put(KeyLastLaunchDate, storage.StringValue(s.LastLaunchDate)).
		Put(KeyLaunchCount, storage.IntValue(int64(s.LaunchCount))).
		Put(KeyLaunchCountSinceUpdate, storage.IntValue(int64(s.LaunchCountSinceUpdate))).
		Put(KeyLaunchCountOnDay, storage.IntValue(int64(s.LaunchCountOnDay))).
		Put(KeyLaunchCountOnWeek, storage.IntValue(int64(s.LaunchCountOnWeek))).
		Put(KeyLaunchCountOnMonth, storage.IntValue(int64(s.LaunchCountOnMonth))).
		Put(KeyDaysSinceLastUse, storage.IntValue(int64(s.DaysSinceLastUse))).
		Put(KeyVersion, storage.StringValue(s.InstalledVersion)).
		Put(KeySessionID, storage.StringValue(s.SessionID))
	if s.Updated() {
		b.Put(KeyLastUpdateDate, storage.StringValue(s.LastUpdateDate))
	}
	return b
}

// reader pulls typed fields out of a store, remembering the first failure
type reader struct {
	ctx   context.Context
	store storage.Store
	err   error
}

func (r *reader) value(key string) (storage.Value, bool) {
	if r.err != nil {
		return storage.Value{}, false
	}
	v, ok, err := r.store.Get(r.ctx, key)
	if err != nil {
		r.err = fmt.Errorf("failed to read %s: %w", key, err)
		return storage.Value{}, false
	}
	return v, ok
}

func (r *reader) str(key string) string {
	v, ok := r.value(key)
	if !ok {
		return ""
	}
	return v.AsString()
}

func (r *reader) int(key string) int {
	v, ok := r.value(key)
	if !ok {
		return 0
	}
	n, err := v.AsInt()
	if err != nil {
		r.err = fmt.Errorf("failed to read %s: %w", key, err)
		return 0
	}
	return int(n)
}

func (r *reader) bool(key string) bool {
	v, ok := r.value(key)
	if !ok {
		return false
	}
	b, err := v.AsBool()
	if err != nil {
		r.err = fmt.Errorf("failed to read %s: %w", key, err)
		return false
	}
	return b
}

// loadState reads the lifecycle record. A record exists iff LaunchCount is present.
func loadState(ctx context.Context, store storage.Store) (*State, error) {
	r := &reader{ctx: ctx, store: store}
	if _, ok := r.value(KeyLaunchCount); !ok {
		return nil, r.err
	}

	s := &State{
		FirstLaunch:            r.bool(KeyFirstLaunch),
		FirstLaunchAfterUpdate: r.bool(KeyFirstLaunchAfterUpdate),
		FirstLaunchDate:        r.str(KeyFirstLaunchDate),
		LastLaunchDate:         r.str(KeyLastLaunchDate),
		LastUpdateDate:         r.str(KeyLastUpdateDate),
		LaunchCount:            r.int(KeyLaunchCount),
		LaunchCountSinceUpdate: r.int(KeyLaunchCountSinceUpdate),
		LaunchCountOnDay:       r.int(KeyLaunchCountOnDay),
		LaunchCountOnWeek:      r.int(KeyLaunchCountOnWeek),
		LaunchCountOnMonth:     r.int(KeyLaunchCountOnMonth),
		DaysSinceLastUse:       r.int(KeyDaysSinceLastUse),
		InstalledVersion:       r.str(KeyVersion),
		SessionID:              r.str(KeySessionID),
	}
	if r.err != nil {
		return nil, r.err
	}
	return s, nil
}

// legacyRecord is what the first generation of the tracker kept
type legacyRecord struct {
	FirstLaunchDate string
	LastLaunchDate  string
	LaunchCount     int
}

// loadLegacy reads the legacy keys. It returns nil when none is present.
func loadLegacy(ctx context.Context, store storage.Store) (*legacyRecord, error) {
	r := &reader{ctx: ctx, store: store}
	_, hasFirst := r.value(LegacyKeyFirstLaunch)
	_, hasCount := r.value(LegacyKeyLaunchCount)
	if r.err != nil {
		return nil, r.err
	}
	if !hasFirst && !hasCount {
		return nil, nil
	}

	rec := &legacyRecord{
		FirstLaunchDate: r.str(LegacyKeyFirstLaunch),
		LastLaunchDate:  r.str(LegacyKeyLastLaunch),
		LaunchCount:     r.int(LegacyKeyLaunchCount),
	}
	if r.err != nil {
		return nil, r.err
	}
	return rec, nil
}
