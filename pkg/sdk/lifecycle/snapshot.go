package lifecycle

import (
	"strconv"
	"time"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Snapshot is the lifecycle part of a hit, keyed by the collector's short names.
// Optional fields are nil when the underlying date is unset or not a yyyyMMdd date,
// and the update related ones stay nil until a version change has been seen.
type Snapshot struct {
	FirstLaunch            int    `json:"fl"`
	FirstLaunchAfterUpdate int    `json:"flau"`
	FirstLaunchDate        *int   `json:"fld,omitempty"`
	LastUpdateDate         *int   `json:"uld,omitempty"`
	LaunchCount            int    `json:"lc"`
	LaunchCountSinceUpdate *int   `json:"lcsu,omitempty"`
	LaunchCountOnDay       int    `json:"ldc"`
	LaunchCountOnWeek      int    `json:"lwc"`
	LaunchCountOnMonth     int    `json:"lmc"`
	DaysSinceFirstLaunch   *int   `json:"dsfl,omitempty"`
	DaysSinceLastUse       int    `json:"dslu"`
	DaysSinceUpdate        *int   `json:"dsu,omitempty"`
	SessionID              string `json:"sessionId"`
}

func (e *Engine) snapshot(s State, now time.Time) Snapshot {
	current := now.In(e.loc)
	snap := Snapshot{
		FirstLaunch:            boolInt(s.FirstLaunch),
		FirstLaunchAfterUpdate: boolInt(s.FirstLaunchAfterUpdate),
		LaunchCount:            s.LaunchCount,
		LaunchCountOnDay:       s.LaunchCountOnDay,
		LaunchCountOnWeek:      s.LaunchCountOnWeek,
		LaunchCountOnMonth:     s.LaunchCountOnMonth,
		DaysSinceLastUse:       s.DaysSinceLastUse,
		SessionID:              s.SessionID,
	}

	if first, err := e.parseDate(s.FirstLaunchDate); err == nil {
		snap.FirstLaunchDate = intPtr(dateInt(first))
		snap.DaysSinceFirstLaunch = intPtr(daysBetween(first, current))
	}
	if s.Updated() {
		snap.LaunchCountSinceUpdate = intPtr(s.LaunchCountSinceUpdate)
		if updated, err := e.parseDate(s.LastUpdateDate); err == nil {
			snap.LastUpdateDate = intPtr(dateInt(updated))
			snap.DaysSinceUpdate = intPtr(daysBetween(updated, current))
		}
	}
	return snap
}

// Params returns the snapshot as ordered pairs, leaving out absent fields
func (s Snapshot) Params() []param.Pair {
	pairs := []param.Pair{
		{Name: "fl", Value: strconv.Itoa(s.FirstLaunch)},
		{Name: "flau", Value: strconv.Itoa(s.FirstLaunchAfterUpdate)},
	}
	add := func(name string, v *int) {
		if v != nil {
			pairs = append(pairs, param.Pair{Name: name, Value: strconv.Itoa(*v)})
		}
	}
	add("fld", s.FirstLaunchDate)
	add("uld", s.LastUpdateDate)
	pairs = append(pairs, param.Pair{Name: "lc", Value: strconv.Itoa(s.LaunchCount)})
	add("lcsu", s.LaunchCountSinceUpdate)
	pairs = append(pairs,
		param.Pair{Name: "ldc", Value: strconv.Itoa(s.LaunchCountOnDay)},
		param.Pair{Name: "lwc", Value: strconv.Itoa(s.LaunchCountOnWeek)},
		param.Pair{Name: "lmc", Value: strconv.Itoa(s.LaunchCountOnMonth)},
	)
	add("dsfl", s.DaysSinceFirstLaunch)
	pairs = append(pairs, param.Pair{Name: "dslu", Value: strconv.Itoa(s.DaysSinceLastUse)})
	add("dsu", s.DaysSinceUpdate)
	return append(pairs, param.Pair{Name: "sessionId", Value: s.SessionID})
}

func dateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intPtr(n int) *int {
	return &n
}
