/*
Package sdk provides the tracker used to send analytics hits from a Go application.

# Quick Start

Create a tracker backed by a persistent store, record the launch, then dispatch events:

	package main

	import (
	    "context"
	    "log"

	    "github.com/jamiepg18/atinternet-android-sdk/pkg/sdk"
	    "github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/event"
	    "github.com/jamiepg18/atinternet-android-sdk/pkg/storage/badger"
	)

	func main() {
	    store, err := badger.New(badger.Config{Path: "./data/tracker"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer store.Close()

	    tracker, err := sdk.New(sdk.TrackerConfig{
	        Site:       "410501",
	        Endpoint:   "http://localhost:8080/hit",
	        AppVersion: "2.1.0",
	    }, store)
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := context.Background()
	    if _, err := tracker.Launch(ctx); err != nil {
	        log.Printf("lifecycle unavailable: %v", err)
	    }

	    tracker.Dispatch(ctx, event.Screen{Name: "home", Chapters: []string{"app"}})
	}

Every hit carries:
  - The persistent parameters (site, technical context, anything set with SetPersistentParam)
  - The volatile parameters of the event being sent
  - The lifecycle metrics under stc, as {"lifecycle": {...}}

# Parameters

Volatile parameters apply to the next hit only; persistent ones are sent until unset:

	tracker.SetPersistentParam("idclient", "abc", param.Options{})
	tracker.SetParam("x1", "one", param.Options{})
	tracker.AppendParam("x1", "two", param.Options{})  // x1=one::two

Values can be computed when the hit is built rather than when they are set:

	tracker.SetParamFunc("x2", param.Lazy(currentTab), param.Options{Encode: true})

Options control how values are merged and encoded:

	param.Options{
	    Append:    true,           // merge with the existing value
	    Separator: ",",            // instead of "::"
	    Type:      param.TypeJSON, // deep-merge JSON objects
	    Encode:    true,           // percent-encode the final value
	    Relative:  param.RelativeFirst,
	}

# Events

Events validate themselves before any parameter is written:

	media, err := event.NewMedia(1).
	    Type("video").
	    Label("trailer").
	    Duration(90).
	    Action(event.ActionPlay).
	    Build()

	tracker.Dispatch(ctx, media)

Partner events are only sent for plugins listed in TrackerConfig.Plugins:

	tracker.Track(event.Partner{Name: "nuggad", Data: map[string]any{"rt": "1"}})

# Lifecycle

Launch runs once per tracker. It loads the persisted record, applies the launch
(first launch, launch after an update, or an ordinary launch) and commits it
atomically. When the record cannot be read or written, hits are still sent
without lifecycle metrics and the listener receives a warning.

# Listeners

Implement Listener to observe hits. The default LogListener writes to logrus:

	type auditListener struct{ sdk.LogListener }

	func (a *auditListener) SendDidEnd(hit []param.Pair, err error) {
	    if err != nil {
	        metrics.failedHits.Inc()
	    }
	}

# Delivery

Send builds one hit and performs one HTTP GET. There is no retry or offline
queue: a failed hit is reported through SendDidEnd and dropped.
*/
package sdk
