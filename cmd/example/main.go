package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/event"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/lifecycle"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage/backend"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	once := flag.Bool("once", false, "send one round of hits and exit")
	every := flag.Duration("every", 3*time.Second, "interval between simulated hits")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		logrus.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	var lifecycleOpts []lifecycle.Option
	legacy, err := backend.OpenLegacy(ctx, cfg.Storage)
	if err != nil {
		logrus.Fatalf("failed to open legacy store: %v", err)
	}
	if legacy != nil {
		defer legacy.Close()
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithLegacy(legacy))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		backend.RunGC(ctx, store, config.BadgerGCInterval)
	}()

	loc, _ := cfg.Tracker.Location()
	tracker, err := sdk.New(sdk.TrackerConfig{
		Site:       cfg.Tracker.Site,
		Endpoint:   cfg.Tracker.Endpoint,
		APIKey:     cfg.Tracker.APIKey,
		AppVersion: cfg.Tracker.AppVersion,
		Plugins:    cfg.Tracker.Plugins,
		Location:   loc,
	}, store, sdk.WithLifecycleOptions(lifecycleOpts...))
	if err != nil {
		logrus.Fatalf("failed to create tracker: %v", err)
	}

	state, err := tracker.Launch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("launch not recorded, hits will carry no lifecycle metrics")
	} else {
		logrus.WithFields(logrus.Fields{
			"first_launch": state.FirstLaunch,
			"after_update": state.FirstLaunchAfterUpdate,
			"launch_count": state.LaunchCount,
			"session":      state.SessionID,
		}).Info("launch recorded")
	}

	if *once {
		for _, ev := range sampleEvents(0) {
			sendEvent(ctx, tracker, ev)
		}
		cancel()
		wg.Wait()
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(*every)
		defer ticker.Stop()

		round := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events := sampleEvents(round)
				sendEvent(ctx, tracker, events[rand.Intn(len(events))])
				round++
			}
		}
	}()

	logrus.WithField("endpoint", cfg.Tracker.Endpoint).Info("sending simulated hits, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down example app")
	cancel()
	wg.Wait()
}

func sendEvent(ctx context.Context, tracker *sdk.Tracker, ev event.Event) {
	if err := tracker.Dispatch(ctx, ev); err != nil {
		logrus.WithError(err).WithField("event", ev.Kind()).Warn("hit failed")
		return
	}
	logrus.WithField("event", ev.Kind()).Info("hit sent")
}

func sampleEvents(round int) []event.Event {
	cartID := "cart-" + strconv.Itoa(round)
	products := []event.Properties{
		{"s:id": "sku-1", "s:$": "EUR", "n:quantity": 1, "f:priceTaxIncluded": 19.9},
		{"s:id": "sku-2", "s:$": "EUR", "n:quantity": 2, "f:priceTaxIncluded": 5.5},
	}

	events := []event.Event{
		event.Screen{Name: "home", Chapters: []string{"app"}},
		event.Screen{Name: "catalog", Chapters: []string{"app", "shop"}, Level2: 2},
		event.CartAwaitingPayment{
			Cart:     event.Properties{"s:id": cartID, "n:quantity": 3},
			Products: products,
		},
		event.TransactionConfirmation{
			Cart:             event.Properties{"s:id": cartID, "n:quantity": 3},
			Transaction:      event.Properties{"s:id": "tx-" + strconv.Itoa(round)},
			PromotionalCodes: []string{"WELCOME"},
			Products:         products,
		},
		event.Partner{Name: "nuggad", Data: map[string]any{"rt": strconv.Itoa(round)}},
	}

	media, err := event.NewMedia(1).
		Type("video").
		Label("trailer").
		Themes("movies").
		Duration(120).
		Action(event.ActionPlay).
		Build()
	if err == nil {
		events = append(events, media)
	}
	return events
}
