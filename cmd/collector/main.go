package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/collector"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	hits := collector.NewLog(cfg.Collector.MaxHits)
	hub := collector.NewHub()
	metrics := collector.NewMetrics()
	handler := collector.NewHandler(hits, hub, metrics, cfg.Collector.APIKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Collector.Port),
		Handler:           collector.NewRouter(handler),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Collector.Port,
			"max_hits": cfg.Collector.MaxHits,
			"auth":     cfg.Collector.APIKey != "",
		}).Info("collector listening")
		logrus.Info("routes: GET /hit, GET|DELETE /api/hits, GET /api/ws, GET /health, GET /metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("collector failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutdown signal received")

	// stop the hub before waiting on it
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("server shutdown")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("collector stopped")
	case <-time.After(5 * time.Second):
		logrus.Warn("live feed did not stop in time")
	}
}
