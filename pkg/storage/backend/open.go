// Package backend opens the configured lifecycle store.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage/badger"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage/memory"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage/redis"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage/sqlite"
)

// Open opens the store named by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	return open(ctx, cfg, cfg.Path)
}

// OpenLegacy opens the store holding pre-migration lifecycle data at
// cfg.LegacyPath, with the same backend as the primary store. It returns nil
// when no legacy path is configured or the backend keeps nothing on disk.
func OpenLegacy(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.LegacyPath == "" {
		return nil, nil
	}
	switch cfg.Backend {
	case config.BackendBadger, config.BackendSQLite:
	default:
		logrus.WithField("backend", cfg.Backend).Warn("legacy import needs a file backend, skipping")
		return nil, nil
	}
	if _, err := os.Stat(cfg.LegacyPath); os.IsNotExist(err) {
		return nil, nil
	}
	return open(ctx, cfg, cfg.LegacyPath)
}

func open(ctx context.Context, cfg config.StorageConfig, path string) (storage.Store, error) {
	log := logrus.WithFields(logrus.Fields{"backend": cfg.Backend, "namespace": cfg.Namespace})

	switch cfg.Backend {
	case config.BackendMemory:
		log.Info("using in-memory store, lifecycle data will not survive a restart")
		return memory.New(), nil

	case config.BackendBadger:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := badger.New(badger.Config{
			Path:        path,
			Namespace:   cfg.Namespace,
			MaxMemoryMB: int64(cfg.MaxMemoryMB),
		})
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("badger store opened")
		return store, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		store, err := sqlite.Open(path, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("sqlite store opened")
		return store, nil

	case config.BackendRedis:
		store, err := redis.New(ctx, redis.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
		})
		if err != nil {
			return nil, err
		}
		log.WithField("addr", cfg.RedisAddr).Info("redis store connected")
		return store, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// RunGC reclaims badger value log space every interval until ctx is done.
// Other backends return immediately.
func RunGC(ctx context.Context, store storage.Store, interval time.Duration) {
	db, ok := store.(*badger.Store)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			// an error means nothing was rewritten
			if err := db.RunGC(0.5); err != nil {
				logrus.WithField("took", time.Since(start).Round(time.Millisecond)).Debug("badger gc: no rewrite needed")
			} else {
				logrus.WithField("took", time.Since(start).Round(time.Millisecond)).Debug("badger gc: space reclaimed")
			}
		}
	}
}
