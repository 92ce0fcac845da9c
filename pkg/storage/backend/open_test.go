package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/config"
	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

func roundTrip(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Commit(ctx, storage.NewBatch().Put("LaunchCount", storage.IntValue(3))))

	v, ok, err := store.Get(ctx, "LaunchCount")
	require.NoError(t, err)
	require.True(t, ok)
	n, err := v.AsInt()
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestOpenBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"memory", config.StorageConfig{Backend: config.BackendMemory}},
		{"badger", config.StorageConfig{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger"), Namespace: "app"}},
		{"sqlite", config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "sqlite", "tracker.db"), Namespace: "app"}},
		{"redis", config.StorageConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr(), Namespace: "app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg)
			require.NoError(t, err)
			defer store.Close()
			roundTrip(t, store)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "etcd"})
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestOpenLegacy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenLegacy(ctx, config.StorageConfig{Backend: config.BackendSQLite})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = OpenLegacy(ctx, config.StorageConfig{Backend: config.BackendSQLite, LegacyPath: filepath.Join(dir, "missing.db")})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = OpenLegacy(ctx, config.StorageConfig{Backend: config.BackendMemory, LegacyPath: dir})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = OpenLegacy(ctx, config.StorageConfig{Backend: config.BackendBadger, LegacyPath: filepath.Join(dir, "legacy")})
	require.NoError(t, err)
	require.Nil(t, store)

	legacyDir := filepath.Join(dir, "old")
	seed, err := Open(ctx, config.StorageConfig{Backend: config.BackendBadger, Path: legacyDir})
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	store, err = OpenLegacy(ctx, config.StorageConfig{Backend: config.BackendBadger, LegacyPath: legacyDir})
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, store.Close())
}

func TestRunGCStopsWithContext(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendBadger, Path: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunGC(ctx, store, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunGC did not stop")
	}
}
