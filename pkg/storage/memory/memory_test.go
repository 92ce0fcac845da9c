package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

func TestMemoryStore_CommitAndGet(t *testing.T) {
	store := New()
	defer store.Close()

	ctx := context.Background()

	batch := storage.NewBatch().
		Put("LaunchCount", storage.IntValue(3)).
		Put("FirstLaunch", storage.BoolValue(false)).
		Put("VersionCode", storage.StringValue("1.2.0"))

	if err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	v, ok, err := store.Get(ctx, "LaunchCount")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected LaunchCount to be present")
	}
	n, err := v.AsInt()
	if err != nil || n != 3 {
		t.Errorf("Expected LaunchCount=3, got %d (err=%v)", n, err)
	}

	v, _, _ = store.Get(ctx, "VersionCode")
	if v.AsString() != "1.2.0" {
		t.Errorf("Expected VersionCode=1.2.0, got %q", v.AsString())
	}

	if store.Len() != 3 {
		t.Errorf("Expected 3 keys, got %d", store.Len())
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := New()
	defer store.Close()

	_, ok, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected missing key to report ok=false")
	}
}

func TestMemoryStore_BatchLastValueWins(t *testing.T) {
	store := New()
	defer store.Close()

	ctx := context.Background()
	batch := storage.NewBatch().
		Put("k", storage.IntValue(1)).
		Put("k", storage.IntValue(2))

	if batch.Len() != 1 {
		t.Fatalf("Expected 1 staged key, got %d", batch.Len())
	}
	if err := store.Commit(ctx, batch); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	v, _, _ := store.Get(ctx, "k")
	if v.Int != 2 {
		t.Errorf("Expected 2, got %d", v.Int)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	store := New()
	defer store.Close()

	ctx := context.Background()
	store.Commit(ctx, storage.NewBatch().Put("a", storage.StringValue("x")))

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store after Clear, got %d keys", store.Len())
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := New()
	store.Close()

	ctx := context.Background()
	if _, _, err := store.Get(ctx, "a"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Expected ErrClosed from Get, got %v", err)
	}
	if err := store.Commit(ctx, storage.NewBatch()); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Expected ErrClosed from Commit, got %v", err)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := New()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Get(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
