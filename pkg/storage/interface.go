package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage is closed")

// Store defines the interface for persisted key/value backends.
// Implementations: memory (testing), badger (on-device), redis (server-side), sqlite (single file)
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value Value, ok bool, err error)

	// Commit applies every put in the batch as one atomic write
	Commit(ctx context.Context, batch *Batch) error

	// Clear removes every key owned by the store
	Clear(ctx context.Context) error

	// Close cleanly shuts down the store
	Close() error
}

// Entry is a single put inside a Batch
type Entry struct {
	Key   string
	Value Value
}

// Batch accumulates puts in memory until they are committed together.
// A key put twice keeps its first position and its last value.
type Batch struct {
	entries []Entry
	index   map[string]int
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{index: make(map[string]int)}
}

// Put stages a value for key
func (b *Batch) Put(key string, value Value) *Batch {
	if i, exists := b.index[key]; exists {
		b.entries[i].Value = value
		return b
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, Entry{Key: key, Value: value})
	return b
}

// Entries returns the staged puts in insertion order
func (b *Batch) Entries() []Entry {
	if b == nil {
		return nil
	}
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of distinct keys staged
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
