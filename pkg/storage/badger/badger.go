package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

// MinMemoryMB is the smallest memory budget the store opens with
const MinMemoryMB = 8

// Store implements storage.Store using BadgerDB (LSM tree)
type Store struct {
	db     *badger.DB
	prefix string
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// Namespace isolates one install's keys from another's sharing the same directory
	Namespace string

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = small on-device defaults).
	// Values below MinMemoryMB are raised to it.
	MaxMemoryMB int64

	// Logger receives BadgerDB's internal logs (nil = logrus standard logger at warn level)
	Logger logrus.FieldLogger
}

// New opens a BadgerDB store
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// The lifecycle record is a dozen small keys: keep memtables and caches tiny.
	memoryMB := cfg.MaxMemoryMB
	if memoryMB < MinMemoryMB {
		memoryMB = MinMemoryMB
	}
	memTableSize := memoryMB * 1024 * 1024 / 3

	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(2).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithNumCompactors(2).
		WithValueThreshold(1024).
		WithValueLogFileSize(16 << 20).
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{db: db, prefix: storage.KeyPrefix(cfg.Namespace)}, nil
}

// Get reads one key in a read-only transaction
func (s *Store) Get(ctx context.Context, key string) (storage.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Value{}, false, err
	}

	var (
		value storage.Value
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := storage.DecodeValue(val)
			if err != nil {
				return err
			}
			value, found = v, true
			return nil
		})
	})
	if err != nil {
		return storage.Value{}, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, found, nil
}

// Commit writes the whole batch in a single read-write transaction. The
// context is checked once every write is staged; a cancelled commit discards
// the transaction, so an error always means nothing was written.
func (s *Store) Commit(ctx context.Context, batch *storage.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, e := range batch.Entries() {
			value, err := storage.EncodeValue(e.Value)
			if err != nil {
				return fmt.Errorf("failed to encode %q: %w", e.Key, err)
			}
			if err := txn.Set(s.key(e.Key), value); err != nil {
				return fmt.Errorf("failed to write %q: %w", e.Key, err)
			}
		}
		return cancelled(ctx)
	})
	if err != nil {
		return fmt.Errorf("commit discarded: %w", err)
	}
	return nil
}

// cancelled reports whether ctx is done without blocking
func cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	default:
		return nil
	}
}

// Clear drops every key of this store's namespace
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(s.prefix)); err != nil {
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}

// Close shuts down BadgerDB cleanly
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection
// discardRatio: run GC if this fraction of file can be discarded (0.5 = 50%)
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

func (s *Store) key(k string) []byte {
	return []byte(s.prefix + k)
}
