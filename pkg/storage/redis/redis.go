package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

// Store implements storage.Store with one Redis hash per namespace.
// Every persisted key is a field of that hash, so a Commit is a single HSET inside MULTI/EXEC.
type Store struct {
	client *redis.Client
	hash   string
	owned  bool
}

// Config holds Redis connection settings
type Config struct {
	Addr       string
	Password   string
	DB         int
	Namespace  string
	MaxRetries uint64
}

// New connects to Redis, pinging with exponential backoff until it answers or MaxRetries is spent
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.MaxRetries), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.WithField("addr", cfg.Addr).Warnf("redis ping failed: %v, retrying...", err)
			return err
		}
		return nil
	}, b)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	s := NewWithClient(client, cfg.Namespace)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. Close leaves the client open.
func NewWithClient(client *redis.Client, namespace string) *Store {
	return &Store{
		client: client,
		hash:   strings.TrimSuffix(storage.KeyPrefix(namespace), ":"),
	}
}

// Get reads one field of the namespace hash
func (s *Store) Get(ctx context.Context, key string) (storage.Value, bool, error) {
	data, err := s.client.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.Value{}, false, nil
	}
	if err != nil {
		return storage.Value{}, false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	v, err := storage.DecodeValue(data)
	if err != nil {
		return storage.Value{}, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, true, nil
}

// Commit writes every entry of the batch in one MULTI/EXEC transaction
func (s *Store) Commit(ctx context.Context, batch *storage.Batch) error {
	entries := batch.Entries()
	if len(entries) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(entries)*2)
	for _, e := range entries {
		data, err := storage.EncodeValue(e.Value)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", e.Key, err)
		}
		fields = append(fields, e.Key, data)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hash, fields...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Clear deletes the namespace hash
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.hash).Err(); err != nil {
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}

// Close closes the client if the store opened it
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
