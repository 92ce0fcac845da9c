// Package sqlite provides a SQLite-backed persisted store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracker_values (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    kind INTEGER NOT NULL,
    str_value TEXT NOT NULL DEFAULT '',
    int_value INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (namespace, key)
);
`

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Store persists tracker values in SQLite.
type Store struct {
	sqlDB     *sql.DB
	namespace string
}

// Open opens a SQLite store and creates its table.
func Open(path, namespace string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if namespace == "" {
		namespace = storage.DefaultNamespace
	}

	dsn := path
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: an in-memory database only exists on the connection that created it,
	// and the tracker never needs concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, namespace: namespace}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get reads one value.
func (s *Store) Get(ctx context.Context, key string) (storage.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Value{}, false, err
	}

	var (
		kind   int
		strVal string
		intVal int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT kind, str_value, int_value FROM tracker_values WHERE namespace = ? AND key = ?`,
		s.namespace, key)
	if err := row.Scan(&kind, &strVal, &intVal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Value{}, false, nil
		}
		return storage.Value{}, false, fmt.Errorf("get %q: %w", key, err)
	}

	switch storage.Kind(kind) {
	case storage.KindString:
		return storage.StringValue(strVal), true, nil
	case storage.KindInt:
		return storage.IntValue(intVal), true, nil
	case storage.KindBool:
		return storage.BoolValue(intVal != 0), true, nil
	default:
		return storage.Value{}, false, fmt.Errorf("get %q: unknown kind %d", key, kind)
	}
}

// Commit upserts every entry of the batch inside one transaction.
func (s *Store) Commit(ctx context.Context, batch *storage.Batch) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tracker_values (namespace, key, kind, str_value, int_value)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET
    kind = excluded.kind,
    str_value = excluded.str_value,
    int_value = excluded.int_value`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch.Entries() {
		var intVal int64
		switch e.Value.Kind {
		case storage.KindInt:
			intVal = e.Value.Int
		case storage.KindBool:
			if e.Value.Bool {
				intVal = 1
			}
		}
		if _, err = stmt.ExecContext(ctx, s.namespace, e.Key, int(e.Value.Kind), e.Value.Str, intVal); err != nil {
			return fmt.Errorf("upsert %q: %w", e.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Clear deletes every value of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tracker_values WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clear namespace: %w", err)
	}
	return nil
}
