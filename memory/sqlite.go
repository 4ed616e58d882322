package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps memory blobs in a single SQLite table so they survive
// restarts of the controller.
type SQLiteStore struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and ticks
	// are sequential anyway.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate memory db: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		blob BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (bucket, key)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var blob []byte
	err := s.conn.GetContext(ctx, &blob, "SELECT blob FROM memory WHERE bucket = ? AND key = ?", bucket, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return blob, nil
}

func (s *SQLiteStore) Put(ctx context.Context, bucket, key string, blob []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO memory (bucket, key, blob, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		bucket, key, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, bucket, key string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM memory WHERE bucket = ? AND key = ?", bucket, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	if err := s.conn.SelectContext(ctx, &keys, "SELECT key FROM memory WHERE bucket = ? ORDER BY key", bucket); err != nil {
		return nil, fmt.Errorf("keys %s: %w", bucket, err)
	}
	return keys, nil
}

func (s *SQLiteStore) List(ctx context.Context, bucket string) ([]Entry, error) {
	var entries []Entry
	err := s.conn.SelectContext(ctx, &entries,
		"SELECT key, length(blob) AS size, updated_at FROM memory WHERE bucket = ? ORDER BY key",
		bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	return entries, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
