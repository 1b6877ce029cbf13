package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/database"
)

// SQLStore persists entries in the kv_entries table.
type SQLStore struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT v FROM kv_entries WHERE k = ? AND (expires_at = 0 OR expires_at > ?)`

	start := time.Now()
	var value string
	err := s.db.QueryRowContext(ctx, s.db.Rebind(query), key, s.now().Unix()).Scan(&value)
	s.db.CheckSlowQuery("KV_GET", time.Since(start))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key: %w", err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const query = `INSERT INTO kv_entries (k, v, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at, updated_at = excluded.updated_at`

	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).Unix()
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), key, value, expiresAt, now.Unix())
	s.db.CheckSlowQuery("KV_SET", time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_entries WHERE k = ?`), key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *SQLStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_entries WHERE expires_at <> 0 AND expires_at <= ?`), s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired keys: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLStore) Close() error                   { return s.db.Close() }
