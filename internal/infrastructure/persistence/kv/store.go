// Package kv provides the browser-scoped key-value storage behind shopper
// sessions and visitor identity.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/database"
)

// Store is a string key-value store with optional per-key expiry.
// A zero ttl never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by stores that need expired rows swept periodically.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Driver names accepted by Open besides the SQL drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Options selects and configures the backing store.
type Options struct {
	Driver   string
	DSN      string
	RedisURL string
	Prefix   string
	Pool     database.PoolConfig
}

// Open builds the configured store.
func Open(ctx context.Context, opts Options, logger *logging.ChanneledLogger) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		url := opts.RedisURL
		if url == "" {
			url = opts.DSN
		}
		return NewRedisStoreFromURL(ctx, url, opts.Prefix)
	case database.DriverSQLite, database.DriverLibSQL, database.DriverPostgres:
		db, err := database.NewConnectionWithLogger(ctx, opts.Driver, opts.DSN, opts.Pool, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", opts.Driver, err)
		}
		if err := database.NewTableCreator().CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLStore(db), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
