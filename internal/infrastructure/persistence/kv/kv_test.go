package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(context.Background(), Options{Driver: "sqlite3", DSN: ":memory:"}, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "a", "1", 0))
			require.NoError(t, store.Set(ctx, "a", "2", 0))
			require.NoError(t, store.Set(ctx, "b", "x", time.Hour))

			v, ok, err := store.Get(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)

			require.NoError(t, store.Delete(ctx, "a"))
			_, ok, _ = store.Get(ctx, "a")
			assert.False(t, ok)

			v, ok, _ = store.Get(ctx, "b")
			assert.True(t, ok)
			assert.Equal(t, "x", v)

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Minute)
	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestSQLExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Driver: "sqlite3", DSN: ":memory:"}, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer store.Close()

	sqlStore := store.(*SQLStore)
	now := time.Unix(1_700_000_000, 0)
	sqlStore.now = func() time.Time { return now }

	require.NoError(t, sqlStore.Set(ctx, "k", "v", time.Minute))
	now = now.Add(time.Hour)
	_, ok, err := sqlStore.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := sqlStore.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"}, logging.NewDiscardLogger())
	assert.Error(t, err)
}
