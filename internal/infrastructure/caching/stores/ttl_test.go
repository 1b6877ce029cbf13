package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLStoreExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewTTLStore[string]("test", time.Minute)
	s.now = func() time.Time { return now }

	s.Set("a", "1")
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, ok = s.Get("a")
	assert.False(t, ok)

	s.Set("b", "2")
	assert.Equal(t, 1, s.PurgeExpired(now))
	assert.Equal(t, 0, s.PurgeExpired(now))

	stats := s.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	s.Delete("b")
	assert.Equal(t, 0, s.Stats().Entries)
}
