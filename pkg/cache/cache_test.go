package cache

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := url.Values{}
	a.Set("team", "42")
	a.Set("league", "39")
	a.Set("season", "2023")
	b := url.Values{}
	b.Set("season", "2023")
	b.Set("league", "39")
	b.Set("team", "42")

	assert.Equal(t, Key("/teams/statistics", a), Key("/teams/statistics", b))
	assert.Equal(t, "/teams/statistics?league=39&season=2023&team=42", Key("/teams/statistics", a))
	assert.Equal(t, "/status", Key("/status", nil))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	mc := NewMemoryCache()
	mc.now = func() time.Time { return now }

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	value := []byte(`{"response":[]}`)
	require.NoError(t, mc.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'
	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"response":[]}`, string(got), "stored values are copied")

	require.NoError(t, mc.Set(ctx, "forever", []byte("1"), 0))

	now = now.Add(time.Minute)
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, mc.Len(), "expired entries are dropped on read")

	got, err = mc.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))

	require.NoError(t, mc.Close())
	assert.Equal(t, 0, mc.Len())
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	sc, err := NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })

	now := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	sc.now = func() time.Time { return now }

	_, err = sc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, sc.Set(ctx, "k", []byte("first"), time.Hour))
	require.NoError(t, sc.Set(ctx, "k", []byte("second"), time.Hour))
	got, err := sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, sc.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, sc.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	_, err = sc.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)

	now = now.Add(2 * time.Hour)
	purged, err := sc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = sc.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestSQLiteCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	sc, err := NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	require.NoError(t, sc.Set(ctx, "k", []byte("kept"), time.Hour))
	require.NoError(t, sc.Close())

	sc, err = NewSQLiteCache(ctx, path)
	require.NoError(t, err)
	defer sc.Close()
	got, err := sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = New(ctx, Options{Backend: "none"})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	c, err = New(ctx, Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)
	require.NoError(t, c.Close())

	_, err = New(ctx, Options{Backend: "memcached"})
	assert.ErrorContains(t, err, "unknown backend")
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, "127.0.0.1:1", "", 0)
	assert.ErrorContains(t, err, "redis: ping")
}

// TestRedisCache runs against a live server when PODDS_TEST_REDIS_ADDR is set
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("PODDS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PODDS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rc, err := NewRedisCache(ctx, addr, "", 0)
	require.NoError(t, err)
	defer rc.Close()

	_, err = rc.Get(ctx, "podds-test-missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, rc.Set(ctx, "podds-test", []byte("v"), time.Minute))
	got, err := rc.Get(ctx, "podds-test")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
