package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mistakeknot/interscout/internal/logger"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func countingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchWithoutCache(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "# README")
	f := NewFetcher(time.Second, nil, logger.NewTestLogger(t))

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "# README", body)

	_, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetchNon200IsError(t *testing.T) {
	srv, _ := countingServer(t, http.StatusNotFound, "missing")
	f := NewFetcher(time.Second, nil, logger.NewTestLogger(t))

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchUsesMemoryCache(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "cached body")
	store := NewMemoryStore(4, time.Hour)
	f := NewFetcher(time.Second, store, logger.NewTestLogger(t))

	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "cached body", body)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Contains(t, store.Stats(), "2 hits, 1 misses")
}

func TestFetchUsesRedisCache(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "shared body")
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "test:", time.Minute)
	require.NoError(t, store.Ping(context.Background()))

	f := NewFetcher(time.Second, store, logger.NewTestLogger(t))
	for i := 0; i < 2; i++ {
		body, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "shared body", body)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:readme:")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestFetchBypassesBrokenCache(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "fresh")
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "test:", time.Minute)
	mr.Close()

	f := NewFetcher(time.Second, store, logger.NewTestLogger(t))
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "fresh", body)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestMemoryStoreExpiryAndEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "a", "1"))
	now = now.Add(time.Second)
	require.NoError(t, store.Put(ctx, "b", "2"))
	now = now.Add(time.Second)
	require.NoError(t, store.Put(ctx, "c", "3"))

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry should be evicted")

	value, ok, _ := store.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, "3", value)

	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Get(ctx, "c")
	assert.False(t, ok, "entry should expire after ttl")
}

func TestMemoryStoreStatsEmpty(t *testing.T) {
	assert.Equal(t, "cache: 0 lookups", NewMemoryStore(1, time.Second).Stats())
}

func TestFetchLogsMemoryCacheStats(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, "body")
	core, logs := observer.New(zapcore.DebugLevel)
	f := NewFetcher(time.Second, NewMemoryStore(4, time.Hour), logger.NewZapAdapter(zap.New(core)))

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	entries := logs.FilterMessage("cache stats").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "memory", entries[1].ContextMap()["backend"])
	assert.Contains(t, entries[1].ContextMap()["stats"], "1 hits, 1 misses")
}

func TestFetchRejectsOversizedDocument(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, strings.Repeat("x", maxDocumentBytes+1))
	store := NewMemoryStore(4, time.Hour)
	f := NewFetcher(5*time.Second, store, logger.NewTestLogger(t))

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentTooLarge))

	_, ok, err := store.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, ok, "a truncated document must not be cached")
}

func TestFetchAcceptsDocumentAtLimit(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, strings.Repeat("x", maxDocumentBytes))
	f := NewFetcher(5*time.Second, nil, logger.NewTestLogger(t))

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, maxDocumentBytes)
}
