package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store caches fetched documents by URL. Get reports a miss with ok=false and
// a nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key string, value string) error
	Name() string
}

type cacheEntry struct {
	value     string
	createdAt time.Time
}

func (e *cacheEntry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.createdAt) > ttl
}

// MemoryStore is a process-local Store with a TTL and a size bound. When full,
// the oldest entry is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	ttl        time.Duration
	hits       int64
	misses     int64
	now        func() time.Time
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{
		entries:    make(map[string]*cacheEntry, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.misses++
		return "", false, nil
	}
	if entry.expired(m.ttl, m.now()) {
		delete(m.entries, key)
		m.misses++
		return "", false, nil
	}
	m.hits++
	return entry.value, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		for k, v := range m.entries {
			if oldestKey == "" || v.createdAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.createdAt
			}
		}
		delete(m.entries, oldestKey)
	}

	m.entries[key] = &cacheEntry{value: value, createdAt: m.now()}
	return nil
}

// Stats returns hit/miss counts for diagnostics.
func (m *MemoryStore) Stats() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.hits + m.misses
	if total == 0 {
		return "cache: 0 lookups"
	}
	hitRate := float64(m.hits) / float64(total) * 100
	return fmt.Sprintf("cache: %d entries, %d hits, %d misses (%.0f%% hit rate)",
		len(m.entries), m.hits, m.misses, hitRate)
}
