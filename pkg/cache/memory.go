package cache

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMemoryTTL = 24 * time.Hour
	janitorInterval  = 5 * time.Minute
)

// MemoryCache is an in-process Client used when Redis is not configured.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type memoryItem struct {
	value      string
	expiration time.Time
}

// NewMemoryCache creates an in-memory cache with a background janitor; Close stops it.
func NewMemoryCache() *MemoryCache {
	m := &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get retrieves a value from memory cache.
func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || m.now().After(item.expiration) {
		return "", ErrMiss
	}
	return item.value, nil
}

// Set stores a value; a zero expiration keeps it for a day.
func (m *MemoryCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}

	m.mu.Lock()
	m.items[key] = memoryItem{value: value, expiration: m.now().Add(expiration)}
	m.mu.Unlock()
	return nil
}

// Delete removes keys from memory cache.
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.items, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

// Close stops the janitor and drops all entries.
func (m *MemoryCache) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})

	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *MemoryCache) evictExpired() {
	now := m.now()
	m.mu.Lock()
	for key, item := range m.items {
		if now.After(item.expiration) {
			delete(m.items, key)
		}
	}
	m.mu.Unlock()
}
