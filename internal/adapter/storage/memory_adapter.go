package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	goCache "github.com/patrickmn/go-cache"

	"github.com/rl1809/invoice-dashboard/internal/port"
)

const memoryCleanupInterval = time.Hour

// MemoryPageCache is the in-process PageCache used when no Redis is configured.
type MemoryPageCache struct {
	cache *goCache.Cache

	mu       sync.Mutex
	versions map[string]int64
}

func NewMemoryPageCache(ttl time.Duration) *MemoryPageCache {
	if ttl <= 0 {
		ttl = defaultPageTTL
	}
	return &MemoryPageCache{
		cache:    goCache.New(ttl, memoryCleanupInterval),
		versions: make(map[string]int64),
	}
}

func (m *MemoryPageCache) Render(ctx context.Context, path, variant string, render port.RenderFunc) ([]byte, error) {
	key := pageKey(path, m.version(path), variant)
	if body, ok := m.cache.Get(key); ok {
		return body.([]byte), nil
	}

	body, err := render(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.SetDefault(key, body)
	return body, nil
}

func (m *MemoryPageCache) Revalidate(_ context.Context, path string) error {
	m.mu.Lock()
	m.versions[path]++
	m.mu.Unlock()

	prefix := pageKeyPrefix + path + ":"
	for k := range m.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			m.cache.Delete(k)
		}
	}
	return nil
}

func (m *MemoryPageCache) version(path string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[path]
}
