package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

const (
	pageKeyPrefix        = "page:"
	pageVersionKeyPrefix = "pagever:"
	defaultPageTTL       = 10 * time.Minute
)

// RedisPageCache keeps one generation counter per path. Entries are keyed by
// generation, so Revalidate is a single INCR and stale entries age out by TTL.
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisPageCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisPageCache {
	if ttl <= 0 {
		ttl = defaultPageTTL
	}
	return &RedisPageCache{client: client, ttl: ttl, logger: log}
}

func (r *RedisPageCache) Render(ctx context.Context, path, variant string, render port.RenderFunc) ([]byte, error) {
	version, err := r.version(ctx, path)
	if err != nil {
		r.logger.Warnw("page cache unavailable, rendering uncached", "path", path, "error", err)
		return render(ctx)
	}

	key := pageKey(path, version, variant)
	body, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Warnw("page cache read failed", "key", key, "error", err)
	}

	body, err = render(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
		r.logger.Warnw("page cache write failed", "key", key, "error", err)
	}
	return body, nil
}

func (r *RedisPageCache) Revalidate(ctx context.Context, path string) error {
	return r.client.Incr(ctx, pageVersionKeyPrefix+path).Err()
}

func (r *RedisPageCache) version(ctx context.Context, path string) (int64, error) {
	v, err := r.client.Get(ctx, pageVersionKeyPrefix+path).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func pageKey(path string, version int64, variant string) string {
	return fmt.Sprintf("%s%s:%d:%s", pageKeyPrefix, path, version, variant)
}
