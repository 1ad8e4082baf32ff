package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// errNotFound loader 返回 nil 时的内部标记，结果不入缓存
var errNotFound = errors.New("cache: loader found nothing")

// Cache JSON 读穿缓存；同 key 并发回源合并为一次
type Cache struct {
	client *Client
	group  singleflight.Group
}

func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// ReadThrough 命中返回缓存字节；未命中调用 loader 并写回。
// loader 返回 (nil, nil) 时不写缓存，返回 (nil, nil)。Redis 故障时直接回源。
func (c *Cache) ReadThrough(ctx context.Context, kind, key string, ttl time.Duration, loader func() (any, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.ReadThrough",
		trace.WithAttributes(
			attribute.String("cache.kind", kind),
			attribute.String("cache.key", key),
		))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheRequestsTotal.WithLabelValues(kind, "hit").Inc()
		return val, nil
	case !errors.Is(err, redis.Nil):
		span.RecordError(err)
		logger.Warn(ctx, "cache read failed, loading from source", "key", key, "error", err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.CacheRequestsTotal.WithLabelValues(kind, "miss").Inc()

	result, err, shared := c.group.Do(key, func() (any, error) {
		data, err := loader()
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, errNotFound
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s for cache: %w", kind, err)
		}
		if err := c.client.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return raw, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Invalidate 删除缓存键，并丢弃同 key 进行中的回源结果
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))))
	defer span.End()

	for _, k := range keys {
		c.group.Forget(k)
	}
	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ProjectKey 项目行缓存键
func ProjectKey(projectID string) string {
	return "project:" + projectID
}

// ProfileKey /me 视图缓存键
func ProfileKey(userID string) string {
	return "profile:" + userID
}
