package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// 滑动窗口：清理过期成员、计数、未超限时写入，整体在一个脚本内完成。
// 返回 {allowed, count}
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return {0, count}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return {1, count + 1}
`)

// RateLimiter 基于有序集合的滑动窗口限流
type RateLimiter struct {
	client *Client
	now    func() time.Time
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow 窗口内请求数未达 limit 时记录本次请求并放行
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	defer span.End()
	span.SetAttributes(attribute.String("ratelimit.key", key), attribute.Int("ratelimit.limit", limit))

	now := l.now().UnixMilli()
	// 成员带随机后缀，同一毫秒的请求不会互相覆盖
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()
	res, err := slidingWindow.Run(ctx, l.client.rdb, []string{key}, now, window.Milliseconds(), limit, member).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	allowed := res[0] == 1
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed), attribute.Int64("ratelimit.count", res[1]))
	return allowed, nil
}

// Remaining 当前窗口剩余次数，只读
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Remaining")
	defer span.End()

	from := l.now().Add(-window).UnixMilli()
	count, err := l.client.rdb.ZCount(ctx, key, "("+strconv.FormatInt(from, 10), "+inf").Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count rate limit window: %w", err)
	}
	return max(limit-int(count), 0), nil
}

// BuildUserRateLimitKey subject 为用户 ID 或 ip:<addr>，scope 区分 api 与 generate
func BuildUserRateLimitKey(subject, scope string) string {
	return "ratelimit:" + scope + ":" + subject
}
