// Package redis 行缓存、/me 缓存与限流
package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"anime-forge-api/internal/config"
	"anime-forge-api/pkg/logger"
)

var tracer = otel.Tracer("redis")

const (
	connectTimeout = 5 * time.Second
	slowCommand    = 100 * time.Millisecond
)

// Client 包装 go-redis 连接
type Client struct {
	rdb *redis.Client
}

// NewClient 按配置连接并 ping
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	rdb.AddHook(slowLogHook{threshold: slowCommand})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr(), err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromRedis 包装已有连接，测试用 miniredis
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Redis 底层连接，供 Streams 生产与消费
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪探针
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis unavailable: %w", err)
	}
	if stats := c.rdb.PoolStats(); stats.Timeouts > 0 {
		span.AddEvent(fmt.Sprintf("pool timeouts: %d", stats.Timeouts))
	}
	return nil
}

// slowLogHook 记录超过阈值的命令
type slowLogHook struct {
	threshold time.Duration
}

func (h slowLogHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h slowLogHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		if d := time.Since(start); d > h.threshold {
			logger.Warn(ctx, "slow redis command", "command", cmd.Name(), "duration_ms", d.Milliseconds())
		}
		return err
	}
}

func (h slowLogHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if d := time.Since(start); d > h.threshold {
			logger.Warn(ctx, "slow redis pipeline", "commands", len(cmds), "duration_ms", d.Milliseconds())
		}
		return err
	}
}
