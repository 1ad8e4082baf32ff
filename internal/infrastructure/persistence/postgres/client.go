// Package postgres gorm 仓储、事务与迁移
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"anime-forge-api/internal/config"
	"anime-forge-api/pkg/logger"
)

var tracer = otel.Tracer("postgres")

const connectTimeout = 5 * time.Second

// Client gorm 连接
type Client struct {
	db *gorm.DB
}

// slogWriter 把 gorm 的慢查询与错误输出转到结构化日志
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	logger.Default().Warn("gorm", "detail", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewClient 打开连接池并 ping
func NewClient(cfg *config.PostgresConfig) (*Client, error) {
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(slogWriter{}, gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Database, err)
	}
	return &Client{db: db}, nil
}

// NewClientFromDB 包装已打开的连接，测试用 sqlite
func NewClientFromDB(db *gorm.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck 就绪探针，附带连接池使用情况
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.HealthCheck")
	defer span.End()

	var one int
	if err := c.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("database unavailable: %w", err)
	}
	if sqlDB, err := c.db.DB(); err == nil {
		if st := sqlDB.Stats(); st.MaxOpenConnections > 0 && st.InUse >= st.MaxOpenConnections {
			logger.Warn(ctx, "postgres pool saturated", "in_use", st.InUse, "wait_count", st.WaitCount)
		}
	}
	return nil
}

// isPostgres sqlite 测试库下跳过 RLS 与 postgres 专有语句
func (c *Client) isPostgres() bool {
	return c.db.Dialector.Name() == "postgres"
}
