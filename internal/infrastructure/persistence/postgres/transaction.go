// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"

	"gorm.io/gorm"

	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
)

// TxManager 事务管理器
type TxManager struct {
	client  *Client
	userCtx *UserContext
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client, userCtx *UserContext) *TxManager {
	return &TxManager{client: client, userCtx: userCtx}
}

// WithTransaction 在事务中执行操作，事务开始时写入当前用户供 RLS 使用。
// repository.AfterCommit 登记的回调在提交成功后按登记顺序执行。
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// 已在事务中，直接执行
	if tx := getTxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "postgres.TxManager.WithTransaction")
	defer span.End()

	hooksCtx, runHooks := repository.WithCommitHooks(ctx)
	err := m.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(hooksCtx, repository.TxKey{}, tx)
		if m.userCtx != nil {
			if userID := session.UserID(ctx); userID != "" {
				if err := m.userCtx.SetUser(txCtx, userID); err != nil {
					return err
				}
			}
		}
		return fn(txCtx)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	runHooks(ctx)
	return nil
}

// getTxFromContext 从上下文获取事务
func getTxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// getDB 根据上下文获取事务连接或普通连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
