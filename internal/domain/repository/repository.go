// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 事务在 context 中的键，仓储据此复用外层事务
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	// WithTransaction fn 返回错误时整体回滚
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 分页参数，Page 从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 越界的页码与页大小回退为默认值或上限
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: page, PageSize: pageSize}
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult items 为 nil 时输出空数组
func NewPagedResult[T any](items []T, total int64, pagination Pagination) *PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pagination.PageSize > 0 {
		pages = int((total + int64(pagination.PageSize) - 1) / int64(pagination.PageSize))
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: pages,
	}
}
