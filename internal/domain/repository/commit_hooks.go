package repository

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// WithCommitHooks 为一次事务收集提交后回调。
// Transactor 在提交成功后调用 run；回滚时丢弃，不调用 run。
func WithCommitHooks(ctx context.Context) (context.Context, func(context.Context)) {
	h := &commitHooks{}
	run := func(ctx context.Context) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, commitHooksKey{}, h), run
}

// AfterCommit 事务内登记的回调在提交成功后执行，事务外立即执行
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if h, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn(ctx)
}
