package redis

import (
	"context"
	"time"

	"anime-forge-api/internal/domain/session"
	"anime-forge-api/pkg/logger"
)

// ProfileCache 缓存 /me 视图，登出或资料变更时失效
type ProfileCache struct {
	cache       *Cache
	ttl         time.Duration
	unsubscribe func()
}

// NewProfileCache 创建资料缓存并订阅认证事件
func NewProfileCache(cache *Cache, events *session.AuthEvents, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	pc := &ProfileCache{cache: cache, ttl: ttl}
	if events != nil {
		pc.unsubscribe = events.Subscribe(pc.onAuthEvent)
	}
	return pc
}

// GetOrLoad 读取资料视图，未命中时调用 loader
func (pc *ProfileCache) GetOrLoad(ctx context.Context, userID string, loader func() (any, error)) ([]byte, error) {
	return pc.cache.ReadThrough(ctx, "profile", ProfileKey(userID), pc.ttl, loader)
}

// Evict 删除用户资料缓存
func (pc *ProfileCache) Evict(ctx context.Context, userID string) {
	if err := pc.cache.Invalidate(ctx, ProfileKey(userID)); err != nil {
		logger.Warn(ctx, "failed to evict profile cache", "user_id", userID, "error", err.Error())
	}
}

// Close 取消事件订阅
func (pc *ProfileCache) Close() {
	if pc.unsubscribe != nil {
		pc.unsubscribe()
	}
}

func (pc *ProfileCache) onAuthEvent(ctx context.Context, evt session.Event) {
	switch evt.Type {
	case session.EventSignedOut, session.EventProfileUpdated:
		pc.Evict(ctx, evt.UserID)
	}
}
