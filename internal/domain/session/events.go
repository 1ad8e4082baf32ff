package session

import (
	"context"
	"sync"
)

// EventType 认证事件类型
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventTokenRefreshed EventType = "token_refreshed"
	EventSignedOut      EventType = "signed_out"
	EventProfileUpdated EventType = "profile_updated"
)

// Event 认证状态变化
type Event struct {
	Type   EventType
	UserID string
}

// Listener 事件回调
type Listener func(ctx context.Context, evt Event)

// AuthEvents 认证事件分发器
type AuthEvents struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewAuthEvents 创建分发器
func NewAuthEvents() *AuthEvents {
	return &AuthEvents{listeners: make(map[int]Listener)}
}

// Subscribe 注册监听，返回取消订阅函数
func (a *AuthEvents) Subscribe(fn Listener) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

// Publish 同步通知所有监听者
func (a *AuthEvents) Publish(ctx context.Context, evt Event) {
	a.mu.RLock()
	fns := make([]Listener, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, evt)
	}
}

// Len 当前监听者数量
func (a *AuthEvents) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.listeners)
}
