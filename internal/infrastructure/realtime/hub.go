// Package realtime 项目溯源事件的 websocket 推送
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/pkg/metrics"
)

const (
	defaultWriteTimeout = 2 * time.Second
	defaultSendBuffer   = 64
)

// Envelope 推送给客户端的消息
type Envelope struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	Data      any    `json:"data,omitempty"`
}

// client 一条连接；send 由 writer 独占消费，ws 只有 writer 写
type client struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Hub 按项目分组的 websocket 连接
type Hub struct {
	mu           sync.RWMutex
	rooms        map[string]map[*client]struct{}
	closed       bool
	writeTimeout time.Duration
	sendBuffer   int
}

func NewHub(writeTimeout time.Duration, sendBuffer int) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		rooms:        make(map[string]map[*client]struct{}),
		writeTimeout: writeTimeout,
		sendBuffer:   sendBuffer,
	}
}

// join 登记连接，writer 尚未启动；Hub 已关闭时直接断开
func (h *Hub) join(projectID string, ws *websocket.Conn) *client {
	c := &client{
		ws:   ws,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.stop()
		return c
	}
	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[projectID] = room
	}
	room[c] = struct{}{}
	metrics.LiveClients.Inc()
	return c
}

// leave 移除并关闭连接，可重复调用
func (h *Hub) leave(projectID string, c *client) {
	h.mu.Lock()
	h.removeLocked(projectID, c)
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) removeLocked(projectID string, c *client) bool {
	room, ok := h.rooms[projectID]
	if !ok {
		return false
	}
	if _, exists := room[c]; !exists {
		return false
	}
	delete(room, c)
	metrics.LiveClients.Dec()
	if len(room) == 0 {
		delete(h.rooms, projectID)
	}
	return true
}

// writePump 串行写出队列中的消息，写失败即断开
func (h *Hub) writePump(projectID string, c *client) {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			if err := h.write(c.ws, b); err != nil {
				h.leave(projectID, c)
				return
			}
		}
	}
}

func (h *Hub) write(ws *websocket.Conn, b []byte) error {
	_ = ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	return ws.WriteMessage(websocket.TextMessage, b)
}

// Broadcast 推送溯源事件
func (h *Hub) Broadcast(projectID string, log *entity.ProvenanceLog) {
	h.Send(projectID, Envelope{Type: "provenance", ProjectID: projectID, Data: log})
}

// Send 向项目房间推送任意消息，只入队不写 socket；队列已满的连接被断开
func (h *Hub) Send(projectID string, env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[projectID] {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.mu.Lock()
		dropped := h.removeLocked(projectID, c)
		h.mu.Unlock()
		c.stop()
		if dropped {
			metrics.LiveClientsDropped.Inc()
		}
	}
}

// Count 项目在线连接数
func (h *Hub) Count(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Close 关闭全部连接，之后的新连接立即断开
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for projectID, room := range h.rooms {
		for c := range room {
			c.stop()
			metrics.LiveClients.Dec()
		}
		delete(h.rooms, projectID)
	}
}
