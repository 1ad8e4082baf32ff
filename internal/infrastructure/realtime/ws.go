package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NewUpgrader 按来源白名单校验，空白名单或含 * 时放行
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// Serve 升级连接并保持到客户端断开，入站消息被忽略
func (h *Hub) Serve(c *gin.Context, upgrader *websocket.Upgrader, projectID string) error {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return err
	}

	cl := h.join(projectID, ws)
	defer h.leave(projectID, cl)

	// writer 启动前同步写出，保证 welcome 先于排队的广播
	if err := h.welcome(projectID, cl); err != nil {
		return fmt.Errorf("write welcome: %w", err)
	}
	go h.writePump(projectID, cl)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) welcome(projectID string, cl *client) error {
	b, err := json.Marshal(Envelope{Type: "welcome", ProjectID: projectID, Data: map[string]int{"clients": h.Count(projectID)}})
	if err != nil {
		return err
	}
	return h.write(cl.ws, b)
}
