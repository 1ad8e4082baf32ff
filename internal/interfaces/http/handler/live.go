package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/infrastructure/realtime"
	"anime-forge-api/internal/interfaces/http/dto"
	"anime-forge-api/pkg/logger"
)

// LiveHandler 项目实时动态
type LiveHandler struct {
	hub      *realtime.Hub
	guard    *access.Guard
	upgrader *websocket.Upgrader
}

// NewLiveHandler 创建实时动态处理器
func NewLiveHandler(hub *realtime.Hub, guard *access.Guard, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{hub: hub, guard: guard, upgrader: realtime.NewUpgrader(allowedOrigins)}
}

// Live 升级为 WebSocket，推送项目的溯源事件
// @Router /v1/projects/{pid}/live [get]
func (h *LiveHandler) Live(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.guard.Project(ctx, dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if err := h.hub.Serve(c, h.upgrader, p.ID); err != nil {
		logger.Warn(ctx, "live connection ended", "error", err, "project_id", p.ID)
	}
}
