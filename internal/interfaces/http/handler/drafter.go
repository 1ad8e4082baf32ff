package handler

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/drafter"
	"anime-forge-api/internal/interfaces/http/dto"
)

// DrafterHandler 故事草稿对话
type DrafterHandler struct {
	drafter *drafter.Service
}

// NewDrafterHandler 创建对话处理器
func NewDrafterHandler(svc *drafter.Service) *DrafterHandler {
	return &DrafterHandler{drafter: svc}
}

// OpenSession 新建会话并写入欢迎语
// @Summary 新建故事草稿会话
// @Tags Drafter
// @Produce json
// @Success 201 {object} dto.Response[drafter.Opened]
// @Router /v1/projects/{pid}/story-sessions [post]
func (h *DrafterHandler) OpenSession(c *gin.Context) {
	opened, err := h.drafter.Open(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, opened)
}

// ListSessions 项目下的会话
// @Router /v1/projects/{pid}/story-sessions [get]
func (h *DrafterHandler) ListSessions(c *gin.Context) {
	result, err := h.drafter.ListSessions(c.Request.Context(), dto.BindProjectID(c), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}

// ListMessages 会话消息，按时间正序
// @Router /v1/projects/{pid}/story-sessions/{sid}/messages [get]
func (h *DrafterHandler) ListMessages(c *gin.Context) {
	result, err := h.drafter.ListTurns(c.Request.Context(), dto.BindProjectID(c), dto.BindSessionID(c), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}

// PostMessage 发送消息并返回助手回复
// @Router /v1/projects/{pid}/story-sessions/{sid}/messages [post]
func (h *DrafterHandler) PostMessage(c *gin.Context) {
	var req dto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ex, err := h.drafter.Post(c.Request.Context(), dto.BindProjectID(c), dto.BindSessionID(c), req.Content)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, ex)
}
