package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/director"
	"anime-forge-api/internal/interfaces/http/dto"
)

// DirectorHandler Director's Choice 处理器
type DirectorHandler struct {
	director *director.Service
}

// NewDirectorHandler 创建 Director's Choice 处理器
func NewDirectorHandler(svc *director.Service) *DirectorHandler {
	return &DirectorHandler{director: svc}
}

// outcomeStatus 回退结果同样返回 200，限流与欠费沿用网关状态码
func outcomeStatus(o director.Outcome) int {
	switch o {
	case director.OutcomeRateLimited:
		return http.StatusTooManyRequests
	case director.OutcomePaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

func writeVariations(c *gin.Context, res *director.VariationsResult) {
	msg := res.Message
	if msg == "" {
		msg = string(res.Outcome)
	}
	dto.WithStatus(c, outcomeStatus(res.Outcome), msg, res)
}

// PanelVariations 基于分镜与项目角色生成 4 个画面变体
// @Summary 生成分镜变体
// @Description 始终返回 4 个变体；模型失败时使用本地变体，限流返回 429，欠费返回 402
// @Tags Director
// @Accept json
// @Produce json
// @Param body body dto.PanelVariationsRequest false "画风偏好"
// @Success 200 {object} dto.Response[director.VariationsResult]
// @Failure 429 {object} dto.Response[director.VariationsResult]
// @Failure 402 {object} dto.Response[director.VariationsResult]
// @Router /v1/projects/{pid}/panels/{panelId}/variations [post]
func (h *DirectorHandler) PanelVariations(c *gin.Context) {
	var req dto.PanelVariationsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	res, err := h.director.GenerateForPanel(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c), req.StylePreferences)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	writeVariations(c, res)
}

// GenerateVariations 直接按描述生成变体
// @Router /v1/ai/panel-variations [post]
func (h *DirectorHandler) GenerateVariations(c *gin.Context) {
	var req director.VariationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	writeVariations(c, h.director.Generate(c.Request.Context(), req))
}

// Choose 选定变体并更新分镜画面
// @Router /v1/projects/{pid}/panels/{panelId}/choice [post]
func (h *DirectorHandler) Choose(c *gin.Context) {
	var req dto.DirectorChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	choice, err := h.director.Select(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c), req.ToChoiceInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, choice)
}

// Choices 分镜历史选择
// @Router /v1/projects/{pid}/panels/{panelId}/choices [get]
func (h *DirectorHandler) Choices(c *gin.Context) {
	result, err := h.director.ListChoices(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}
