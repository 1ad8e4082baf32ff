package handler

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/catalog"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/interfaces/http/dto"
)

// CatalogHandler 画风库与项目权益
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// ListStyles 启用中的画风
// @Router /v1/styles [get]
func (h *CatalogHandler) ListStyles(c *gin.Context) {
	styles, err := h.catalog.ListStyles(c.Request.Context())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if styles == nil {
		styles = []*entity.Style{}
	}
	dto.Success(c, styles)
}

// CreateStyle 新建画风，仅管理员
// @Router /v1/styles [post]
func (h *CatalogHandler) CreateStyle(c *gin.Context) {
	var req dto.CreateStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	style, err := h.catalog.CreateStyle(c.Request.Context(), req.ToStyleInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, style)
}

// ListRights 项目权益持有人
// @Router /v1/projects/{pid}/rights [get]
func (h *CatalogHandler) ListRights(c *gin.Context) {
	rights, err := h.catalog.ListRights(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if rights == nil {
		rights = []*entity.ProjectRight{}
	}
	dto.Success(c, rights)
}

// GrantRight 授予权益，总比例不超过 100
// @Router /v1/projects/{pid}/rights [post]
func (h *CatalogHandler) GrantRight(c *gin.Context) {
	var req dto.GrantRightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	right, err := h.catalog.GrantRight(c.Request.Context(), dto.BindProjectID(c), req.ToRightInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, right)
}
