package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/interfaces/http/dto"
	apperrors "anime-forge-api/pkg/errors"
)

// ProvenanceHandler 创作溯源查询与导出
type ProvenanceHandler struct {
	provenance *provenance.Service
}

// NewProvenanceHandler 创建溯源处理器
func NewProvenanceHandler(svc *provenance.Service) *ProvenanceHandler {
	return &ProvenanceHandler{provenance: svc}
}

func bindProvenanceFilter(c *gin.Context) (repository.ProvenanceFilter, error) {
	f := repository.ProvenanceFilter{EntityType: c.Query("entity_type")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, apperrors.ErrInvalidParam.WithDetail("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f.Normalize(), nil
}

// List 溯源事件，按时间倒序，最多 100 条
// @Summary 溯源事件列表
// @Tags Provenance
// @Produce json
// @Param entity_type query string false "实体类型"
// @Param limit query int false "条数" default(100)
// @Success 200 {object} dto.Response[[]entity.ProvenanceLog]
// @Router /v1/projects/{pid}/provenance [get]
func (h *ProvenanceHandler) List(c *gin.Context) {
	filter, err := bindProvenanceFilter(c)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	logs, err := h.provenance.List(c.Request.Context(), dto.BindProjectID(c), filter)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if logs == nil {
		logs = []*entity.ProvenanceLog{}
	}
	dto.Success(c, logs)
}

// Export 以附件形式下载 JSON 数组
// @Produce application/json
// @Router /v1/projects/{pid}/provenance/export [get]
func (h *ProvenanceHandler) Export(c *gin.Context) {
	filter, err := bindProvenanceFilter(c)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	export, err := h.provenance.Export(c.Request.Context(), dto.BindProjectID(c), filter)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Header("X-Total-Count", strconv.Itoa(export.Count))
	c.Data(http.StatusOK, "application/json; charset=utf-8", export.Body)
}

// Stats 按动作统计
// @Router /v1/projects/{pid}/provenance/stats [get]
func (h *ProvenanceHandler) Stats(c *gin.Context) {
	filter, err := bindProvenanceFilter(c)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	stats, err := h.provenance.Stats(c.Request.Context(), dto.BindProjectID(c), filter)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, stats)
}
