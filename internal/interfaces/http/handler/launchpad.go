package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/funding"
	"anime-forge-api/internal/application/project"
	"anime-forge-api/internal/interfaces/http/dto"
	apperrors "anime-forge-api/pkg/errors"
)

// LaunchpadHandler 众筹展示与资助
type LaunchpadHandler struct {
	projects *project.Service
	funding  *funding.Service
}

// NewLaunchpadHandler 创建 Launchpad 处理器
func NewLaunchpadHandler(projects *project.Service, fundingSvc *funding.Service) *LaunchpadHandler {
	return &LaunchpadHandler{projects: projects, funding: fundingSvc}
}

// List 可资助项目，按已筹金额倒序
// @Summary Launchpad 项目列表
// @Tags Launchpad
// @Produce json
// @Success 200 {object} dto.Response[[]entity.Project]
// @Router /v1/launchpad [get]
func (h *LaunchpadHandler) List(c *gin.Context) {
	result, err := h.projects.Launchpad(c.Request.Context(), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}

// Fund 按联合曲线价格资助项目
// @Summary 资助项目
// @Description 单事务内锁定项目行、计算额度、更新价格并写入流水
// @Tags Launchpad
// @Accept json
// @Produce json
// @Param body body dto.FundRequest true "资助金额"
// @Success 200 {object} dto.Response[funding.Result]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/launchpad/{pid}/fund [post]
func (h *LaunchpadHandler) Fund(c *gin.Context) {
	var req dto.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Fail(c, apperrors.ErrInvalidAmount.WithDetail(err.Error()))
		return
	}

	res, err := h.funding.Fund(c.Request.Context(), dto.BindProjectID(c), req.Amount)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, res)
}

// Quote 资助预览，不写入
// @Router /v1/launchpad/{pid}/quote [get]
func (h *LaunchpadHandler) Quote(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		dto.Fail(c, apperrors.ErrInvalidAmount)
		return
	}

	q, err := h.funding.Quote(c.Request.Context(), dto.BindProjectID(c), amount)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, q)
}

// Transactions 资助流水
// @Router /v1/launchpad/{pid}/transactions [get]
func (h *LaunchpadHandler) Transactions(c *gin.Context) {
	result, err := h.funding.ListTransactions(c.Request.Context(), dto.BindProjectID(c), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}
