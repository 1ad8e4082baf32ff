package handler

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/project"
	"anime-forge-api/internal/interfaces/http/dto"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projects *project.Service
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// ListProjects 获取当前用户的项目列表
// @Summary 获取项目列表
// @Description 按 updated_at 倒序返回当前用户创建的项目
// @Tags Projects
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]entity.Project]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	result, err := h.projects.ListMine(c.Request.Context(), dto.BindPage(c).Pagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Paged(c, result)
}

// CreateProject 创建项目
// @Summary 创建项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[entity.Project]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := h.projects.Create(c.Request.Context(), req.ToCreateInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, p)
}

// GetProject 获取项目详情
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, p)
}

// UpdateProject 更新项目，仅创建者或管理员
// @Router /v1/projects/{pid} [patch]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := h.projects.Update(c.Request.Context(), dto.BindProjectID(c), req.ToUpdateInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, p)
}

// DeleteProject 删除项目
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), dto.BindProjectID(c)); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// Studio 加载工作室所需的项目、角色与分镜
// @Router /v1/projects/{pid}/studio [get]
func (h *ProjectHandler) Studio(c *gin.Context) {
	st, err := h.projects.Studio(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, st)
}
