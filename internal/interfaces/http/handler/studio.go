package handler

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/studio"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/interfaces/http/dto"
	apperrors "anime-forge-api/pkg/errors"
)

// StudioHandler 故事设定集、角色库与分镜编辑
type StudioHandler struct {
	studio *studio.Service
}

// NewStudioHandler 创建工作室处理器
func NewStudioHandler(svc *studio.Service) *StudioHandler {
	return &StudioHandler{studio: svc}
}

// GetStoryBible 读取故事设定集
// @Summary 读取故事设定集
// @Tags Studio
// @Produce json
// @Success 200 {object} dto.Response[entity.StoryBible]
// @Router /v1/projects/{pid}/story-bible [get]
func (h *StudioHandler) GetStoryBible(c *gin.Context) {
	bible, err := h.studio.GetStoryBible(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, bible)
}

// SaveStoryBible 整体保存故事设定集
// @Router /v1/projects/{pid}/story-bible [put]
func (h *StudioHandler) SaveStoryBible(c *gin.Context) {
	var bible entity.StoryBible
	if err := c.ShouldBindJSON(&bible); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	saved, err := h.studio.SaveStoryBible(c.Request.Context(), dto.BindProjectID(c), &bible)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, saved)
}

// GenerateStoryBible 补全空白字段，不保存
// @Router /v1/projects/{pid}/story-bible/generate [post]
func (h *StudioHandler) GenerateStoryBible(c *gin.Context) {
	var req dto.GenerateStoryBibleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	draft, err := h.studio.GenerateStoryBible(c.Request.Context(), dto.BindProjectID(c), req.StoryBible)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, draft)
}

// ListCharacters 角色列表，selected 查询参数为前端当前选中项
// @Router /v1/projects/{pid}/characters [get]
func (h *StudioHandler) ListCharacters(c *gin.Context) {
	list, err := h.studio.ListCharacters(c.Request.Context(), dto.BindProjectID(c), c.Query("selected"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, list)
}

// CreateCharacter 新建角色并选中
// @Router /v1/projects/{pid}/characters [post]
func (h *StudioHandler) CreateCharacter(c *gin.Context) {
	var req dto.CharacterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	res, err := h.studio.CreateCharacter(c.Request.Context(), dto.BindProjectID(c), req.ToCharacterInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, res)
}

// UpdateCharacter 更新角色
// @Router /v1/projects/{pid}/characters/{cid} [patch]
func (h *StudioHandler) UpdateCharacter(c *gin.Context) {
	var req dto.CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ch, err := h.studio.UpdateCharacter(c.Request.Context(), dto.BindProjectID(c), dto.BindCharacterID(c), req.ToCharacterInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, ch)
}

// DeleteCharacter 删除角色并返回新的选中项
// @Router /v1/projects/{pid}/characters/{cid} [delete]
func (h *StudioHandler) DeleteCharacter(c *gin.Context) {
	res, err := h.studio.DeleteCharacter(c.Request.Context(), dto.BindProjectID(c), dto.BindCharacterID(c), c.Query("selected"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, res)
}

// GenerateStyleDNA 生成并保存角色 Style DNA
// @Router /v1/projects/{pid}/characters/{cid}/style-dna [post]
func (h *StudioHandler) GenerateStyleDNA(c *gin.Context) {
	res, err := h.studio.GenerateStyleDNA(c.Request.Context(), dto.BindProjectID(c), dto.BindCharacterID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, res)
}

// ListPanels 分镜列表，可按章节与页过滤
// @Param chapter query int false "章节"
// @Param page query int false "页"
// @Router /v1/projects/{pid}/panels [get]
func (h *StudioHandler) ListPanels(c *gin.Context) {
	chapter, ok := dto.OptionalInt(c, "chapter")
	if !ok {
		dto.Fail(c, apperrors.ErrInvalidParam.WithDetail("chapter must be an integer"))
		return
	}
	page, ok := dto.OptionalInt(c, "page")
	if !ok {
		dto.Fail(c, apperrors.ErrInvalidParam.WithDetail("page must be an integer"))
		return
	}

	panels, err := h.studio.ListPanels(c.Request.Context(), dto.BindProjectID(c), &repository.PanelFilter{
		ChapterNumber: chapter,
		PageNumber:    page,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if panels == nil {
		panels = []*entity.MangaPanel{}
	}
	dto.Success(c, panels)
}

// AddPanel 在指定章节页末尾新增分镜
// @Router /v1/projects/{pid}/panels [post]
func (h *StudioHandler) AddPanel(c *gin.Context) {
	var req dto.AddPanelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	panel, err := h.studio.AddPanel(c.Request.Context(), dto.BindProjectID(c), studio.AddPanelInput{
		ChapterNumber: req.ChapterNumber,
		PageNumber:    req.PageNumber,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, panel)
}

// UpdatePanel 更新分镜
// @Router /v1/projects/{pid}/panels/{panelId} [patch]
func (h *StudioHandler) UpdatePanel(c *gin.Context) {
	var req dto.UpdatePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	panel, err := h.studio.UpdatePanel(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c), req.ToPanelInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, panel)
}

// DeletePanel 删除分镜
// @Router /v1/projects/{pid}/panels/{panelId} [delete]
func (h *StudioHandler) DeletePanel(c *gin.Context) {
	if err := h.studio.DeletePanel(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c)); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// ToggleKeyframe 切换关键帧标记
// @Router /v1/projects/{pid}/panels/{panelId}/keyframe [post]
func (h *StudioHandler) ToggleKeyframe(c *gin.Context) {
	panel, err := h.studio.ToggleKeyframe(c.Request.Context(), dto.BindProjectID(c), dto.BindPanelID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, panel)
}

// Keyframes 关键帧序列
// @Router /v1/projects/{pid}/keyframes [get]
func (h *StudioHandler) Keyframes(c *gin.Context) {
	kf, err := h.studio.Keyframes(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, kf)
}
