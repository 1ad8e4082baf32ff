package studio

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
)

// AddPanelInput 新分镜所在章节与页，零值为 1
type AddPanelInput struct {
	ChapterNumber int
	PageNumber    int
}

// PanelInput 分镜字段，nil 表示不修改
type PanelInput struct {
	Description   *string
	Dialogue      *string
	ImageURL      *string
	PromptData    json.RawMessage
	ChapterNumber *int
	PageNumber    *int
	PanelPosition *int
}

// Keyframes 关键帧序列
type Keyframes struct {
	Panels     []*entity.MangaPanel `json:"panels"`
	CanAnimate bool                 `json:"can_animate"`
}

// ListPanels 按 (chapter, page, position) 排序
func (s *Service) ListPanels(ctx context.Context, projectID string, filter *repository.PanelFilter) ([]*entity.MangaPanel, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.panels.ListByProject(ctx, p.ID, filter)
}

// ProjectPanel 读取属于项目的分镜
func (s *Service) ProjectPanel(ctx context.Context, projectID, panelID string) (*entity.MangaPanel, error) {
	panel, err := s.panels.GetByID(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if panel == nil || panel.ProjectID != projectID {
		return nil, apperrors.ErrPanelNotFound
	}
	return panel, nil
}

// AddPanel 在页尾追加分镜，位置在插入事务内计数
func (s *Service) AddPanel(ctx context.Context, projectID string, in AddPanelInput) (*entity.MangaPanel, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	chapter, page := in.ChapterNumber, in.PageNumber
	if chapter == 0 {
		chapter = 1
	}
	if page == 0 {
		page = 1
	}
	if chapter < 1 || page < 1 {
		return nil, apperrors.ErrInvalidParam.WithDetail("chapter_number and page_number must be positive")
	}

	var panel *entity.MangaPanel
	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		count, err := s.panels.CountOnPage(txCtx, p.ID, chapter, page)
		if err != nil {
			return err
		}
		panel = entity.NewMangaPanel(p.ID, session.UserID(ctx), chapter, page, int(count))
		if err := s.panels.Create(txCtx, panel); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.MangaPanel{}.TableName(),
			EntityID:   panel.ID,
			Action:     entity.ProvenanceInsert,
			Details: map[string]any{
				"chapter_number": chapter,
				"page_number":    page,
				"panel_position": panel.PanelPosition,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return panel, nil
}

// UpdatePanel 更新分镜字段
func (s *Service) UpdatePanel(ctx context.Context, projectID, panelID string, in PanelInput) (*entity.MangaPanel, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	panel, err := s.ProjectPanel(ctx, p.ID, panelID)
	if err != nil {
		return nil, err
	}

	var fields []string
	if in.Description != nil {
		panel.Description = *in.Description
		fields = append(fields, "description")
	}
	if in.Dialogue != nil {
		panel.Dialogue = *in.Dialogue
		fields = append(fields, "dialogue")
	}
	if in.ImageURL != nil {
		panel.ImageURL = strings.TrimSpace(*in.ImageURL)
		fields = append(fields, "image_url")
	}
	if len(in.PromptData) > 0 {
		if !json.Valid(in.PromptData) {
			return nil, apperrors.ErrInvalidParam.WithDetail("prompt_data must be valid JSON")
		}
		panel.PromptData = datatypes.JSON(in.PromptData)
		fields = append(fields, "prompt_data")
	}
	if in.ChapterNumber != nil {
		if *in.ChapterNumber < 1 {
			return nil, apperrors.ErrInvalidParam.WithDetail("chapter_number must be positive")
		}
		panel.ChapterNumber = *in.ChapterNumber
		fields = append(fields, "chapter_number")
	}
	if in.PageNumber != nil {
		if *in.PageNumber < 1 {
			return nil, apperrors.ErrInvalidParam.WithDetail("page_number must be positive")
		}
		panel.PageNumber = *in.PageNumber
		fields = append(fields, "page_number")
	}
	if in.PanelPosition != nil {
		if *in.PanelPosition < 0 {
			return nil, apperrors.ErrInvalidParam.WithDetail("panel_position cannot be negative")
		}
		panel.PanelPosition = *in.PanelPosition
		fields = append(fields, "panel_position")
	}
	if len(fields) == 0 {
		return panel, nil
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.panels.Update(txCtx, panel); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.MangaPanel{}.TableName(),
			EntityID:   panel.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    map[string]any{"fields": fields},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return panel, nil
}

// DeletePanel 删除分镜
func (s *Service) DeletePanel(ctx context.Context, projectID, panelID string) error {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return err
	}
	panel, err := s.ProjectPanel(ctx, p.ID, panelID)
	if err != nil {
		return err
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.panels.Delete(txCtx, panel.ID); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.MangaPanel{}.TableName(),
			EntityID:   panel.ID,
			Action:     entity.ProvenanceDelete,
			Details: map[string]any{
				"chapter_number": panel.ChapterNumber,
				"page_number":    panel.PageNumber,
				"panel_position": panel.PanelPosition,
			},
		})
	})
	if err != nil {
		return err
	}
	batch.Commit(ctx)
	return nil
}

// ToggleKeyframe 原子翻转关键帧标记
func (s *Service) ToggleKeyframe(ctx context.Context, projectID, panelID string) (*entity.MangaPanel, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ProjectPanel(ctx, p.ID, panelID); err != nil {
		return nil, err
	}

	var panel *entity.MangaPanel
	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		panel, err = s.panels.ToggleKeyframe(txCtx, panelID)
		if err != nil {
			return err
		}
		if panel == nil {
			return apperrors.ErrPanelNotFound
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.MangaPanel{}.TableName(),
			EntityID:   panel.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    map[string]any{"is_keyframe": panel.IsKeyframe},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return panel, nil
}

// Keyframes 关键帧及是否满足动画生成条件
func (s *Service) Keyframes(ctx context.Context, projectID string) (*Keyframes, error) {
	panels, err := s.ListPanels(ctx, projectID, &repository.PanelFilter{KeyframesOnly: true})
	if err != nil {
		return nil, err
	}
	if panels == nil {
		panels = []*entity.MangaPanel{}
	}
	return &Keyframes{Panels: panels, CanAnimate: len(panels) >= entity.MinKeyframesToAnimate}, nil
}
