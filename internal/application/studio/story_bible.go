package studio

import (
	"context"

	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	llmctx "anime-forge-api/internal/domain/service"
	wfmodel "anime-forge-api/internal/workflow/model"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// DefaultStoryBible LLM 不可用时的补全内容
func DefaultStoryBible() *entity.StoryBible {
	return &entity.StoryBible{
		Logline: "A young warrior discovers an ancient power that could save or destroy their world.",
		Themes:  []string{"Destiny", "Sacrifice", "Redemption"},
		WorldRules: []string{
			"Magic flows from ancient crystals",
			"The gods watch but rarely intervene",
			"Technology and magic coexist uneasily",
		},
		Acts: []entity.StoryAct{
			{Name: "Act 1: The Awakening", Description: "The protagonist discovers their hidden powers"},
			{Name: "Act 2: The Journey", Description: "Training and gathering allies for the coming storm"},
			{Name: "Act 3: The Confrontation", Description: "The final battle against the forces of darkness"},
		},
	}
}

// BibleDraft 生成后的未保存设定集
type BibleDraft struct {
	Bible  *entity.StoryBible `json:"story_bible"`
	Source string             `json:"source"`
}

// GetStoryBible 读取设定集
func (s *Service) GetStoryBible(ctx context.Context, projectID string) (*entity.StoryBible, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p.StoryBible.Clone(), nil
}

// SaveStoryBible 整体替换设定集
func (s *Service) SaveStoryBible(ctx context.Context, projectID string, bible *entity.StoryBible) (*entity.StoryBible, error) {
	if bible == nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("story bible is required")
	}
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projects.UpdateStoryBible(txCtx, p.ID, bible); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.Project{}.TableName(),
			EntityID:   p.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    map[string]any{"field": "story_bible"},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return bible, nil
}

// GenerateStoryBible 只补全空字段，结果不落库；current 为空时使用已保存版本
func (s *Service) GenerateStoryBible(ctx context.Context, projectID string, current *entity.StoryBible) (*BibleDraft, error) {
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = p.StoryBible
	}
	if err := s.checkQuota(ctx); err != nil {
		return nil, err
	}

	draft := &BibleDraft{Source: SourceFallback}
	if s.generator != nil {
		out, err := s.generator.GenerateStoryBible(ctx, &wfmodel.StoryBibleInput{
			LLMParams:          s.params(llmctx.WorkflowStoryBible),
			ProjectName:        p.Name,
			ProjectGenre:       p.Genre,
			ProjectDescription: p.Description,
			Current:            current,
		})
		if err != nil {
			logger.Warn(ctx, "story bible generation failed, using defaults", "project_id", p.ID, "error", err)
		} else {
			current = current.MergeMissing(out.Bible)
			draft.Source = SourceLLM
		}
	}
	draft.Bible = current.MergeMissing(DefaultStoryBible())
	return draft, nil
}
