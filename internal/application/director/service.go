// Package director Director's Choice：分镜画面变体生成与选择
package director

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
	wfnode "anime-forge-api/internal/workflow/node"
	"anime-forge-api/internal/workflow/pipeline"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/metrics"
	"anime-forge-api/pkg/tracer"
)

// Outcome 变体生成结果类型
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeFallback        Outcome = "fallback"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomePaymentRequired Outcome = "payment_required"
)

// DefaultPanelDescription 分镜无描述时使用
const DefaultPanelDescription = "Anime scene"

// Generator 变体生成
type Generator interface {
	GenerateVariations(ctx context.Context, in *wfmodel.VariationsInput) (*wfmodel.VariationsOutput, error)
}

// QuotaChecker 生成前的用量检查
type QuotaChecker interface {
	CheckDailyTokens(ctx context.Context, userID string) error
}

// VariationsRequest 变体生成请求
type VariationsRequest struct {
	PanelDescription string   `json:"panelDescription"`
	Dialogue         string   `json:"dialogue"`
	CharacterContext string   `json:"characterContext"`
	StylePreferences []string `json:"stylePreferences"`
}

// VariationsResult 始终包含 4 个变体
type VariationsResult struct {
	Variations []entity.Variation `json:"variations"`
	Outcome    Outcome            `json:"outcome"`
	Message    string             `json:"message,omitempty"`
}

// ChoiceInput 选择变体
type ChoiceInput struct {
	Variations    []entity.Variation
	SelectedIndex int
	ImageURL      string
}

// Service Director's Choice 服务
type Service struct {
	characters repository.CharacterRepository
	panels     repository.PanelRepository
	choices    repository.DirectorChoiceRepository
	txm        repository.Transactor
	guard      *access.Guard
	recorder   *provenance.Recorder
	generator  Generator
	quota      QuotaChecker
	params     wfmodel.LLMParams
}

func NewService(
	characters repository.CharacterRepository,
	panels repository.PanelRepository,
	choices repository.DirectorChoiceRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
	generator Generator,
	quota QuotaChecker,
	llm config.LLMConfig,
) *Service {
	return &Service{
		characters: characters,
		panels:     panels,
		choices:    choices,
		txm:        txm,
		guard:      guard,
		recorder:   recorder,
		generator:  generator,
		quota:      quota,
		params:     wfmodel.ParamsFromConfig(llm.Workflow(service.WorkflowPanelVariations)),
	}
}

// FallbackVariations 本地固定变体
func FallbackVariations(description string) []entity.Variation {
	return []entity.Variation{
		{
			ID:          "1",
			Description: "Dynamic action pose with speed lines",
			Prompt:      description + " - Dynamic action pose with motion blur and speed lines, anime style",
			StyleNotes:  "High energy, Trigger-style animation",
		},
		{
			ID:          "2",
			Description: "Dramatic lighting with shadows",
			Prompt:      description + " - Dramatic cinematic lighting with deep shadows, anime style",
			StyleNotes:  "Mappa-style realism, strong contrast",
		},
		{
			ID:          "3",
			Description: "Soft, dreamy atmosphere",
			Prompt:      description + " - Soft watercolor aesthetic with warm lighting, anime style",
			StyleNotes:  "Ghibli-inspired, pastoral mood",
		},
		{
			ID:          "4",
			Description: "Abstract symbolic composition",
			Prompt:      description + " - Unique angles with symbolic imagery, anime style",
			StyleNotes:  "Shaft-style avant-garde",
		},
	}
}

// CharacterContext 每个角色一行："<name> (<role>): <appearance>"
func CharacterContext(characters []*entity.CharacterSeed) string {
	lines := make([]string, 0, len(characters))
	for _, c := range characters {
		appearance := strings.TrimSpace(c.Appearance)
		if appearance == "" {
			appearance = "No description"
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", c.Name, c.Role, appearance))
	}
	return strings.Join(lines, "\n")
}

// Generate 调用模型生成 4 个变体，任何失败都返回本地变体
func (s *Service) Generate(ctx context.Context, req VariationsRequest) *VariationsResult {
	desc := strings.TrimSpace(req.PanelDescription)
	if desc == "" {
		desc = DefaultPanelDescription
	}
	prefs := req.StylePreferences
	if len(prefs) == 0 {
		prefs = pipeline.DefaultStylePreferences
	}

	res := s.generate(ctx, desc, req, prefs)
	metrics.VariationOutcomesTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (s *Service) generate(ctx context.Context, desc string, req VariationsRequest, prefs []string) *VariationsResult {
	fallback := func(outcome Outcome, message string) *VariationsResult {
		return &VariationsResult{Variations: FallbackVariations(desc), Outcome: outcome, Message: message}
	}

	if s.quota != nil {
		if err := s.quota.CheckDailyTokens(ctx, session.UserID(ctx)); err != nil {
			logger.Warn(ctx, "variation generation skipped", "error", err)
			return fallback(OutcomeRateLimited, apperrors.ErrRateLimited.Message)
		}
	}
	if s.generator == nil {
		return fallback(OutcomeFallback, "")
	}

	out, err := s.generator.GenerateVariations(ctx, &wfmodel.VariationsInput{
		LLMParams:        s.params,
		PanelDescription: desc,
		Dialogue:         req.Dialogue,
		CharacterContext: req.CharacterContext,
		StylePreferences: prefs,
	})
	switch {
	case err == nil && len(out.Variations) == entity.VariationCount:
		return &VariationsResult{Variations: out.Variations, Outcome: OutcomeSuccess}
	case wfnode.IsRateLimitedError(err):
		logger.Warn(ctx, "ai gateway rate limited", "error", err)
		return fallback(OutcomeRateLimited, apperrors.ErrRateLimited.Message)
	case wfnode.IsPaymentRequiredError(err):
		logger.Warn(ctx, "ai gateway requires payment", "error", err)
		return fallback(OutcomePaymentRequired, apperrors.ErrPaymentRequired.Message)
	default:
		logger.Warn(ctx, "variation generation failed, using fallback", "error", err)
		return fallback(OutcomeFallback, "")
	}
}

// GenerateForPanel 以分镜与项目角色构造请求
func (s *Service) GenerateForPanel(ctx context.Context, projectID, panelID string, stylePreferences []string) (_ *VariationsResult, err error) {
	ctx, span := tracer.Start(ctx, "director.GenerateForPanel", tracer.Project(projectID), tracer.Panel(panelID))
	defer func() { tracer.End(span, err) }()

	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	panel, err := s.projectPanel(ctx, p.ID, panelID)
	if err != nil {
		return nil, err
	}
	characters, err := s.characters.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return s.Generate(ctx, VariationsRequest{
		PanelDescription: panel.Description,
		Dialogue:         panel.Dialogue,
		CharacterContext: CharacterContext(characters),
		StylePreferences: stylePreferences,
	}), nil
}

func (s *Service) projectPanel(ctx context.Context, projectID, panelID string) (*entity.MangaPanel, error) {
	panel, err := s.panels.GetByID(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if panel == nil || panel.ProjectID != projectID {
		return nil, apperrors.ErrPanelNotFound
	}
	return panel, nil
}

// Select 在同一事务中更新分镜画面并记录选择
func (s *Service) Select(ctx context.Context, projectID, panelID string, in ChoiceInput) (*entity.DirectorChoice, error) {
	if in.SelectedIndex < 0 || in.SelectedIndex >= entity.VariationCount || in.SelectedIndex >= len(in.Variations) {
		return nil, apperrors.ErrInvalidSelection
	}
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	panel, err := s.projectPanel(ctx, p.ID, panelID)
	if err != nil {
		return nil, err
	}

	selected := in.Variations[in.SelectedIndex]
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = selected.PreviewURL
	}

	index := in.SelectedIndex
	now := time.Now()
	choice := &entity.DirectorChoice{
		ProjectID:     p.ID,
		PanelID:       panel.ID,
		ChoiceType:    entity.ChoiceTypePanelVariation,
		Variations:    in.Variations,
		SelectedIndex: &index,
		SelectedBy:    session.UserID(ctx),
		SelectedAt:    &now,
		Metadata:      datatypes.JSONMap{"prompt": selected.Prompt},
		CreatedAt:     now,
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.panels.UpdateImageURL(txCtx, panel.ID, imageURL); err != nil {
			return err
		}
		if err := s.choices.Create(txCtx, choice); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.DirectorChoice{}.TableName(),
			EntityID:   choice.ID,
			Action:     entity.ProvenanceInsert,
			Details: map[string]any{
				"panel_id":       panel.ID,
				"selected_index": index,
				"image_url":      imageURL,
			},
			PromptHash: provenance.PromptHash(selected.Prompt),
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	metrics.DirectorChoicesTotal.Inc()
	return choice, nil
}

// ListChoices 分镜的历史选择
func (s *Service) ListChoices(ctx context.Context, projectID, panelID string, pagination repository.Pagination) (*repository.PagedResult[*entity.DirectorChoice], error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	panel, err := s.projectPanel(ctx, p.ID, panelID)
	if err != nil {
		return nil, err
	}
	return s.choices.ListByPanel(ctx, panel.ID, pagination)
}
