// Package studio Studio 子编辑器：故事设定集、角色库与分镜
package studio

import (
	"context"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	wfmodel "anime-forge-api/internal/workflow/model"
)

// Generator 故事设定集与画风基因生成
type Generator interface {
	GenerateStoryBible(ctx context.Context, in *wfmodel.StoryBibleInput) (*wfmodel.StoryBibleOutput, error)
	GenerateStyleDNA(ctx context.Context, in *wfmodel.StyleDNAInput) (*wfmodel.StyleDNAOutput, error)
}

// QuotaChecker 生成前的用量检查
type QuotaChecker interface {
	CheckDailyTokens(ctx context.Context, userID string) error
}

// 生成结果来源
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Service Studio 服务
type Service struct {
	projects   repository.ProjectRepository
	characters repository.CharacterRepository
	panels     repository.PanelRepository
	txm        repository.Transactor
	guard      *access.Guard
	recorder   *provenance.Recorder
	generator  Generator
	quota      QuotaChecker
	llm        config.LLMConfig
}

func NewService(
	projects repository.ProjectRepository,
	characters repository.CharacterRepository,
	panels repository.PanelRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
	generator Generator,
	quota QuotaChecker,
	llm config.LLMConfig,
) *Service {
	return &Service{
		projects:   projects,
		characters: characters,
		panels:     panels,
		txm:        txm,
		guard:      guard,
		recorder:   recorder,
		generator:  generator,
		quota:      quota,
		llm:        llm,
	}
}

func (s *Service) checkQuota(ctx context.Context) error {
	if s.quota == nil {
		return nil
	}
	return s.quota.CheckDailyTokens(ctx, session.UserID(ctx))
}

func (s *Service) params(workflow string) wfmodel.LLMParams {
	return wfmodel.ParamsFromConfig(s.llm.Workflow(workflow))
}
