//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/auth"
	"anime-forge-api/internal/application/catalog"
	"anime-forge-api/internal/application/director"
	"anime-forge-api/internal/application/drafter"
	"anime-forge-api/internal/application/funding"
	"anime-forge-api/internal/application/project"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/application/quota"
	"anime-forge-api/internal/application/studio"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/infrastructure/llm"
	"anime-forge-api/internal/infrastructure/persistence/postgres"
	"anime-forge-api/internal/infrastructure/persistence/redis"
	"anime-forge-api/internal/interfaces/http/handler"
	"anime-forge-api/internal/interfaces/http/middleware"
	"anime-forge-api/internal/interfaces/http/router"
	"anime-forge-api/internal/workflow/chain"
	"anime-forge-api/internal/workflow/pipeline"
	workflowport "anime-forge-api/internal/workflow/port"
)

// InitializeWorker 初始化 job-worker 依赖
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		PostgresSet,
		ProvideRedisClient,
		provenance.NewWriter,
		wire.Bind(new(repository.ProvenanceRepository), new(*postgres.ProvenanceRepository)),
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		RealtimeSet,
		ServiceSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewUserContext,
	postgres.NewTxManager,
	postgres.NewProfileRepository,
	postgres.NewUserRoleRepository,
	postgres.NewProjectRepository,
	postgres.NewCharacterRepository,
	postgres.NewPanelRepository,
	postgres.NewDirectorChoiceRepository,
	postgres.NewFundingTransactionRepository,
	postgres.NewProvenanceRepository,
	postgres.NewStorySessionRepository,
	postgres.NewStoryTurnRepository,
	postgres.NewStyleRepository,
	postgres.NewProjectRightRepository,
	postgres.NewLLMUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合，项目仓储经 Redis 行缓存
var RepoSet = wire.NewSet(
	PostgresSet,
	ProvideProjectRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ProfileRepository), new(*postgres.ProfileRepository)),
	wire.Bind(new(repository.UserRoleRepository), new(*postgres.UserRoleRepository)),
	wire.Bind(new(repository.CharacterRepository), new(*postgres.CharacterRepository)),
	wire.Bind(new(repository.PanelRepository), new(*postgres.PanelRepository)),
	wire.Bind(new(repository.DirectorChoiceRepository), new(*postgres.DirectorChoiceRepository)),
	wire.Bind(new(repository.FundingTransactionRepository), new(*postgres.FundingTransactionRepository)),
	wire.Bind(new(repository.ProvenanceRepository), new(*postgres.ProvenanceRepository)),
	wire.Bind(new(repository.StorySessionRepository), new(*postgres.StorySessionRepository)),
	wire.Bind(new(repository.StoryTurnRepository), new(*postgres.StoryTurnRepository)),
	wire.Bind(new(repository.StyleRepository), new(*postgres.StyleRepository)),
	wire.Bind(new(repository.ProjectRightRepository), new(*postgres.ProjectRightRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	session.NewAuthEvents,
	ProvideProfileCache,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(auth.ProfileCache), new(*redis.ProfileCache)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// RealtimeSet 实时推送
var RealtimeSet = wire.NewSet(
	ProvideHub,
)

// ServiceSet 应用服务与 LLM 工作流
var ServiceSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	pipeline.NewPipeline,
	chain.NewStoryDrafterChain,
	wire.Bind(new(studio.Generator), new(*pipeline.Pipeline)),
	wire.Bind(new(director.Generator), new(*pipeline.Pipeline)),
	wire.Bind(new(drafter.Drafter), new(*chain.StoryDrafterChain)),

	quota.NewLLMUsageRecorder,
	ProvideQuotaChecker,
	wire.Bind(new(studio.QuotaChecker), new(*quota.TokenQuotaChecker)),
	wire.Bind(new(director.QuotaChecker), new(*quota.TokenQuotaChecker)),
	wire.Bind(new(drafter.QuotaChecker), new(*quota.TokenQuotaChecker)),
	wire.Bind(new(handler.UsageReader), new(*quota.TokenQuotaChecker)),

	ProvideJWTConfig,
	ProvideLLMConfig,
	access.NewGuard,
	ProvideRecorder,
	provenance.NewService,
	auth.NewService,
	project.NewService,
	ProvideFundingService,
	studio.NewService,
	director.NewService,
	drafter.NewService,
	catalog.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideAuthHandler,
	ProvideLiveHandler,
	handler.NewProjectHandler,
	handler.NewLaunchpadHandler,
	handler.NewStudioHandler,
	handler.NewDirectorHandler,
	handler.NewDrafterHandler,
	handler.NewCatalogHandler,
	handler.NewProvenanceHandler,
	wire.Struct(new(router.Handlers), "*"),
	wire.Bind(new(middleware.Authenticator), new(*auth.Service)),
	router.New,
)
