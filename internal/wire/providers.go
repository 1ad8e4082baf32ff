// Package wire 提供依赖注入配置
package wire

import (
	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/auth"
	"anime-forge-api/internal/application/funding"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/application/quota"
	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/infrastructure/messaging"
	"anime-forge-api/internal/infrastructure/persistence/postgres"
	"anime-forge-api/internal/infrastructure/persistence/redis"
	"anime-forge-api/internal/infrastructure/realtime"
	"anime-forge-api/internal/interfaces/http/handler"
	"anime-forge-api/internal/interfaces/http/router"
)

// App API 网关运行所需的组件
type App struct {
	Router *router.Router
	Hub    *realtime.Hub
	Usage  *quota.LLMUsageRecorder
}

// Worker job-worker 运行所需的组件
type Worker struct {
	PgClient    *postgres.Client
	RedisClient *redis.Client
	Writer      *provenance.Writer
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient    *postgres.Client
	TxManager   *postgres.TxManager
	ProfileRepo *postgres.ProfileRepository
	RoleRepo    *postgres.UserRoleRepository
	StyleRepo   *postgres.StyleRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideProjectRepository 项目仓储加 Redis 行缓存
func ProvideProjectRepository(inner *postgres.ProjectRepository, cache *redis.Cache, cfg *config.Config) repository.ProjectRepository {
	return redis.NewCachedProjectRepository(inner, cache, cfg.Cache.RowTTL)
}

// ProvideProfileCache /me 视图缓存，订阅认证事件
func ProvideProfileCache(cache *redis.Cache, events *session.AuthEvents, cfg *config.Config) (*redis.ProfileCache, func()) {
	pc := redis.NewProfileCache(cache, events, cfg.Cache.RowTTL)
	return pc, pc.Close
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideHub 项目实时推送中心
func ProvideHub(cfg *config.Config) (*realtime.Hub, func()) {
	hub := realtime.NewHub(cfg.Realtime.WriteTimeout, cfg.Realtime.SendBuffer)
	return hub, hub.Close
}

// ProvideRecorder 按配置选择同步或异步记录
func ProvideRecorder(repo repository.ProvenanceRepository, producer *messaging.Producer, hub *realtime.Hub, cfg *config.Config) *provenance.Recorder {
	var broadcaster provenance.Broadcaster
	if cfg.Realtime.Enabled {
		broadcaster = hub
	}
	return provenance.NewRecorder(repo, producer, broadcaster, cfg.Provenance.Mode)
}

// ProvideQuotaChecker 每日 token 配额
func ProvideQuotaChecker(repo repository.LLMUsageEventRepository, cfg *config.Config) *quota.TokenQuotaChecker {
	return quota.NewTokenQuotaChecker(repo, cfg.LLM.DailyTokenBudget)
}

// ProvideJWTConfig JWT 配置
func ProvideJWTConfig(cfg *config.Config) config.JWTConfig {
	return cfg.Security.JWT
}

// ProvideLLMConfig LLM 配置
func ProvideLLMConfig(cfg *config.Config) config.LLMConfig {
	return cfg.LLM
}

// ProvideFundingService 资助服务，联合曲线参数来自配置
func ProvideFundingService(
	projects repository.ProjectRepository,
	transactions repository.FundingTransactionRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
	cfg *config.Config,
) *funding.Service {
	curve := service.NewBondingCurve(cfg.Funding.DefaultPrice, cfg.Funding.GrowthRate)
	return funding.NewService(projects, transactions, txm, guard, recorder, curve, cfg.Funding.MinAmount)
}

// ProvideHealthHandler 就绪检查依赖 postgres 与 redis
func ProvideHealthHandler(pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(pg, rc)
}

// ProvideAuthHandler 认证处理器
func ProvideAuthHandler(svc *auth.Service, usage handler.UsageReader, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(svc, usage, cfg.Security.JWT.SecureCookie)
}

// ProvideLiveHandler 实时动态处理器
func ProvideLiveHandler(hub *realtime.Hub, guard *access.Guard, cfg *config.Config) *handler.LiveHandler {
	return handler.NewLiveHandler(hub, guard, cfg.Realtime.AllowedOrigins)
}
