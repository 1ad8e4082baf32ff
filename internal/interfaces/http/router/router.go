// Package router 提供 HTTP 路由配置
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"anime-forge-api/internal/config"
	"anime-forge-api/internal/interfaces/http/dto"
	"anime-forge-api/internal/interfaces/http/handler"
	"anime-forge-api/internal/interfaces/http/middleware"
)

// Handlers 路由使用的全部处理器
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Project    *handler.ProjectHandler
	Launchpad  *handler.LaunchpadHandler
	Studio     *handler.StudioHandler
	Director   *handler.DirectorHandler
	Drafter    *handler.DrafterHandler
	Catalog    *handler.CatalogHandler
	Provenance *handler.ProvenanceHandler
	Live       *handler.LiveHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	authn    middleware.Authenticator
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, authn middleware.Authenticator, limiter middleware.RateLimiter) *Router {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		authn:    authn,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.Audit(middleware.AuditConfig{
		Enabled:   true,
		SkipPaths: middleware.DefaultAuditSkipPaths,
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	r.registerV1(r.engine.Group("/v1"))

	r.engine.NoRoute(func(c *gin.Context) {
		dto.NotFound(c, "route not found")
	})
}

func (r *Router) rateLimit(scope string, limit int) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		Enabled: r.cfg.Security.RateLimit.Enabled,
		Limit:   limit,
		Window:  time.Minute,
		Scope:   scope,
	}, r.limiter)
}
