// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/interfaces/http/middleware"
)

// registerV1 注册 v1 版本路由
func (r *Router) registerV1(v1 *gin.RouterGroup) {
	h := r.handlers
	rl := r.cfg.Security.RateLimit

	apiLimit := r.rateLimit("api", rl.RequestsPerMinute)
	genLimit := r.rateLimit("generate", rl.GenerationsPerMinute)

	// 认证（无需令牌）
	public := v1.Group("/auth", apiLimit)
	{
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
		public.POST("/refresh", h.Auth.Refresh)
	}

	authed := v1.Group("", middleware.Auth(r.authn, middleware.AuthConfig{}), apiLimit)

	me := authed.Group("/auth")
	{
		me.POST("/logout", h.Auth.Logout)
		me.GET("/me", h.Auth.Me)
		me.PATCH("/me", h.Auth.UpdateMe)
		me.GET("/usage", h.Auth.Usage)
	}

	// 创作者面板
	projects := authed.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
	}

	project := projects.Group("/:pid", middleware.ProjectContext("pid"))
	{
		project.GET("", h.Project.GetProject)
		project.PATCH("", h.Project.UpdateProject)
		project.DELETE("", h.Project.DeleteProject)
		project.GET("/studio", h.Project.Studio)

		// 故事设定集
		project.GET("/story-bible", h.Studio.GetStoryBible)
		project.PUT("/story-bible", h.Studio.SaveStoryBible)
		project.POST("/story-bible/generate", genLimit, h.Studio.GenerateStoryBible)

		// 角色库
		project.GET("/characters", h.Studio.ListCharacters)
		project.POST("/characters", h.Studio.CreateCharacter)
		project.PATCH("/characters/:cid", h.Studio.UpdateCharacter)
		project.DELETE("/characters/:cid", h.Studio.DeleteCharacter)
		project.POST("/characters/:cid/style-dna", genLimit, h.Studio.GenerateStyleDNA)

		// 分镜
		project.GET("/panels", h.Studio.ListPanels)
		project.POST("/panels", h.Studio.AddPanel)
		project.PATCH("/panels/:panelId", h.Studio.UpdatePanel)
		project.DELETE("/panels/:panelId", h.Studio.DeletePanel)
		project.POST("/panels/:panelId/keyframe", h.Studio.ToggleKeyframe)
		project.GET("/keyframes", h.Studio.Keyframes)

		// Director's Choice
		project.POST("/panels/:panelId/variations", genLimit, h.Director.PanelVariations)
		project.POST("/panels/:panelId/choice", h.Director.Choose)
		project.GET("/panels/:panelId/choices", h.Director.Choices)

		// 故事草稿对话
		project.GET("/story-sessions", h.Drafter.ListSessions)
		project.POST("/story-sessions", h.Drafter.OpenSession)
		project.GET("/story-sessions/:sid/messages", h.Drafter.ListMessages)
		project.POST("/story-sessions/:sid/messages", genLimit, h.Drafter.PostMessage)

		// 溯源
		project.GET("/provenance", h.Provenance.List)
		project.GET("/provenance/export", h.Provenance.Export)
		project.GET("/provenance/stats", h.Provenance.Stats)

		// 权益
		project.GET("/rights", h.Catalog.ListRights)
		project.POST("/rights", h.Catalog.GrantRight)

		if h.Live != nil && r.cfg.Realtime.Enabled {
			project.GET("/live", h.Live.Live)
		}
	}

	// Launchpad
	launchpad := authed.Group("/launchpad")
	{
		launchpad.GET("", h.Launchpad.List)
		launchpad.POST("/:pid/fund", middleware.ProjectContext("pid"), h.Launchpad.Fund)
		launchpad.GET("/:pid/quote", h.Launchpad.Quote)
		launchpad.GET("/:pid/transactions", h.Launchpad.Transactions)
	}

	// 画风库
	styles := authed.Group("/styles")
	{
		styles.GET("", h.Catalog.ListStyles)
		styles.POST("", middleware.RequireAdmin(), h.Catalog.CreateStyle)
	}

	// AI 网关
	ai := authed.Group("/ai", genLimit)
	{
		ai.POST("/panel-variations", h.Director.GenerateVariations)
	}
}
