package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"gardops/backend/config"
	"gardops/backend/internal/api/handler"
	"gardops/backend/internal/api/middleware"
	"gardops/backend/internal/model"
	"gardops/backend/pkg/jwt"
	"gardops/backend/pkg/redis"
)

// 登录接口限流：每个 IP 每分钟 10 次
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 避免把 nil 指针装进接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	write := middleware.RoleAuth(model.RoleAdmin, model.RoleOperator)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, loginRateLimit, loginRateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 目录：安装点
			installations := authorized.Group("/installations")
			{
				installations.GET("", h.Catalog.ListInstallations)
				installations.GET("/:id", h.Catalog.GetInstallation)
				installations.POST("", write, h.Catalog.CreateInstallation)
				installations.PUT("/:id", write, h.Catalog.UpdateInstallation)
				installations.DELETE("/:id", adminOnly, h.Catalog.DeleteInstallation)
			}

			// 目录：岗位（/posts 留给轮班岗位）
			catalogPosts := authorized.Group("/catalog/posts")
			{
				catalogPosts.GET("", h.Catalog.ListPosts)
				catalogPosts.GET("/:id", h.Catalog.GetPost)
				catalogPosts.POST("", write, h.Catalog.CreatePost)
				catalogPosts.PUT("/:id", write, h.Catalog.UpdatePost)
				catalogPosts.DELETE("/:id", adminOnly, h.Catalog.DeletePost)
			}

			// 目录：轮班
			roles := authorized.Group("/service-roles")
			{
				roles.GET("", h.Catalog.ListServiceRoles)
				roles.GET("/:id", h.Catalog.GetServiceRole)
				roles.POST("", write, h.Catalog.CreateServiceRole)
				roles.PUT("/:id", write, h.Catalog.UpdateServiceRole)
				roles.DELETE("/:id", adminOnly, h.Catalog.DeleteServiceRole)
			}

			// 保安
			guards := authorized.Group("/guards")
			{
				guards.GET("", h.Guard.ListGuards)
				guards.GET("/:id", h.Guard.GetGuard)
				guards.GET("/:id/calendar.ics", h.Guard.Calendar)
				guards.POST("", write, h.Guard.CreateGuard)
				guards.PUT("/:id", write, h.Guard.UpdateGuard)
				guards.DELETE("/:id", adminOnly, h.Guard.DeleteGuard)
			}

			// 编制
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("", h.Assignment.ListAssignments)
				assignments.GET("/:id", h.Assignment.GetAssignment)
				assignments.POST("", write, h.Assignment.CreateAssignment)
				assignments.PUT("/:id", write, h.Assignment.UpdateAssignment)
				assignments.DELETE("/:id", write, h.Assignment.DeleteAssignment)
			}

			// 席位
			linkages := authorized.Group("/guard-linkages")
			{
				linkages.GET("", h.GuardLinkage.ListSlots)
				linkages.POST("", write, h.GuardLinkage.BindSlot)
				linkages.DELETE("/:id", write, h.GuardLinkage.ReleaseSlot)
			}

			// PPC
			gaps := authorized.Group("/coverage-gaps")
			{
				gaps.GET("", h.Coverage.ListGaps)
				gaps.GET("/export", h.Coverage.ExportGaps)
				gaps.GET("/:id", h.Coverage.GetGap)
				gaps.PUT("/:id", write, h.Coverage.UpdateGap)
				gaps.POST("/:id/assign-guard", write, h.Coverage.AssignGuard)
			}

			// 轮班岗位
			posts := authorized.Group("/posts")
			{
				posts.GET("", h.ShiftPost.ListPosts)
				posts.POST("/generate", write, h.ShiftPost.GeneratePosts)
				posts.POST("/:id/assign-guard", write, h.ShiftPost.AssignGuard)
				posts.POST("/:id/unassign-guard", write, h.ShiftPost.UnassignGuard)
			}

			// 看板与设置
			authorized.GET("/dashboard/kpis", h.Dashboard.KPIs)
			authorized.GET("/settings", h.Dashboard.GetSettings)
			authorized.PUT("/settings", adminOnly, h.Dashboard.UpdateSettings)

			// 操作日志
			authorized.GET("/activity", h.Activity.ListActivity)

			// 变更提示（SSE）
			authorized.GET("/events", h.Events.Stream)
		}
	}

	return r
}
