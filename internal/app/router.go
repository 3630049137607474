package app

import (
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/middleware"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)
		authGroup.PUT("/profile/password", c.auth.ChangePassword)

		authGroup.GET("/dashboard", c.dashboard.GetDashboard)
		authGroup.GET("/activities", c.dashboard.GetActivities)

		// 简历流水线
		resume := authGroup.Group("/resume")
		{
			resume.POST("/upload", c.resume.Upload)
			resume.GET("/profile", c.resume.GetProfile)
		}

		// 挑战
		challenges := authGroup.Group("/challenges")
		{
			challenges.GET("", c.challenge.List)
			challenges.GET("/:id", c.challenge.Get)
			challenges.POST("/:id/submit", c.challenge.Submit)
		}

		// 项目
		projects := authGroup.Group("/projects")
		{
			projects.POST("/ideas", c.project.Ideas)
			projects.POST("/plan", c.project.Plan)
			projects.GET("/steps", c.project.Timeline)
			projects.POST("/steps/code", c.project.StepCode)
			projects.PUT("/steps/:id/done", c.project.MarkDone)
			projects.PUT("/steps/:id/pending", c.project.MarkPending)
			projects.POST("/steps/:id/regenerate", c.project.Regenerate)
		}
	}

	// 3. 管理员接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.GET("/usage", c.dashboard.GetUsage)
		adminGroup.POST("/usage/reset", c.dashboard.ResetUsage)
	}
}
