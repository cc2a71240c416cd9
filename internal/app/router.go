package app

import (
	"learning_path_backend/docs"
	"learning_path_backend/internal/config"
	"learning_path_backend/internal/middleware"
	"learning_path_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/verify-email", c.auth.VerifyEmail)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT, a.services.auth))
	{
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.GET("/me", c.auth.Me)
		authGroup.POST("/verify-email/resend", c.auth.ResendVerification)

		authGroup.POST("/paths", c.learningPath.Generate)
		authGroup.GET("/paths", c.learningPath.List)
		authGroup.GET("/paths/watch", c.learningPath.Watch)
		authGroup.GET("/paths/:id", c.learningPath.Get)
		authGroup.DELETE("/paths/:id", c.learningPath.Delete)
		authGroup.POST("/paths/:id/regenerate", c.learningPath.Regenerate)

		authGroup.GET("/paths/:id/progress", c.progress.GetProgress)
		authGroup.POST("/paths/:id/progress/toggle", c.progress.ToggleStep)

		authGroup.GET("/analytics", c.analytics.GetAnalytics)

		authGroup.GET("/study", c.study.Get)
		authGroup.PUT("/study", c.study.Save)

		authGroup.GET("/paths/:id/export/pdf", c.export.ExportPDF)
		authGroup.GET("/paths/:id/export/calendar", c.export.ExportCalendar)
	}
}
