package app

import (
	"course_market_backend/docs"
	"course_market_backend/internal/config"
	"course_market_backend/internal/middleware"
	"course_market_backend/internal/model"
	"course_market_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, users middleware.UserLookup, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, users, cfg)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, users))
	{
		authGroup.GET("/profile", c.auth.Profile)

		// 学员接口对所有已登录用户开放
		a.registerLearnerRoutes(authGroup, c)

		a.registerCreatorRoutes(authGroup, c)

		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, users middleware.UserLookup, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		public.GET("/courses", c.course.ListCourses)
		// 可选认证：创作者和管理员可查看未发布课程
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg, users), c.course.GetCourse)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	learner := rg.Group("/learner")
	{
		learner.POST("/enroll", c.learner.Enroll)
		learner.POST("/progress", c.learner.RecordProgress)
		learner.GET("/enrollments", c.learner.ListEnrollments)
	}
}

func (a *App) registerCreatorRoutes(rg *gin.RouterGroup, c *controllers) {
	creator := rg.Group("/creator")
	{
		owner := creator.Group("")
		owner.Use(middleware.RoleMiddleware(model.Creator))
		{
			owner.GET("/courses", c.creator.ListCourses)
			owner.POST("/courses", c.creator.CreateCourse)
			owner.PUT("/courses/:id", c.creator.UpdateCourse)
			owner.POST("/delete-course", c.creator.DeleteCourse)
			owner.POST("/toggle-visibility", c.creator.ToggleVisibility)
		}

		creator.POST("/uploads", middleware.RoleMiddleware(model.Creator, model.Admin), c.creator.UploadMedia)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/unpublished-courses", c.admin.ListUnpublished)
		admin.POST("/approve-course", c.admin.ApproveCourse)
		admin.POST("/delete-course", c.admin.DeleteCourse)
		admin.POST("/toggle-visibility", c.admin.ToggleVisibility)
		admin.GET("/stats", c.admin.Stats)
	}
}
