package app

import (
	"coursemarket_backend/docs"
	"coursemarket_backend/internal/config"
	"coursemarket_backend/internal/middleware"
	"coursemarket_backend/internal/model"
	"coursemarket_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 学员接口
		a.registerStudentRoutes(authGroup, c)

		// 讲师接口
		a.registerTeacherRoutes(authGroup, c)

		// 管理员接口
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录对游客开放
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)

		public.GET("/leaderboard", c.gamification.GetLeaderboard)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/users/me", c.user.GetProfile)
	rg.PUT("/users/me", c.user.UpdateProfile)

	// 游戏化
	rg.GET("/gamification/stats", c.gamification.GetStats)
	rg.POST("/gamification/streak", c.gamification.UpdateStreak)

	// 选课与学习进度
	rg.POST("/courses/:id/enroll", c.progress.Enroll)
	rg.POST("/courses/:id/lectures/:lectureId/complete", c.progress.MarkLectureCompleted)
	rg.GET("/courses/:id/progress", c.progress.GetCourseProgress)

	// 学习分析
	rg.GET("/analytics/student", c.analytics.GetStudentAnalytics)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/courses", c.course.CreateCourse)
		teacher.PUT("/courses/:id", c.course.UpdateCourse)
		teacher.POST("/courses/:id/publish", c.course.PublishCourse)
		teacher.GET("/dashboard", c.course.GetInstructorDashboard)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/gamification/xp", c.gamification.AwardXP)
	}
}
