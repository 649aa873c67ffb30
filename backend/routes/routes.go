package routes

import (
	"log"

	"capdigital/backend/config"
	"capdigital/backend/controllers"
	"capdigital/backend/middleware"
	"capdigital/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	achievementService := services.NewAchievementService(db, logger)
	progressService := services.NewProgressService(db, achievementService, logger)
	authService := services.NewAuthService(db, achievementService, cfg.BcryptCost, logger)
	catalogService := services.NewCatalogService(db)
	repairService := services.NewRepairService(db, logger)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	authController := controllers.NewAuthController(authService, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db)

	// User routes
	userController := controllers.NewUserController(authService, progressService, achievementService, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/password", authMiddleware, userController.ChangePassword)

	// Progress routes
	progressController := controllers.NewProgressController(progressService, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgress)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)
	app.Get("/api/progress/activity", authMiddleware, progressController.GetActivity)

	// Overview routes
	overviewController := controllers.NewOverviewController(catalogService, cfg)
	app.Get("/api/overview/courses", authMiddleware, overviewController.SearchCourses)

	// Courses routes
	coursesController := controllers.NewCoursesController(progressService, catalogService, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetUserCourses)
	courses.Get("/next", coursesController.GetNextCourse)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Get("/:id/progress", coursesController.GetCourseProgress)
	courses.Post("/:id/lessons/:order/complete", coursesController.CompleteLesson)

	// Lessons routes
	lessonsController := controllers.NewLessonsController(progressService, catalogService, cfg)
	lessons := app.Group("/api/lessons", authMiddleware)
	lessons.Get("/:id", lessonsController.GetLesson)
	lessons.Post("/:id/complete", lessonsController.CompleteLesson)

	// Achievements routes
	achievementsController := controllers.NewAchievementsController(achievementService, cfg)
	achievements := app.Group("/api/achievements", authMiddleware)
	achievements.Get("/", achievementsController.GetAll)
	achievements.Get("/mine", achievementsController.GetMine)
	achievements.Get("/recent", achievementsController.GetRecent)

	// Admin routes
	analyticsController := controllers.NewAnalyticsController(progressService, repairService, cfg)
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Get("/catalog/audit", analyticsController.AuditCatalog)
	admin.Post("/catalog/sync-counts", analyticsController.SyncLessonCounts)
	admin.Get("/courses/:id/analytics", analyticsController.GetCourseAnalytics)
}
