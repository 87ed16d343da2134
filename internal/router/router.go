package router

import (
	"net/http"
	"time"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/handler"
	"github.com/examlet/examlet-backend/internal/middleware"
	"github.com/examlet/examlet-backend/internal/response"
	"github.com/examlet/examlet-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Exam         *handler.ExamHandler
	Test         *handler.TestHandler
	Question     *handler.QuestionHandler
	Leaderboard  *handler.LeaderboardHandler
	Notification *handler.NotificationHandler
	StudentMgmt  *handler.StudentManagementHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/tests", handlers.Exam.ListTests)
		studentAPI.GET("/tests/:test_id", handlers.Exam.GetTest)
		studentAPI.GET("/tests/:test_id/questions", handlers.Exam.GetTestPayload)
		studentAPI.GET("/tests/:test_id/leaderboard", handlers.Leaderboard.Top)

		studentAPI.POST("/exam/submit", handlers.Exam.Submit)
		studentAPI.GET("/exam/result/:result_id", handlers.Exam.GetResult)
		studentAPI.GET("/exam/results/:student_id", handlers.Exam.ListResults)

		studentAPI.GET("/notifications", handlers.Notification.List)
		studentAPI.POST("/notifications/:notification_id/read", handlers.Notification.MarkRead)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/tests", handlers.Test.List)
		adminAPI.POST("/tests", handlers.Test.Create)
		adminAPI.GET("/tests/:test_id", handlers.Test.Get)
		adminAPI.PUT("/tests/:test_id", handlers.Test.Update)
		adminAPI.DELETE("/tests/:test_id", handlers.Test.Delete)
		adminAPI.POST("/tests/:test_id/publish", handlers.Test.Publish)
		adminAPI.POST("/tests/:test_id/deactivate", handlers.Test.Deactivate)
		adminAPI.POST("/tests/:test_id/refresh-cache", handlers.Test.RefreshCache)
		adminAPI.GET("/tests/:test_id/results", handlers.Test.ListResults)

		adminAPI.GET("/tests/:test_id/questions", handlers.Question.List)
		adminAPI.POST("/tests/:test_id/questions", handlers.Question.Add)
		adminAPI.PUT("/tests/:test_id/questions", handlers.Question.Replace)
		adminAPI.DELETE("/tests/:test_id/questions/:question_id", handlers.Question.Delete)

		adminAPI.POST("/students", handlers.StudentMgmt.Create)
		adminAPI.DELETE("/students/:student_id", handlers.StudentMgmt.Delete)
	}

	return router
}
