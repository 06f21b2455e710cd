package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/quizdeck/quizdeck-backend/internal/handler"
	"github.com/quizdeck/quizdeck-backend/internal/middleware"
	"github.com/quizdeck/quizdeck-backend/internal/response"
	"github.com/quizdeck/quizdeck-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Student   *handler.StudentHandler
	QuizAdmin *handler.QuizAdminHandler
	Question  *handler.QuestionHandler
	Media     *handler.MediaHandler
	Dashboard *handler.DashboardHandler
	WS        *handler.WSHandler
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

	// Uploaded question/option images. Filenames are UUIDs, so long-lived
	// client caching is safe.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	uploadsGroup.Static("/", cfg.UploadDir)

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/dashboard", handlers.Dashboard.StudentDashboard)
		studentAPI.GET("/quizzes", handlers.Student.ListQuizzes)
		studentAPI.GET("/quizzes/:quiz_id", handlers.Student.GetQuiz)
		studentAPI.POST("/quizzes/:quiz_id/attempts", handlers.Student.StartAttempt)

		// Live attempt operations. The session is keyed by the caller, not
		// by attempt ID: one active attempt per student.
		studentAPI.GET("/attempt", handlers.Student.GetAttemptState)
		studentAPI.POST("/attempt/select", handlers.Student.SelectAnswer)
		studentAPI.POST("/attempt/answer", handlers.Student.SubmitAnswer)
		studentAPI.POST("/attempt/next", handlers.Student.NextQuestion)
		studentAPI.POST("/attempt/previous", handlers.Student.PreviousQuestion)
		studentAPI.POST("/attempt/jump", handlers.Student.JumpToQuestion)
		studentAPI.POST("/attempt/flag", handlers.Student.ToggleFlag)
		studentAPI.POST("/attempt/finish", handlers.Student.FinishAttempt)
		studentAPI.POST("/attempt/abandon", handlers.Student.AbandonAttempt)

		studentAPI.GET("/attempts", handlers.Student.ListAttempts)
		studentAPI.GET("/attempts/:attempt_id", handlers.Student.GetResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/attempt/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/dashboard", handlers.Dashboard.AdminDashboard)

		// Quiz management
		adminAPI.GET("/quizzes", handlers.QuizAdmin.ListQuizzes)
		adminAPI.POST("/quizzes", handlers.QuizAdmin.CreateQuiz)
		adminAPI.GET("/quizzes/:quiz_id", handlers.QuizAdmin.GetQuiz)
		adminAPI.PUT("/quizzes/:quiz_id", handlers.QuizAdmin.UpdateQuiz)
		adminAPI.DELETE("/quizzes/:quiz_id", handlers.QuizAdmin.DeleteQuiz)
		adminAPI.POST("/quizzes/:quiz_id/archive", handlers.QuizAdmin.ArchiveQuiz)
		adminAPI.POST("/quizzes/:quiz_id/duplicate", handlers.QuizAdmin.DuplicateQuiz)
		adminAPI.GET("/quizzes/:quiz_id/attempts", handlers.QuizAdmin.ListQuizAttempts)

		// Question management
		adminAPI.GET("/quizzes/:quiz_id/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/quizzes/:quiz_id/questions", handlers.Question.CreateQuestion)
		adminAPI.POST("/quizzes/:quiz_id/questions/reorder", handlers.Question.ReorderQuestions)
		adminAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)

		// Media uploads
		adminAPI.POST("/media/upload", handlers.Media.UploadMedia)
	}

	return router
}
