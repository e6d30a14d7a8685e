package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lexidrill/examgen-backend/internal/config"
	"github.com/lexidrill/examgen-backend/internal/handler"
	"github.com/lexidrill/examgen-backend/internal/middleware"
	"github.com/lexidrill/examgen-backend/internal/response"
	"github.com/lexidrill/examgen-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Generation *handler.GenerationHandler
	Exam       *handler.ExamHandler
	WS         *handler.WSHandler
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
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

	// Generation kicks off many paid oracle calls per request, so the
	// acceptance route gets its own tight limiter.
	generateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Exam Group (JWT) ───────────────────────────────────────────
	examAPI := router.Group("/api/v1/exams")
	examAPI.Use(middleware.RequireJWT(authService))
	{
		examAPI.POST("/generate", generateLimiter.Middleware(), handlers.Generation.Generate)
		examAPI.GET("", handlers.Exam.ListExams)
		examAPI.GET("/:exam_id", handlers.Exam.GetExam)
		examAPI.GET("/:exam_id/generation", handlers.Generation.GetStatus)
	}

	// ─── 2. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/generation", handlers.WS.GenerationStream)
	}

	return router
}
