package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/handler"
	"github.com/nexlearn/exam-engine/internal/metrics"
	"github.com/nexlearn/exam-engine/internal/middleware"
	"github.com/nexlearn/exam-engine/internal/response"
	"github.com/nexlearn/exam-engine/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Candidate *handler.CandidateHandler
	Question  *handler.QuestionHandler
	WS        *handler.WSHandler
	Health    *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// Background work started here stops when ctx ends.
func SetupRouter(
	ctx context.Context,
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	// Question images, cached for a day.
	mediaGroup := router.Group("/media")
	mediaGroup.Use(middleware.CacheControl(86400))
	{
		mediaGroup.Static("/", cfg.MediaDir)
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", handlers.Health.Ready)
	router.GET("/metrics", metrics.Handler())

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	otpLimiter := middleware.NewRateLimiter(cfg.OTPRatePerMinute, time.Minute)
	go otpLimiter.Run(ctx.Done())

	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/send-otp", otpLimiter.Middleware(), handlers.Auth.SendOTP)
		auth.POST("/verify-otp", otpLimiter.Middleware(), handlers.Auth.VerifyOTP)
		auth.POST("/create-profile", handlers.Auth.CreateProfile)
		auth.POST("/refresh", handlers.Auth.Refresh)
	}

	// ─── 1. Candidate Group (Access Token + Live Login Session) ────────
	candidateAuth := []gin.HandlerFunc{
		middleware.RequireCandidateJWT(authService),
		middleware.CheckLoginSession(authService),
	}

	auth.POST("/logout", append(candidateAuth, handlers.Auth.Logout)...)

	candidate := router.Group("/api/v1/candidate")
	candidate.Use(candidateAuth...)
	candidate.Use(middleware.NoStore())
	{
		candidate.GET("/me", handlers.Candidate.Me)
		candidate.GET("/results", handlers.Candidate.Results)
	}

	question := router.Group("/api/v1/question")
	question.Use(candidateAuth...)
	{
		question.GET("/list", handlers.Question.List)
		question.GET("/practice", handlers.Question.Practice)
	}

	// ─── 2. WebSocket ──────────────────────────────────────────────────
	router.GET("/ws/v1/session", middleware.RequireWSAuth(authService), handlers.WS.SessionStream)

	return router
}
