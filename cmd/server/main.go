package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/buzzboard/backend/internal/auth"
	"github.com/buzzboard/backend/internal/cache"
	"github.com/buzzboard/backend/internal/config"
	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/handlers"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/metrics"
	"github.com/buzzboard/backend/internal/middleware"
	"github.com/buzzboard/backend/internal/ratelimit"
	"github.com/buzzboard/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Buzzboard server starting ===",
		zap.String("environment", cfg.Environment))

	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional: trending hashtags fall back to the database
	// and rate limiting is in-process, so a missing host is not fatal
	if cfg.RedisHost != "" {
		if _, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		}
	}

	metrics.Initialize()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService([]byte(cfg.JWTSecret))

	h := handlers.NewHandlers(authService)

	// S3 is optional in development; upload endpoints return 503 without it
	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 uploader unavailable, image uploads disabled", zap.Error(err))
		} else {
			h.SetUploader(uploader)
		}
	}

	// One shared limiter store so per-route tiers track the same clients
	limiter := ratelimit.New(cfg.RateLimitMaxKeys, cfg.RateLimitIdleTTL,
		ratelimit.WithDisabled(cfg.RateLimitDisabled || cfg.IsTest()))
	if cfg.RateLimitDisabled || cfg.IsTest() {
		logger.Log.Warn("Rate limiting is disabled")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Coarse per-IP ceiling shared across instances when Redis is present.
	// The per-route limiters below still enforce the tighter budgets.
	if cache.GetRedisClient() != nil && !cfg.RateLimitDisabled && !cfg.IsTest() {
		r.Use(middleware.RedisRateLimitMiddleware(1000, time.Minute))
	}

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "buzzboard-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := auth.Middleware(authService)
	optionalAuth := auth.OptionalMiddleware(authService)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitWith(limiter, middleware.AuthRateLimitConfig()), h.Register)
			authGroup.POST("/login", middleware.RateLimitWith(limiter, middleware.AuthRateLimitConfig()), h.Login)
			authGroup.GET("/me", requireAuth, h.Me)
		}

		feed := api.Group("/feed")
		{
			feed.Use(optionalAuth)
			feed.GET("", middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetFeed)
		}

		posts := api.Group("/posts")
		{
			posts.GET("/:id", optionalAuth, middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetPost)
			posts.GET("/:id/comments", optionalAuth, middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetComments)

			posts.POST("", requireAuth, middleware.RateLimitWith(limiter, middleware.CreateRateLimitConfig()), h.CreatePost)
			posts.DELETE("/:id", requireAuth, middleware.RateLimitWith(limiter, middleware.DeleteRateLimitConfig()), h.DeletePost)
			posts.POST("/image", requireAuth, middleware.RateLimitWith(limiter, middleware.UploadRateLimitConfig()), h.UploadPostImage)
			posts.POST("/:id/report", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.ReportPost)
			posts.POST("/:id/comments", requireAuth, middleware.RateLimitWith(limiter, middleware.CreateRateLimitConfig()), h.CreateComment)
			posts.POST("/:id/like", requireAuth, middleware.RateLimitWith(limiter, middleware.ReactionRateLimitConfig()), h.LikePost)
			posts.DELETE("/:id/like", requireAuth, middleware.RateLimitWith(limiter, middleware.ReactionRateLimitConfig()), h.UnlikePost)
		}

		comments := api.Group("/comments")
		{
			comments.Use(requireAuth)
			comments.PUT("/:id", middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.UpdateComment)
			comments.DELETE("/:id", middleware.RateLimitWith(limiter, middleware.DeleteRateLimitConfig()), h.DeleteComment)
			comments.POST("/:id/like", middleware.RateLimitWith(limiter, middleware.ReactionRateLimitConfig()), h.LikeComment)
			comments.DELETE("/:id/like", middleware.RateLimitWith(limiter, middleware.ReactionRateLimitConfig()), h.UnlikeComment)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", optionalAuth, middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetUser)
			users.GET("/:id/followers", optionalAuth, middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetFollowers)
			users.GET("/:id/following", optionalAuth, middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetFollowing)

			users.PUT("/me", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.UpdateProfile)
			users.PUT("/me/privacy", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.UpdatePrivacySettings)
			users.POST("/me/avatar", requireAuth, middleware.RateLimitWith(limiter, middleware.UploadRateLimitConfig()), h.UploadAvatar)

			users.POST("/:id/follow", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.FollowUser)
			users.DELETE("/:id/follow", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.UnfollowUser)
			users.POST("/:id/block", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.BlockUser)
			users.DELETE("/:id/block", requireAuth, middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.UnblockUser)
		}

		me := api.Group("/me")
		{
			me.Use(requireAuth)
			me.GET("/follow-requests", h.GetFollowRequests)
			me.POST("/follow-requests/:id/accept", middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.AcceptFollowRequest)
			me.POST("/follow-requests/:id/decline", middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.DeclineFollowRequest)
			me.GET("/blocks", h.GetBlockedUsers)
		}

		notifications := api.Group("/notifications")
		{
			notifications.Use(requireAuth)
			notifications.GET("", h.GetNotifications)
			notifications.GET("/counts", h.GetNotificationCounts)
			notifications.POST("/read", h.MarkNotificationsRead)
			notifications.POST("/seen", h.MarkNotificationsSeen)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}

		admin := api.Group("/admin")
		{
			admin.Use(requireAuth, auth.AdminMiddleware())
			admin.GET("/reports", h.GetReports)
			admin.PUT("/reports/:id", middleware.RateLimitWith(limiter, middleware.MutateRateLimitConfig()), h.ResolveReport)
		}

		hashtags := api.Group("/hashtags")
		{
			hashtags.GET("/trending", middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetTrendingHashtags)
			hashtags.GET("/:name", middleware.RateLimitWith(limiter, middleware.DefaultRateLimitConfig()), h.GetHashtag)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("🐝 Buzzboard backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if redis := cache.GetRedisClient(); redis != nil {
		_ = redis.Close()
	}

	logger.Log.Info("Server exited")
}
