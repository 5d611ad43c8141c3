package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fitpulse/gym-api/api/swagger"
	"github.com/fitpulse/gym-api/internal/handler"
	"github.com/fitpulse/gym-api/internal/middleware"
	"github.com/fitpulse/gym-api/internal/models"
	"github.com/fitpulse/gym-api/internal/repository"
	"github.com/fitpulse/gym-api/internal/service"
	"github.com/fitpulse/gym-api/pkg/cache"
	"github.com/fitpulse/gym-api/pkg/config"
	"github.com/fitpulse/gym-api/pkg/database"
	"github.com/fitpulse/gym-api/pkg/logger"
	corsmiddleware "github.com/fitpulse/gym-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitpulse/gym-api/pkg/middleware/requestid"
)

// @title Gym Management API
// @version 1.0.0
// @description Access-log and analytics backend for the gym dashboard
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheSvcEnabled := cfg.AccessLog.CacheEnabled
	var cacheRepo service.CacheRepository
	if cacheSvcEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, analytics caching disabled", "error", err)
			cacheSvcEnabled = false
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient)
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.AccessLog.AnalyticsCacheTTL, logr, cacheSvcEnabled)

	userRepo := repository.NewUserRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	accessLogSvc := service.NewAccessLogService(accessLogRepo, cacheSvc, metricsSvc, logr, service.WriterConfig{
		Workers: cfg.AccessLog.QueueWorkers,
		Buffer:  cfg.AccessLog.QueueBuffer,
	}, cfg.AccessLog.AnalyticsCacheTTL)
	metricsSvc.RegisterQueueDepth(accessLogSvc.QueueDepth)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accessLogSvc.Start(ctx)
	defer accessLogSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.RequestLogger(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.OptionalJWT(authSvc))
	r.Use(middleware.AccessLog(accessLogSvc, logr, cfg.AccessLog.BodyMaxBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	accessLogHandler := handler.NewAccessLogHandler(accessLogSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	logs := api.Group("/access-logs", middleware.JWT(authSvc))
	logs.GET("", accessLogHandler.List)
	logs.GET("/analytics", accessLogHandler.Analytics)
	logs.GET("/analytics/export", accessLogHandler.Export)
	logs.GET("/users/:id", accessLogHandler.UserActivity)

	adminOnly := logs.Group("", middleware.RequireRoles(models.RoleAdmin))
	adminOnly.DELETE("/cleanup", accessLogHandler.Cleanup)
	adminOnly.POST("/provision", accessLogHandler.Provision)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
