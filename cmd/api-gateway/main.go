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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/idp-session-api/api/swagger"
	"github.com/noah-isme/idp-session-api/internal/handler"
	"github.com/noah-isme/idp-session-api/internal/middleware"
	"github.com/noah-isme/idp-session-api/internal/repository"
	"github.com/noah-isme/idp-session-api/internal/service"
	"github.com/noah-isme/idp-session-api/pkg/cache"
	"github.com/noah-isme/idp-session-api/pkg/config"
	"github.com/noah-isme/idp-session-api/pkg/database"
	"github.com/noah-isme/idp-session-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/idp-session-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/idp-session-api/pkg/middleware/requestid"
)

// @title IDP Session API
// @version 0.1.0
// @description Session and refresh token lifecycle engine for the identity provider
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}

	sessionRepo := repository.NewSessionRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(auditRepo, metricsSvc, logr, cfg.Audit.Workers, cfg.Audit.BufferSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	sessionSvc := service.NewSessionService(sessionRepo, accountRepo, logr, service.SessionConfig{
		AbsoluteTTL:   cfg.Session.AbsoluteTTL,
		SlidingWindow: cfg.Session.SlidingWindow,
	})
	rotationSvc := service.NewRotationService(sessionRepo, cacheRepo, auditSvc, metricsSvc, logr, service.RotationConfig{
		SlidingWindow: cfg.Session.SlidingWindow,
		ReuseLeeway:   cfg.Session.ReuseLeeway,
	})
	revocationSvc := service.NewRevocationService(sessionRepo, accountRepo, auditSvc, metricsSvc, logr)
	claimsSvc := service.NewClaimsService(sessionRepo, accountRepo, cacheRepo, metricsSvc, logr, service.ClaimsConfig{
		Secret:             cfg.JWT.Secret,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		PermissionCacheTTL: cfg.Claims.PermissionCacheTTL,
	})

	sessionHandler := handler.NewSessionHandler(sessionSvc, revocationSvc)
	grantHandler := handler.NewGrantHandler(sessionSvc, rotationSvc, revocationSvc, claimsSvc)
	auditHandler := handler.NewAuditHandler(auditRepo)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(claimsSvc))
	{
		users := api.Group("/users/:id")
		users.Use(middleware.AdminOrSelf())
		users.GET("/sessions", sessionHandler.List)
		users.DELETE("/sessions/:authorizationId",
			middleware.AdminAudit(auditSvc, "ADMIN_SESSION_REVOKE"), sessionHandler.Revoke)
		users.DELETE("/sessions",
			middleware.AdminAudit(auditSvc, "ADMIN_SESSION_REVOKE_ALL"), sessionHandler.RevokeAll)

		api.GET("/audit-events", middleware.AdminOnly(), auditHandler.List)
	}

	internal := r.Group("/internal/v1")
	internal.Use(middleware.InternalAuth(cfg.Internal.Token))
	{
		internal.POST("/sessions", grantHandler.Create)
		internal.POST("/sessions/:authorizationId/rotate", grantHandler.Rotate)
		internal.POST("/sessions/:authorizationId/role", grantHandler.SwitchRole)
		internal.GET("/sessions/:authorizationId/claims", grantHandler.Claims)
		internal.POST("/persons/:id/revoke", grantHandler.RevokePerson)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
