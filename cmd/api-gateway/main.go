package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uni-iro/mou-registry-api/api/swagger"
	"github.com/uni-iro/mou-registry-api/internal/handler"
	"github.com/uni-iro/mou-registry-api/internal/middleware"
	"github.com/uni-iro/mou-registry-api/internal/models"
	"github.com/uni-iro/mou-registry-api/internal/repository"
	"github.com/uni-iro/mou-registry-api/internal/scheduler"
	"github.com/uni-iro/mou-registry-api/internal/service"
	"github.com/uni-iro/mou-registry-api/pkg/cache"
	"github.com/uni-iro/mou-registry-api/pkg/config"
	"github.com/uni-iro/mou-registry-api/pkg/database"
	"github.com/uni-iro/mou-registry-api/pkg/logger"
	"github.com/uni-iro/mou-registry-api/pkg/mailer"
	corsmiddleware "github.com/uni-iro/mou-registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uni-iro/mou-registry-api/pkg/middleware/requestid"
	"github.com/uni-iro/mou-registry-api/pkg/storage"
)

// @title MOU Registry API
// @version 1.0.0
// @description University international relations MOU registry and multi-stage approval workflow
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and scan locking degraded", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	mouRepo := repository.NewMOURepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)

	var smtp mailer.Mailer
	if cfg.Mail.Enabled {
		smtp, err = mailer.NewSMTPMailer(cfg.Mail)
		if err != nil {
			logr.Sugar().Fatalw("failed to init smtp mailer", "error", err)
		}
	}
	mailDispatcher := service.NewMailDispatcher(smtp, cfg.Mail, logr)

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mouRepo, mailDispatcher, cfg.Scan.Window, logr)
	mouSvc := service.NewMOUService(mouRepo, orgRepo, userRepo, notificationSvc, cacheRepo, metricsSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mou-registry-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	orgSvc := service.NewOrganizationService(orgRepo, logr)
	analyticsSvc := service.NewAnalyticsService(mouRepo, cacheSvc, metricsSvc, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(mouRepo, exportStore, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	mouHandler := handler.NewMOUHandler(mouSvc)
	userHandler := handler.NewUserHandler(userSvc)
	orgHandler := handler.NewOrganizationHandler(orgSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/register-super-admin", authHandler.RegisterSuperAdmin)
		auth.POST("/set-password", authHandler.SetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.GET("/me", authHandler.Me)
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.POST("/register-admin", middleware.RequireRoles(models.RoleSuperAdmin), authHandler.RegisterAdmin)
	}

	mous := api.Group("/mous", middleware.JWT(authSvc))
	{
		mous.POST("", mouHandler.Submit)
		mous.GET("", mouHandler.List)
		mous.GET("/recent", mouHandler.Recent)
		mous.GET("/expiring", mouHandler.Expiring)
		mous.GET("/by-organization", mouHandler.ByOrganization)
		mous.GET("/pending", middleware.RequireAdmin(), mouHandler.Pending)
		mous.GET("/:id", mouHandler.Get)
		mous.POST("/:id/approve", middleware.RequireAdmin(), mouHandler.Approve)
		mous.POST("/:id/reject", middleware.RequireAdmin(), mouHandler.Reject)
		mous.POST("/:id/renew", mouHandler.Renew)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.PUT("/profile", userHandler.UpdateOwnProfile)
		users.GET("", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.List)
		users.GET("/admins", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.ListAdmins)
		users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), "SELF"), userHandler.Get)
		users.PUT("/:id", middleware.RBAC(string(models.RoleSuperAdmin), "SELF"), userHandler.UpdateProfile)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.Deactivate)
	}

	organizations := api.Group("/organizations", middleware.JWT(authSvc))
	{
		organizations.GET("", orgHandler.List)
		organizations.GET("/:id", orgHandler.Get)
		organizations.POST("", middleware.RequireRoles(models.RoleSuperAdmin), middleware.Audit(userRepo, "ORG_CREATE", "organizations"), orgHandler.Create)
	}

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/notify", middleware.RequireAdmin(), notificationHandler.Notify)
		notifications.POST("/scan", middleware.RequireRoles(models.RoleSuperAdmin), notificationHandler.Scan)
		notifications.DELETE("", notificationHandler.Clear)
	}

	analytics := api.Group("/analytics", middleware.JWT(authSvc), middleware.RequireAdmin())
	{
		analytics.GET("", analyticsHandler.Overview)
		analytics.GET("/system", middleware.RequireRoles(models.RoleSuperAdmin), analyticsHandler.System)
	}

	reports := api.Group("/reports")
	{
		reports.POST("/register", middleware.JWT(authSvc), middleware.RequireAdmin(), middleware.Audit(userRepo, "REPORT_EXPORT", "reports"), reportHandler.GenerateRegister)
		reports.GET("/register/download/:token", reportHandler.Download)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailDispatcher.Start(runCtx)
	defer mailDispatcher.Stop()

	if cfg.Scan.Enabled {
		lock, err := scheduler.NewRedisLock(cacheRepo, cfg.Scan.LockKey, cfg.Scan.LockTTL)
		if err != nil {
			logr.Sugar().Fatalw("failed to init expiry scan lock", "error", err)
		}
		sched := scheduler.New(notificationSvc, exportSvc, metricsSvc, lock, scheduler.Config{Interval: cfg.Scan.Interval}, logr)
		go sched.Run(runCtx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-runCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
