package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/reservalo/agenda-api/api/swagger"
	"github.com/reservalo/agenda-api/internal/handler"
	"github.com/reservalo/agenda-api/internal/middleware"
	"github.com/reservalo/agenda-api/internal/repository"
	"github.com/reservalo/agenda-api/internal/service"
	"github.com/reservalo/agenda-api/pkg/cache"
	"github.com/reservalo/agenda-api/pkg/config"
	"github.com/reservalo/agenda-api/pkg/database"
	"github.com/reservalo/agenda-api/pkg/jobs"
	"github.com/reservalo/agenda-api/pkg/logger"
	corsmiddleware "github.com/reservalo/agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/reservalo/agenda-api/pkg/middleware/requestid"
	"github.com/reservalo/agenda-api/pkg/storage"
)

// @title Agenda API
// @version 1.0.0
// @description Appointment scheduling for a single service provider
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Availability.CacheTTL, logr, true)
		}
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authService := service.NewAuthService(scheduleRepo, auditRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.Auth.TokenSecret,
		TokenExpiry: cfg.Auth.TokenExpiry,
		Issuer:      cfg.Auth.Issuer,
	})
	scheduleService := service.NewScheduleService(scheduleRepo, auditRepo, cacheService, nil, logr)
	availabilityService := service.NewAvailabilityService(scheduleRepo, bookingRepo, cacheService, cfg.Availability.CacheTTL, logr)
	bookingService := service.NewBookingService(bookingRepo, scheduleRepo, auditRepo, cacheService, metricsService, logr)
	auditService := service.NewAuditService(auditRepo, logr)

	ctx := context.Background()

	var reportService *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("report storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService := service.NewExportService(bookingRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil, nil)
		reportRepo := repository.NewReportRepository(db)
		worker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportService = service.NewReportService(reportRepo, reportQueue, exportService, auditRepo, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})

		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		reportService.RecoverPendingJobs(ctx)
		reportService.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	auditHandler := handler.NewAuditHandler(auditService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		public.POST("/bookings", limiter.Middleware(), bookingHandler.Create)
		public.POST("/auth/login", limiter.Middleware(), authHandler.Login)
	} else {
		public.POST("/bookings", bookingHandler.Create)
		public.POST("/auth/login", authHandler.Login)
	}
	public.GET("/schedule", scheduleHandler.Get)
	public.GET("/availability", availabilityHandler.Day)

	admin := api.Group("")
	admin.Use(middleware.JWT(authService), middleware.RequireAdmin())
	admin.GET("/bookings", bookingHandler.List)
	admin.GET("/bookings/:id", bookingHandler.Get)
	admin.PATCH("/bookings/:id", bookingHandler.Update)
	admin.DELETE("/bookings/:id", bookingHandler.Delete)
	admin.PUT("/schedule", scheduleHandler.Update)
	admin.PUT("/schedule/secret", authHandler.RotateSecret)
	admin.POST("/schedule/blocked-dates", scheduleHandler.BlockDate)
	admin.DELETE("/schedule/blocked-dates/:date", scheduleHandler.UnblockDate)
	admin.GET("/audit-logs", auditHandler.List)
	admin.GET("/metrics/system", metricsHandler.System)

	if reportService != nil {
		reportHandler := handler.NewReportHandler(reportService)
		admin.POST("/reports", reportHandler.Create)
		admin.GET("/reports/:id", reportHandler.Status)
		admin.GET("/reports/download", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
