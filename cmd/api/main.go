package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hanbit-edu/workflow-api/api/swagger"
	"github.com/hanbit-edu/workflow-api/internal/handler"
	"github.com/hanbit-edu/workflow-api/internal/middleware"
	"github.com/hanbit-edu/workflow-api/internal/repository"
	"github.com/hanbit-edu/workflow-api/internal/service"
	"github.com/hanbit-edu/workflow-api/pkg/cache"
	"github.com/hanbit-edu/workflow-api/pkg/config"
	"github.com/hanbit-edu/workflow-api/pkg/database"
	"github.com/hanbit-edu/workflow-api/pkg/export"
	"github.com/hanbit-edu/workflow-api/pkg/logger"
	corsmiddleware "github.com/hanbit-edu/workflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hanbit-edu/workflow-api/pkg/middleware/requestid"
	"github.com/hanbit-edu/workflow-api/pkg/storage"
)

// @title Education Workflow API
// @version 1.0.0
// @description Multi-party workflow core for education programs, instructor assignment, attendance and settlement
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	educationRepo := repository.NewEducationRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metrics := service.NewMetricsService()
	tokens := service.NewTokenService(cfg.JWT.Secret)

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.Notifications.Enabled {
		notifier = service.NewRedisNotifier(redisClient, cfg.Notifications.ChannelPrefix, logr)
	}

	feePolicy := service.NewFeePolicy(cfg.Fees.PolicyMode)

	statusSvc := service.NewStatusService(educationRepo, assignmentRepo, notifier, metrics, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, educationRepo, instructorRepo, notifier, metrics, nil, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, educationRepo, assignmentRepo, instructorRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, educationRepo, export.NewPDFExporter(), notifier, metrics, nil, logr)
	feeSvc := service.NewFeeService(educationRepo, assignmentRepo, redisClient, feePolicy, cfg.Fees.CacheTTL, metrics, logr)

	store, err := storage.NewLocalStorage(cfg.Settlements.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init settlement storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Settlements.SignedURLSecret, cfg.Settlements.SignedURLTTL)
	settlementSvc := service.NewSettlementService(settlementRepo, educationRepo, assignmentRepo, feePolicy, store, signer, metrics, nil, logr, service.SettlementConfig{
		CleanupInterval:   cfg.Settlements.CleanupInterval,
		ResultTTL:         cfg.Settlements.ResultTTL,
		WorkerConcurrency: cfg.Settlements.WorkerConcurrency,
		WorkerRetries:     cfg.Settlements.WorkerRetries,
	})

	trigger := service.NewActivationTrigger(educationRepo, statusSvc, metrics, logr, cfg.Workflow.TriggerInterval, cfg.Workflow.TriggerBatch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Workflow.TriggerEnabled {
		trigger.Start(ctx)
		defer trigger.Stop()
	}
	if cfg.Settlements.Enabled {
		settlementSvc.Start(ctx)
		defer settlementSvc.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handler.Registry{
		Educations:   handler.NewEducationHandler(statusSvc, feeSvc),
		Assignments:  handler.NewAssignmentHandler(assignmentSvc),
		Applications: handler.NewApplicationHandler(applicationSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Settlements:  handler.NewSettlementHandler(settlementSvc),
		Metrics:      handler.NewMetricsHandler(metrics),
		Tokens:       tokens,
		Audits:       auditRepo,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
