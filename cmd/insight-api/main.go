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
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-insight-api/internal/handler"
	"github.com/noah-isme/lms-insight-api/internal/middleware"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/repository"
	"github.com/noah-isme/lms-insight-api/internal/service"
	"github.com/noah-isme/lms-insight-api/internal/store"
	"github.com/noah-isme/lms-insight-api/pkg/cache"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	"github.com/noah-isme/lms-insight-api/pkg/database"
	"github.com/noah-isme/lms-insight-api/pkg/jobs"
	"github.com/noah-isme/lms-insight-api/pkg/llm"
	"github.com/noah-isme/lms-insight-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-insight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-insight-api/pkg/middleware/requestid"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	st, err := store.NewStore(cfg.Snapshot.DataDir, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to load snapshot", "dir", cfg.Snapshot.DataDir, "error", err)
	}
	metricsSvc.RecordSnapshotLoad()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Redis.Enabled)

	userRepo := repository.NewUserRepository(db)
	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	courseSvc := service.NewCourseService(st, cacheSvc, cfg.Analytics.CacheTTL, logr)

	trainingQueue := jobs.NewQueue("risk-training", nil, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		Logger:     logr,
	})
	riskSvc := service.NewRiskService(st, cfg.Risk, trainingQueue, metricsSvc, logr)
	trainingQueue.SetHandler(riskSvc.HandleTrainingJob)
	trainingQueue.Start(ctx)
	defer trainingQueue.Stop()

	studentSvc := service.NewStudentService(st, riskSvc, cacheSvc, cfg.Analytics.CacheTTL, logr)
	dashboardSvc := service.NewDashboardService(st, riskSvc, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(courseSvc, st, nil, nil, logr)

	var generator service.TextGenerator
	if cfg.Narrative.Enabled {
		gemini, err := llm.NewGeminiClient(ctx, cfg.Narrative)
		if err != nil {
			logr.Sugar().Fatalw("failed to init narrative client", "error", err)
		}
		generator = gemini
	}
	narrativeSvc := service.NewNarrativeService(generator, dashboardSvc, studentSvc, cfg.Narrative.Timeout, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	riskHandler := handler.NewRiskHandler(riskSvc)
	narrativeHandler := handler.NewNarrativeHandler(narrativeSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	systemHandler := handler.NewSystemHandler(st, cacheSvc, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", systemHandler.Health)
	r.GET("/ready", systemHandler.Ready)
	r.GET("/metrics", systemHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/courses/metrics", courseHandler.Metrics)
	authed.GET("/courses/:code/report", exportHandler.CourseReport)
	authed.GET("/students/at-risk", dashboardHandler.AtRisk)
	authed.GET("/students/:id/metrics", studentHandler.Metrics)
	authed.GET("/dashboard/instructor/:name", dashboardHandler.ForInstructor)

	risk := authed.Group("/risk")
	risk.GET("/model", riskHandler.ModelInfo)
	risk.POST("/train", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), riskHandler.Train)

	narratives := authed.Group("/narratives")
	narratives.GET("/instructor/:name", narrativeHandler.Instructor)
	narratives.GET("/student/:id", narrativeHandler.Student)
	narratives.GET("/student/:id/recommendations", narrativeHandler.Recommendations)

	system := authed.Group("/system")
	system.GET("/metrics", systemHandler.Metrics)
	system.POST("/snapshot/reload", middleware.RequireRoles(models.RoleAdmin), systemHandler.ReloadSnapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
