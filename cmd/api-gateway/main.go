package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-fee-api/api/swagger"
	"github.com/noah-isme/sma-fee-api/internal/handler"
	"github.com/noah-isme/sma-fee-api/internal/middleware"
	"github.com/noah-isme/sma-fee-api/internal/models"
	"github.com/noah-isme/sma-fee-api/internal/repository"
	"github.com/noah-isme/sma-fee-api/internal/service"
	"github.com/noah-isme/sma-fee-api/pkg/cache"
	"github.com/noah-isme/sma-fee-api/pkg/config"
	"github.com/noah-isme/sma-fee-api/pkg/database"
	"github.com/noah-isme/sma-fee-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-fee-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-fee-api/pkg/middleware/requestid"
)

// @title SMA Fee API
// @version 1.0.0
// @description Fee assignment workflow and student timetable API
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Fees.OverviewCacheTTL, logr, true)
	}

	validate := validator.New()

	feeRepo := repository.NewFeeRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-fee-api",
	})
	overviewSvc := service.NewOverviewService(feeRepo, cacheSvc, logr, cfg.Fees.OverviewCacheTTL)
	assignmentSvc := service.NewAssignmentService(feeRepo, feeRepo, cacheSvc, validate, logr, service.AssignmentServiceConfig{
		DraftTTL: cfg.Fees.DraftTTL,
	})
	timetableSvc := service.NewTimetableService(timetableRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(overviewSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	feeHandler := newFeeHandler(overviewSvc, assignmentSvc, exportSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	fees := api.Group("/fees", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		fees.GET("/overview", feeHandler.Overview)
		fees.GET("/overview/export", feeHandler.ExportOverview)
		fees.GET("/classes", feeHandler.Classes)
		fees.GET("/classes/:id/students", feeHandler.ClassRoster)
		fees.POST("/assignments/draft", feeHandler.StartDraft)
		fees.PATCH("/assignments/:id/toggle", feeHandler.ToggleRow)
		fees.PATCH("/assignments/:id/amount", feeHandler.SetAmount)
		fees.POST("/assignments/:id/submit", feeHandler.Submit)
		fees.DELETE("/assignments/:id", feeHandler.Cancel)
	}

	timetable := api.Group("/timetable", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		timetable.GET("/weekly", timetableHandler.Weekly)
		timetable.GET("/subjects/:subjectId", timetableHandler.SubjectSchedule)
		timetable.GET("/marks", timetableHandler.CalendarMarks)
		timetable.GET("/today", timetableHandler.Today)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

// newFeeHandler keeps the nil-interface pitfall out of the wiring: a nil
// *ExportService must stay a nil interface inside the handler.
func newFeeHandler(overview *service.OverviewService, assignments *service.AssignmentService, exports *service.ExportService) *handler.FeeHandler {
	if exports == nil {
		return handler.NewFeeHandler(overview, assignments, nil)
	}
	return handler.NewFeeHandler(overview, assignments, exports)
}
