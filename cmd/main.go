package main

import (
	"context"

	"tenant-service/internal/handler"
	"tenant-service/internal/middleware"
	"tenant-service/internal/store"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/config"
	"tenant-service/pkg/database"
	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/logger"
	"tenant-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting tenant service...", cfg.LogConfig()...)

	// Registry database (organizations + admins)
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize registry database", zap.Error(err))
	}
	log.Info("Registry database connected and migrated")

	// Tenant document store
	mongoClient, err := database.ConnectMongo(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize document store", zap.Error(err))
	}
	defer func() {
		if err := database.DisconnectMongo(mongoClient); err != nil {
			log.Warn("Failed to disconnect document store", zap.Error(err))
		}
	}()
	log.Info("Document store connected", zap.String("database", cfg.Mongo.Database))

	// Wire components
	tokens := jwtutil.New(&cfg.JWT)
	registry := store.NewRegistry(db)
	docs := store.NewDocStore(mongoClient, cfg.Mongo.Database, cfg.Tenant.MigrationBatchSize)
	manager := tenant.NewManager(registry, docs, tokens, log)
	h := handler.New(manager)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/org/create", h.CreateOrg)
	e.GET("/org/get", h.GetOrg)
	e.POST("/admin/login", h.Login)

	// Lifecycle mutations require a bearer token
	auth := middleware.Auth(tokens)
	e.PUT("/org/update", h.UpdateOrg, auth)
	e.DELETE("/org/delete", h.DeleteOrg, auth)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
