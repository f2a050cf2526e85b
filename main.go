package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundromat/apperror"
	"laundromat/config"
	"laundromat/controllers"
	"laundromat/middleware"
	"laundromat/routes"
	"laundromat/services"
	"laundromat/storage"
	"laundromat/store"
	"laundromat/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	zap.L().Info("starting", zap.String("mode", gin.Mode()), zap.String("env", cfg.AppEnv))

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zap.L().Fatal("invalid TIMEZONE", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	db, err := config.ConnectDatabase(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		zap.L().Fatal("database", zap.Error(err))
	}

	salesStore := store.NewSalesStore(db.Sales)
	timesheetStore := store.NewTimesheetStore(db.Timesheets)
	inventoryStore := store.NewInventoryStore(db.Inventory)
	logStore := store.NewInventoryLogStore(db.InventoryLogs)
	employeeStore := store.NewEmployeeStore(db.Employees)

	if !cfg.InventoryNameFallback {
		zap.L().Info("inventory name fallback disabled for sync")
	}
	reconciler := services.NewReconciler(salesStore, timesheetStore, inventoryStore, logStore, cfg.InventoryNameFallback)
	rates := services.PayRates{Regular: cfg.RegularRate, Overtime: cfg.OvertimeRate}

	salesService := services.NewSalesService(salesStore)
	if cfg.ArchiveEnabled() {
		archive, err := storage.NewS3Archive(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			zap.L().Fatal("export archive", zap.Error(err))
		}
		salesService.WithArchive(archive)
	}

	// Daily low-stock check
	lowStock := &utils.LowStockCheck{Inventory: inventoryStore, To: cfg.AlertEmail}
	if cfg.AlertsEnabled() {
		lowStock.Notifier = utils.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	s := gocron.NewScheduler(location)
	if err := utils.ScheduleLowStockCheck(s, "07:00", lowStock); err != nil {
		zap.L().Fatal("scheduler", zap.Error(err))
	}
	s.StartAsync()

	apperror.Init()
	controllers.DebugErrors = cfg.IsDevelopment()
	middleware.InitMetrics()
	services.InitMetrics()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Recovery(), middleware.PrometheusMiddleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
	}
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	routes.InitializeRoutes(r, routes.Handlers{
		Sync:       controllers.NewSyncController(reconciler),
		Sales:      controllers.NewSalesController(salesService),
		Timesheets: controllers.NewTimesheetController(services.NewTimesheetService(timesheetStore, employeeStore, rates, location)),
		Inventory:  controllers.NewInventoryController(services.NewInventoryService(inventoryStore, logStore)),
		Employees:  controllers.NewEmployeeController(services.NewEmployeeService(employeeStore)),
		DB:         db,
	}, routes.Options{
		SyncRateLimit: cfg.SyncRateLimit,
		SyncRateBurst: cfg.SyncRateBurst,
		MetricsAllow:  cfg.MetricsAllow,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second, // outlasts the /api/sync deadline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("HTTP server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zap.L().Info("shutdown signal received", zap.String("signal", sig.String()))

	s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.L().Error("forced shutdown", zap.Error(err))
	}
	if err := db.Disconnect(ctx); err != nil {
		zap.L().Error("mongo disconnect", zap.Error(err))
	}
	zap.L().Info("server exited")
}
