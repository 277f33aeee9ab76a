package main

import (
	"os"

	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/handlers"
	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/internal/utils"
	"github.com/coletiva/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue     services.TaskQueue
	worker        *services.Worker
	retention     *services.RetentionScheduler
	authHandler   *handlers.AuthHandler
	reportHandler *handlers.ReportHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetEncryptionKey(cfg.Crypto.Key)
	if cfg.Crypto.Key == "" {
		logger.Warn().Msg("CRYPTO_KEY not set, payment method payloads stored unencrypted")
	}

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Storage directories for reports and receipts
	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		logger.Fatalf("Failed to create storage dir: %v", err)
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	reportHandler := handlers.NewReportHandler(models.GetDB(), cfg, taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(reportHandler.ReportService().Process)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(reportHandler.ReportService().Process)
			worker.Start()
		}
	}

	// Start report retention scheduler
	retention := services.NewRetentionScheduler(
		reportHandler.ReportService(),
		services.NewAuditService(models.GetDB()),
		cfg.Reports.RetentionDays,
	)
	retention.Start()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		taskQueue:     taskQueue,
		worker:        worker,
		retention:     retention,
		authHandler:   authHandler,
		reportHandler: reportHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.retention.Stop()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
