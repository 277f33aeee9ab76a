package main

import (
	"os"

	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	// Initialize database, services and schedulers
	svc := bootstrap(cfg)
	defer svc.shutdown()

	// Create router
	r := gin.New()
	registerRoutes(r, cfg, svc)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
