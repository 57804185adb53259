package main

import (
	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/db"
	"github.com/osassistant/backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	logger.Initialize(logger.Options{Level: cfg.LogLevel})
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if cfg.DBDriver == config.DriverMemory {
		logger.Info("DB_DRIVER is memory, nothing to migrate", nil)
		return
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", map[string]interface{}{"driver": cfg.DBDriver})
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal("Migration failed", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Database migrations completed successfully", nil)
}
