package main

import (
	"context"

	"github.com/osassistant/backend/internal/app"
	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	logger.Initialize(logger.Options{Level: cfg.LogLevel})
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("DB_DRIVER is memory, seeded cases will not survive this process", nil)
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize knowledge base", map[string]interface{}{"error": err.Error()})
	}
	defer a.Close()

	stats, err := a.Knowledge.Statistics(ctx)
	if err != nil {
		logger.Fatal("Failed to read statistics", map[string]interface{}{"error": err.Error()})
	}
	if stats.TotalCases > 0 {
		logger.Warn("Knowledge base already has cases, skipping seed", map[string]interface{}{
			"total_cases": stats.TotalCases,
		})
		return
	}

	added, trained, err := a.Knowledge.PopulateSampleCases(ctx)
	if err != nil {
		logger.Fatal("Seeding failed", map[string]interface{}{
			"added": added,
			"error": err.Error(),
		})
	}
	if trained {
		if err := a.Knowledge.SaveModels(ctx); err != nil {
			logger.WithError(err, "seed").Warn("Trained model not persisted")
		}
	}
	logger.Info("Database seeding completed successfully", map[string]interface{}{
		"added":   added,
		"trained": trained,
	})
}
