// Package app wires configuration into a ready KnowledgeService. The server,
// seed and kbctl commands share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/db"
	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/services"
)

const storeBackoff = 200 * time.Millisecond

type App struct {
	Config    config.Config
	Knowledge *services.KnowledgeService
	Learner   *services.LearningEngine
	// StoreName is the driver actually in use, which differs from
	// Config.DBDriver after a fallback to memory.
	StoreName string

	closers []func() error
}

// Build opens the case store and the model store and loads any persisted
// learning state. A database that cannot be reached outside production
// falls back to the in-memory store.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	rules, err := services.LoadRuleSet(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	store, name, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.StoreName = name

	modelStore, err := a.openModelStore()
	if err != nil {
		return nil, err
	}

	a.Learner = services.NewLearningEngine(modelStore)
	if err := a.Learner.Load(ctx); err != nil {
		logger.WithError(err, "app").Warn("Starting with an empty learning state")
	}

	a.Knowledge = services.NewKnowledgeService(store, a.Learner, rules, services.KnowledgeOptions{
		NgramMax:     cfg.NgramMax,
		VarietySeed:  cfg.SuggestionVarietySeed,
		RetrainEvery: cfg.RetrainEvery,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (services.Store, string, error) {
	cfg := a.Config
	if cfg.DBDriver == config.DriverMemory {
		logger.Info("Using in-memory case store", nil)
		return services.NewMemoryStore(), config.DriverMemory, nil
	}

	conn, err := db.Connect(cfg)
	if err == nil {
		err = db.AutoMigrate(conn)
	}
	if err != nil {
		if cfg.IsProduction() {
			return nil, "", fmt.Errorf("case store unavailable: %w", err)
		}
		logger.WithError(err, "app").Warn("Database unavailable, falling back to in-memory case store")
		return services.NewMemoryStore(), config.DriverMemory, nil
	}

	store := services.NewResilientStore(services.NewGormStore(conn), cfg.StoreRetries, storeBackoff)
	if err := store.Warm(ctx); err != nil {
		logger.WithError(err, "app").Warn("Could not warm the case snapshot")
	}
	a.closers = append(a.closers, func() error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return store, cfg.DBDriver, nil
}

func (a *App) openModelStore() (services.ModelStore, error) {
	cfg := a.Config
	switch cfg.ModelStore {
	case config.ModelStoreNone:
		logger.Info("Model persistence disabled", nil)
		return nil, nil
	case config.ModelStoreRedis:
		rs, err := services.NewRedisModelStore(services.RedisModelStoreConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			if cfg.IsProduction() {
				return nil, err
			}
			logger.WithError(err, "app").Warn("Redis unavailable, persisting models to disk")
			return services.NewFileModelStore(cfg.ModelDir), nil
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		return services.NewFileModelStore(cfg.ModelDir), nil
	}
}

// Close releases the database and redis connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.WithError(err, "app").Warn("Error while closing a connection")
		}
	}
}
