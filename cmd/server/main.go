package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/app"
	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/middleware"
	"github.com/osassistant/backend/internal/routes"
	"github.com/osassistant/backend/internal/services"
)

func main() {
	cfg, cfgErr := config.Load()

	// Initialize logger first
	logger.Initialize(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if cfgErr != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{
			"error": cfgErr.Error(),
		})
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize knowledge base", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer a.Close()

	// Background retraining and periodic model saves
	jobs := services.NewJobService(a.Knowledge, 32)
	a.Knowledge.SetJobs(jobs)
	jobs.Start()

	scheduler, err := services.NewScheduler(cfg.ModelSaveSchedule, jobs)
	if err != nil {
		logger.Fatal("Invalid MODEL_SAVE_SCHEDULE", map[string]interface{}{
			"schedule": cfg.ModelSaveSchedule,
			"error":    err.Error(),
		})
	}
	scheduler.Start()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(gin.Recovery())

	routes.SetupRoutes(r, a.Knowledge, a.StoreName)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	logger.Info("Starting OS assistant backend server", map[string]interface{}{
		"port":        cfg.Port,
		"gin_mode":    gin.Mode(),
		"store":       a.StoreName,
		"model_store": cfg.ModelStore,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Warn("Received shutdown signal, stopping background workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	scheduler.Stop()
	jobs.Stop()
	if err := a.Knowledge.SaveModels(shutdownCtx); err != nil {
		logger.WithError(err, "server").Error("Failed to save models on shutdown")
	}
	logger.Info("Server exited gracefully", nil)
}
