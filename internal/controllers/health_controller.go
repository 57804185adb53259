package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/services"
)

const Version = "1.0.0"

type HealthController struct {
	knowledge *services.KnowledgeService
	storeName string
}

// NewHealthController reports on the case store, labelled storeName in the
// response.
func NewHealthController(knowledge *services.KnowledgeService, storeName string) *HealthController {
	return &HealthController{knowledge: knowledge, storeName: storeName}
}

// Health pings the case store and reports the model status
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	storeStatus := gin.H{"status": "ok", "driver": hc.storeName}
	overallStatus := "ok"
	statusCode := http.StatusOK
	if err := hc.knowledge.Ping(ctx); err != nil {
		storeStatus["status"] = "error"
		storeStatus["error"] = err.Error()
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	info := hc.knowledge.GetModelInfo(ctx)
	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"services": gin.H{
			"database": storeStatus,
			"model": gin.H{
				"isTrained":      info.IsTrained,
				"feedbackEvents": info.LearningStatistics.FeedbackEvents,
			},
		},
	})
}
