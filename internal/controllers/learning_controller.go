package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/services"
)

type LearningController struct {
	knowledge *services.KnowledgeService
}

func NewLearningController(knowledge *services.KnowledgeService) *LearningController {
	return &LearningController{knowledge: knowledge}
}

// GetModelInfo returns training status, supported systems and learning metrics
func (lc *LearningController) GetModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, lc.knowledge.GetModelInfo(c.Request.Context()))
}

// TrainModels retrains the system classifier on every stored case
func (lc *LearningController) TrainModels(c *gin.Context) {
	trained, err := lc.knowledge.TrainModels(c.Request.Context())
	if errors.Is(err, services.ErrNotEnoughCases) || errors.Is(err, services.ErrNotEnoughLabels) {
		c.JSON(http.StatusOK, gin.H{
			"trained": false,
			"reason":  err.Error(),
		})
		return
	}
	if err != nil {
		respondError(c, err, "learning_controller", "Failed to train models")
		return
	}

	if err := lc.knowledge.SaveModels(c.Request.Context()); err != nil {
		logger.WithError(err, "learning_controller").Warn("Trained model not persisted")
	}
	c.JSON(http.StatusOK, gin.H{
		"trained": trained,
		"model":   lc.knowledge.GetModelInfo(c.Request.Context()),
	})
}

// SaveModels persists the learned state now
func (lc *LearningController) SaveModels(c *gin.Context) {
	if err := lc.knowledge.SaveModels(c.Request.Context()); err != nil {
		logger.WithError(err, "learning_controller").Error("Failed to save models")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save models"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Models saved"})
}

// GetRecentFeedback lists the latest analysis feedback
func (lc *LearningController) GetRecentFeedback(c *gin.Context) {
	feedback, err := lc.knowledge.RecentAnalysisFeedback(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err, "learning_controller", "Failed to list feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}
