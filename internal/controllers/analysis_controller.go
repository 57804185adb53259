package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/services"
)

type AnalysisController struct {
	knowledge *services.KnowledgeService
}

func NewAnalysisController(knowledge *services.KnowledgeService) *AnalysisController {
	return &AnalysisController{knowledge: knowledge}
}

type AnalyzeRequest struct {
	ProblemDescription string `json:"problemDescription"`
	Limit              int    `json:"limit"`
}

type RateSuggestionRequest struct {
	AnalysisID         string                  `json:"analysisId"`
	SuggestionIndex    int                     `json:"suggestionIndex"`
	Rating             models.SuggestionRating `json:"rating" binding:"required"`
	ProblemDescription string                  `json:"problemDescription" binding:"required"`
	DetectedSystem     string                  `json:"detectedSystem"`
}

// Analyze returns ranked solution suggestions for a problem description
func (ac *AnalysisController) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	suggestion, err := ac.knowledge.Analyze(c.Request.Context(), req.ProblemDescription)
	if err != nil {
		respondError(c, err, "analysis_controller", "Failed to analyze problem")
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// SimilarCases returns cases by TF-IDF similarity, with scores
func (ac *AnalysisController) SimilarCases(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	similar, err := ac.knowledge.FindSimilarCases(c.Request.Context(), req.ProblemDescription, req.Limit)
	if err != nil {
		respondError(c, err, "analysis_controller", "Failed to find similar cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"similarCases": similar})
}

// SubmitFeedback records a full rating of one analysis session
func (ac *AnalysisController) SubmitFeedback(c *gin.Context) {
	var req services.AnalysisFeedbackInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := ac.knowledge.SubmitAnalysisFeedback(c.Request.Context(), req); err != nil {
		respondError(c, err, "analysis_controller", "Failed to record analysis feedback")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback recorded"})
}

// RateSuggestion records a one-click helpful / not helpful rating
func (ac *AnalysisController) RateSuggestion(c *gin.Context) {
	var req RateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err := ac.knowledge.RateSuggestion(c.Request.Context(), req.AnalysisID, req.SuggestionIndex, req.Rating, req.ProblemDescription, req.DetectedSystem)
	if err != nil {
		respondError(c, err, "analysis_controller", "Failed to record rating")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Rating recorded"})
}

// Classify returns only the detected system label
func (ac *AnalysisController) Classify(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProblemDescription == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "problemDescription is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"systemType": ac.knowledge.Classify(req.ProblemDescription)})
}
