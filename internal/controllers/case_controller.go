package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/services"
)

type CaseController struct {
	knowledge *services.KnowledgeService
}

func NewCaseController(knowledge *services.KnowledgeService) *CaseController {
	return &CaseController{knowledge: knowledge}
}

// CaseRequest is the body for creating or editing a case
type CaseRequest struct {
	ProblemDescription string   `json:"problemDescription" binding:"required"`
	Solution           string   `json:"solution" binding:"required"`
	SystemType         string   `json:"systemType"`
	Tags               []string `json:"tags"`
}

type CaseFeedbackRequest struct {
	EffectivenessScore int                     `json:"effectivenessScore" binding:"required"`
	ResolutionMethod   models.ResolutionMethod `json:"resolutionMethod"`
	CustomSolution     string                  `json:"customSolution"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// CreateCase stores a new case
func (cc *CaseController) CreateCase(c *gin.Context) {
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithError(err, "case_controller").Debug("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := cc.knowledge.AddCase(c.Request.Context(), req.ProblemDescription, req.Solution, req.SystemType, req.Tags)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to create case")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Case created successfully",
		"case":    created,
	})
}

// GetCase returns a case with its formatted steps and feedback history
func (cc *CaseController) GetCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := cc.knowledge.GetCase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to get case")
		return
	}
	feedback, err := cc.knowledge.CaseFeedback(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to get case feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"case":     found,
		"steps":    cc.knowledge.FormatSolution(found.Solution),
		"feedback": feedback,
	})
}

func (cc *CaseController) UpdateCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := cc.knowledge.UpdateCase(c.Request.Context(), id, req.ProblemDescription, req.Solution, req.SystemType, req.Tags)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to update case")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Case updated successfully",
		"case":    updated,
	})
}

func (cc *CaseController) DeleteCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := cc.knowledge.DeleteCase(c.Request.Context(), id); err != nil {
		respondError(c, err, "case_controller", "Failed to delete case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Case deleted successfully"})
}

// DeleteCases removes the listed cases
func (cc *CaseController) DeleteCases(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	n, err := cc.knowledge.DeleteCases(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to delete cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// PopulateSampleCases loads the demonstration cases and retrains
func (cc *CaseController) PopulateSampleCases(c *gin.Context) {
	added, trained, err := cc.knowledge.PopulateSampleCases(c.Request.Context())
	if err != nil {
		respondError(c, err, "case_controller", "Failed to add sample cases")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"added":   added,
		"trained": trained,
	})
}

// DeleteAllCases empties the knowledge base. Requires ?confirm=true.
func (cc *CaseController) DeleteAllCases(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pass confirm=true to delete every case"})
		return
	}

	n, err := cc.knowledge.DeleteAllCases(c.Request.Context())
	if err != nil {
		respondError(c, err, "case_controller", "Failed to delete cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// ListCases returns every case, optionally filtered by ?system=
func (cc *CaseController) ListCases(c *gin.Context) {
	cases, err := cc.knowledge.ListCases(c.Request.Context(), c.Query("system"))
	if err != nil {
		respondError(c, err, "case_controller", "Failed to list cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"total": len(cases),
	})
}

func (cc *CaseController) RecentCases(c *gin.Context) {
	cases, err := cc.knowledge.RecentCases(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err, "case_controller", "Failed to list recent cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// SearchCases runs the weighted text search: ?q=...&system=...
func (cc *CaseController) SearchCases(c *gin.Context) {
	cases, err := cc.knowledge.SearchCases(c.Request.Context(), c.Query("q"), c.Query("system"))
	if err != nil {
		respondError(c, err, "case_controller", "Failed to search cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"total": len(cases),
	})
}

// SubmitFeedback rates a case's solution from 1 to 5
func (cc *CaseController) SubmitFeedback(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CaseFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if _, err := cc.knowledge.SubmitCaseFeedback(c.Request.Context(), id, req.EffectivenessScore, req.ResolutionMethod, req.CustomSolution); err != nil {
		respondError(c, err, "case_controller", "Failed to record feedback")
		return
	}

	updated, err := cc.knowledge.GetCase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to get case")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Feedback recorded",
		"case":    updated,
	})
}

func (cc *CaseController) GetFeedback(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	feedback, err := cc.knowledge.CaseFeedback(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "case_controller", "Failed to get case feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

func (cc *CaseController) Statistics(c *gin.Context) {
	stats, err := cc.knowledge.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err, "case_controller", "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (cc *CaseController) Systems(c *gin.Context) {
	systems, err := cc.knowledge.UniqueSystems(c.Request.Context())
	if err != nil {
		respondError(c, err, "case_controller", "Failed to list systems")
		return
	}
	c.JSON(http.StatusOK, gin.H{"systems": systems})
}
