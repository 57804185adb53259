package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/controllers"
	"github.com/osassistant/backend/internal/services"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, knowledge *services.KnowledgeService, storeName string) {
	// Initialize controllers
	healthController := controllers.NewHealthController(knowledge, storeName)
	caseController := controllers.NewCaseController(knowledge)
	analysisController := controllers.NewAnalysisController(knowledge)
	learningController := controllers.NewLearningController(knowledge)

	r.GET("/health", healthController.Health)

	// API routes
	api := r.Group("/api/v1")
	{
		// Analysis
		api.POST("/analyze", analysisController.Analyze)
		api.POST("/similar", analysisController.SimilarCases)
		api.POST("/classify", analysisController.Classify)

		analysis := api.Group("/analysis")
		{
			analysis.POST("/feedback", analysisController.SubmitFeedback)
			analysis.POST("/rate", analysisController.RateSuggestion)
		}

		// Cases
		cases := api.Group("/cases")
		{
			cases.GET("", caseController.ListCases)
			cases.POST("", caseController.CreateCase)
			cases.DELETE("", caseController.DeleteAllCases)
			cases.POST("/bulk-delete", caseController.DeleteCases)
			cases.POST("/sample", caseController.PopulateSampleCases)
			cases.GET("/recent", caseController.RecentCases)
			cases.GET("/search", caseController.SearchCases)
			cases.GET("/statistics", caseController.Statistics)
			cases.GET("/systems", caseController.Systems)
			cases.GET("/:id", caseController.GetCase)
			cases.PUT("/:id", caseController.UpdateCase)
			cases.DELETE("/:id", caseController.DeleteCase)
			cases.POST("/:id/feedback", caseController.SubmitFeedback)
			cases.GET("/:id/feedback", caseController.GetFeedback)
		}

		// Learned model
		model := api.Group("/model")
		{
			model.GET("/info", learningController.GetModelInfo)
			model.POST("/train", learningController.TrainModels)
			model.POST("/save", learningController.SaveModels)
			model.GET("/feedback", learningController.GetRecentFeedback)
		}
	}
}
