package models

import "time"

// SolutionSuggestion is the transient result of one analysis.
type SolutionSuggestion struct {
	AnalysisID         string    `json:"analysisId"`
	ProblemDescription string    `json:"problemDescription"`
	SuggestedSolutions []string  `json:"suggestedSolutions"`
	Confidence         float64   `json:"confidence"`
	SystemType         string    `json:"systemType"`
	SimilarCases       []Case    `json:"similarCases"`
	Degraded           bool      `json:"degraded,omitempty"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

// ScoredCase pairs a case with its similarity or search score.
type ScoredCase struct {
	Case      Case    `json:"case"`
	Score     float64 `json:"score"`
	Relevance string  `json:"relevance"` // "high", "medium", "low"
}

// Statistics summarizes the knowledge base.
type Statistics struct {
	TotalCases           int64            `json:"totalCases"`
	CasesBySystem        map[string]int64 `json:"casesBySystem"`
	AverageEffectiveness float64          `json:"averageEffectiveness"`
	CasesWithFeedback    int64            `json:"casesWithFeedback"`
	RecentCases          int64            `json:"recentCases"`
}
