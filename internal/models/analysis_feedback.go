package models

import (
	"time"

	"gorm.io/datatypes"
)

type SuggestionRating string

const (
	RatingHelpful    SuggestionRating = "helpful"
	RatingNotHelpful SuggestionRating = "not_helpful"
)

// Valid reports whether r is one of the two accepted ratings.
func (r SuggestionRating) Valid() bool {
	return r == RatingHelpful || r == RatingNotHelpful
}

// AnalysisFeedback rates one analysis session. It is not tied to a stored
// Case and survives case deletion.
type AnalysisFeedback struct {
	ID                 uint                                            `json:"id" gorm:"primaryKey"`
	AnalysisID         string                                          `json:"analysisId" gorm:"size:36;index"`
	ProblemDescription string                                          `json:"problemDescription" gorm:"type:text;not null"`
	OverallScore       int                                             `json:"overallScore" gorm:"not null"`
	SuggestionRatings  datatypes.JSONType[map[string]SuggestionRating] `json:"suggestionRatings"`
	GoodAspects        datatypes.JSONSlice[string]                     `json:"goodAspects"`
	Improvements       datatypes.JSONSlice[string]                     `json:"improvements"`
	Comments           string                                          `json:"comments" gorm:"type:text"`
	DetectedSystem     string                                          `json:"detectedSystem" gorm:"size:100"`
	CreatedAt          time.Time                                       `json:"createdAt" gorm:"index"`
}

func (AnalysisFeedback) TableName() string {
	return "analysis_feedbacks"
}

// Ratings returns the suggestion-index to rating map, never nil.
func (f *AnalysisFeedback) Ratings() map[string]SuggestionRating {
	r := f.SuggestionRatings.Data()
	if r == nil {
		return map[string]SuggestionRating{}
	}
	return r
}
