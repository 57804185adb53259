package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
)

const maxQuickFeedbackProblem = 500

// AnalysisFeedbackInput is a user's rating of one analysis session.
// SuggestionRatings is keyed by the suggestion's index as a string ("0", "1", ...).
type AnalysisFeedbackInput struct {
	AnalysisID         string                             `json:"analysisId"`
	ProblemDescription string                             `json:"problemDescription"`
	OverallScore       int                                `json:"overallScore"`
	SuggestionRatings  map[string]models.SuggestionRating `json:"suggestionRatings"`
	DetectedSystem     string                             `json:"detectedSystem"`
	GoodAspects        []string                           `json:"goodAspects"`
	Improvements       []string                           `json:"improvements"`
	Comments           string                             `json:"comments"`
}

// FeedbackService handles case ratings and analysis feedback, and feeds the
// latter into the learning engine.
type FeedbackService struct {
	store        Store
	learner      *LearningEngine
	retrainEvery int
	jobs         *JobService
}

// NewFeedbackService creates a new feedback service. retrainEvery <= 0
// disables feedback-driven retraining.
func NewFeedbackService(store Store, learner *LearningEngine, retrainEvery int) *FeedbackService {
	return &FeedbackService{
		store:        store,
		learner:      learner,
		retrainEvery: retrainEvery,
	}
}

// SubmitCaseFeedback records a 1..5 rating for a case and updates its running
// mean effectiveness.
func (fs *FeedbackService) SubmitCaseFeedback(ctx context.Context, caseID uint, score int, method models.ResolutionMethod, customSolution string) (bool, error) {
	if !validScore(score) {
		return false, ErrInvalidScore
	}
	switch method {
	case "", models.ResolutionFirstSuggestion, models.ResolutionCustomSolution, models.ResolutionNotResolved:
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidResolution, method)
	}

	fb := &models.CaseFeedback{
		EffectivenessScore: score,
		ResolutionMethod:   method,
		CustomSolution:     strings.TrimSpace(customSolution),
	}
	updated, err := fs.store.AddFeedback(ctx, caseID, fb)
	if err != nil {
		return false, err
	}

	logger.WithCase(caseID).WithField("score", score).Info("Case feedback recorded")
	logger.Debug("Case effectiveness updated", map[string]interface{}{
		"case_id":        caseID,
		"feedback_count": updated.FeedbackCount,
	})
	return true, nil
}

// SubmitAnalysisFeedback stores the feedback and folds it into the learned
// model state. Every retrainEvery events a retrain and a save are requested.
func (fs *FeedbackService) SubmitAnalysisFeedback(ctx context.Context, in AnalysisFeedbackInput) error {
	problem := strings.TrimSpace(in.ProblemDescription)
	if problem == "" {
		return ErrEmptyProblem
	}
	if !validScore(in.OverallScore) {
		return ErrInvalidScore
	}
	for idx, r := range in.SuggestionRatings {
		if !r.Valid() {
			return fmt.Errorf("%w: suggestion %s rated %q", ErrInvalidRating, idx, r)
		}
	}

	record := &models.AnalysisFeedback{
		AnalysisID:         in.AnalysisID,
		ProblemDescription: problem,
		OverallScore:       in.OverallScore,
		SuggestionRatings:  datatypes.NewJSONType(in.SuggestionRatings),
		GoodAspects:        datatypes.JSONSlice[string](in.GoodAspects),
		Improvements:       datatypes.JSONSlice[string](in.Improvements),
		Comments:           in.Comments,
		DetectedSystem:     in.DetectedSystem,
	}
	if err := fs.store.AddAnalysisFeedback(ctx, record); err != nil {
		return fmt.Errorf("failed to store analysis feedback: %w", err)
	}

	events := fs.learner.RecordFeedback(problem, in.SuggestionRatings, in.DetectedSystem, in.GoodAspects)
	logger.Info("Analysis feedback recorded", map[string]interface{}{
		"analysis_id":     in.AnalysisID,
		"overall_score":   in.OverallScore,
		"ratings":         len(in.SuggestionRatings),
		"feedback_events": events,
	})

	if fs.retrainEvery > 0 && events%fs.retrainEvery == 0 && fs.jobs != nil {
		fs.jobs.Enqueue(JobRetrain, "feedback")
		fs.jobs.Enqueue(JobSaveModel, "feedback")
	}
	return nil
}

// RateSuggestion is the one-click variant: a single suggestion rated helpful
// or not, stored with an overall score of 5 or 1.
func (fs *FeedbackService) RateSuggestion(ctx context.Context, analysisID string, index int, rating models.SuggestionRating, problem, detectedSystem string) error {
	if !rating.Valid() {
		return ErrInvalidRating
	}
	if index < 0 {
		return fmt.Errorf("%w: negative suggestion index", ErrInvalidRating)
	}

	in := AnalysisFeedbackInput{
		AnalysisID:         analysisID,
		ProblemDescription: truncateRunes(problem, maxQuickFeedbackProblem),
		SuggestionRatings:  map[string]models.SuggestionRating{strconv.Itoa(index): rating},
		DetectedSystem:     detectedSystem,
	}
	if rating == models.RatingHelpful {
		in.OverallScore = 5
		in.GoodAspects = []string{"relevant"}
	} else {
		in.OverallScore = 1
		in.Improvements = []string{"accuracy"}
	}
	return fs.SubmitAnalysisFeedback(ctx, in)
}

// RecentAnalysisFeedback returns the latest analysis feedback, newest first.
func (fs *FeedbackService) RecentAnalysisFeedback(ctx context.Context, limit int) ([]models.AnalysisFeedback, error) {
	return fs.store.RecentAnalysisFeedback(ctx, limit)
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
