package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
)

const (
	defaultSimilarLimit = 5
	defaultRecentLimit  = 10
	recentWindow        = 7 * 24 * time.Hour
)

// KnowledgeOptions tunes the analysis pipeline.
type KnowledgeOptions struct {
	NgramMax     int
	VarietySeed  int64
	RetrainEvery int
}

// ModelInfo describes the learned state.
type ModelInfo struct {
	IsTrained          bool               `json:"isTrained"`
	SupportedSystems   []string           `json:"supportedSystems"`
	LearningStatistics LearningStatistics `json:"learningStatistics"`
	Jobs               *JobStats          `json:"jobs,omitempty"`
}

// KnowledgeService is the entry point used by the HTTP layer and the CLI.
// Feedback operations are provided by the embedded FeedbackService.
type KnowledgeService struct {
	*FeedbackService

	store      Store
	learner    *LearningEngine
	rules      *RuleSet
	classifier *SystemClassifier
	similarity *SimilarityEngine
	ranker     *SolutionRanker
	jobs       *JobService
	now        func() time.Time
}

func NewKnowledgeService(store Store, learner *LearningEngine, rules *RuleSet, opts KnowledgeOptions) *KnowledgeService {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &KnowledgeService{
		FeedbackService: NewFeedbackService(store, learner, opts.RetrainEvery),
		store:           store,
		learner:         learner,
		rules:           rules,
		classifier:      NewSystemClassifier(rules, learner),
		similarity:      NewSimilarityEngine(opts.NgramMax),
		ranker:          NewSolutionRanker(rules, learner, opts.VarietySeed),
		now:             time.Now,
	}
}

// SetJobs attaches the background worker used for retrain and save requests.
// Without one, retraining happens only through TrainModels.
func (ks *KnowledgeService) SetJobs(js *JobService) {
	ks.jobs = js
	ks.FeedbackService.jobs = js
}

func (ks *KnowledgeService) requestRetrain(reason string) {
	if ks.jobs == nil {
		return
	}
	ks.jobs.Enqueue(JobRetrain, reason)
}

// Analyze classifies the problem, finds similar cases and ranks solution
// suggestions. Storage or vectorization failures do not fail the call; the
// result is marked degraded and its confidence lowered by 0.2.
func (ks *KnowledgeService) Analyze(ctx context.Context, problem string) (*models.SolutionSuggestion, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, ErrEmptyProblem
	}

	degraded := false
	system := ks.classifier.Classify(problem)

	corpus, err := ks.store.ListAll(ctx)
	if err != nil {
		logger.WithError(err, "knowledge_service").Warn("Case corpus unavailable, analyzing without similar cases")
		corpus = nil
		degraded = true
	}

	scored, err := ks.similarity.FindSimilarEnhanced(problem, system, corpus, defaultSimilarLimit)
	if err != nil {
		degraded = true
	}
	similar := make([]models.Case, len(scored))
	for i := range scored {
		similar[i] = scored[i].Case
	}

	suggestions := ks.ranker.Rank(problem, system, similar)
	confidence := ks.ranker.Confidence(problem, system, suggestions)
	if degraded {
		confidence = clamp(confidence-degradedPenalty, 0, 1)
	}

	result := &models.SolutionSuggestion{
		AnalysisID:         uuid.NewString(),
		ProblemDescription: problem,
		SuggestedSolutions: suggestions,
		Confidence:         confidence,
		SystemType:         system,
		SimilarCases:       similar,
		Degraded:           degraded,
		GeneratedAt:        ks.now(),
	}

	logger.Info("Problem analyzed", map[string]interface{}{
		"analysis_id":   result.AnalysisID,
		"system":        system,
		"similar_cases": len(similar),
		"suggestions":   len(suggestions),
		"confidence":    confidence,
		"degraded":      degraded,
	})
	return result, nil
}

// FindSimilarCases returns up to limit cases by plain TF-IDF cosine
// similarity. limit <= 0 means 5.
func (ks *KnowledgeService) FindSimilarCases(ctx context.Context, problem string, limit int) ([]models.ScoredCase, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, ErrEmptyProblem
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	corpus, err := ks.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ks.similarity.FindSimilar(problem, corpus, limit), nil
}

// SearchCases runs the weighted token search, optionally restricted to one
// system.
func (ks *KnowledgeService) SearchCases(ctx context.Context, query, systemFilter string) ([]models.Case, error) {
	corpus, err := ks.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ks.similarity.Search(query, systemFilter, corpus), nil
}

// TrainModels retrains the system classifier on every stored case.
func (ks *KnowledgeService) TrainModels(ctx context.Context) (bool, error) {
	cases, err := ks.store.ListAll(ctx)
	if err != nil {
		return false, err
	}
	return ks.learner.Train(cases)
}

func (ks *KnowledgeService) SaveModels(ctx context.Context) error {
	return ks.learner.Save(ctx)
}

func (ks *KnowledgeService) GetModelInfo(ctx context.Context) ModelInfo {
	info := ModelInfo{
		IsTrained:          ks.learner.IsTrained(),
		SupportedSystems:   ks.rules.SupportedSystems(),
		LearningStatistics: ks.learner.Statistics(),
	}
	if ks.jobs != nil {
		stats := ks.jobs.Stats()
		info.Jobs = &stats
	}
	return info
}

// FormatSolution splits a stored solution into display steps.
func (ks *KnowledgeService) FormatSolution(solution string) []SolutionStep {
	return FormatSolutionSteps(solution)
}

// Classify exposes the system classifier.
func (ks *KnowledgeService) Classify(problem string) string {
	return ks.classifier.Classify(problem)
}

// AddCase validates and stores a new case. An empty system is stored as
// "Unknown".
func (ks *KnowledgeService) AddCase(ctx context.Context, problem, solution, system string, tags []string) (*models.Case, error) {
	c, err := newCase(problem, solution, system, tags)
	if err != nil {
		return nil, err
	}
	if err := ks.store.Create(ctx, c); err != nil {
		logger.WithError(err, "knowledge_service").Error("Failed to create case")
		return nil, err
	}
	logger.WithCase(c.ID).WithField("system", c.SystemType).Info("Case created")
	ks.requestRetrain("case_created")
	return c, nil
}

func (ks *KnowledgeService) UpdateCase(ctx context.Context, id uint, problem, solution, system string, tags []string) (*models.Case, error) {
	c, err := newCase(problem, solution, system, tags)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := ks.store.Update(ctx, c); err != nil {
		return nil, err
	}
	logger.WithCase(id).Info("Case updated")
	ks.requestRetrain("case_updated")
	return c, nil
}

func (ks *KnowledgeService) DeleteCase(ctx context.Context, id uint) error {
	if err := ks.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithCase(id).Info("Case deleted")
	ks.requestRetrain("case_deleted")
	return nil
}

// DeleteCases removes the given cases. The classifier is invalidated until
// the next successful retrain.
func (ks *KnowledgeService) DeleteCases(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := ks.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		ks.learner.Invalidate()
		ks.requestRetrain("cases_deleted")
	}
	logger.Info("Cases deleted", map[string]interface{}{"requested": len(ids), "deleted": n})
	return n, nil
}

// DeleteAllCases empties the knowledge base and marks the model untrained.
func (ks *KnowledgeService) DeleteAllCases(ctx context.Context) (int64, error) {
	n, err := ks.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	ks.learner.Invalidate()
	logger.Warn("All cases deleted", map[string]interface{}{"deleted": n})
	return n, nil
}

func (ks *KnowledgeService) GetCase(ctx context.Context, id uint) (*models.Case, error) {
	return ks.store.Get(ctx, id)
}

// ListCases returns every case, optionally filtered by system.
func (ks *KnowledgeService) ListCases(ctx context.Context, system string) ([]models.Case, error) {
	cases, err := ks.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterBySystem(cases, system), nil
}

func (ks *KnowledgeService) RecentCases(ctx context.Context, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return ks.store.Recent(ctx, limit)
}

// CaseFeedback lists a case's feedback, newest first.
func (ks *KnowledgeService) CaseFeedback(ctx context.Context, caseID uint) ([]models.CaseFeedback, error) {
	if _, err := ks.store.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return ks.store.CaseFeedback(ctx, caseID)
}

// Statistics summarizes the knowledge base. The average effectiveness covers
// rated cases only and is rounded to two decimals.
func (ks *KnowledgeService) Statistics(ctx context.Context) (*models.Statistics, error) {
	cases, err := ks.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{
		TotalCases:    int64(len(cases)),
		CasesBySystem: make(map[string]int64),
	}
	cutoff := ks.now().Add(-recentWindow)
	var sum float64
	for _, c := range cases {
		stats.CasesBySystem[c.SystemType]++
		if c.EffectivenessScore != nil {
			stats.CasesWithFeedback++
			sum += *c.EffectivenessScore
		}
		if c.CreatedAt.After(cutoff) {
			stats.RecentCases++
		}
	}
	if stats.CasesWithFeedback > 0 {
		stats.AverageEffectiveness = math.Round(sum/float64(stats.CasesWithFeedback)*100) / 100
	}
	return stats, nil
}

// UniqueSystems returns the distinct system labels in use, sorted.
func (ks *KnowledgeService) UniqueSystems(ctx context.Context) ([]string, error) {
	cases, err := ks.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, c := range cases {
		if _, ok := seen[c.SystemType]; ok || c.SystemType == "" {
			continue
		}
		seen[c.SystemType] = struct{}{}
		out = append(out, c.SystemType)
	}
	sort.Strings(out)
	return out, nil
}

// Ping reports store health when the store supports it.
func (ks *KnowledgeService) Ping(ctx context.Context) error {
	if p, ok := ks.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func newCase(problem, solution, system string, tags []string) (*models.Case, error) {
	problem = strings.TrimSpace(problem)
	solution = strings.TrimSpace(solution)
	system = strings.TrimSpace(system)
	if problem == "" {
		return nil, ErrEmptyProblem
	}
	if solution == "" {
		return nil, ErrEmptySolution
	}
	if system == "" {
		system = models.UnknownSystem
	}
	return &models.Case{
		ProblemDescription: problem,
		Solution:           solution,
		SystemType:         system,
		Tags:               tags,
	}, nil
}

// IsInputError reports whether err was caused by invalid caller input.
func IsInputError(err error) bool {
	for _, target := range []error{ErrEmptyProblem, ErrEmptySolution, ErrInvalidScore, ErrInvalidRating, ErrInvalidResolution} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
