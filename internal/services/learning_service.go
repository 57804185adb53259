package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/nlp"
)

const (
	minWeight             = 0.1
	maxWeight             = 2.0
	minEffectiveness      = 0.1
	maxEffectiveness      = 3.0
	neutralEffectiveness  = 1.0
	combinationBonus      = 0.3
	maxCombinations       = 100
	rankingWeightFactor   = 0.2
	minTrainingCases      = 5
	minLabeledCases       = 3
	modelStateVersion     = 1
	combinationMinMatches = 2
)

// TokenStats counts the ratings observed for problems containing a token.
// Weight is 0.1 + 1.9 * Helpful / (Helpful + NotHelpful).
type TokenStats struct {
	Helpful    int     `json:"helpful"`
	NotHelpful int     `json:"notHelpful"`
	Weight     float64 `json:"weight"`
}

func (s *TokenStats) record(r models.SuggestionRating) {
	if r == models.RatingHelpful {
		s.Helpful++
	} else {
		s.NotHelpful++
	}
	s.Weight = calculateWeight(s.Helpful, s.NotHelpful)
}

// calculateWeight maps a helpful ratio onto [0.1, 2.0]
func calculateWeight(helpful, notHelpful int) float64 {
	total := helpful + notHelpful
	if total == 0 {
		return neutralEffectiveness
	}
	w := minWeight + (maxWeight-minWeight)*float64(helpful)/float64(total)
	return clamp(w, minWeight, maxWeight)
}

// SuccessfulCombination records a problem whose suggestions were mostly rated
// helpful.
type SuccessfulCombination struct {
	ProblemTokens  []string  `json:"problemTokens"`
	DetectedSystem string    `json:"detectedSystem"`
	SuccessRate    float64   `json:"successRate"`
	GoodAspects    []string  `json:"goodAspects"`
	RecordedAt     time.Time `json:"recordedAt"`
}

type ModelMetadata struct {
	Version        int        `json:"version"`
	IsTrained      bool       `json:"isTrained"`
	TrainedAt      *time.Time `json:"trainedAt,omitempty"`
	TrainingCases  int        `json:"trainingCases"`
	FeedbackEvents int        `json:"feedbackEvents"`
	SavedAt        *time.Time `json:"savedAt,omitempty"`
}

// ModelState is everything the learner persists. All parts are optional.
type ModelState struct {
	Classifier     *NaiveBayes             `json:"classifier,omitempty"`
	Effectiveness  map[string]*TokenStats  `json:"effectiveness"`
	Combinations   []SuccessfulCombination `json:"successfulCombinations"`
	RankingWeights map[string]float64      `json:"rankingWeights"`
	Metadata       ModelMetadata           `json:"metadata"`
}

func newModelState() *ModelState {
	return &ModelState{
		Effectiveness:  make(map[string]*TokenStats),
		RankingWeights: make(map[string]float64),
		Metadata:       ModelMetadata{Version: modelStateVersion},
	}
}

// LearningStatistics summarizes the learned state for model info responses.
type LearningStatistics struct {
	LearnedTokens          int        `json:"learnedTokens"`
	SuccessfulCombinations int        `json:"successfulCombinations"`
	RankingWeights         int        `json:"rankingWeights"`
	FeedbackEvents         int        `json:"feedbackEvents"`
	TrainingCases          int        `json:"trainingCases"`
	TrainedAt              *time.Time `json:"trainedAt,omitempty"`
	SavedAt                *time.Time `json:"savedAt,omitempty"`
}

// LearningEngine owns the process-wide ModelState. Reads take the read lock;
// feedback and training swap state under the write lock. Saves are
// serialized by a separate mutex so two saves never interleave.
type LearningEngine struct {
	mu     sync.RWMutex
	state  *ModelState
	saveMu sync.Mutex
	store  ModelStore
}

// NewLearningEngine starts with empty state. store may be nil, in which case
// Load and Save are no-ops.
func NewLearningEngine(store ModelStore) *LearningEngine {
	return &LearningEngine{state: newModelState(), store: store}
}

// Load replaces the in-memory state with the persisted one. A missing or
// unreadable state leaves the engine empty; the error is returned for the
// caller to log but is never fatal.
func (le *LearningEngine) Load(ctx context.Context) error {
	if le.store == nil {
		return nil
	}
	data, err := le.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoModelState) {
			logger.Info("No persisted model state, starting untrained", nil)
			return nil
		}
		logger.WithError(err, "learning_engine").Warn("Failed to load model state, starting untrained")
		return err
	}

	state := newModelState()
	if err := json.Unmarshal(data, state); err != nil {
		logger.WithError(err, "learning_engine").Warn("Persisted model state is corrupt, starting untrained")
		return fmt.Errorf("failed to decode model state: %w", err)
	}
	if state.Effectiveness == nil {
		state.Effectiveness = make(map[string]*TokenStats)
	}
	if state.RankingWeights == nil {
		state.RankingWeights = make(map[string]float64)
	}
	if state.Classifier != nil {
		if err := state.Classifier.restore(); err != nil {
			logger.WithError(err, "learning_engine").Warn("Persisted classifier unusable, keeping feedback tables only")
			state.Classifier = nil
			state.Metadata.IsTrained = false
		}
	} else {
		state.Metadata.IsTrained = false
	}

	le.mu.Lock()
	le.state = state
	le.mu.Unlock()

	logger.Info("Loaded model state", map[string]interface{}{
		"is_trained":      state.Metadata.IsTrained,
		"learned_tokens":  len(state.Effectiveness),
		"combinations":    len(state.Combinations),
		"feedback_events": state.Metadata.FeedbackEvents,
	})
	return nil
}

// Save persists the current state. Failures are logged and returned.
func (le *LearningEngine) Save(ctx context.Context) error {
	if le.store == nil {
		return nil
	}

	le.saveMu.Lock()
	defer le.saveMu.Unlock()

	now := time.Now()
	le.mu.Lock()
	le.state.Metadata.SavedAt = &now
	data, err := json.Marshal(le.state)
	le.mu.Unlock()
	if err != nil {
		logger.WithError(err, "learning_engine").Error("Failed to encode model state")
		return fmt.Errorf("failed to encode model state: %w", err)
	}

	if err := le.store.Save(ctx, data); err != nil {
		logger.WithError(err, "learning_engine").Error("Failed to save model state")
		return err
	}
	logger.Debug("Model state saved", map[string]interface{}{"bytes": len(data)})
	return nil
}

// RecordFeedback folds one analysis feedback event into the token table,
// the successful combinations and the ranking weights. It returns the total
// number of feedback events recorded so far.
func (le *LearningEngine) RecordFeedback(problem string, ratings map[string]models.SuggestionRating, detectedSystem string, goodAspects []string) int {
	tokens := distinct(nlp.SearchTokenizer.TokenizeText(problem))

	le.mu.Lock()
	defer le.mu.Unlock()

	st := le.state
	st.Metadata.FeedbackEvents++
	if len(ratings) == 0 {
		return st.Metadata.FeedbackEvents
	}

	helpful := 0
	for _, idx := range sortedKeys(ratings) {
		rating := ratings[idx]
		if rating == models.RatingHelpful {
			helpful++
		}
		for _, tok := range tokens {
			stats, ok := st.Effectiveness[tok]
			if !ok {
				stats = &TokenStats{}
				st.Effectiveness[tok] = stats
			}
			stats.record(rating)
		}
	}
	for _, tok := range tokens {
		stats := st.Effectiveness[tok]
		st.RankingWeights[tok] = float64(stats.Helpful-stats.NotHelpful) / float64(stats.Helpful+stats.NotHelpful)
	}

	if len(tokens) > 0 && helpful*2 > len(ratings) {
		st.Combinations = append(st.Combinations, SuccessfulCombination{
			ProblemTokens:  tokens,
			DetectedSystem: detectedSystem,
			SuccessRate:    float64(helpful) / float64(len(ratings)),
			GoodAspects:    append([]string(nil), goodAspects...),
			RecordedAt:     time.Now(),
		})
		for len(st.Combinations) > maxCombinations {
			st.Combinations = evictLowest(st.Combinations)
		}
	}

	logger.Debug("Feedback recorded", map[string]interface{}{
		"tokens":  len(tokens),
		"ratings": len(ratings),
		"helpful": helpful,
	})
	return st.Metadata.FeedbackEvents
}

// evictLowest drops the oldest entry among those with the lowest success rate.
func evictLowest(combos []SuccessfulCombination) []SuccessfulCombination {
	low := 0
	for i := range combos {
		if combos[i].SuccessRate < combos[low].SuccessRate {
			low = i
		}
	}
	return append(combos[:low], combos[low+1:]...)
}

// Effectiveness scores a candidate solution for a problem. Tokens from both
// texts contribute their learned weight, or 1.0 when unseen; the mean is
// boosted when at least two tokens match a successful combination and is
// clamped to [0.1, 3.0]. Without any learned data the result is exactly 1.0.
func (le *LearningEngine) Effectiveness(solution, problem string) float64 {
	le.mu.RLock()
	defer le.mu.RUnlock()
	return le.effectivenessLocked(solution, problem)
}

func (le *LearningEngine) effectivenessLocked(solution, problem string) float64 {
	st := le.state
	if len(st.Effectiveness) == 0 && len(st.Combinations) == 0 {
		return neutralEffectiveness
	}

	union := distinct(append(nlp.SearchTokenizer.TokenizeText(solution), nlp.SearchTokenizer.TokenizeText(problem)...))
	if len(union) == 0 {
		return neutralEffectiveness
	}

	var sum float64
	for _, tok := range union {
		if stats, ok := st.Effectiveness[tok]; ok {
			sum += stats.Weight
		} else {
			sum += neutralEffectiveness
		}
	}
	score := sum / float64(len(union))

	set := nlp.TokenSet(union)
	bestRate := -1.0
	for _, combo := range st.Combinations {
		matches := 0
		for _, tok := range combo.ProblemTokens {
			if _, ok := set[tok]; ok {
				matches++
			}
		}
		if matches >= combinationMinMatches && combo.SuccessRate > bestRate {
			bestRate = combo.SuccessRate
		}
	}
	if bestRate > 0 {
		score *= 1 + bestRate*combinationBonus
	}
	return clamp(score, minEffectiveness, maxEffectiveness)
}

// HasRankingWeights reports whether any per-token ranking weight is learned.
func (le *LearningEngine) HasRankingWeights() bool {
	le.mu.RLock()
	defer le.mu.RUnlock()
	return len(le.state.RankingWeights) > 0
}

// RankingScore is effectiveness plus 0.2 times the sum of ranking weights of
// the tokens the candidate shares with the problem.
func (le *LearningEngine) RankingScore(candidate, problem string, effectiveness float64) float64 {
	le.mu.RLock()
	defer le.mu.RUnlock()

	problemSet := nlp.TokenSet(nlp.SearchTokenizer.TokenizeText(problem))
	var shared float64
	for _, tok := range distinct(nlp.SearchTokenizer.TokenizeText(candidate)) {
		if _, ok := problemSet[tok]; !ok {
			continue
		}
		shared += le.state.RankingWeights[tok]
	}
	return effectiveness + rankingWeightFactor*shared
}

// Train fits the statistical system classifier on the labeled cases. Below
// the corpus thresholds the current classifier is kept and a sentinel error
// explains why.
func (le *LearningEngine) Train(cases []models.Case) (bool, error) {
	if len(cases) < minTrainingCases {
		logger.Info("Not enough cases to train system classifier", map[string]interface{}{
			"cases":    len(cases),
			"required": minTrainingCases,
		})
		return false, ErrNotEnoughCases
	}

	var texts, labels []string
	for _, c := range cases {
		label := strings.TrimSpace(c.SystemType)
		if label == "" || label == models.UnknownSystem {
			continue
		}
		texts = append(texts, c.ProblemDescription)
		labels = append(labels, label)
	}
	if len(texts) < minLabeledCases {
		logger.Info("Not enough labeled cases to train system classifier", map[string]interface{}{
			"labeled":  len(texts),
			"required": minLabeledCases,
		})
		return false, ErrNotEnoughLabels
	}

	nb, err := TrainNaiveBayes(texts, labels)
	if err != nil {
		logger.WithError(err, "learning_engine").Warn("System classifier training failed")
		return false, fmt.Errorf("failed to train system classifier: %w", err)
	}

	now := time.Now()
	le.mu.Lock()
	le.state.Classifier = nb
	le.state.Metadata.IsTrained = true
	le.state.Metadata.TrainedAt = &now
	le.state.Metadata.TrainingCases = len(cases)
	le.mu.Unlock()

	logger.Info("Trained system classifier", map[string]interface{}{
		"cases":   len(cases),
		"labeled": len(texts),
		"labels":  len(nb.Labels),
	})
	return true, nil
}

// Invalidate drops the trained classifier, keeping the feedback tables.
func (le *LearningEngine) Invalidate() {
	le.mu.Lock()
	defer le.mu.Unlock()
	le.state.Classifier = nil
	le.state.Metadata.IsTrained = false
	le.state.Metadata.TrainingCases = 0
}

// PredictSystem implements LabelPredictor.
func (le *LearningEngine) PredictSystem(text string) (string, bool) {
	le.mu.RLock()
	defer le.mu.RUnlock()
	if !le.state.Metadata.IsTrained || le.state.Classifier == nil {
		return "", false
	}
	return le.state.Classifier.Predict(text)
}

func (le *LearningEngine) IsTrained() bool {
	le.mu.RLock()
	defer le.mu.RUnlock()
	return le.state.Metadata.IsTrained && le.state.Classifier != nil
}

func (le *LearningEngine) Statistics() LearningStatistics {
	le.mu.RLock()
	defer le.mu.RUnlock()
	md := le.state.Metadata
	return LearningStatistics{
		LearnedTokens:          len(le.state.Effectiveness),
		SuccessfulCombinations: len(le.state.Combinations),
		RankingWeights:         len(le.state.RankingWeights),
		FeedbackEvents:         md.FeedbackEvents,
		TrainingCases:          md.TrainingCases,
		TrainedAt:              md.TrainedAt,
		SavedAt:                md.SavedAt,
	}
}

// TokenStats returns a copy of the learned stats for one token.
func (le *LearningEngine) TokenStats(token string) (TokenStats, bool) {
	le.mu.RLock()
	defer le.mu.RUnlock()
	s, ok := le.state.Effectiveness[token]
	if !ok {
		return TokenStats{}, false
	}
	return *s, true
}

func distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sortedKeys(m map[string]models.SuggestionRating) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
