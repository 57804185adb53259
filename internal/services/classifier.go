package services

import (
	"strings"

	"github.com/osassistant/backend/internal/models"
)

// LabelPredictor is the statistical fallback consulted when no keyword
// matches. LearningEngine implements it.
type LabelPredictor interface {
	PredictSystem(text string) (string, bool)
}

// SystemClassifier scores problem text against the rule set's system keyword
// table. Systems are evaluated in table order and the first one reaching the
// maximum score wins, so ties resolve to the earlier entry.
type SystemClassifier struct {
	rules     *RuleSet
	predictor LabelPredictor
}

func NewSystemClassifier(rules *RuleSet, predictor LabelPredictor) *SystemClassifier {
	return &SystemClassifier{rules: rules, predictor: predictor}
}

// Scores returns the keyword hit count per system, in table order.
func (c *SystemClassifier) Scores(text string) []int {
	lower := strings.ToLower(text)
	scores := make([]int, len(c.rules.Systems))
	for i, sys := range c.rules.Systems {
		for _, kw := range sys.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				scores[i]++
			}
		}
	}
	return scores
}

// Classify returns the detected system label, or models.UnknownSystem.
func (c *SystemClassifier) Classify(text string) string {
	scores := c.Scores(text)
	best, bestScore := -1, 0
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		return c.rules.Systems[best].System
	}

	if c.predictor != nil {
		if label, ok := c.predictor.PredictSystem(text); ok && label != "" {
			return label
		}
	}
	return models.UnknownSystem
}
