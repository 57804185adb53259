package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osassistant/backend/internal/models"
)

type stubPredictor struct {
	label string
	ok    bool
}

func (s stubPredictor) PredictSystem(string) (string, bool) {
	return s.label, s.ok
}

func TestClassifyKeywords(t *testing.T) {
	c := NewSystemClassifier(DefaultRuleSet(), nil)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"database query", "banco de dados não conecta", "Database"},
		{"tasy patient record", "Prontuário do paciente não abre no Tasy", "Tasy"},
		{"sgu card", "Erro ao imprimir carteirinha", "SGU Card"},
		{"authorization", "Guia de autorização travada", "Autorizador"},
		{"no keywords", "xyz qwe", models.UnknownSystem},
		{"empty", "", models.UnknownSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassifyTieUsesTableOrder(t *testing.T) {
	c := NewSystemClassifier(DefaultRuleSet(), nil)

	// one hit each for Database ("banco") and Tasy ("tasy")
	text := "tasy banco"
	first := c.Classify(text)
	assert.Equal(t, "Database", first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Classify(text))
	}
}

func TestClassifyFallsBackToPredictor(t *testing.T) {
	rules := DefaultRuleSet()

	c := NewSystemClassifier(rules, stubPredictor{label: "Tasy", ok: true})
	assert.Equal(t, "Tasy", c.Classify("xyz qwe"))
	assert.Equal(t, "Database", c.Classify("oracle fora do ar"))

	c = NewSystemClassifier(rules, stubPredictor{})
	assert.Equal(t, models.UnknownSystem, c.Classify("xyz qwe"))
}

func TestScoresFollowTableOrder(t *testing.T) {
	rules := DefaultRuleSet()
	c := NewSystemClassifier(rules, nil)

	scores := c.Scores("banco sql oracle")
	assert.Len(t, scores, len(rules.Systems))
	for i, sys := range rules.Systems {
		if sys.System == "Database" {
			assert.Equal(t, 3, scores[i])
		}
	}
}
