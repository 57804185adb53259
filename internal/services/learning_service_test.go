package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osassistant/backend/internal/models"
)

func helpful(indexes ...string) map[string]models.SuggestionRating {
	out := make(map[string]models.SuggestionRating, len(indexes))
	for _, i := range indexes {
		out[i] = models.RatingHelpful
	}
	return out
}

func labeledCases() []models.Case {
	return []models.Case{
		{ProblemDescription: "Prontuário do paciente não carrega", SystemType: "Tasy"},
		{ProblemDescription: "Prescrição médica do paciente não salva", SystemType: "Tasy"},
		{ProblemDescription: "Carteirinha do beneficiário não imprime", SystemType: "SGU Card"},
		{ProblemDescription: "Impressão de carteirinha com layout errado", SystemType: "SGU Card"},
		{ProblemDescription: "Switch do andar sem comunicação", SystemType: "Network"},
		{ProblemDescription: "Texto livre sem rótulo", SystemType: models.UnknownSystem},
	}
}

func TestEffectivenessNeutralWithoutFeedback(t *testing.T) {
	le := NewLearningEngine(nil)
	assert.Equal(t, 1.0, le.Effectiveness("Reiniciar o serviço", "serviço parado"))
	assert.Equal(t, 1.0, le.Effectiveness("", ""))
	assert.False(t, le.HasRankingWeights())
}

func TestEffectivenessAfterHelpfulFeedback(t *testing.T) {
	le := NewLearningEngine(nil)
	events := le.RecordFeedback("senha expirada", helpful("0"), models.UnknownSystem, nil)
	assert.Equal(t, 1, events)

	got := le.Effectiveness("Resetar senha temporária", "senha expirada")
	assert.GreaterOrEqual(t, got, 1.0)
	// (1 + 2 + 1 + 2) / 4, boosted by 1 + 1.0*0.3 for the matching combination
	assert.InDelta(t, 1.95, got, 1e-9)

	stats, ok := le.TokenStats("senha")
	require.True(t, ok)
	assert.Equal(t, TokenStats{Helpful: 1, NotHelpful: 0, Weight: 2.0}, stats)
}

func TestTokenWeightFormula(t *testing.T) {
	le := NewLearningEngine(nil)
	le.RecordFeedback("impressora", map[string]models.SuggestionRating{
		"0": models.RatingHelpful,
		"1": models.RatingNotHelpful,
		"2": models.RatingNotHelpful,
		"3": models.RatingNotHelpful,
	}, models.UnknownSystem, nil)

	stats, ok := le.TokenStats("impressora")
	require.True(t, ok)
	assert.Equal(t, 1, stats.Helpful)
	assert.Equal(t, 3, stats.NotHelpful)
	assert.InDelta(t, 0.1+1.9*0.25, stats.Weight, 1e-9)

	assert.InDelta(t, -0.5, le.state.RankingWeights["impressora"], 1e-9)
	assert.Empty(t, le.state.Combinations, "mostly unhelpful feedback is not a successful combination")

	// unseen solution tokens count as 1.0
	assert.InDelta(t, (0.575+1.0)/2, le.Effectiveness("reinstalar", "impressora"), 1e-9)
}

func TestEffectivenessClamped(t *testing.T) {
	le := NewLearningEngine(nil)
	for i := 0; i < 5; i++ {
		le.RecordFeedback("fila travada", map[string]models.SuggestionRating{"0": models.RatingNotHelpful}, "", nil)
	}
	got := le.Effectiveness("fila", "travada")
	assert.InDelta(t, 0.1, got, 1e-9)
}

func TestRecordFeedbackWithoutRatingsCountsEvent(t *testing.T) {
	le := NewLearningEngine(nil)
	assert.Equal(t, 1, le.RecordFeedback("senha expirada", nil, "", nil))
	assert.Equal(t, 1.0, le.Effectiveness("senha", "senha expirada"))
	assert.Equal(t, 1, le.Statistics().FeedbackEvents)
}

func TestCombinationsCappedEvictingLowestRate(t *testing.T) {
	le := NewLearningEngine(nil)

	// 2 of 3 helpful: rate 0.67, the lowest one recorded
	le.RecordFeedback("fila impressora travada", map[string]models.SuggestionRating{
		"0": models.RatingHelpful,
		"1": models.RatingHelpful,
		"2": models.RatingNotHelpful,
	}, "", nil)
	for i := 0; i < maxCombinations; i++ {
		le.RecordFeedback(fmt.Sprintf("problema numero %d", i), helpful("0"), "", nil)
	}

	assert.Equal(t, maxCombinations, le.Statistics().SuccessfulCombinations)
	for _, c := range le.state.Combinations {
		assert.Equal(t, 1.0, c.SuccessRate)
	}
}

func TestRankingScoreUsesSharedTokens(t *testing.T) {
	le := NewLearningEngine(nil)
	le.RecordFeedback("senha expirada", helpful("0"), "", nil)
	require.True(t, le.HasRankingWeights())

	assert.InDelta(t, 1.2, le.RankingScore("Resetar senha", "senha expirada", 1.0), 1e-9)
	assert.InDelta(t, 1.0, le.RankingScore("Reiniciar serviço", "senha expirada", 1.0), 1e-9)
}

func TestTrainThresholds(t *testing.T) {
	le := NewLearningEngine(nil)

	ok, err := le.Train(labeledCases()[:4])
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotEnoughCases)

	unlabeled := make([]models.Case, 5)
	for i := range unlabeled {
		unlabeled[i] = models.Case{ProblemDescription: "texto qualquer", SystemType: models.UnknownSystem}
	}
	unlabeled[0].SystemType = "Tasy"
	ok, err = le.Train(unlabeled)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotEnoughLabels)
	assert.False(t, le.IsTrained())
}

func TestTrainAndPredict(t *testing.T) {
	le := NewLearningEngine(nil)
	ok, err := le.Train(labeledCases())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, le.IsTrained())

	label, ok := le.PredictSystem("carteirinha não imprime")
	require.True(t, ok)
	assert.Equal(t, "SGU Card", label)

	label, ok = le.PredictSystem("paciente sem prontuário")
	require.True(t, ok)
	assert.Equal(t, "Tasy", label)

	assert.Equal(t, 6, le.Statistics().TrainingCases)

	le.Invalidate()
	assert.False(t, le.IsTrained())
	_, ok = le.PredictSystem("carteirinha")
	assert.False(t, ok)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileModelStore(t.TempDir())

	le := NewLearningEngine(store)
	_, err := le.Train(labeledCases())
	require.NoError(t, err)
	le.RecordFeedback("senha expirada", helpful("0"), "Tasy", []string{"relevant"})
	require.NoError(t, le.Save(ctx))

	restored := NewLearningEngine(store)
	require.NoError(t, restored.Load(ctx))
	assert.True(t, restored.IsTrained())

	want, _ := le.TokenStats("senha")
	got, ok := restored.TokenStats("senha")
	require.True(t, ok)
	assert.Equal(t, want, got)

	label, ok := restored.PredictSystem("carteirinha não imprime")
	require.True(t, ok)
	assert.Equal(t, "SGU Card", label)

	assert.Equal(t,
		le.Effectiveness("Resetar senha", "senha expirada"),
		restored.Effectiveness("Resetar senha", "senha expirada"))
	assert.NotNil(t, restored.Statistics().SavedAt)
}

func TestLoadMissingStateIsNotAnError(t *testing.T) {
	le := NewLearningEngine(NewFileModelStore(t.TempDir()))
	require.NoError(t, le.Load(context.Background()))
	assert.False(t, le.IsTrained())
	assert.Equal(t, 1.0, le.Effectiveness("a", "b"))
}

func TestLoadCorruptStateStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, modelStateFile), []byte("{not json"), 0644))

	le := NewLearningEngine(NewFileModelStore(dir))
	assert.Error(t, le.Load(context.Background()))
	assert.False(t, le.IsTrained())
	assert.Equal(t, LearningStatistics{}, le.Statistics())
}

func TestNilStoreSaveLoadAreNoops(t *testing.T) {
	le := NewLearningEngine(nil)
	assert.NoError(t, le.Save(context.Background()))
	assert.NoError(t, le.Load(context.Background()))
}
