package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osassistant/backend/internal/models"
)

// Run with -race: feedback writers, rankers, readers, trainers and savers
// share one LearningEngine.
func TestLearningEngineConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewFileModelStore(t.TempDir())
	le := NewLearningEngine(store)
	ranker := NewSolutionRanker(DefaultRuleSet(), le, 7)
	similar := []models.Case{
		{ID: 1, ProblemDescription: "senha expirada", Solution: "Resetar senha", SystemType: "Tasy"},
		{ID: 2, ProblemDescription: "senha bloqueada", Solution: "Desbloquear usuário", SystemType: "Tasy"},
	}

	const (
		workers    = 8
		iterations = 25
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers*iterations)

	for w := 0; w < workers; w++ {
		wg.Add(4)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				ratings := map[string]models.SuggestionRating{
					"0": models.RatingHelpful,
					"1": models.RatingNotHelpful,
				}
				le.RecordFeedback(fmt.Sprintf("senha expirada no tasy %d", w), ratings, "Tasy", []string{"relevant"})
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				got := ranker.Rank("usuário com senha expirada", "Tasy", similar)
				if len(got) == 0 || len(got) > maxSuggestions {
					errs <- fmt.Errorf("rank returned %d suggestions", len(got))
				}
				le.Effectiveness("Resetar senha", "senha expirada")
				le.Statistics()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if _, err := le.Train(labeledCases()); err != nil {
					errs <- err
				}
				le.PredictSystem("prontuário do paciente")
				if i%5 == 0 {
					le.Invalidate()
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < iterations/5; i++ {
				if err := le.Save(ctx); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, workers*iterations, le.Statistics().FeedbackEvents)

	require.NoError(t, le.Save(ctx))
	restored := NewLearningEngine(store)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, workers*iterations, restored.Statistics().FeedbackEvents)
}
