package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/db"
	"github.com/osassistant/backend/internal/models"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	conn, err := db.Connect(config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "kb.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(conn)
}

func TestGormStore(t *testing.T) {
	exerciseStore(t, newTestGormStore(t))
}

func TestGormStoreDeleteCascadesFeedback(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	c := &models.Case{ProblemDescription: "Senha expirada", Solution: "Resetar senha", SystemType: "Tasy"}
	require.NoError(t, s.Create(ctx, c))
	_, err := s.AddFeedback(ctx, c.ID, &models.CaseFeedback{EffectivenessScore: 5})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c.ID))
	fbs, err := s.CaseFeedback(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, fbs)
}

func TestGormStoreAnalysisFeedbackRatings(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	in := AnalysisFeedbackInput{
		ProblemDescription: "senha expirada",
		OverallScore:       5,
		SuggestionRatings:  map[string]models.SuggestionRating{"0": models.RatingHelpful, "2": models.RatingNotHelpful},
	}
	fs := NewFeedbackService(s, NewLearningEngine(nil), 0)
	require.NoError(t, fs.SubmitAnalysisFeedback(ctx, in))

	stored, err := s.RecentAnalysisFeedback(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, in.SuggestionRatings, stored[0].Ratings())
	assert.NoError(t, s.Ping(ctx))
}
