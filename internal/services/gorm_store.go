package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/osassistant/backend/internal/models"
)

// GormStore is the durable Store, backed by postgres or sqlite.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Case, error) {
	var cases []models.Case
	if err := s.db.WithContext(ctx).Order("id asc").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Case, error) {
	var c models.Case
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (s *GormStore) Create(ctx context.Context, c *models.Case) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, c *models.Case) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Case
		if err := tx.First(&existing, c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return fmt.Errorf("failed to load case: %w", err)
		}
		existing.ProblemDescription = c.ProblemDescription
		existing.Solution = c.Solution
		existing.SystemType = c.SystemType
		existing.Tags = c.Tags
		if err := tx.Select("problem_description", "solution", "system_type", "tags", "updated_at").Updates(&existing).Error; err != nil {
			return fmt.Errorf("failed to update case: %w", err)
		}
		*c = existing
		return nil
	})
}

// Delete removes the case and its feedback in one transaction.
func (s *GormStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", id).Delete(&models.CaseFeedback{}).Error; err != nil {
			return fmt.Errorf("failed to delete case feedback: %w", err)
		}
		res := tx.Delete(&models.Case{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete case: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCaseNotFound
		}
		return nil
	})
}

func (s *GormStore) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id IN ?", ids).Delete(&models.CaseFeedback{}).Error; err != nil {
			return fmt.Errorf("failed to delete case feedback: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Case{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete cases: %w", res.Error)
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

func (s *GormStore) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CaseFeedback{}).Error; err != nil {
			return fmt.Errorf("failed to delete case feedback: %w", err)
		}
		res := tx.Delete(&models.Case{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete cases: %w", res.Error)
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

func (s *GormStore) Recent(ctx context.Context, limit int) ([]models.Case, error) {
	var cases []models.Case
	q := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent cases: %w", err)
	}
	return cases, nil
}

func (s *GormStore) AddFeedback(ctx context.Context, caseID uint, fb *models.CaseFeedback) (*models.Case, error) {
	var updated models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, caseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return fmt.Errorf("failed to load case: %w", err)
		}
		updated.ApplyFeedback(fb.EffectivenessScore)
		if err := tx.Model(&updated).Updates(map[string]interface{}{
			"effectiveness_score": updated.EffectivenessScore,
			"feedback_count":      updated.FeedbackCount,
		}).Error; err != nil {
			return fmt.Errorf("failed to update effectiveness: %w", err)
		}
		fb.CaseID = caseID
		if err := tx.Create(fb).Error; err != nil {
			return fmt.Errorf("failed to store feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) CaseFeedback(ctx context.Context, caseID uint) ([]models.CaseFeedback, error) {
	var out []models.CaseFeedback
	if err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at desc").Order("id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list case feedback: %w", err)
	}
	return out, nil
}

func (s *GormStore) AddAnalysisFeedback(ctx context.Context, f *models.AnalysisFeedback) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to store analysis feedback: %w", err)
	}
	return nil
}

func (s *GormStore) RecentAnalysisFeedback(ctx context.Context, limit int) ([]models.AnalysisFeedback, error) {
	var out []models.AnalysisFeedback
	q := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list analysis feedback: %w", err)
	}
	return out, nil
}

// Ping checks the underlying connection pool.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
