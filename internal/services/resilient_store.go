package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
)

// ResilientStore wraps a durable Store. Case creation is retried on
// transient failures; reads that fail are served from an in-memory mirror of
// the last state seen through this wrapper. Other writes are not retried.
type ResilientStore struct {
	primary  Store
	snapshot *MemoryStore
	attempts int
	backoff  time.Duration
}

// NewResilientStore makes at most attempts tries per create, sleeping
// backoff*n before try n+1.
func NewResilientStore(primary Store, attempts int, backoff time.Duration) *ResilientStore {
	if attempts < 1 {
		attempts = 1
	}
	return &ResilientStore{
		primary:  primary,
		snapshot: NewMemoryStore(),
		attempts: attempts,
		backoff:  backoff,
	}
}

// Warm loads the primary's contents into the mirror.
func (s *ResilientStore) Warm(ctx context.Context) error {
	_, err := s.ListAll(ctx)
	return err
}

func (s *ResilientStore) fallback(op string, err error) {
	logger.Warn("Storage read failed, serving in-memory snapshot", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
		"component": "resilient_store",
	})
}

func (s *ResilientStore) ListAll(ctx context.Context) ([]models.Case, error) {
	cases, err := s.primary.ListAll(ctx)
	if err != nil {
		s.fallback("list_all", err)
		return s.snapshot.ListAll(ctx)
	}
	s.snapshot.reset(cases)
	return cases, nil
}

func (s *ResilientStore) Get(ctx context.Context, id uint) (*models.Case, error) {
	c, err := s.primary.Get(ctx, id)
	if err == nil || errors.Is(err, ErrCaseNotFound) {
		return c, err
	}
	s.fallback("get", err)
	return s.snapshot.Get(ctx, id)
}

func (s *ResilientStore) Recent(ctx context.Context, limit int) ([]models.Case, error) {
	cases, err := s.primary.Recent(ctx, limit)
	if err != nil {
		s.fallback("recent", err)
		return s.snapshot.Recent(ctx, limit)
	}
	return cases, nil
}

func (s *ResilientStore) CaseFeedback(ctx context.Context, caseID uint) ([]models.CaseFeedback, error) {
	fb, err := s.primary.CaseFeedback(ctx, caseID)
	if err != nil {
		s.fallback("case_feedback", err)
		return s.snapshot.CaseFeedback(ctx, caseID)
	}
	return fb, nil
}

func (s *ResilientStore) RecentAnalysisFeedback(ctx context.Context, limit int) ([]models.AnalysisFeedback, error) {
	out, err := s.primary.RecentAnalysisFeedback(ctx, limit)
	if err != nil {
		s.fallback("recent_analysis_feedback", err)
		return s.snapshot.RecentAnalysisFeedback(ctx, limit)
	}
	return out, nil
}

// Create retries transient failures. When every attempt fails the error
// wraps ErrStorageUnavailable and nothing is recorded in the mirror.
func (s *ResilientStore) Create(ctx context.Context, c *models.Case) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.primary.Create(ctx, c)
		if err == nil {
			s.snapshot.put(*c)
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		logger.Warn("Transient storage failure creating case", map[string]interface{}{
			"attempt":   attempt,
			"attempts":  s.attempts,
			"error":     err.Error(),
			"component": "resilient_store",
		})
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, ctx.Err())
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: create failed after %d attempts: %v", ErrStorageUnavailable, s.attempts, lastErr)
}

func (s *ResilientStore) Update(ctx context.Context, c *models.Case) error {
	if err := s.primary.Update(ctx, c); err != nil {
		return wrapUnavailable(err)
	}
	s.snapshot.put(*c)
	return nil
}

func (s *ResilientStore) Delete(ctx context.Context, id uint) error {
	if err := s.primary.Delete(ctx, id); err != nil {
		return wrapUnavailable(err)
	}
	_, _ = s.snapshot.DeleteMany(ctx, []uint{id})
	return nil
}

func (s *ResilientStore) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	n, err := s.primary.DeleteMany(ctx, ids)
	if err != nil {
		return 0, wrapUnavailable(err)
	}
	_, _ = s.snapshot.DeleteMany(ctx, ids)
	return n, nil
}

func (s *ResilientStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.primary.DeleteAll(ctx)
	if err != nil {
		return 0, wrapUnavailable(err)
	}
	_, _ = s.snapshot.DeleteAll(ctx)
	return n, nil
}

func (s *ResilientStore) AddFeedback(ctx context.Context, caseID uint, fb *models.CaseFeedback) (*models.Case, error) {
	c, err := s.primary.AddFeedback(ctx, caseID, fb)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	s.snapshot.put(*c)
	s.snapshot.putFeedback(*fb)
	return c, nil
}

func (s *ResilientStore) AddAnalysisFeedback(ctx context.Context, f *models.AnalysisFeedback) error {
	if err := s.primary.AddAnalysisFeedback(ctx, f); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Ping forwards to the primary when it supports health checks.
func (s *ResilientStore) Ping(ctx context.Context) error {
	if p, ok := s.primary.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// wrapUnavailable tags transient failures so callers can map them to 503.
func wrapUnavailable(err error) error {
	if IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}
