package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/osassistant/backend/internal/models"
)

// CaseStore is the synchronous CRUD boundary for cases. Get, Update, Delete
// and AddFeedback return ErrCaseNotFound for unknown ids.
type CaseStore interface {
	ListAll(ctx context.Context) ([]models.Case, error)
	Get(ctx context.Context, id uint) (*models.Case, error)
	Create(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id uint) error
	DeleteMany(ctx context.Context, ids []uint) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.Case, error)
	// AddFeedback folds fb into the case's running mean and stores fb,
	// atomically. It returns the updated case.
	AddFeedback(ctx context.Context, caseID uint, fb *models.CaseFeedback) (*models.Case, error)
}

// FeedbackStore is append-only, queryable by case and recency.
type FeedbackStore interface {
	CaseFeedback(ctx context.Context, caseID uint) ([]models.CaseFeedback, error)
	AddAnalysisFeedback(ctx context.Context, f *models.AnalysisFeedback) error
	RecentAnalysisFeedback(ctx context.Context, limit int) ([]models.AnalysisFeedback, error)
}

// Store is what KnowledgeService is wired to.
type Store interface {
	CaseStore
	FeedbackStore
}

// MemoryStore is a Store held entirely in process memory. It returns copies,
// so callers never alias stored records.
type MemoryStore struct {
	mu        sync.RWMutex
	cases     map[uint]models.Case
	feedback  map[uint][]models.CaseFeedback
	analyses  []models.AnalysisFeedback
	nextID    uint
	nextFbID  uint
	nextAnaID uint
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:     make(map[uint]models.Case),
		feedback:  make(map[uint][]models.CaseFeedback),
		nextID:    1,
		nextFbID:  1,
		nextAnaID: 1,
		now:       time.Now,
	}
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, cloneCase(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uint) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	cp := cloneCase(c)
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.cases[c.ID] = cloneCase(*c)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cases[c.ID]
	if !ok {
		return ErrCaseNotFound
	}
	existing.ProblemDescription = c.ProblemDescription
	existing.Solution = c.Solution
	existing.SystemType = c.SystemType
	existing.Tags = append(existing.Tags[:0:0], c.Tags...)
	existing.UpdatedAt = s.now()
	s.cases[c.ID] = existing
	*c = cloneCase(existing)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return ErrCaseNotFound
	}
	delete(s.cases, id)
	delete(s.feedback, id)
	return nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.cases[id]; ok {
			delete(s.cases, id)
			delete(s.feedback, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.cases))
	s.cases = make(map[uint]models.Case)
	s.feedback = make(map[uint][]models.CaseFeedback)
	return n, nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]models.Case, error) {
	all, _ := s.ListAll(ctx)
	sortRecent(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) AddFeedback(ctx context.Context, caseID uint, fb *models.CaseFeedback) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, ErrCaseNotFound
	}
	c.ApplyFeedback(fb.EffectivenessScore)
	s.cases[caseID] = c

	fb.ID = s.nextFbID
	s.nextFbID++
	fb.CaseID = caseID
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now()
	}
	s.feedback[caseID] = append(s.feedback[caseID], *fb)

	cp := cloneCase(c)
	return &cp, nil
}

func (s *MemoryStore) CaseFeedback(ctx context.Context, caseID uint) ([]models.CaseFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.feedback[caseID]
	out := make([]models.CaseFeedback, len(src))
	for i := range src {
		out[len(src)-1-i] = src[i]
	}
	return out, nil
}

func (s *MemoryStore) AddAnalysisFeedback(ctx context.Context, f *models.AnalysisFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextAnaID
	s.nextAnaID++
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	s.analyses = append(s.analyses, *f)
	return nil
}

func (s *MemoryStore) RecentAnalysisFeedback(ctx context.Context, limit int) ([]models.AnalysisFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AnalysisFeedback, 0, len(s.analyses))
	for i := len(s.analyses) - 1; i >= 0; i-- {
		out = append(out, s.analyses[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// reset replaces every case, keeping the given ids. Used to mirror a durable
// store's contents.
func (s *MemoryStore) reset(cases []models.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[uint]models.Case, len(cases))
	for _, c := range cases {
		keep[c.ID] = cloneCase(c)
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	for id := range s.feedback {
		if _, ok := keep[id]; !ok {
			delete(s.feedback, id)
		}
	}
	s.cases = keep
}

// put stores c under its own id.
func (s *MemoryStore) put(c models.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = cloneCase(c)
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
}

func (s *MemoryStore) putFeedback(fb models.CaseFeedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[fb.CaseID] = append(s.feedback[fb.CaseID], fb)
}

func sortRecent(cases []models.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.After(cases[j].CreatedAt)
		}
		return cases[i].ID > cases[j].ID
	})
}

func cloneCase(c models.Case) models.Case {
	if c.EffectivenessScore != nil {
		v := *c.EffectivenessScore
		c.EffectivenessScore = &v
	}
	if c.Tags != nil {
		c.Tags = append(c.Tags[:0:0], c.Tags...)
	}
	c.Feedbacks = nil
	return c
}
