package services

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/osassistant/backend/internal/logger"
)

// Scheduler enqueues periodic model saves on a standard 5-field cron
// expression (minute hour day-of-month month day-of-week).
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler returns nil, nil when schedule is empty (periodic saves
// disabled).
func NewScheduler(schedule string, jobs *JobService) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		logger.Info("Periodic model save disabled (MODEL_SAVE_SCHEDULE not set)", nil)
		return nil, nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(schedule, func() {
		jobs.Enqueue(JobSaveModel, "schedule")
	}); err != nil {
		return nil, fmt.Errorf("invalid MODEL_SAVE_SCHEDULE %q: %w", schedule, err)
	}

	logger.Info("Periodic model save scheduled", map[string]interface{}{"cron": schedule})
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	if s != nil {
		s.cron.Start()
	}
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s != nil {
		<-s.cron.Stop().Done()
	}
}
