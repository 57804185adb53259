package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/osassistant/backend/internal/logger"
)

type JobType string

const (
	JobRetrain   JobType = "retrain"
	JobSaveModel JobType = "save_model"
)

// JobRequest represents a job request
type JobRequest struct {
	Type   JobType
	Reason string
}

// ModelMaintainer is what background jobs act on. KnowledgeService
// implements it.
type ModelMaintainer interface {
	TrainModels(ctx context.Context) (bool, error)
	SaveModels(ctx context.Context) error
}

// JobStats reports what the background worker has done so far.
type JobStats struct {
	Completed     int        `json:"completed"`
	Failed        int        `json:"failed"`
	Dropped       int        `json:"dropped"`
	LastRetrainAt *time.Time `json:"lastRetrainAt,omitempty"`
	LastSaveAt    *time.Time `json:"lastSaveAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// JobService runs retrain and save jobs on a single background worker so
// training and persistence never run concurrently with each other.
type JobService struct {
	target     ModelMaintainer
	jobQueue   chan JobRequest
	stopChan   chan struct{}
	wg         sync.WaitGroup
	jobTimeout time.Duration

	mu      sync.Mutex
	stats   JobStats
	started bool
	stopped bool
}

// NewJobService creates a new job service; call Start to run the worker.
func NewJobService(target ModelMaintainer, queueSize int) *JobService {
	if queueSize < 1 {
		queueSize = 16
	}
	return &JobService{
		target:     target,
		jobQueue:   make(chan JobRequest, queueSize),
		stopChan:   make(chan struct{}),
		jobTimeout: 2 * time.Minute,
	}
}

func (js *JobService) Start() {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.started {
		return
	}
	js.started = true
	js.wg.Add(1)
	go js.worker()
}

// Enqueue schedules a job without blocking. A full queue drops the request,
// since a pending job of the same kind will cover it.
func (js *JobService) Enqueue(t JobType, reason string) bool {
	js.mu.Lock()
	stopped := js.stopped
	js.mu.Unlock()
	if stopped {
		return false
	}

	select {
	case js.jobQueue <- JobRequest{Type: t, Reason: reason}:
		return true
	default:
		js.mu.Lock()
		js.stats.Dropped++
		js.mu.Unlock()
		logger.Warn("Job queue full, dropping request", map[string]interface{}{
			"type":   t,
			"reason": reason,
		})
		return false
	}
}

// Stop drains queued jobs, then stops the worker.
func (js *JobService) Stop() {
	js.mu.Lock()
	if js.stopped {
		js.mu.Unlock()
		return
	}
	js.stopped = true
	js.mu.Unlock()

	close(js.stopChan)
	js.wg.Wait()
}

func (js *JobService) Stats() JobStats {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.stats
}

// worker processes jobs from the queue
func (js *JobService) worker() {
	defer js.wg.Done()

	for {
		select {
		case req := <-js.jobQueue:
			js.process(req)
		case <-js.stopChan:
			for {
				select {
				case req := <-js.jobQueue:
					js.process(req)
				default:
					logger.Info("Job worker stopping", nil)
					return
				}
			}
		}
	}
}

func (js *JobService) process(req JobRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), js.jobTimeout)
	defer cancel()

	logger.Debug("Worker processing job", map[string]interface{}{
		"type":   req.Type,
		"reason": req.Reason,
	})

	var err error
	switch req.Type {
	case JobRetrain:
		_, err = js.target.TrainModels(ctx)
		if errors.Is(err, ErrNotEnoughCases) || errors.Is(err, ErrNotEnoughLabels) {
			err = nil
		}
	case JobSaveModel:
		err = js.target.SaveModels(ctx)
	default:
		logger.Error("Unknown job type", map[string]interface{}{"type": req.Type})
		return
	}

	now := time.Now()
	js.mu.Lock()
	defer js.mu.Unlock()
	if err != nil {
		js.stats.Failed++
		js.stats.LastError = err.Error()
		logger.WithError(err, "job_service").Warn("Background job failed")
		return
	}
	js.stats.Completed++
	switch req.Type {
	case JobRetrain:
		js.stats.LastRetrainAt = &now
	case JobSaveModel:
		js.stats.LastSaveAt = &now
	}
}
