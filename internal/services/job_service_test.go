package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintainer struct {
	mu       sync.Mutex
	trains   int
	saves    int
	trainErr error
	saveErr  error
}

func (f *fakeMaintainer) TrainModels(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trains++
	return f.trainErr == nil, f.trainErr
}

func (f *fakeMaintainer) SaveModels(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return f.saveErr
}

func TestJobServiceProcessesQueuedJobs(t *testing.T) {
	target := &fakeMaintainer{}
	js := NewJobService(target, 8)
	js.Start()

	assert.True(t, js.Enqueue(JobRetrain, "test"))
	assert.True(t, js.Enqueue(JobSaveModel, "test"))
	assert.True(t, js.Enqueue(JobSaveModel, "test"))
	js.Stop()

	assert.Equal(t, 1, target.trains)
	assert.Equal(t, 2, target.saves)

	stats := js.Stats()
	assert.Equal(t, 3, stats.Completed)
	assert.Zero(t, stats.Failed)
	assert.NotNil(t, stats.LastRetrainAt)
	assert.NotNil(t, stats.LastSaveAt)

	assert.False(t, js.Enqueue(JobSaveModel, "after stop"))
	js.Stop()
}

func TestJobServiceRecordsFailures(t *testing.T) {
	target := &fakeMaintainer{saveErr: errors.New("disk full"), trainErr: ErrNotEnoughCases}
	js := NewJobService(target, 4)
	js.Start()

	js.Enqueue(JobRetrain, "test")
	js.Enqueue(JobSaveModel, "test")
	js.Stop()

	stats := js.Stats()
	assert.Equal(t, 1, stats.Completed, "too few cases is not a failure")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, "disk full", stats.LastError)
	assert.Nil(t, stats.LastSaveAt)
}

func TestJobServiceDropsWhenFull(t *testing.T) {
	js := NewJobService(&fakeMaintainer{}, 1)

	assert.True(t, js.Enqueue(JobRetrain, "first"))
	assert.False(t, js.Enqueue(JobRetrain, "second"))
	assert.Equal(t, 1, js.Stats().Dropped)

	js.Start()
	js.Stop()
	assert.Equal(t, 1, js.Stats().Completed)
}

func TestScheduler(t *testing.T) {
	js := NewJobService(&fakeMaintainer{}, 4)

	s, err := NewScheduler("", js)
	require.NoError(t, err)
	assert.Nil(t, s)
	s.Start()
	s.Stop()

	_, err = NewScheduler("every now and then", js)
	assert.Error(t, err)

	_, err = NewScheduler("*/5 * * * * *", js)
	assert.Error(t, err, "seconds field is not accepted")

	s, err = NewScheduler("*/15 * * * *", js)
	require.NoError(t, err)
	require.NotNil(t, s)
	s.Start()
	s.Stop()
}
