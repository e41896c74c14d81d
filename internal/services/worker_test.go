package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
	"alfredoptarigan/resume-matcher/mocks"
)

type recordingRunner struct {
	mu   sync.Mutex
	ran  []uuid.UUID
	done chan uuid.UUID
}

func (r *recordingRunner) RunAnalysis(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	r.ran = append(r.ran, id)
	r.mu.Unlock()
	r.done <- id
	return nil
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	repo.On("FindPendingJobs", 10).Return([]models.Analysis{}, nil).Maybe()
	runner := &recordingRunner{done: make(chan uuid.UUID, 1)}

	w := services.NewWorker(repo, runner, 2, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	id := uuid.New()
	w.EnqueueJob(id)

	select {
	case got := <-runner.done:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestWorker_PollsPendingJobs(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	id := uuid.New()
	repo.On("FindPendingJobs", 10).Return([]models.Analysis{{ID: id}}, nil).Once()
	repo.On("FindPendingJobs", 10).Return([]models.Analysis{}, nil).Maybe()
	runner := &recordingRunner{done: make(chan uuid.UUID, 1)}

	w := services.NewWorker(repo, runner, 1, 20*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	select {
	case got := <-runner.done:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("pending job was not picked up")
	}
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	repo.On("FindPendingJobs", mock.Anything).Return([]models.Analysis{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	w := services.NewWorker(repo, &recordingRunner{done: make(chan uuid.UUID, 1)}, 2, time.Hour)
	w.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
