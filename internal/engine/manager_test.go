package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// memStore is an in-memory Store for manager tests.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]domain.Job)}
}

func (s *memStore) SaveJob(job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memStore) GetJob(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return &job, nil
	}
	return nil, nil
}

func (s *memStore) GetActiveJobs() ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			j := job
			out = append(out, &j)
		}
	}
	return out, nil
}

func (s *memStore) GetAllJobs() ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, job := range s.jobs {
		j := job
		out = append(out, &j)
	}
	return out, nil
}

func (s *memStore) status(id string) domain.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id].Status
}

func newTestManager(t *testing.T, fetcher *fakeFetcher, store *memStore) *QueueManager {
	t.Helper()
	runner := NewRunner(fetcher, &fakeSynth{}, &fakeCropper{}, everything, t.TempDir(), t.TempDir(), logger.Discard())
	return NewQueueManager(runner, store, logger.Discard(), 1, false)
}

func TestAddValidatesSubmission(t *testing.T) {
	m := newTestManager(t, &fakeFetcher{}, newMemStore())

	cases := []SubmitRequest{
		{SourceURL: ""},
		{SourceURL: "not a url"},
		{SourceURL: "ftp://example.com/v.mp4"},
		{SourceURL: "https://example.com/v", Params: domain.ProcessingParams{CropPixels: -5}},
		{SourceURL: "https://example.com/v", Params: domain.ProcessingParams{CropPosition: "diagonal"}},
		{SourceURL: "https://example.com/v", Params: domain.ProcessingParams{Narration: &domain.NarrationParams{Text: "  "}}},
	}
	for _, req := range cases {
		_, err := m.Add(req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", req)
	}
}

func TestAddPersistsQueuedJob(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, &fakeFetcher{}, store)

	job, err := m.Add(SubmitRequest{SourceURL: "https://www.tiktok.com/@u/video/1"})
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.StatusQueued, job.Status)
	assert.Equal(t, domain.PlatformTikTok, job.Platform, "platform detected from URL when no hint given")
	assert.Equal(t, domain.StatusQueued, store.status(job.ID))
}

func TestAddHonorsPlatformHint(t *testing.T) {
	m := newTestManager(t, &fakeFetcher{}, newMemStore())

	job, err := m.Add(SubmitRequest{SourceURL: "https://cdn.example.com/v.mp4", PlatformHint: "sora"})
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformSora, job.Platform)
}

func TestWorkerRunsJobToCompletion(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, &fakeFetcher{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	job, err := m.Add(SubmitRequest{SourceURL: "https://example.com/v", Params: domain.ProcessingParams{CropPixels: 10}})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.status(job.ID) == domain.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	saved, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ArtifactPath)
	assert.False(t, saved.FinishedAt.IsZero())
}

func TestCancelQueuedJob(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, &fakeFetcher{}, store)
	// No workers started: the job stays queued.

	job, err := m.Add(SubmitRequest{SourceURL: "https://example.com/v"})
	require.NoError(t, err)

	require.True(t, m.Cancel(job.ID))
	assert.Equal(t, domain.StatusFailed, store.status(job.ID))

	saved, _ := store.GetJob(job.ID)
	assert.Equal(t, "cancelled", saved.Error)
}

func TestCancelRunningJob(t *testing.T) {
	store := newMemStore()
	block := make(chan struct{})
	fetcher := &fakeFetcher{block: block}
	m := newTestManager(t, fetcher, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	job, err := m.Add(SubmitRequest{SourceURL: "https://example.com/v"})
	require.NoError(t, err)

	// Wait for a worker to claim it.
	require.Eventually(t, func() bool {
		return store.status(job.ID) == domain.StatusDownloading
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, m.Cancel(job.ID))

	require.Eventually(t, func() bool {
		return store.status(job.ID) == domain.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	saved, _ := store.GetJob(job.ID)
	assert.Equal(t, "cancelled", saved.Error)
}

func TestCancelUnknownJob(t *testing.T) {
	m := newTestManager(t, &fakeFetcher{}, newMemStore())
	assert.False(t, m.Cancel("no-such-job"))
}

func TestReloadRequeuesUnfinishedJobs(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SaveJob(&domain.Job{ID: "a", URL: "https://example.com/a", Status: domain.StatusDownloading}))
	require.NoError(t, store.SaveJob(&domain.Job{ID: "b", URL: "https://example.com/b", Status: domain.StatusCompleted}))

	runner := NewRunner(&fakeFetcher{}, &fakeSynth{}, &fakeCropper{}, everything, t.TempDir(), t.TempDir(), logger.Discard())
	m := NewQueueManager(runner, store, logger.Discard(), 1, true)

	job, ok := m.GetJob("a")
	require.True(t, ok)
	assert.Equal(t, domain.StatusQueued, job.Status, "interrupted jobs restart from scratch")

	// Completed jobs are not requeued.
	done, ok := m.GetJob("b")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, done.Status)
}

func TestUpdateStatusRefusesBackwardTransition(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, &fakeFetcher{}, store)

	job := &domain.Job{ID: "x", Status: domain.StatusProcessing}
	require.NoError(t, store.SaveJob(job))

	m.updateStatus(job, domain.StatusDownloading)
	assert.Equal(t, domain.StatusProcessing, job.Status)

	m.updateStatus(job, domain.StatusSynthesizing)
	assert.Equal(t, domain.StatusSynthesizing, job.Status)
}
