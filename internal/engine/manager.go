package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// Store persists jobs across restarts.
type Store interface {
	SaveJob(job *domain.Job) error
	GetJob(id string) (*domain.Job, error)
	GetActiveJobs() ([]*domain.Job, error)
	GetAllJobs() ([]*domain.Job, error)
}

// SubmitRequest is the job submission boundary shape.
type SubmitRequest struct {
	SourceURL    string
	PlatformHint string
	Params       domain.ProcessingParams
}

var validCropPositions = map[string]bool{
	"": true, "bottom": true, "top": true, "left": true, "right": true,
}

// QueueManager owns the job queue: it accepts submissions, hands jobs
// to workers one at a time each, and persists every state transition.
// Retrying a failed job is the caller's decision, never the manager's.
type QueueManager struct {
	mu      sync.RWMutex
	runner  *Runner
	queue   []*domain.Job
	running map[string]*domain.Job
	store   Store
	log     *logger.Logger
	workers int

	newJobChan chan struct{}
}

// NewQueueManager builds the manager. When loadExisting is true,
// unfinished jobs from a previous process are reloaded and requeued
// from scratch (their prior partial state is gone by design).
func NewQueueManager(runner *Runner, store Store, log *logger.Logger, workers int, loadExisting bool) *QueueManager {
	var active []*domain.Job

	if loadExisting {
		reloaded, err := store.GetActiveJobs()
		if err != nil {
			log.Warn("could not reload unfinished jobs: %v", err)
		} else {
			for _, job := range reloaded {
				job.Status = domain.StatusQueued
				active = append(active, job)
			}
		}
	}

	if workers <= 0 {
		workers = 2
	}

	return &QueueManager{
		runner:     runner,
		queue:      active,
		running:    make(map[string]*domain.Job),
		store:      store,
		log:        log,
		workers:    workers,
		newJobChan: make(chan struct{}, 1),
	}
}

// Add validates a submission, persists the new job as queued, and wakes
// a worker. The job identifier is returned immediately; completion is
// observed via GetJob.
func (m *QueueManager) Add(req SubmitRequest) (*domain.Job, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	platform := domain.ParsePlatform(req.PlatformHint)
	if req.PlatformHint == "" {
		platform = domain.DetectPlatform(req.SourceURL)
	}

	job := &domain.Job{
		ID:        ksuid.New().String(),
		URL:       req.SourceURL,
		Platform:  platform,
		Params:    req.Params,
		Status:    domain.StatusQueued,
		CreatedAt: time.Now(),
	}

	if err := m.store.SaveJob(job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	m.mu.Lock()
	m.queue = append(m.queue, job)
	m.mu.Unlock()

	// Signal a worker that there is work to do
	select {
	case m.newJobChan <- struct{}{}:
	default:
		// Signal already pending, no need to block
	}

	return job, nil
}

func validate(req SubmitRequest) error {
	if strings.TrimSpace(req.SourceURL) == "" {
		return fmt.Errorf("%w: sourceUrl is required", domain.ErrInvalidInput)
	}
	u, err := url.Parse(req.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: sourceUrl must be an http(s) URL", domain.ErrInvalidInput)
	}
	if req.Params.CropPixels < 0 {
		return fmt.Errorf("%w: cropPixels must be non-negative", domain.ErrInvalidInput)
	}
	if !validCropPositions[strings.ToLower(req.Params.CropPosition)] {
		return fmt.Errorf("%w: cropPosition must be one of bottom/top/left/right", domain.ErrInvalidInput)
	}
	if n := req.Params.Narration; n != nil && strings.TrimSpace(n.Text) == "" {
		return fmt.Errorf("%w: narration text is empty", domain.ErrInvalidInput)
	}
	return nil
}

// Start runs the worker loops until ctx is cancelled. Jobs execute
// concurrently across workers; each job's steps stay sequential inside
// its own runner.
func (m *QueueManager) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.workLoop(ctx)
		}()
	}
	wg.Wait()
}

func (m *QueueManager) workLoop(ctx context.Context) {
	for {
		job := m.claimNext()
		if job == nil {
			select {
			case <-m.newJobChan:
				continue
			case <-ctx.Done():
				return
			}
		}

		jobCtx, cancel := context.WithCancel(ctx)

		m.mu.Lock()
		job.CancelFunc = cancel
		m.mu.Unlock()

		err := m.runner.Run(jobCtx, job, func(status domain.JobStatus) {
			m.updateStatus(job, status)
		})
		m.finalizeJob(job, err)
		cancel()
	}
}

// claimNext pops the oldest queued job, moving it to the running set so
// no other worker picks it up.
func (m *QueueManager) claimNext() *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, job := range m.queue {
		if job.Status == domain.StatusQueued {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.running[job.ID] = job
			return job
		}
	}
	return nil
}

// GetJob looks up a job in the live queue, the running set, then the
// store.
func (m *QueueManager) GetJob(id string) (*domain.Job, bool) {
	m.mu.RLock()
	if job, ok := m.running[id]; ok {
		m.mu.RUnlock()
		return job, true
	}
	for _, job := range m.queue {
		if job.ID == id {
			m.mu.RUnlock()
			return job, true
		}
	}
	m.mu.RUnlock()

	job, err := m.store.GetJob(id)
	if err == nil && job != nil {
		return job, true
	}
	return nil, false
}

// GetAllJobs returns every persisted job, newest last.
func (m *QueueManager) GetAllJobs() ([]*domain.Job, error) {
	return m.store.GetAllJobs()
}

// Cancel requests cooperative cancellation of a queued or running job.
// Returns false when the job is unknown or already finished.
func (m *QueueManager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.running[id]; ok {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
		return true
	}

	// Still queued: fail it in place before a worker claims it.
	for i, job := range m.queue {
		if job.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			job.Status = domain.StatusFailed
			job.Error = "cancelled"
			job.FinishedAt = time.Now()
			_ = m.store.SaveJob(job)
			return true
		}
	}
	return false
}

// updateStatus applies a transition and saves to the store immediately.
// Transitions that would move backwards are refused.
func (m *QueueManager) updateStatus(job *domain.Job, status domain.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !domain.CanTransition(job.Status, status) {
		m.log.Warn("[%s] refused transition %s -> %s", job.ID, job.Status, status)
		return
	}
	job.Status = status
	_ = m.store.SaveJob(job)
}

func (m *QueueManager) finalizeJob(job *domain.Job, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		job.Status = domain.StatusFailed
		job.Error = failureReason(err)
		m.log.Warn("[%s] failed: %s", job.ID, job.Error)
	} else {
		job.Status = domain.StatusCompleted
		m.log.Info("[%s] completed: %s", job.ID, job.ArtifactPath)
	}
	job.FinishedAt = time.Now()

	// Persist the final outcome
	_ = m.store.SaveJob(job)

	delete(m.running, job.ID)
}
