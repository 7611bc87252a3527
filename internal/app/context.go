package app

import (
	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/engine"
	"github.com/clipwash/clipwash/internal/infra/config"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// JobQueue is what the HTTP layer needs from the engine.
type JobQueue interface {
	Add(req engine.SubmitRequest) (*domain.Job, error)
	GetJob(id string) (*domain.Job, bool)
	GetAllJobs() ([]*domain.Job, error)
	Cancel(id string) bool
}

// CapabilityProber lets the HTTP layer report environment health.
type CapabilityProber interface {
	Probe() domain.CapabilitySet
}

// Context holds the core environment and shared resources. It acts as
// the single source of truth handed to the API controllers.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Queue  JobQueue
	Prober CapabilityProber
}

func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
