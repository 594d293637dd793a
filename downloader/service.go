package downloader

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/finder"
	"github.com/use-agent/pastpapers/models"
	"github.com/use-agent/pastpapers/store"
)

// Session is a Browser that must be closed when the run ends.
type Session interface {
	Browser
	Close()
}

// LaunchFunc starts a browser session for one run.
type LaunchFunc func() (Session, error)

// Service runs downloads one at a time, launching a fresh browser for
// every run. Callers that arrive while a run is active wait for it.
type Service struct {
	mu      sync.Mutex
	running atomic.Bool

	launch LaunchFunc
	direct engine.Strategy
	finder *finder.Finder
	store  *store.Store
	cfg    config.DownloadConfig
}

// NewService creates a Service.
func NewService(launch LaunchFunc, direct engine.Strategy, f *finder.Finder, st *store.Store, cfg config.DownloadConfig) *Service {
	return &Service{launch: launch, direct: direct, finder: f, store: st, cfg: cfg}
}

// Running reports whether a run currently holds the browser.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Run launches a browser, processes urls in order and closes the browser.
func (s *Service) Run(ctx context.Context, urls []string) (*models.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, models.NewPaperError(models.ErrCodeTimeout, "run cancelled before start", err)
	}

	s.running.Store(true)
	defer s.running.Store(false)

	sess, err := s.launch()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	return New(sess, s.direct, s.finder, s.store, s.cfg).Run(ctx, urls), nil
}
