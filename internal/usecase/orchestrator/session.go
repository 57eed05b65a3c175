package orchestrator

import (
	"context"
	"sync"
	"time"

	"snapsearch/internal/application/port/output"

	"go.uber.org/multierr"
)

// session owns everything acquired for one run: the browser attachment, its
// page and any temporary files. Close releases all of it exactly once.
type session struct {
	endpoint     string
	handle       output.BrowserSession
	page         output.BrowserPage
	store        output.ArtifactStore
	logger       output.LoggerPort
	closeTimeout time.Duration

	mu        sync.Mutex
	artifacts []string

	once     sync.Once
	closeErr error
}

func newSession(endpoint string, handle output.BrowserSession, store output.ArtifactStore, logger output.LoggerPort, closeTimeout time.Duration) *session {
	return &session{
		endpoint:     endpoint,
		handle:       handle,
		store:        store,
		logger:       logger,
		closeTimeout: closeTimeout,
	}
}

func (s *session) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, path)
}

// Close runs on its own deadline so a canceled caller still releases the
// remote browser.
func (s *session) Close(ctx context.Context) error {
	s.once.Do(func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.closeTimeout)
		defer cancel()

		var err error
		if s.handle != nil {
			if cerr := s.handle.Close(closeCtx); cerr != nil {
				s.logger.Warn("Browser session close failed", "endpoint", redact(s.endpoint), "error", cerr)
				err = multierr.Append(err, cerr)
			}
		}

		s.mu.Lock()
		artifacts := s.artifacts
		s.artifacts = nil
		s.mu.Unlock()

		for _, path := range artifacts {
			if rerr := s.store.Remove(path); rerr != nil {
				s.logger.Warn("Could not remove artifact", "path", path, "error", rerr)
				err = multierr.Append(err, rerr)
			}
		}

		s.closeErr = err
		s.logger.Debug("Session closed", "artifactsRemoved", len(artifacts), "error", err)
	})
	return s.closeErr
}
