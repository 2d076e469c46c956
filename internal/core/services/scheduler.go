package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
	"github.com/custodia-labs/planscout/internal/logger"
)

// RefreshResult describes the most recent scheduled refresh.
type RefreshResult struct {
	StartedAt time.Time
	EndedAt   time.Time
	Reports   []domain.IngestReport
	Err       error
}

// RefreshScheduler periodically re-ingests providers, bypassing snapshots.
type RefreshScheduler struct {
	ingest    driving.IngestionService
	providers []string
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	last    *RefreshResult
}

// NewRefreshScheduler creates a scheduler that refreshes providers every
// interval. An empty providers list means every known provider.
func NewRefreshScheduler(
	ingest driving.IngestionService,
	providers []string,
	interval time.Duration,
	log *logger.Logger,
) *RefreshScheduler {
	if len(providers) == 0 {
		providers = domain.KnownProviders
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshScheduler{
		ingest:    ingest,
		providers: providers,
		interval:  interval,
		log:       log.Named("scheduler"),
		now:       time.Now,
	}
}

// Start runs a refresh immediately and then once per interval. It blocks
// until Stop is called or ctx is cancelled.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return domain.NewError(domain.KindConfiguration, "scheduler.start",
			errors.Join(domain.ErrConfiguration, errors.New("refresh interval must be positive")))
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(ctx, stopCh)
}

// Stop signals the loop to exit and waits for an in-flight refresh.
func (s *RefreshScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Last returns the most recent refresh, or nil before the first one ends.
func (s *RefreshScheduler) Last() *RefreshResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

func (s *RefreshScheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *RefreshScheduler) refresh(ctx context.Context) {
	result := &RefreshResult{StartedAt: s.now()}
	result.Reports, result.Err = s.ingest.IngestAll(ctx, s.providers, true)
	result.EndedAt = s.now()

	if result.Err != nil {
		s.log.Error("scheduled refresh: %v", result.Err)
	} else {
		s.log.Info("scheduled refresh of %d providers done in %s",
			len(result.Reports), result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

func (s *RefreshScheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
}
