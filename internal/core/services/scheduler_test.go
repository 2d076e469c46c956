package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
)

// countingIngestion implements IngestAll only.
type countingIngestion struct {
	driving.IngestionService

	mu        sync.Mutex
	runs      int
	providers []string
	refresh   bool
	err       error
}

func (c *countingIngestion) IngestAll(_ context.Context, providers []string, refresh bool) ([]domain.IngestReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.providers = providers
	c.refresh = refresh
	reports := make([]domain.IngestReport, 0, len(providers))
	for _, p := range providers {
		reports = append(reports, domain.IngestReport{Provider: p})
	}
	return reports, c.err
}

func (c *countingIngestion) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func TestRefreshScheduler_DefaultsToKnownProviders(t *testing.T) {
	s := NewRefreshScheduler(&countingIngestion{}, nil, time.Hour, nil)
	assert.Equal(t, domain.KnownProviders, s.providers)
}

func TestRefreshScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := NewRefreshScheduler(&countingIngestion{}, nil, 0, nil)

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRefreshScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	ing := &countingIngestion{}
	s := NewRefreshScheduler(ing, []string{domain.ProviderVerizon}, 10*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return ing.count() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, <-done)

	ing.mu.Lock()
	assert.True(t, ing.refresh, "scheduled refresh must bypass snapshots")
	assert.Equal(t, []string{domain.ProviderVerizon}, ing.providers)
	ing.mu.Unlock()

	last := s.Last()
	require.NotNil(t, last)
	assert.Len(t, last.Reports, 1)
	assert.NoError(t, last.Err)
}

func TestRefreshScheduler_ContextCancel(t *testing.T) {
	ing := &countingIngestion{}
	s := NewRefreshScheduler(ing, nil, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return ing.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.NoError(t, s.Stop())
}

func TestRefreshScheduler_RecordsFailure(t *testing.T) {
	ing := &countingIngestion{err: errors.New("feed unreadable")}
	s := NewRefreshScheduler(ing, nil, time.Hour, nil)

	go func() { _ = s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return s.Last() != nil }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	assert.EqualError(t, s.Last().Err, "feed unreadable")
}

func TestRefreshScheduler_StopWithoutStart(t *testing.T) {
	s := NewRefreshScheduler(&countingIngestion{}, nil, time.Hour, nil)
	assert.NoError(t, s.Stop())
	assert.Nil(t, s.Last())
}
