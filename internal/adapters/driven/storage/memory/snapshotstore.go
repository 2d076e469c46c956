package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps provider snapshots in memory, keyed by filename.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]domain.ProviderSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]domain.ProviderSnapshot),
	}
}

// Save appends snapshot and returns its filename.
func (s *SnapshotStore) Save(_ context.Context, snapshot domain.ProviderSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := domain.ProviderSlug(snapshot.Provider)
	snapshot.Plans = append([]domain.CanonicalPlan(nil), snapshot.Plans...)
	s.snapshots[slug] = append(s.snapshots[slug], snapshot)
	return domain.SnapshotFilename(snapshot.Provider, snapshot.ScrapedAt), nil
}

// Latest returns the most recently saved snapshot for provider.
func (s *SnapshotStore) Latest(_ context.Context, provider string) (*domain.ProviderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[domain.ProviderSlug(provider)]
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	latest := list[len(list)-1]
	latest.Plans = append([]domain.CanonicalPlan(nil), latest.Plans...)
	return &latest, nil
}

// List returns snapshot filenames for provider, oldest first.
func (s *SnapshotStore) List(_ context.Context, provider string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[domain.ProviderSlug(provider)]
	names := make([]string, 0, len(list))
	for _, snap := range list {
		names = append(names, domain.SnapshotFilename(snap.Provider, snap.ScrapedAt))
	}
	return names, nil
}

// Remove drops every snapshot for provider.
func (s *SnapshotStore) Remove(_ context.Context, provider string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := domain.ProviderSlug(provider)
	n := len(s.snapshots[slug])
	delete(s.snapshots, slug)
	return n, nil
}
