package driven

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// SnapshotStore persists provider snapshots. Snapshots are append-only:
// Save never overwrites an existing snapshot.
type SnapshotStore interface {
	// Save writes a new snapshot and returns its location.
	Save(ctx context.Context, snapshot domain.ProviderSnapshot) (string, error)

	// Latest returns the most recent snapshot for provider.
	// Returns domain.ErrNotFound if none exists.
	Latest(ctx context.Context, provider string) (*domain.ProviderSnapshot, error)

	// List returns snapshot names for provider, oldest first.
	List(ctx context.Context, provider string) ([]string, error)

	// Remove deletes every snapshot for provider and returns how many were removed.
	Remove(ctx context.Context, provider string) (int, error)
}
