package driving

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// IngestionService coordinates getting provider plans into the index.
type IngestionService interface {
	// GetProviderData returns canonical plans for provider. Unless
	// forceRefresh is set, the latest snapshot is returned without
	// contacting the content-retrieval collaborator.
	GetProviderData(ctx context.Context, provider string, forceRefresh bool) ([]domain.CanonicalPlan, error)

	// Ingest obtains plans for provider and replaces its documents in the index.
	Ingest(ctx context.Context, provider string, forceRefresh bool) (*domain.IngestReport, error)

	// IngestAll ingests each provider in turn. Failures are joined.
	IngestAll(ctx context.Context, providers []string, forceRefresh bool) ([]domain.IngestReport, error)

	// Watch re-ingests providers as their feeds change, until ctx is cancelled.
	Watch(ctx context.Context) error

	// Status returns ingestion status for a provider.
	Status(ctx context.Context, provider string) (*IngestStatus, error)

	// ListSnapshots returns snapshot names for provider, oldest first.
	ListSnapshots(ctx context.Context, provider string) ([]string, error)

	// ClearSnapshots deletes all snapshots for provider.
	ClearSnapshots(ctx context.Context, provider string) (int, error)
}

// IngestStatus represents the current state of an ingestion.
type IngestStatus struct {
	// Provider identifies the provider.
	Provider string

	// Running indicates if ingestion is currently in progress.
	Running bool

	// PlansProcessed is the count of canonical plans produced.
	PlansProcessed int

	// Skipped is the number of raw records rejected.
	Skipped int
}
