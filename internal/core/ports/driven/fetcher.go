package driven

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// PlanFetcher is the content-retrieval collaborator. It yields raw plan
// records for a provider. An empty result means nothing is available and
// is not an error. The core performs no retries.
type PlanFetcher interface {
	// Name returns the connector type identifier (e.g. "feed", "sample").
	Name() string

	// Fetch returns raw records for provider.
	Fetch(ctx context.Context, provider string) ([]domain.PlanRecord, error)

	// Close releases resources.
	Close() error
}

// PlanWatcher pushes provider names whose raw feeds changed.
// Implemented by fetchers that can observe their source.
type PlanWatcher interface {
	// Watch emits a provider name each time new records become available.
	// The channel closes when ctx is cancelled.
	Watch(ctx context.Context) (<-chan string, error)
}

// PlanFetcherFactory creates plan fetchers by connector type.
type PlanFetcherFactory interface {
	// Create returns the fetcher registered under name.
	// Returns domain.ErrUnsupportedType if no fetcher has that name.
	Create(name string) (PlanFetcher, error)

	// Names returns the registered connector types, sorted.
	Names() []string
}
