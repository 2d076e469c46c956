package driving

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// PlanIndex is the provider-scoped vector index.
//
// Write operations return errors: a failed write must be visible.
// Read operations return a domain.Result whose value is usable (empty)
// even on failure, with Kind/Err describing what went wrong.
type PlanIndex interface {
	// Add embeds and stores documents under fresh ids.
	// An empty input is a no-op.
	Add(ctx context.Context, docs []domain.Document) error

	// ReplaceForProvider removes all documents for provider, then adds docs.
	ReplaceForProvider(ctx context.Context, docs []domain.Document, provider string) error

	// RemoveForProvider deletes all documents whose provider equals provider
	// (case-sensitive). The value is the number removed.
	RemoveForProvider(ctx context.Context, provider string) domain.Result[int]

	// Search returns up to k documents ranked by cosine similarity to query.
	// An empty providerFilter searches all providers.
	Search(ctx context.Context, query string, k int, providerFilter string) domain.Result[[]domain.SearchHit]

	// SearchByProvider returns up to limit documents for provider, unranked.
	SearchByProvider(ctx context.Context, provider string, limit int) domain.Result[[]domain.IndexedDocument]

	// Stats summarises the collection, recomputed per call.
	Stats(ctx context.Context) domain.Result[domain.IndexStats]

	// Clear drops and recreates the collection.
	Clear(ctx context.Context) error
}
