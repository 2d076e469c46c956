package driven

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// VectorStore is the backing store behind the vector index. It persists
// vectors together with their text and metadata, and answers cosine
// nearest-neighbour queries.
//
// Implementations: memory (tests), SQLite, Qdrant, Postgres.
type VectorStore interface {
	// Insert writes documents. IDs are assigned by the caller.
	Insert(ctx context.Context, docs []domain.IndexedDocument) error

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Query returns up to k documents ordered by decreasing cosine similarity
	// to vector, restricted by filter.
	Query(ctx context.Context, vector []float32, k int, filter domain.MetadataFilter) ([]domain.StoredHit, error)

	// Get returns documents matching filter, unranked.
	// A limit of zero or less returns all matches.
	Get(ctx context.Context, filter domain.MetadataFilter, limit int) ([]domain.IndexedDocument, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Reset drops and recreates the collection.
	Reset(ctx context.Context) error

	// Name identifies the backend (e.g. "sqlite").
	Name() string

	// Close releases resources.
	Close() error
}
