package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Suitable for testing and ephemeral indexes. Ranking is exact.
type VectorStore struct {
	mu    sync.RWMutex
	docs  map[string]domain.IndexedDocument
	order []string
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		docs: make(map[string]domain.IndexedDocument),
	}
}

// Insert stores copies of docs. An existing id is overwritten.
func (s *VectorStore) Insert(_ context.Context, docs []domain.IndexedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if _, exists := s.docs[d.ID]; !exists {
			s.order = append(s.order, d.ID)
		}
		s.docs[d.ID] = copyDocument(d)
	}
	return nil
}

// Delete removes documents by id.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.docs[id]; ok {
			delete(s.docs, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return nil
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

// Query ranks matching documents by cosine similarity.
func (s *VectorStore) Query(
	_ context.Context, vector []float32, k int, filter domain.MetadataFilter,
) ([]domain.StoredHit, error) {
	s.mu.RLock()
	candidates := s.matching(filter)
	s.mu.RUnlock()

	return vecmath.Rank(vector, candidates, k), nil
}

// Get returns matching documents ordered by id.
func (s *VectorStore) Get(
	_ context.Context, filter domain.MetadataFilter, limit int,
) ([]domain.IndexedDocument, error) {
	s.mu.RLock()
	matches := s.matching(filter)
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns the number of stored documents.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Reset removes every document.
func (s *VectorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]domain.IndexedDocument)
	s.order = nil
	return nil
}

// Name returns "memory".
func (s *VectorStore) Name() string {
	return string(domain.BackendMemory)
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

// matching returns copies of documents passing filter, in insertion order.
// Caller must hold at least a read lock.
func (s *VectorStore) matching(filter domain.MetadataFilter) []domain.IndexedDocument {
	out := make([]domain.IndexedDocument, 0, len(s.order))
	for _, id := range s.order {
		d := s.docs[id]
		if filter.Matches(d.Document.Metadata) {
			out = append(out, copyDocument(d))
		}
	}
	return out
}

func copyDocument(d domain.IndexedDocument) domain.IndexedDocument {
	if d.Vector != nil {
		v := make([]float32, len(d.Vector))
		copy(v, d.Vector)
		d.Vector = v
	}
	return d
}
