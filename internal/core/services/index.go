package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
	"github.com/custodia-labs/planscout/internal/logger"
	"github.com/custodia-labs/planscout/internal/observability"
)

// docIDLayout is the timestamp layout embedded in document ids.
const docIDLayout = "20060102_150405"

// docSeq numbers documents across every index in the process.
var docSeq atomic.Uint64

// Ensure PlanIndex implements the interface.
var _ driving.PlanIndex = (*PlanIndex)(nil)

// IndexConfig holds the index batching settings.
type IndexConfig struct {
	// Collection is reported by Stats and tags spans.
	Collection string

	// EmbedBatchSize is how many texts are handed to the embedder at once.
	EmbedBatchSize int

	// WriteBatchSize is how many documents are written per store call.
	WriteBatchSize int
}

// IndexConfigFrom extracts the index settings from cfg.
func IndexConfigFrom(cfg domain.IndexSettings) IndexConfig {
	return IndexConfig{
		Collection:     cfg.Collection,
		EmbedBatchSize: cfg.EmbedBatchSize,
		WriteBatchSize: cfg.WriteBatchSize,
	}
}

// IndexOption configures a PlanIndex.
type IndexOption func(*PlanIndex)

// WithIndexClock replaces the clock used for document ids.
func WithIndexClock(now func() time.Time) IndexOption {
	return func(ix *PlanIndex) {
		ix.now = now
	}
}

// PlanIndex is the provider-scoped vector index. It embeds documents,
// writes them to the backing store and keeps a read-through cache of
// what it has written.
type PlanIndex struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	log      *logger.Logger
	cfg      IndexConfig
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]domain.IndexedDocument
}

// NewPlanIndex creates an index over store. Non-positive batch sizes fall
// back to the defaults.
func NewPlanIndex(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	log *logger.Logger,
	cfg IndexConfig,
	opts ...IndexOption,
) *PlanIndex {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = domain.DefaultIndexEmbedBatchSize
	}
	if cfg.WriteBatchSize <= 0 {
		cfg.WriteBatchSize = domain.DefaultIndexWriteBatchSize
	}
	if log == nil {
		log = logger.Nop()
	}

	ix := &PlanIndex{
		store:    store,
		embedder: embedder,
		log:      log.Named("index"),
		cfg:      cfg,
		now:      time.Now,
		cache:    make(map[string]domain.IndexedDocument),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add embeds docs and writes them under fresh ids. Every text is embedded
// before the first write, so an embedding failure leaves the store untouched.
func (ix *PlanIndex) Add(ctx context.Context, docs []domain.Document) (err error) {
	if len(docs) == 0 {
		ix.log.Debug("add: no documents")
		return nil
	}

	ctx, span := observability.StartIndexSpan(ctx, "add", ix.cfg.Collection)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	vectors, err := ix.embed(ctx, docs)
	if err != nil {
		return domain.NewError(domain.KindUpstream, "index.add", err)
	}

	stamp := ix.now().Format(docIDLayout)
	indexed := make([]domain.IndexedDocument, len(docs))
	for i, d := range docs {
		indexed[i] = domain.IndexedDocument{
			ID:       fmt.Sprintf("doc_%s_%d", stamp, docSeq.Add(1)),
			Document: d,
			Vector:   vectors[i],
		}
	}

	for start := 0; start < len(indexed); start += ix.cfg.WriteBatchSize {
		if err := ctx.Err(); err != nil {
			return domain.NewError(domain.KindUpstream, "index.add", err)
		}
		batch := indexed[start:min(start+ix.cfg.WriteBatchSize, len(indexed))]

		storeCtx, storeSpan := observability.StartStoreSpan(ctx, ix.store.Name(), "insert")
		err := ix.store.Insert(storeCtx, batch)
		observability.RecordError(storeSpan, err)
		storeSpan.End()
		if err != nil {
			return domain.NewError(domain.KindUpstream, "index.add",
				fmt.Errorf("insert documents %d-%d: %w", start, start+len(batch)-1, err))
		}

		ix.mu.Lock()
		for _, d := range batch {
			ix.cache[d.ID] = d
		}
		ix.mu.Unlock()
	}

	ix.log.Info("added %d documents", len(indexed))
	return nil
}

// embed returns one vector per document, requesting EmbedBatchSize texts at a time.
func (ix *PlanIndex) embed(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += ix.cfg.EmbedBatchSize {
		end := min(start+ix.cfg.EmbedBatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		batch, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed documents %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed documents %d-%d: %w: got %d vectors for %d texts",
				start, end-1, domain.ErrUpstream, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// ReplaceForProvider removes provider's documents and then adds docs.
// A failed removal aborts before anything is added.
func (ix *PlanIndex) ReplaceForProvider(ctx context.Context, docs []domain.Document, provider string) error {
	removed := ix.RemoveForProvider(ctx, provider)
	if removed.Failed() {
		return removed.Err
	}
	if err := ix.Add(ctx, docs); err != nil {
		return err
	}
	ix.log.Debug("replaced %d documents for %s with %d", removed.Value, provider, len(docs))
	return nil
}

// RemoveForProvider deletes every document whose provider is exactly provider.
func (ix *PlanIndex) RemoveForProvider(ctx context.Context, provider string) domain.Result[int] {
	if provider == "" {
		return domain.Fail(0, domain.NewError(domain.KindInvalidInput, "index.remove",
			fmt.Errorf("%w: provider is required", domain.ErrInvalidInput)))
	}

	ctx, span := observability.StartIndexSpan(ctx, "remove", ix.cfg.Collection)
	defer span.End()

	docs, err := ix.store.Get(ctx, domain.MetadataFilter{Provider: provider}, 0)
	if err != nil {
		observability.RecordError(span, err)
		return domain.Fail(0, domain.NewError(domain.KindUpstream, "index.remove",
			fmt.Errorf("list documents for %s: %w", provider, err)))
	}
	if len(docs) == 0 {
		return domain.Ok(0)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if err := ix.store.Delete(ctx, ids); err != nil {
		observability.RecordError(span, err)
		return domain.Fail(0, domain.NewError(domain.KindUpstream, "index.remove",
			fmt.Errorf("delete documents for %s: %w", provider, err)))
	}

	ix.mu.Lock()
	for _, id := range ids {
		delete(ix.cache, id)
	}
	ix.mu.Unlock()

	ix.log.Info("removed %d documents for %s", len(ids), provider)
	return domain.Ok(len(ids))
}

// Search embeds query and returns up to k hits by decreasing similarity.
func (ix *PlanIndex) Search(
	ctx context.Context, query string, k int, providerFilter string,
) domain.Result[[]domain.SearchHit] {
	empty := []domain.SearchHit{}
	if k <= 0 || strings.TrimSpace(query) == "" {
		return domain.Ok(empty)
	}

	ctx, span := observability.StartIndexSpan(ctx, "search", ix.cfg.Collection)
	defer span.End()

	vector, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		ix.log.Warn("search: embed query failed: %v", err)
		return domain.Fail(empty, domain.NewError(domain.KindUpstream, "index.search",
			fmt.Errorf("embed query: %w", err)))
	}

	stored, err := ix.store.Query(ctx, vector, k, domain.MetadataFilter{Provider: providerFilter})
	if err != nil {
		observability.RecordError(span, err)
		ix.log.Warn("search: store query failed: %v", err)
		return domain.Fail(empty, domain.NewError(domain.KindUpstream, "index.search",
			fmt.Errorf("query store: %w", err)))
	}
	if len(stored) > k {
		stored = stored[:k]
	}

	hits := make([]domain.SearchHit, 0, len(stored))
	for _, h := range stored {
		hits = append(hits, domain.SearchHit{
			ID:       h.Document.ID,
			Document: ix.resolve(h.Document),
			Score:    h.Score,
		})
	}
	return domain.Ok(hits)
}

// resolve returns the cached document for d's id, falling back to the
// store's copy and caching it.
func (ix *PlanIndex) resolve(d domain.IndexedDocument) domain.Document {
	ix.mu.RLock()
	cached, ok := ix.cache[d.ID]
	ix.mu.RUnlock()
	if ok {
		return cached.Document
	}

	ix.mu.Lock()
	ix.cache[d.ID] = d
	ix.mu.Unlock()
	return d.Document
}

// SearchByProvider returns up to limit documents for provider, ordered by id.
// A limit of zero or less returns all of them.
func (ix *PlanIndex) SearchByProvider(
	ctx context.Context, provider string, limit int,
) domain.Result[[]domain.IndexedDocument] {
	empty := []domain.IndexedDocument{}
	if provider == "" {
		return domain.Fail(empty, domain.NewError(domain.KindInvalidInput, "index.by_provider",
			fmt.Errorf("%w: provider is required", domain.ErrInvalidInput)))
	}

	docs, err := ix.store.Get(ctx, domain.MetadataFilter{Provider: provider}, limit)
	if err != nil {
		ix.log.Warn("list documents for %s failed: %v", provider, err)
		return domain.Fail(empty, domain.NewError(domain.KindUpstream, "index.by_provider",
			fmt.Errorf("list documents for %s: %w", provider, err)))
	}
	if docs == nil {
		docs = empty
	}
	return domain.Ok(docs)
}

// Stats scans the store and summarises it.
func (ix *PlanIndex) Stats(ctx context.Context) domain.Result[domain.IndexStats] {
	stats := domain.EmptyStats(ix.cfg.Collection, ix.store.Name())

	docs, err := ix.store.Get(ctx, domain.MetadataFilter{}, 0)
	if err != nil {
		ix.log.Warn("stats: scan failed: %v", err)
		return domain.Fail(stats, domain.NewError(domain.KindUpstream, "index.stats",
			fmt.Errorf("scan documents: %w", err)))
	}

	for _, d := range docs {
		stats.ProviderCounts[d.Provider()]++
	}
	stats.TotalDocuments = len(docs)
	return domain.Ok(stats)
}

// Clear resets the store and empties the cache.
func (ix *PlanIndex) Clear(ctx context.Context) error {
	if err := ix.store.Reset(ctx); err != nil {
		return domain.NewError(domain.KindUpstream, "index.clear", fmt.Errorf("reset store: %w", err))
	}

	ix.mu.Lock()
	ix.cache = make(map[string]domain.IndexedDocument)
	ix.mu.Unlock()

	ix.log.Info("cleared collection %s", ix.cfg.Collection)
	return nil
}

// Cached reports how many documents the read-through cache holds.
func (ix *PlanIndex) Cached() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.cache)
}
