package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/logger"
)

// --- Mock implementations ---

// keywordEmbedder implements driven.EmbeddingService by counting keywords,
// so related texts land close together.
type keywordEmbedder struct {
	mu       sync.Mutex
	batches  [][]string
	embedErr error
}

var embedKeywords = []string{"5g", "get more", "unlimited", "prepaid", "hotspot", "basic"}

func (m *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(embedKeywords)+1)
	for i, kw := range embedKeywords {
		v[i] = float32(strings.Count(lower, kw))
	}
	v[len(embedKeywords)] = 0.1
	return v
}

func (m *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *keywordEmbedder) Dimensions() int            { return len(embedKeywords) + 1 }
func (m *keywordEmbedder) ModelName() string          { return "keyword-test" }
func (m *keywordEmbedder) Ping(context.Context) error { return nil }
func (m *keywordEmbedder) Close() error               { return nil }

// faultyStore wraps a memory store and fails selected operations.
type faultyStore struct {
	*memory.VectorStore
	getErr    error
	insertErr error
	inserts   int
}

func (s *faultyStore) Get(ctx context.Context, f domain.MetadataFilter, limit int) ([]domain.IndexedDocument, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.VectorStore.Get(ctx, f, limit)
}

func (s *faultyStore) Insert(ctx context.Context, docs []domain.IndexedDocument) error {
	s.inserts++
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.VectorStore.Insert(ctx, docs)
}

var _ driven.VectorStore = (*faultyStore)(nil)

// --- Test helpers ---

func planDoc(name, provider string) domain.Document {
	return domain.Document{
		Text: "Plan Name: " + name + "\nProvider: " + provider,
		Metadata: domain.DocumentMetadata{
			Name:     name,
			Provider: provider,
		},
	}
}

func newTestIndex(store driven.VectorStore, embedder driven.EmbeddingService) *PlanIndex {
	return NewPlanIndex(store, embedder, nil, IndexConfig{
		Collection:     "test_plans",
		EmbedBatchSize: 2,
		WriteBatchSize: 2,
	}, WithIndexClock(func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}))
}

// --- Tests ---

func TestNewPlanIndex_Defaults(t *testing.T) {
	ix := NewPlanIndex(memory.NewVectorStore(), &keywordEmbedder{}, nil, IndexConfig{})

	assert.Equal(t, domain.DefaultCollection, ix.cfg.Collection)
	assert.Equal(t, domain.DefaultIndexEmbedBatchSize, ix.cfg.EmbedBatchSize)
	assert.Equal(t, domain.DefaultIndexWriteBatchSize, ix.cfg.WriteBatchSize)
}

func TestPlanIndex_Add_BatchesEmbeddings(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{}
	store := memory.NewVectorStore()
	ix := newTestIndex(store, embedder)

	docs := []domain.Document{
		planDoc("Unlimited Welcome", "Verizon"),
		planDoc("Unlimited Plus", "Verizon"),
		planDoc("5G Get More", "Verizon"),
	}
	require.NoError(t, ix.Add(ctx, docs))

	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], 2)
	assert.Len(t, embedder.batches[1], 1)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, ix.Cached())
}

func TestPlanIndex_Add_IDsAreUnique(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVectorStore()
	ix := newTestIndex(store, &keywordEmbedder{})

	require.NoError(t, ix.Add(ctx, []domain.Document{planDoc("A", "Verizon")}))
	require.NoError(t, ix.Add(ctx, []domain.Document{planDoc("A", "Verizon")}))

	docs, err := store.Get(ctx, domain.MetadataFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
	for _, d := range docs {
		assert.True(t, strings.HasPrefix(d.ID, "doc_20240301_120000_"), d.ID)
	}
}

func TestPlanIndex_Add_Empty(t *testing.T) {
	embedder := &keywordEmbedder{}
	ix := newTestIndex(memory.NewVectorStore(), embedder)

	require.NoError(t, ix.Add(context.Background(), nil))
	assert.Empty(t, embedder.batches)
}

func TestPlanIndex_Add_EmbeddingFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{VectorStore: memory.NewVectorStore()}
	ix := newTestIndex(store, &keywordEmbedder{embedErr: domain.ErrEmbeddingUnavailable})

	err := ix.Add(ctx, []domain.Document{planDoc("A", "Verizon")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Zero(t, store.inserts)
}

func TestPlanIndex_ReplaceForProvider_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})

	docs := []domain.Document{
		planDoc("Unlimited Welcome", "Verizon"),
		planDoc("5G Get More", "Verizon"),
		planDoc("Prepaid Basic", "Verizon"),
	}
	require.NoError(t, ix.ReplaceForProvider(ctx, docs, "Verizon"))
	require.NoError(t, ix.ReplaceForProvider(ctx, docs, "Verizon"))

	stats := ix.Stats(ctx)
	require.True(t, stats.OK())
	assert.Equal(t, 3, stats.Value.TotalDocuments)
	assert.Equal(t, 3, stats.Value.ProviderCounts["Verizon"])
}

func TestPlanIndex_ReplaceForProvider_LeavesOtherProviders(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})

	require.NoError(t, ix.Add(ctx, []domain.Document{planDoc("Unlimited Starter", "T-Mobile")}))
	require.NoError(t, ix.ReplaceForProvider(ctx, []domain.Document{planDoc("Unlimited Welcome", "Verizon")}, "Verizon"))

	stats := ix.Stats(ctx)
	require.True(t, stats.OK())
	assert.Equal(t, map[string]int{"T-Mobile": 1, "Verizon": 1}, stats.Value.ProviderCounts)
}

func TestPlanIndex_ReplaceForProvider_FailedRemoveSkipsAdd(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{VectorStore: memory.NewVectorStore(), getErr: errors.New("connection refused")}
	embedder := &keywordEmbedder{}
	ix := newTestIndex(store, embedder)

	err := ix.ReplaceForProvider(ctx, []domain.Document{planDoc("A", "Verizon")}, "Verizon")

	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Empty(t, embedder.batches)
	assert.Zero(t, store.inserts)
}

func TestPlanIndex_RemoveForProvider(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{
		planDoc("A", "Verizon"),
		planDoc("B", "Verizon"),
		planDoc("C", "AT&T"),
	}))

	removed := ix.RemoveForProvider(ctx, "Verizon")
	require.True(t, removed.OK())
	assert.Equal(t, 2, removed.Value)
	assert.Equal(t, 1, ix.Cached())

	t.Run("missing provider is a no-op", func(t *testing.T) {
		res := ix.RemoveForProvider(ctx, "Mint Mobile")
		require.True(t, res.OK())
		assert.Zero(t, res.Value)
	})

	t.Run("provider match is exact", func(t *testing.T) {
		res := ix.RemoveForProvider(ctx, "at&t")
		require.True(t, res.OK())
		assert.Zero(t, res.Value)
	})

	t.Run("empty provider is rejected", func(t *testing.T) {
		res := ix.RemoveForProvider(ctx, "")
		require.True(t, res.Failed())
		assert.Equal(t, domain.KindInvalidInput, res.Kind)
		assert.ErrorIs(t, res.Err, domain.ErrInvalidInput)
	})
}

func TestPlanIndex_Search_RanksRelevantPlanFirst(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{
		planDoc("Unlimited Welcome", "Verizon"),
		planDoc("5G Get More", "Verizon"),
		planDoc("Prepaid Basic", "AT&T"),
	}))

	res := ix.Search(ctx, "5G Get More", 2, "")

	require.True(t, res.OK())
	require.Len(t, res.Value, 2)
	assert.Equal(t, "5G Get More", res.Value[0].Document.Metadata.Name)
	assert.GreaterOrEqual(t, res.Value[0].Score, res.Value[1].Score)
}

func TestPlanIndex_Search_Bounds(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{
		planDoc("Unlimited Welcome", "Verizon"),
		planDoc("Unlimited Plus", "Verizon"),
		planDoc("5G Get More", "Verizon"),
		planDoc("Prepaid Basic", "AT&T"),
	}))

	for _, k := range []int{1, 3, 10} {
		res := ix.Search(ctx, "unlimited hotspot", k, "")
		require.True(t, res.OK())
		assert.LessOrEqual(t, len(res.Value), k)
		for i := 1; i < len(res.Value); i++ {
			assert.GreaterOrEqual(t, res.Value[i-1].Score, res.Value[i].Score)
		}
	}

	t.Run("zero k", func(t *testing.T) {
		res := ix.Search(ctx, "unlimited", 0, "")
		require.True(t, res.OK())
		assert.Empty(t, res.Value)
	})

	t.Run("blank query", func(t *testing.T) {
		res := ix.Search(ctx, "   ", 5, "")
		require.True(t, res.OK())
		assert.Empty(t, res.Value)
	})
}

func TestPlanIndex_Search_ProviderFilter(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{
		planDoc("Unlimited Welcome", "Verizon"),
		planDoc("Unlimited Starter", "T-Mobile"),
	}))

	res := ix.Search(ctx, "unlimited", 5, "T-Mobile")

	require.True(t, res.OK())
	require.Len(t, res.Value, 1)
	assert.Equal(t, "T-Mobile", res.Value[0].Document.Metadata.Provider)
}

func TestPlanIndex_Search_EmbeddingFailure(t *testing.T) {
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{embedErr: domain.ErrRateLimited})

	res := ix.Search(context.Background(), "unlimited", 5, "")

	require.True(t, res.Failed())
	assert.Equal(t, domain.KindUpstream, res.Kind)
	assert.ErrorIs(t, res.Err, domain.ErrRateLimited)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestPlanIndex_Search_CacheMissUsesStoreCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := &keywordEmbedder{}
	writer := newTestIndex(store, embedder)
	require.NoError(t, writer.Add(ctx, []domain.Document{planDoc("5G Get More", "Verizon")}))

	reader := newTestIndex(store, embedder)
	require.Zero(t, reader.Cached())

	res := reader.Search(ctx, "5g", 1, "")
	require.True(t, res.OK())
	require.Len(t, res.Value, 1)
	assert.Equal(t, "5G Get More", res.Value[0].Document.Metadata.Name)
	assert.Equal(t, 1, reader.Cached())
}

func TestPlanIndex_SearchByProvider(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{
		planDoc("A", "Verizon"),
		planDoc("B", "Verizon"),
		planDoc("C", "Verizon"),
		planDoc("D", "AT&T"),
	}))

	res := ix.SearchByProvider(ctx, "Verizon", 2)
	require.True(t, res.OK())
	assert.Len(t, res.Value, 2)
	for _, d := range res.Value {
		assert.Equal(t, "Verizon", d.Provider())
	}

	none := ix.SearchByProvider(ctx, "Visible", 10)
	require.True(t, none.OK())
	assert.NotNil(t, none.Value)
	assert.Empty(t, none.Value)
}

func TestPlanIndex_Stats_Failure(t *testing.T) {
	store := &faultyStore{VectorStore: memory.NewVectorStore(), getErr: errors.New("boom")}
	ix := newTestIndex(store, &keywordEmbedder{})

	res := ix.Stats(context.Background())

	require.True(t, res.Failed())
	assert.Equal(t, domain.KindUpstream, res.Kind)
	assert.Zero(t, res.Value.TotalDocuments)
	assert.NotNil(t, res.Value.ProviderCounts)
	assert.Equal(t, "test_plans", res.Value.CollectionName)
}

func TestPlanIndex_ReadFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	store := &faultyStore{VectorStore: memory.NewVectorStore(), getErr: errors.New("connection reset")}
	embedder := &keywordEmbedder{embedErr: errors.New("embedding quota exceeded")}
	ix := NewPlanIndex(store, embedder, logger.New(&buf, false), IndexConfig{Collection: "test_plans"})
	ctx := context.Background()

	require.True(t, ix.Search(ctx, "unlimited", 3, "").Failed())
	require.True(t, ix.Stats(ctx).Failed())
	require.True(t, ix.SearchByProvider(ctx, "Verizon", 5).Failed())

	out := buf.String()
	assert.Contains(t, out, "embedding quota exceeded")
	assert.Contains(t, out, "stats: scan failed: connection reset")
	assert.Contains(t, out, "list documents for Verizon failed")
}

func TestPlanIndex_Clear(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(memory.NewVectorStore(), &keywordEmbedder{})
	require.NoError(t, ix.Add(ctx, []domain.Document{planDoc("A", "Verizon")}))

	require.NoError(t, ix.Clear(ctx))

	stats := ix.Stats(ctx)
	require.True(t, stats.OK())
	assert.Zero(t, stats.Value.TotalDocuments)
	assert.Empty(t, stats.Value.ProviderCounts)
	assert.Equal(t, "memory", stats.Value.Backend)
	assert.Zero(t, ix.Cached())
}
