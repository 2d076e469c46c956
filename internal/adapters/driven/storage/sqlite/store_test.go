package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T, collection string) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), collection)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testDoc(id, provider string, vec ...float32) domain.IndexedDocument {
	return domain.IndexedDocument{
		ID: id,
		Document: domain.Document{
			Text: "Plan Name: " + id,
			Metadata: domain.DocumentMetadata{
				Name:         id,
				Provider:     provider,
				PriceDisplay: "$80/month",
				DataDisplay:  "Unlimited",
				URL:          "https://example.com/" + id,
				SourceTag:    domain.SourceTagPlanDetails,
			},
		},
		Vector: vec,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewStore(dir, "")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.Equal(t, domain.DefaultCollection, store.collection)
	assert.Equal(t, "sqlite", store.Name())

	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsRecordedOnce(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir, "c")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir, "c")
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{
		testDoc("doc_b", "Verizon", 0, 1),
		testDoc("doc_a", "Verizon", 1, 0),
		testDoc("doc_c", "AT&T", 1, 1),
	}))

	docs, err := store.Get(ctx, domain.MetadataFilter{Provider: "Verizon"}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_a", docs[0].ID)
	assert.Equal(t, "doc_b", docs[1].ID)
	assert.Equal(t, []float32{1, 0}, docs[0].Vector)
	assert.Equal(t, testDoc("doc_a", "Verizon").Document, docs[0].Document)

	docs, err = store.Get(ctx, domain.MetadataFilter{}, 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_InsertReplacesExistingID(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{testDoc("doc_a", "Verizon", 1, 0)}))
	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{testDoc("doc_a", "AT&T", 0, 1)}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	docs, err := store.Get(ctx, domain.MetadataFilter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "AT&T", docs[0].Provider())
}

func TestStore_QueryOrdersByCosine(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{
		testDoc("doc_far", "Verizon", 0, 1),
		testDoc("doc_near", "Verizon", 1, 0),
		testDoc("doc_mid", "AT&T", 1, 1),
	}))

	hits, err := store.Query(ctx, []float32{1, 0}, 3, domain.MetadataFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "doc_near", hits[0].Document.ID)
	assert.Equal(t, "doc_mid", hits[1].Document.ID)
	assert.Equal(t, "doc_far", hits[2].Document.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)
}

func TestStore_QueryFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{
		testDoc("v1", "Verizon", 1, 0),
		testDoc("v2", "Verizon", 0.9, 0.1),
		testDoc("t1", "T-Mobile", 1, 0),
	}))

	hits, err := store.Query(ctx, []float32{1, 0}, 1, domain.MetadataFilter{Provider: "Verizon"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "v1", hits[0].Document.ID)

	hits, err = store.Query(ctx, []float32{1, 0}, 0, domain.MetadataFilter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_QuerySkipsIncomparable(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{
		testDoc("ok", "Verizon", 1, 0),
		testDoc("zero", "Verizon", 0, 0),
		testDoc("short", "Verizon", 1),
	}))

	hits, err := store.Query(ctx, []float32{1, 0}, 5, domain.MetadataFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ok", hits[0].Document.ID)
}

func TestStore_DeleteAndReset(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, "plans")

	require.NoError(t, store.Insert(ctx, []domain.IndexedDocument{
		testDoc("a", "Verizon", 1), testDoc("b", "Verizon", 1), testDoc("c", "AT&T", 1),
	}))

	require.NoError(t, store.Delete(ctx, []string{"a", "b", "missing"}))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Reset(ctx))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	plans, err := NewStore(dir, "plans")
	require.NoError(t, err)
	defer plans.Close()
	other, err := NewStore(dir, "other")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, plans.Insert(ctx, []domain.IndexedDocument{testDoc("a", "Verizon", 1)}))

	n, err := other.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, other.Reset(ctx))
	n, err = plans.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
