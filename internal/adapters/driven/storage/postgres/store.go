// Package postgres provides a Postgres-backed implementation of driven.VectorStore.
//
// Vectors are stored as real[] and ranked in process, so the adapter runs on
// a stock Postgres without the pgvector extension.
package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    provider   TEXT NOT NULL DEFAULT '',
    price      TEXT NOT NULL DEFAULT '',
    data       TEXT NOT NULL DEFAULT '',
    url        TEXT NOT NULL DEFAULT '',
    source     TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    embedding  REAL[],
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_plan_documents_provider ON plan_documents (collection, provider);
`

const table = "plan_documents"

var columns = []string{"id", "name", "provider", "price", "data", "url", "source", "content", "embedding"}

// psql builds Postgres statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a Postgres-backed vector store scoped to one collection.
type Store struct {
	pool       *pgxpool.Pool
	collection string
}

// NewStore connects to dsn, verifies the connection and ensures the schema.
func NewStore(ctx context.Context, dsn, collection string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrConfiguration)
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{pool: pool, collection: collection}, nil
}

// Name returns "postgres".
func (s *Store) Name() string {
	return string(domain.BackendPostgres)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Insert upserts docs in one statement.
func (s *Store) Insert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	query, args, err := insertQuery(s.collection, docs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}
	return nil
}

// Delete removes documents by id.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(table).
		Where(sq.Eq{"collection": s.collection, "id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Query loads the filtered candidates and ranks them by cosine similarity.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, filter domain.MetadataFilter,
) ([]domain.StoredHit, error) {
	if k <= 0 {
		return []domain.StoredHit{}, nil
	}
	candidates, err := s.Get(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	return vecmath.Rank(vector, candidates, k), nil
}

// Get returns documents matching filter ordered by id.
func (s *Store) Get(
	ctx context.Context, filter domain.MetadataFilter, limit int,
) ([]domain.IndexedDocument, error) {
	query, args, err := selectQuery(s.collection, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(table).
		Where(sq.Eq{"collection": s.collection}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Reset removes every document in the collection.
func (s *Store) Reset(ctx context.Context) error {
	query, args, err := psql.Delete(table).Where(sq.Eq{"collection": s.collection}).ToSql()
	if err != nil {
		return fmt.Errorf("build reset: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	return nil
}

func insertQuery(collection string, docs []domain.IndexedDocument, now time.Time) (string, []any, error) {
	builder := psql.Insert(table).
		Columns("collection", "id", "name", "provider", "price", "data", "url", "source", "content", "embedding", "created_at")
	for _, d := range docs {
		m := d.Document.Metadata
		builder = builder.Values(collection, d.ID, m.Name, m.Provider, m.PriceDisplay, m.DataDisplay,
			m.URL, m.SourceTag, d.Document.Text, pgtype.FlatArray[float32](d.Vector), now)
	}
	return builder.Suffix(`ON CONFLICT (collection, id) DO UPDATE SET
		name = EXCLUDED.name, provider = EXCLUDED.provider, price = EXCLUDED.price,
		data = EXCLUDED.data, url = EXCLUDED.url, source = EXCLUDED.source,
		content = EXCLUDED.content, embedding = EXCLUDED.embedding`).ToSql()
}

func selectQuery(collection string, filter domain.MetadataFilter, limit int) (string, []any, error) {
	where := sq.Eq{"collection": collection}
	if filter.Provider != "" {
		where["provider"] = filter.Provider
	}
	builder := psql.Select(columns...).From(table).Where(where).OrderBy("id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return builder.ToSql()
}

func scanDocument(row pgx.CollectableRow) (domain.IndexedDocument, error) {
	var (
		doc domain.IndexedDocument
		m   domain.DocumentMetadata
		vec pgtype.FlatArray[float32]
	)
	err := row.Scan(&doc.ID, &m.Name, &m.Provider, &m.PriceDisplay, &m.DataDisplay,
		&m.URL, &m.SourceTag, &doc.Document.Text, &vec)
	if err != nil {
		return doc, err
	}
	doc.Document.Metadata = m
	if len(vec) > 0 {
		doc.Vector = []float32(vec)
	}
	return doc, nil
}
