package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// DatabaseFile is the database filename inside the data directory.
const DatabaseFile = "planscout.db"

// documentColumns lists the columns read back into an IndexedDocument.
var documentColumns = []string{"id", "name", "provider", "price", "data", "url", "source", "content", "embedding"}

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store scoped to one collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.planscout/data.
func NewStore(dataDir, collection string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".planscout", domain.DefaultDataDirName)
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	registerFunctions()

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Name returns "sqlite".
func (s *Store) Name() string {
	return string(domain.BackendSQLite)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes docs in a single transaction. An existing id is replaced.
func (s *Store) Insert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, name, provider, price, data, url, source, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			name = excluded.name,
			provider = excluded.provider,
			price = excluded.price,
			data = excluded.data,
			url = excluded.url,
			source = excluded.source,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, d := range docs {
		m := d.Document.Metadata
		if _, err := stmt.ExecContext(ctx, s.collection, d.ID, m.Name, m.Provider, m.PriceDisplay,
			m.DataDisplay, m.URL, m.SourceTag, d.Document.Text, vecmath.Encode(d.Vector), now); err != nil {
			return fmt.Errorf("saving document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes documents by id.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Delete("documents").
		Where(sq.Eq{"collection": s.collection, "id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// Query ranks documents with vec_cosine inside SQLite. Rows whose
// vectors cannot be compared score NULL and are dropped.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, filter domain.MetadataFilter,
) ([]domain.StoredHit, error) {
	if k <= 0 {
		return []domain.StoredHit{}, nil
	}

	builder := sq.Select(documentColumns...).
		Column(sq.Alias(sq.Expr(CosineFunction+"(embedding, ?)", vecmath.Encode(vector)), "score")).
		From("documents").
		Where(s.where(filter)).
		OrderBy("score DESC", "id ASC").
		Limit(uint64(k))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.StoredHit, 0, k)
	for rows.Next() {
		var score sql.NullFloat64
		doc, err := scanDocument(rows, &score)
		if err != nil {
			return nil, err
		}
		if !score.Valid {
			continue
		}
		hits = append(hits, domain.StoredHit{Document: doc, Score: score.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return hits, nil
}

// Get returns documents matching filter ordered by id.
func (s *Store) Get(
	ctx context.Context, filter domain.MetadataFilter, limit int,
) ([]domain.IndexedDocument, error) {
	builder := sq.Select(documentColumns...).
		From("documents").
		Where(s.where(filter)).
		OrderBy("id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.IndexedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Reset removes every document in the collection.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ?", s.collection); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	return nil
}

func (s *Store) where(filter domain.MetadataFilter) sq.Eq {
	eq := sq.Eq{"collection": s.collection}
	if filter.Provider != "" {
		eq["provider"] = filter.Provider
	}
	return eq
}

// scanDocument reads one documents row. Extra destinations are appended
// after the document columns.
func scanDocument(rows *sql.Rows, extra ...any) (domain.IndexedDocument, error) {
	var (
		doc  domain.IndexedDocument
		m    domain.DocumentMetadata
		blob []byte
	)
	dest := []any{&doc.ID, &m.Name, &m.Provider, &m.PriceDisplay, &m.DataDisplay,
		&m.URL, &m.SourceTag, &doc.Document.Text, &blob}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return doc, fmt.Errorf("scanning document: %w", err)
	}

	vec, err := vecmath.Decode(blob)
	if err != nil {
		return doc, fmt.Errorf("decoding embedding for %s: %w", doc.ID, err)
	}
	doc.Vector = vec
	doc.Document.Metadata = m
	return doc, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
