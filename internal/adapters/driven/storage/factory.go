// Package storage selects the backing stores named by the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/snapshot"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// OpenVectorStore opens the backend selected by cfg.Index.Backend.
// Failures to reach the backend wrap domain.ErrVectorIndexUnavailable.
func OpenVectorStore(ctx context.Context, cfg domain.Config) (driven.VectorStore, error) {
	collection := cfg.Index.Collection

	var (
		store driven.VectorStore
		err   error
	)
	switch cfg.Index.Backend {
	case domain.BackendMemory:
		return memory.NewVectorStore(), nil

	case domain.BackendSQLite:
		store, err = sqlite.NewStore(cfg.Index.DataDir, collection)

	case domain.BackendQdrant:
		store, err = qdrant.NewStore(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: collection,
		})

	case domain.BackendPostgres:
		store, err = postgres.NewStore(ctx, cfg.Postgres.DSN, collection)

	default:
		return nil, domain.NewError(domain.KindConfiguration, "storage.open",
			fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, cfg.Index.Backend))
	}
	if err != nil {
		return nil, domain.NewError(domain.KindUpstream, "storage.open",
			fmt.Errorf("%w: %s: %w", domain.ErrVectorIndexUnavailable, cfg.Index.Backend, err))
	}
	return store, nil
}

// OpenSnapshotStore opens the file snapshot store, or an in-memory one
// when the index itself is ephemeral.
func OpenSnapshotStore(cfg domain.Config) (driven.SnapshotStore, error) {
	if !cfg.Index.Backend.IsPersistent() {
		return memory.NewSnapshotStore(), nil
	}
	return snapshot.NewFileStore(cfg.Snapshot.Dir)
}
