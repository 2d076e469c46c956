package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/planscout/internal/adapters/driven/ai"
	"github.com/custodia-labs/planscout/internal/adapters/driven/config/file"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage"
	"github.com/custodia-labs/planscout/internal/connectors"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/services"
	"github.com/custodia-labs/planscout/internal/logger"
	plannorm "github.com/custodia-labs/planscout/internal/normalisers/plan"
	"github.com/custodia-labs/planscout/internal/observability"
	"github.com/custodia-labs/planscout/internal/postprocessors/plandoc"
)

// application holds the wired services and what must be released on exit.
type application struct {
	index     *services.PlanIndex
	ingestion *services.IngestionOrchestrator
	closers   []func() error
	log       *logger.Logger
}

func newSettings(home string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, home), nil
}

// buildApp wires the index and the ingestion pipeline from cfg.
func buildApp(ctx context.Context, cfg domain.Config, source string, log *logger.Logger) (a *application, err error) {
	a = &application{log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	tp, err := observability.InitTracing(ctx, observability.ConfigFromSettings(cfg.Telemetry, version))
	if err != nil {
		log.Warn("tracing disabled: %v", err)
	} else {
		a.closers = append(a.closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tp.Shutdown(shutdownCtx)
		})
	}

	store, err := storage.OpenVectorStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	snapshots, err := storage.OpenSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	a.closers = append(a.closers, embedder.Close)

	fetcher, err := connectors.NewFactory(cfg.Feed, log).Create(source)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fetcher.Close)

	a.index = services.NewPlanIndex(store, embedder, log, services.IndexConfigFrom(cfg.Index))
	a.ingestion = services.NewIngestionOrchestrator(
		fetcher,
		plannorm.New(log),
		plandoc.New(),
		a.index,
		snapshots,
		log,
	)

	log.Debug("using %s backend, %s embeddings, %s source",
		store.Name(), embedder.ModelName(), fetcher.Name())
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("shutdown: %v", err)
	}
	_ = a.log.Sync()
}
