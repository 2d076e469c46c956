package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
	"github.com/custodia-labs/planscout/internal/logger"
	"github.com/custodia-labs/planscout/internal/observability"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// IngestOption configures an IngestionOrchestrator.
type IngestOption func(*IngestionOrchestrator)

// WithIngestClock replaces the clock used to stamp snapshots.
func WithIngestClock(now func() time.Time) IngestOption {
	return func(o *IngestionOrchestrator) {
		o.now = now
	}
}

// WithWatcher sets the source of feed change events used by Watch.
// By default the fetcher is used when it implements driven.PlanWatcher.
func WithWatcher(w driven.PlanWatcher) IngestOption {
	return func(o *IngestionOrchestrator) {
		o.watcher = w
	}
}

// IngestionOrchestrator fetches, normalises, snapshots and indexes
// provider plans.
type IngestionOrchestrator struct {
	fetcher    driven.PlanFetcher
	normaliser driven.PlanNormaliser
	builder    driven.DocumentBuilder
	index      driving.PlanIndex
	snapshots  driven.SnapshotStore
	watcher    driven.PlanWatcher
	log        *logger.Logger
	now        func() time.Time

	// Status tracking
	mu            sync.RWMutex
	activeIngests map[string]*driving.IngestStatus
}

// NewIngestionOrchestrator creates a new ingestion orchestrator.
func NewIngestionOrchestrator(
	fetcher driven.PlanFetcher,
	normaliser driven.PlanNormaliser,
	builder driven.DocumentBuilder,
	index driving.PlanIndex,
	snapshots driven.SnapshotStore,
	log *logger.Logger,
	opts ...IngestOption,
) *IngestionOrchestrator {
	if log == nil {
		log = logger.Nop()
	}
	o := &IngestionOrchestrator{
		fetcher:       fetcher,
		normaliser:    normaliser,
		builder:       builder,
		index:         index,
		snapshots:     snapshots,
		log:           log.Named("ingest"),
		now:           time.Now,
		activeIngests: make(map[string]*driving.IngestStatus),
	}
	if w, ok := fetcher.(driven.PlanWatcher); ok {
		o.watcher = w
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// providerData is what one acquisition produced.
type providerData struct {
	plans        []domain.CanonicalPlan
	skipped      int
	fromCache    bool
	snapshotPath string
}

// GetProviderData returns canonical plans for provider.
func (o *IngestionOrchestrator) GetProviderData(
	ctx context.Context, provider string, forceRefresh bool,
) ([]domain.CanonicalPlan, error) {
	provider, err := canonical(provider)
	if err != nil {
		return nil, err
	}
	data, err := o.acquire(ctx, provider, forceRefresh)
	if err != nil {
		return nil, err
	}
	return data.plans, nil
}

// acquire returns the latest snapshot unless forceRefresh is set, otherwise
// it fetches, normalises and snapshots fresh plans.
func (o *IngestionOrchestrator) acquire(ctx context.Context, provider string, forceRefresh bool) (*providerData, error) {
	if !forceRefresh {
		snap, err := o.snapshots.Latest(ctx, provider)
		switch {
		case err == nil && len(snap.Plans) == 0:
			o.log.Debug("snapshot for %s holds no plans, fetching", provider)
		case err == nil:
			o.log.Debug("using snapshot for %s (%d plans, %s)",
				provider, len(snap.Plans), snap.ScrapedAt.Format(time.RFC3339))
			return &providerData{plans: snap.Plans, fromCache: true}, nil
		case errors.Is(err, domain.ErrNotFound):
			o.log.Debug("no snapshot for %s, fetching", provider)
		default:
			o.log.Warn("reading snapshot for %s failed, fetching: %v", provider, err)
		}
	}

	records, err := o.fetcher.Fetch(ctx, provider)
	if err != nil {
		return nil, domain.NewError(domain.KindOf(err), "ingest.fetch",
			fmt.Errorf("fetch %s via %s: %w", provider, o.fetcher.Name(), err))
	}
	if len(records) == 0 {
		o.log.Warn("no plan records available for %s", provider)
		return &providerData{plans: []domain.CanonicalPlan{}}, nil
	}

	// Removal is keyed on the requested provider, so every record is filed
	// under it whatever the source called it.
	for i := range records {
		records[i].Provider = provider
	}

	result := o.normaliser.Normalise(ctx, records)
	if result.Skipped > 0 {
		o.log.Warn("skipped %d of %d records for %s", result.Skipped, len(records), provider)
	}
	if len(result.Plans) == 0 {
		o.log.Warn("no usable plans for %s, snapshot not written", provider)
		return &providerData{plans: []domain.CanonicalPlan{}, skipped: result.Skipped}, nil
	}

	snap := domain.NewProviderSnapshot(provider, result.Plans, o.now())
	path, err := o.snapshots.Save(ctx, snap)
	if err != nil {
		return nil, domain.NewError(domain.KindUpstream, "ingest.snapshot",
			fmt.Errorf("save snapshot for %s: %w", provider, err))
	}
	o.log.Info("saved %d plans for %s to %s", snap.PlanCount, provider, path)

	return &providerData{
		plans:        snap.Plans,
		skipped:      result.Skipped,
		snapshotPath: path,
	}, nil
}

// Ingest obtains plans for provider and replaces its documents in the index.
// A provider with no plans available leaves its indexed documents in place.
func (o *IngestionOrchestrator) Ingest(
	ctx context.Context, provider string, forceRefresh bool,
) (report *domain.IngestReport, err error) {
	provider, err = canonical(provider)
	if err != nil {
		return nil, err
	}

	status := &driving.IngestStatus{Provider: provider, Running: true}
	if !o.begin(provider, status) {
		return nil, domain.NewError(domain.KindInvalidInput, "ingest",
			fmt.Errorf("%w: %s", domain.ErrIngestInProgress, provider))
	}
	defer o.clearStatus(provider)

	ctx, span := observability.StartIngestSpan(ctx, provider, forceRefresh)
	defer func() {
		observability.RecordIngestResult(span, report)
		observability.RecordError(span, err)
		span.End()
	}()

	o.log.Section("Ingest " + provider)

	data, err := o.acquire(ctx, provider, forceRefresh)
	if err != nil {
		return nil, err
	}
	o.updateStatus(provider, len(data.plans), data.skipped)

	report = &domain.IngestReport{
		Provider:     provider,
		Plans:        len(data.plans),
		Skipped:      data.skipped,
		FromCache:    data.fromCache,
		SnapshotPath: data.snapshotPath,
	}
	if len(data.plans) == 0 {
		return report, nil
	}

	docs := o.builder.Build(data.plans)
	if err := o.index.ReplaceForProvider(ctx, docs, provider); err != nil {
		return nil, fmt.Errorf("index %s: %w", provider, err)
	}
	report.Documents = len(docs)

	o.log.Info("indexed %d documents for %s", report.Documents, provider)
	return report, nil
}

// IngestAll ingests each provider in turn.
func (o *IngestionOrchestrator) IngestAll(
	ctx context.Context, providers []string, forceRefresh bool,
) ([]domain.IngestReport, error) {
	reports := make([]domain.IngestReport, 0, len(providers))

	var errs []error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := o.Ingest(ctx, p, forceRefresh)
		if err != nil {
			errs = append(errs, fmt.Errorf("ingest %s: %w", p, err))
			continue
		}
		reports = append(reports, *report)
	}

	if len(errs) > 0 {
		return reports, errors.Join(errs...)
	}
	return reports, nil
}

// Watch re-ingests each provider the watcher reports, bypassing snapshots.
// It returns when ctx is cancelled or the watcher stops.
func (o *IngestionOrchestrator) Watch(ctx context.Context) error {
	if o.watcher == nil {
		return domain.NewError(domain.KindConfiguration, "ingest.watch",
			fmt.Errorf("%w: %s fetcher cannot watch for changes", domain.ErrConfiguration, o.fetcher.Name()))
	}

	events, err := o.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	o.log.Info("watching %s for plan changes", o.fetcher.Name())

	for {
		select {
		case <-ctx.Done():
			return nil
		case provider, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := o.Ingest(ctx, provider, true); err != nil {
				o.log.Error("re-ingest %s: %v", provider, err)
			}
		}
	}
}

// Status returns ingestion status for a provider.
func (o *IngestionOrchestrator) Status(_ context.Context, provider string) (*driving.IngestStatus, error) {
	provider = domain.CanonicalProvider(provider)

	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeIngests[provider]; ok {
		cp := *status
		return &cp, nil
	}
	return &driving.IngestStatus{Provider: provider}, nil
}

// ListSnapshots returns snapshot names for provider, oldest first.
func (o *IngestionOrchestrator) ListSnapshots(ctx context.Context, provider string) ([]string, error) {
	provider, err := canonical(provider)
	if err != nil {
		return nil, err
	}
	names, err := o.snapshots.List(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", provider, err)
	}
	return names, nil
}

// ClearSnapshots deletes all snapshots for provider. Indexed documents are
// not touched.
func (o *IngestionOrchestrator) ClearSnapshots(ctx context.Context, provider string) (int, error) {
	provider, err := canonical(provider)
	if err != nil {
		return 0, err
	}
	n, err := o.snapshots.Remove(ctx, provider)
	if err != nil {
		return n, fmt.Errorf("clear snapshots for %s: %w", provider, err)
	}
	o.log.Info("removed %d snapshots for %s", n, provider)
	return n, nil
}

// begin registers status unless provider already has a run in progress.
func (o *IngestionOrchestrator) begin(provider string, status *driving.IngestStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.activeIngests[provider]; running {
		return false
	}
	o.activeIngests[provider] = status
	return true
}

func (o *IngestionOrchestrator) updateStatus(provider string, plans, skipped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeIngests[provider]; ok {
		status.PlansProcessed = plans
		status.Skipped = skipped
	}
}

// clearStatus removes the ingest status for a provider.
func (o *IngestionOrchestrator) clearStatus(provider string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeIngests, provider)
}

// canonical resolves provider to its display name.
func canonical(provider string) (string, error) {
	p := domain.CanonicalProvider(provider)
	if p == "" {
		return "", domain.NewError(domain.KindInvalidInput, "ingest",
			fmt.Errorf("%w: provider is required", domain.ErrInvalidInput))
	}
	return p, nil
}
