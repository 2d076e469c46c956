package mcp

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
)

// mockPlanIndex is a mock implementation of driving.PlanIndex.
type mockPlanIndex struct {
	hits  []domain.SearchHit
	docs  []domain.IndexedDocument
	stats domain.IndexStats
	err   error

	lastQuery    string
	lastK        int
	lastProvider string
}

func (m *mockPlanIndex) Add(_ context.Context, _ []domain.Document) error {
	return m.err
}

func (m *mockPlanIndex) ReplaceForProvider(_ context.Context, _ []domain.Document, _ string) error {
	return m.err
}

func (m *mockPlanIndex) RemoveForProvider(_ context.Context, _ string) domain.Result[int] {
	if m.err != nil {
		return domain.Fail(0, m.err)
	}
	return domain.Ok(len(m.docs))
}

func (m *mockPlanIndex) Search(_ context.Context, query string, k int, provider string) domain.Result[[]domain.SearchHit] {
	m.lastQuery, m.lastK, m.lastProvider = query, k, provider
	if m.err != nil {
		return domain.Fail([]domain.SearchHit{}, m.err)
	}
	return domain.Ok(m.hits)
}

func (m *mockPlanIndex) SearchByProvider(_ context.Context, provider string, limit int) domain.Result[[]domain.IndexedDocument] {
	m.lastProvider, m.lastK = provider, limit
	if m.err != nil {
		return domain.Fail([]domain.IndexedDocument{}, m.err)
	}
	return domain.Ok(m.docs)
}

func (m *mockPlanIndex) Stats(_ context.Context) domain.Result[domain.IndexStats] {
	if m.err != nil {
		return domain.Fail(domain.EmptyStats("", ""), m.err)
	}
	return domain.Ok(m.stats)
}

func (m *mockPlanIndex) Clear(_ context.Context) error {
	return m.err
}

// mockIngestion is a mock implementation of driving.IngestionService.
type mockIngestion struct {
	report *domain.IngestReport
	err    error

	lastProvider string
	lastRefresh  bool
}

func (m *mockIngestion) GetProviderData(_ context.Context, _ string, _ bool) ([]domain.CanonicalPlan, error) {
	return nil, m.err
}

func (m *mockIngestion) Ingest(_ context.Context, provider string, refresh bool) (*domain.IngestReport, error) {
	m.lastProvider, m.lastRefresh = provider, refresh
	return m.report, m.err
}

func (m *mockIngestion) IngestAll(_ context.Context, _ []string, _ bool) ([]domain.IngestReport, error) {
	return nil, m.err
}

func (m *mockIngestion) Watch(_ context.Context) error {
	return m.err
}

func (m *mockIngestion) Status(_ context.Context, provider string) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{Provider: provider}, m.err
}

func (m *mockIngestion) ListSnapshots(_ context.Context, _ string) ([]string, error) {
	return nil, m.err
}

func (m *mockIngestion) ClearSnapshots(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func planHit(id, name, provider string, score float64) domain.SearchHit {
	return domain.SearchHit{
		ID: id,
		Document: domain.Document{
			Text: "Plan Name: " + name,
			Metadata: domain.DocumentMetadata{
				Name:         name,
				Provider:     provider,
				PriceDisplay: "$90/month",
				DataDisplay:  "Unlimited",
				URL:          "https://example.com/" + id,
			},
		},
		Score: score,
	}
}
