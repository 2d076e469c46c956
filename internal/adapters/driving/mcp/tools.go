package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// SearchPlansInput is the input schema for the search_plans tool.
type SearchPlansInput struct {
	Query    string `json:"query" jsonschema:"what the user is looking for, e.g. unlimited plan with hotspot"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of plans to return (default 5)"`
	Provider string `json:"provider,omitempty" jsonschema:"restrict results to one carrier, e.g. Verizon"`
}

// SearchPlansOutput is the output schema for the search_plans tool.
type SearchPlansOutput struct {
	Results []PlanOutput `json:"results"`
	Count   int          `json:"count"`
}

// PlanOutput represents a single plan.
type PlanOutput struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Provider string  `json:"provider"`
	Price    string  `json:"price"`
	Data     string  `json:"data"`
	URL      string  `json:"url,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// ProviderPlansInput is the input schema for the provider_plans tool.
type ProviderPlansInput struct {
	Provider string `json:"provider" jsonschema:"carrier name, e.g. AT&T"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of plans to return (default 10)"`
}

// ProviderPlansOutput is the output schema for the provider_plans tool.
type ProviderPlansOutput struct {
	Provider string       `json:"provider"`
	Plans    []PlanOutput `json:"plans"`
	Count    int          `json:"count"`
}

// StatsInput is the (empty) input schema for the index_stats tool.
type StatsInput struct{}

// IngestInput is the input schema for the ingest_provider tool.
type IngestInput struct {
	Provider string `json:"provider" jsonschema:"carrier name to refresh"`
	Refresh  bool   `json:"refresh,omitempty" jsonschema:"ignore the latest snapshot and fetch fresh records"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_plans",
		Description: "Find mobile plans matching a natural-language request",
	}, s.handleSearchPlans)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "provider_plans",
		Description: "List the indexed plans of one carrier",
	}, s.handleProviderPlans)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report how many plans are indexed per carrier",
	}, s.handleIndexStats)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_provider",
			Description: "Fetch a carrier's plans and replace them in the index",
		}, s.handleIngest)
	}
}

func (s *Server) handleSearchPlans(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPlansInput,
) (*mcp.CallToolResult, SearchPlansOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	provider := ""
	if input.Provider != "" {
		provider = domain.CanonicalProvider(input.Provider)
	}

	hits, err := s.ports.Index.Search(ctx, input.Query, limit, provider).Unwrap()
	if err != nil {
		return nil, SearchPlansOutput{}, fmt.Errorf("searching plans: %w", err)
	}

	output := SearchPlansOutput{
		Results: make([]PlanOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = planOutput(h.ID, h.Document)
		output.Results[i].Score = h.Score
	}
	return nil, output, nil
}

func (s *Server) handleProviderPlans(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderPlansInput,
) (*mcp.CallToolResult, ProviderPlansOutput, error) {
	if input.Provider == "" {
		return nil, ProviderPlansOutput{}, errors.New("provider is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultProviderListingLimit
	}

	provider := domain.CanonicalProvider(input.Provider)
	docs, err := s.ports.Index.SearchByProvider(ctx, provider, limit).Unwrap()
	if err != nil {
		return nil, ProviderPlansOutput{}, fmt.Errorf("listing plans: %w", err)
	}

	output := ProviderPlansOutput{
		Provider: provider,
		Plans:    make([]PlanOutput, len(docs)),
		Count:    len(docs),
	}
	for i, d := range docs {
		output.Plans[i] = planOutput(d.ID, d.Document)
	}
	return nil, output, nil
}

func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.IndexStats, error) {
	stats, err := s.ports.Index.Stats(ctx).Unwrap()
	if err != nil {
		return nil, domain.IndexStats{}, fmt.Errorf("reading stats: %w", err)
	}
	return nil, stats, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestReport, error) {
	report, err := s.ports.Ingest.Ingest(ctx, input.Provider, input.Refresh)
	if err != nil {
		return nil, domain.IngestReport{}, fmt.Errorf("ingesting %s: %w", input.Provider, err)
	}
	return nil, *report, nil
}

// planOutput flattens a document for tool output.
func planOutput(id string, doc domain.Document) PlanOutput {
	return PlanOutput{
		ID:       id,
		Name:     doc.Metadata.Name,
		Provider: doc.Metadata.Provider,
		Price:    doc.Metadata.PriceDisplay,
		Data:     doc.Metadata.DataDisplay,
		URL:      doc.Metadata.URL,
		Text:     doc.Text,
	}
}
