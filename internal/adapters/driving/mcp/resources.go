package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for planscout resources.
	uriScheme = "planscout://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers",
		Name:        "providers",
		Description: "Carriers with indexed plans and their plan counts",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "providers/{provider}/plans",
		Name:        "provider-plans",
		Description: "Plans indexed for a specific carrier",
		MIMEType:    "application/json",
	}, s.handleProviderPlansResource)
}

// providerInfo is one entry of the providers resource.
type providerInfo struct {
	Name  string `json:"name"`
	Plans int    `json:"plans"`
	Known bool   `json:"known"`
}

// handleProvidersResource lists every known carrier plus any other carrier
// that has indexed plans.
func (s *Server) handleProvidersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Index.Stats(ctx).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	infos := make([]providerInfo, 0, len(domain.KnownProviders)+len(stats.ProviderCounts))
	for _, p := range domain.KnownProviders {
		infos = append(infos, providerInfo{Name: p, Plans: stats.ProviderCounts[p], Known: true})
	}
	var others []string
	for p := range stats.ProviderCounts {
		if !domain.IsKnownProvider(p) {
			others = append(others, p)
		}
	}
	sort.Strings(others)
	for _, p := range others {
		infos = append(infos, providerInfo{Name: p, Plans: stats.ProviderCounts[p]})
	}

	return jsonResource(req.Params.URI, infos)
}

// handleProviderPlansResource returns the plans for the carrier in the URI.
func (s *Server) handleProviderPlansResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	provider := extractProvider(req.Params.URI)
	if provider == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Index.SearchByProvider(ctx, domain.CanonicalProvider(provider), 0).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}

	plans := make([]PlanOutput, len(docs))
	for i, d := range docs {
		plans[i] = planOutput(d.ID, d.Document)
	}
	return jsonResource(req.Params.URI, plans)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProvider extracts the provider from a URI like planscout://providers/{provider}/plans.
func extractProvider(uri string) string {
	const prefix = uriScheme + "providers/"
	const suffix = "/plans"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	provider := strings.TrimSuffix(uri, suffix)
	if unescaped, err := url.PathUnescape(provider); err == nil {
		return unescaped
	}
	return provider
}
