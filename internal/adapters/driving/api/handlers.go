package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// searchResponse is returned by GET /search.
type searchResponse struct {
	Query   string             `json:"query"`
	Results []domain.SearchHit `json:"results"`
	Count   int                `json:"count"`
}

// plansResponse is returned by GET /providers/:provider/plans.
type plansResponse struct {
	Provider string                   `json:"provider"`
	Plans    []domain.IndexedDocument `json:"plans"`
	Count    int                      `json:"count"`
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
	}

	k := c.QueryInt("k", domain.DefaultSearchLimit)
	provider := c.Query("provider")
	if provider != "" {
		provider = domain.CanonicalProvider(provider)
	}

	hits, err := s.index.Search(c.UserContext(), query, k, provider).Unwrap()
	if err != nil {
		return err
	}
	return c.JSON(searchResponse{Query: query, Results: hits, Count: len(hits)})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.index.Stats(c.UserContext()).Unwrap()
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (s *Server) handleProviderPlans(c *fiber.Ctx) error {
	provider := domain.CanonicalProvider(c.Params("provider"))
	limit := c.QueryInt("limit", domain.DefaultProviderListingLimit)

	docs, err := s.index.SearchByProvider(c.UserContext(), provider, limit).Unwrap()
	if err != nil {
		return err
	}
	return c.JSON(plansResponse{Provider: provider, Plans: docs, Count: len(docs)})
}

func (s *Server) handleRemoveProvider(c *fiber.Ctx) error {
	provider := domain.CanonicalProvider(c.Params("provider"))

	removed, err := s.index.RemoveForProvider(c.UserContext(), provider).Unwrap()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"provider": provider, "removed": removed})
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	refresh := c.QueryBool("refresh", false)

	report, err := s.ingest.Ingest(c.UserContext(), c.Params("provider"), refresh)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
