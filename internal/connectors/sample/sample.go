// Package sample serves a small built-in set of plan records. It lets the
// pipeline run end to end without any feed files.
package sample

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// Name is the connector type identifier.
const Name = "sample"

// Ensure Fetcher implements the interface.
var _ driven.PlanFetcher = (*Fetcher)(nil)

// Fetcher returns the built-in records.
type Fetcher struct{}

// New creates a sample fetcher.
func New() *Fetcher {
	return &Fetcher{}
}

// Name returns the connector type identifier.
func (f *Fetcher) Name() string {
	return Name
}

// Fetch returns the sample records for provider. Only Verizon has any.
func (f *Fetcher) Fetch(_ context.Context, provider string) ([]domain.PlanRecord, error) {
	if domain.CanonicalProvider(provider) != domain.ProviderVerizon {
		return []domain.PlanRecord{}, nil
	}
	return Records(), nil
}

// Close is a no-op.
func (f *Fetcher) Close() error {
	return nil
}

// Records returns a fresh copy of the sample records.
func Records() []domain.PlanRecord {
	terms := domain.NewExtra(
		"contract", "No contract required",
		"autopay_discount", "$10",
	)
	return []domain.PlanRecord{
		{
			Name:  "5G Get More",
			Price: "$90/month",
			Data:  "Unlimited",
			Features: []string{
				"5G Ultra Wideband access",
				"Premium unlimited data",
				"30GB premium mobile hotspot",
				"HD streaming included",
				"Disney+ bundle included",
				"International texting to 200+ countries",
				"Cloud storage included",
			},
			URL:      "https://www.verizon.com/plans/5g-get-more",
			Provider: domain.ProviderVerizon,
			Extra:    terms.Clone(),
		},
		{
			Name:  "5G Play More",
			Price: "$80/month",
			Data:  "Unlimited",
			Features: []string{
				"5G Ultra Wideband access",
				"Premium unlimited data",
				"15GB premium mobile hotspot",
				"HD streaming included",
				"Disney+ bundle included",
				"International texting to 200+ countries",
			},
			URL:      "https://www.verizon.com/plans/5g-play-more",
			Provider: domain.ProviderVerizon,
			Extra:    terms.Clone(),
		},
	}
}
