package driven

import (
	"context"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// PlanNormaliser converts raw plan records into canonical plans.
// A malformed record is skipped; it never aborts the batch.
type PlanNormaliser interface {
	// Normalise canonicalises records, preserving input order.
	Normalise(ctx context.Context, records []domain.PlanRecord) NormaliseResult
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Plans are the canonical plans, in input order.
	Plans []domain.CanonicalPlan

	// Skipped counts records that could not be normalised.
	Skipped int
}

// DocumentBuilder renders canonical plans into indexable documents.
// Rendering is deterministic: the same plan always yields the same text.
type DocumentBuilder interface {
	// Build returns one document per plan, in input order.
	Build(plans []domain.CanonicalPlan) []domain.Document
}
