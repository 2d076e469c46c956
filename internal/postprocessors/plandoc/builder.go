// Package plandoc renders canonical plans into indexable documents.
package plandoc

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.DocumentBuilder = (*Builder)(nil)

// NoURL is rendered when a plan has no URL.
const NoURL = "No URL provided"

// Builder renders plans as fixed-layout text with display metadata.
type Builder struct{}

// New creates a new document builder.
func New() *Builder {
	return &Builder{}
}

// Build returns one document per plan, in input order.
func (b *Builder) Build(plans []domain.CanonicalPlan) []domain.Document {
	docs := make([]domain.Document, 0, len(plans))
	for i := range plans {
		docs = append(docs, BuildOne(plans[i]))
	}
	return docs
}

// BuildOne renders a single plan. The output depends only on the plan.
func BuildOne(p domain.CanonicalPlan) domain.Document {
	return domain.Document{
		Text: renderText(p),
		Metadata: domain.DocumentMetadata{
			Name:         p.Name,
			Provider:     p.Provider,
			PriceDisplay: p.PriceDisplay,
			DataDisplay:  p.DataDisplay,
			URL:          p.URL,
			SourceTag:    domain.SourceTagPlanDetails,
		},
	}
}

func renderText(p domain.CanonicalPlan) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Plan Name: %s\n", p.Name)
	fmt.Fprintf(&sb, "Provider: %s\n", p.Provider)
	fmt.Fprintf(&sb, "Price: %s\n", p.PriceDisplay)
	fmt.Fprintf(&sb, "Data: %s\n", p.DataDisplay)

	if len(p.Features) > 0 {
		sb.WriteString("Features:\n")
		for _, f := range p.Features {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	if len(p.Extra) > 0 {
		sb.WriteString("Additional Information:\n")
		for _, f := range p.Extra {
			fmt.Fprintf(&sb, "- %s: %v\n", f.Key, f.Value)
		}
	}

	url := p.URL
	if url == "" {
		url = NoURL
	}
	fmt.Fprintf(&sb, "More information: %s", url)

	return sb.String()
}
