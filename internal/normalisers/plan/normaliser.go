// Package plan normalises raw mobile plan records into canonical plans.
package plan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.PlanNormaliser = (*Normaliser)(nil)

// Field limits and placeholders.
const (
	MaxNameLength    = 100
	MinFeatureLength = 3
	MaxFeatureLength = 150
	MaxFeatures      = 15
	UnknownPlanName  = "Unknown Plan"
	PriceUnavailable = "Price not available"
	DataUnspecified  = "Data amount not specified"
	UnlimitedData    = "Unlimited"
)

const priceFormat = "$%.0f/month"

// marketingPhrases are removed from plan names by literal substring match.
// The match is case-sensitive.
var marketingPhrases = []string{
	"Learn more",
	"See details",
	"View plan",
	"Select plan",
	"Starting at",
	"From",
	"As low as",
}

var (
	pricePattern = regexp.MustCompile(`(\d+(?:\.\d{2})?)`)
	dataPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(gb|mb|tb)`)
)

// Normaliser converts raw plan records into canonical plans.
type Normaliser struct {
	log *logger.Logger
	now func() time.Time
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithClock sets the time source used for ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Normaliser) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a new plan normaliser. A nil log discards output.
func New(log *logger.Logger, opts ...Option) *Normaliser {
	if log == nil {
		log = logger.Nop()
	}
	n := &Normaliser{log: log, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalise canonicalises records in input order. A record that cannot be
// processed is skipped and counted; the batch itself never fails.
func (n *Normaliser) Normalise(_ context.Context, records []domain.PlanRecord) driven.NormaliseResult {
	result := driven.NormaliseResult{Plans: make([]domain.CanonicalPlan, 0, len(records))}

	for i := range records {
		plan, err := n.normaliseRecord(records[i])
		if err != nil {
			n.log.Warn("skipping plan record %d (%q): %v", i, records[i].Name, err)
			result.Skipped++
			continue
		}
		result.Plans = append(result.Plans, plan)
	}

	n.log.Debug("normalised %d plans, skipped %d", len(result.Plans), result.Skipped)
	return result
}

func (n *Normaliser) normaliseRecord(r domain.PlanRecord) (plan domain.CanonicalPlan, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidInput, rec)
		}
	}()

	provider := strings.TrimSpace(r.Provider)
	if provider == "" {
		return domain.CanonicalPlan{}, fmt.Errorf("%w: missing provider", domain.ErrInvalidInput)
	}

	priceDisplay, priceNumeric := normalisePrice(r.Price)

	return domain.CanonicalPlan{
		Name:         cleanName(r.Name),
		PriceDisplay: priceDisplay,
		PriceNumeric: priceNumeric,
		DataDisplay:  normaliseData(r.Data),
		Features:     cleanFeatures(r.Features),
		URL:          strings.TrimSpace(r.URL),
		Provider:     provider,
		Extra:        r.Extra.Clone(),
		ProcessedAt:  n.now(),
		SourceTag:    domain.SourceTagWebScraping,
	}, nil
}

// collapseSpace trims s and replaces each whitespace run with one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanName collapses whitespace, strips marketing phrases and truncates.
func cleanName(name string) string {
	cleaned := collapseSpace(name)
	for _, phrase := range marketingPhrases {
		cleaned = strings.ReplaceAll(cleaned, phrase, "")
	}
	cleaned = collapseSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > MaxNameLength {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxNameLength]))
	}
	if cleaned == "" {
		return UnknownPlanName
	}
	return cleaned
}

// extractNumericPrice returns the first amount in price, or 0.
func extractNumericPrice(price string) float64 {
	stripped := strings.NewReplacer("$", "", ",", "").Replace(price)
	m := pricePattern.FindStringSubmatch(stripped)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// normalisePrice returns the display string and numeric value.
// When no positive amount is found the original string is kept.
func normalisePrice(price string) (string, float64) {
	if strings.TrimSpace(price) == "" {
		return PriceUnavailable, 0
	}
	v := extractNumericPrice(price)
	if v > 0 {
		return fmt.Sprintf(priceFormat, v), v
	}
	return price, 0
}

// normaliseData converts data allowances to GB.
func normaliseData(data string) string {
	lower := strings.ToLower(strings.TrimSpace(data))
	if lower == "" {
		return DataUnspecified
	}
	if strings.Contains(lower, "unlimited") {
		return UnlimitedData
	}

	m := dataPattern.FindStringSubmatch(lower)
	if m == nil {
		return data
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return data
	}

	switch m[2] {
	case "mb":
		return fmt.Sprintf("%.1fGB", v/1000)
	case "tb":
		return fmt.Sprintf("%.0fGB", v*1000)
	default:
		return fmt.Sprintf("%.0fGB", v)
	}
}

// cleanFeatures collapses whitespace, drops out-of-range lengths,
// removes case-insensitive duplicates and caps the list.
// Applying it twice gives the same result as applying it once.
func cleanFeatures(features []string) []string {
	cleaned := make([]string, 0, len(features))
	seen := make(map[string]struct{}, len(features))

	for _, f := range features {
		c := collapseSpace(f)
		length := utf8.RuneCountInString(c)
		if length < MinFeatureLength || length > MaxFeatureLength {
			continue
		}

		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, c)

		if len(cleaned) == MaxFeatures {
			break
		}
	}
	return cleaned
}
