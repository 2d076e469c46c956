package domain

import (
	"strings"
	"time"
	"unicode"
)

// SnapshotTimeLayout is the sortable timestamp embedded in snapshot filenames.
const SnapshotTimeLayout = "20060102_150405"

// ProviderSnapshot is a persisted capture of one provider's canonical plans
// from one ingestion run. Snapshots are write-once.
type ProviderSnapshot struct {
	Provider  string          `json:"provider"`
	ScrapedAt time.Time       `json:"scraped_at"`
	PlanCount int             `json:"plan_count"`
	Plans     []CanonicalPlan `json:"plans"`
}

// NewProviderSnapshot captures plans for provider at the given time.
func NewProviderSnapshot(provider string, plans []CanonicalPlan, at time.Time) ProviderSnapshot {
	if plans == nil {
		plans = []CanonicalPlan{}
	}
	return ProviderSnapshot{
		Provider:  provider,
		ScrapedAt: at,
		PlanCount: len(plans),
		Plans:     plans,
	}
}

// ProviderSlug returns the filename form of a provider name: lowercased,
// with spaces and any character outside letters, digits, '-', '&' and '+'
// replaced by underscores. The slug never contains a path separator or dot.
func ProviderSlug(provider string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-', r == '&', r == '+':
			return r
		default:
			return '_'
		}
	}, provider)
}

// SnapshotFilename returns the filename for a snapshot taken at t.
func SnapshotFilename(provider string, t time.Time) string {
	return ProviderSlug(provider) + "_" + t.Format(SnapshotTimeLayout) + ".json"
}
