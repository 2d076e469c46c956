package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Source tags. Canonical plans carry SourceTagWebScraping;
// document metadata carries SourceTagPlanDetails.
const (
	SourceTagWebScraping = "web_scraping"
	SourceTagPlanDetails = "plan_details"
)

// PlanRecord is a raw plan as yielded by a content-retrieval connector.
// Price and Data are free-form strings; nothing has been validated yet.
type PlanRecord struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Data     string   `json:"data"`
	Features []string `json:"features"`
	URL      string   `json:"url"`
	Provider string   `json:"provider"`
	Extra    Extra    `json:"additional_info,omitempty"`
}

// UnmarshalJSON decodes a raw record. Feeds are loosely typed: numeric or
// boolean scalars are kept as their JSON text, and non-string feature
// entries are dropped rather than failing the record.
func (r *PlanRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     looseString `json:"name"`
		Price    looseString `json:"price"`
		Data     looseString `json:"data"`
		Features []any       `json:"features"`
		URL      looseString `json:"url"`
		Provider looseString `json:"provider"`
		Extra    Extra       `json:"additional_info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	features := make([]string, 0, len(raw.Features))
	for _, f := range raw.Features {
		if s, ok := f.(string); ok {
			features = append(features, s)
		}
	}

	*r = PlanRecord{
		Name:     string(raw.Name),
		Price:    string(raw.Price),
		Data:     string(raw.Data),
		Features: features,
		URL:      string(raw.URL),
		Provider: string(raw.Provider),
		Extra:    raw.Extra,
	}
	return nil
}

// looseString accepts a JSON string, number, boolean or null.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*l = ""
	case string:
		*l = looseString(t)
	case json.Number:
		*l = looseString(t.String())
	case bool:
		*l = looseString(strconv.FormatBool(t))
	default:
		return fmt.Errorf("expected a scalar, got %s", bytes.TrimSpace(data))
	}
	return nil
}

// CanonicalPlan is a plan record after normalisation.
// PriceNumeric is the value parsed from the raw price; when parsing fails it
// is zero and PriceDisplay holds the original string.
type CanonicalPlan struct {
	Name         string    `json:"name"`
	PriceDisplay string    `json:"price"`
	PriceNumeric float64   `json:"price_numeric"`
	DataDisplay  string    `json:"data"`
	Features     []string  `json:"features"`
	URL          string    `json:"url"`
	Provider     string    `json:"provider"`
	Extra        Extra     `json:"additional_info"`
	ProcessedAt  time.Time `json:"processed_at"`
	SourceTag    string    `json:"data_source"`
}
