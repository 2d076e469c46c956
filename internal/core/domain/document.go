package domain

// Metadata keys used by backing stores. These are the payload field names
// persisted alongside each vector.
const (
	MetaName     = "name"
	MetaProvider = "provider"
	MetaPrice    = "price"
	MetaData     = "data"
	MetaURL      = "url"
	MetaSource   = "source"
)

// DocumentMetadata is the subset of a canonical plan needed for
// filtering and display. It never carries the feature list.
type DocumentMetadata struct {
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	PriceDisplay string `json:"price"`
	DataDisplay  string `json:"data"`
	URL          string `json:"url"`
	SourceTag    string `json:"source"`
}

// Map returns the metadata as a flat string map.
func (m DocumentMetadata) Map() map[string]string {
	return map[string]string{
		MetaName:     m.Name,
		MetaProvider: m.Provider,
		MetaPrice:    m.PriceDisplay,
		MetaData:     m.DataDisplay,
		MetaURL:      m.URL,
		MetaSource:   m.SourceTag,
	}
}

// MetadataFromMap rebuilds metadata from a flat string map.
// Missing keys yield empty fields.
func MetadataFromMap(m map[string]string) DocumentMetadata {
	return DocumentMetadata{
		Name:         m[MetaName],
		Provider:     m[MetaProvider],
		PriceDisplay: m[MetaPrice],
		DataDisplay:  m[MetaData],
		URL:          m[MetaURL],
		SourceTag:    m[MetaSource],
	}
}

// Document is the indexable form of a canonical plan.
type Document struct {
	// Text is the rendered plan. This is what gets embedded.
	Text string `json:"text"`

	// Metadata carries the filter/display fields.
	Metadata DocumentMetadata `json:"metadata"`
}

// IndexedDocument is a document owned by the vector index.
type IndexedDocument struct {
	// ID is unique per insertion and sorts roughly by insertion time.
	ID string `json:"id"`

	// Document is the text and metadata.
	Document Document `json:"document"`

	// Vector is the embedding of Document.Text.
	Vector []float32 `json:"-"`
}

// Provider returns the provider metadata field.
func (d IndexedDocument) Provider() string {
	return d.Document.Metadata.Provider
}
