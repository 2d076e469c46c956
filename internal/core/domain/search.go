package domain

// MetadataFilter restricts store queries by metadata.
// The zero value matches everything.
type MetadataFilter struct {
	// Provider, when set, must equal the document's provider exactly.
	// The comparison is case-sensitive.
	Provider string
}

// IsEmpty reports whether the filter matches everything.
func (f MetadataFilter) IsEmpty() bool {
	return f.Provider == ""
}

// Matches reports whether metadata passes the filter.
func (f MetadataFilter) Matches(m DocumentMetadata) bool {
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	return true
}

// StoredHit is a ranked result from a backing store.
type StoredHit struct {
	// Document is the store's own copy of the id, text and metadata.
	Document IndexedDocument

	// Score is the cosine similarity to the query vector.
	Score float64
}

// SearchHit is a ranked document returned to callers of the index.
type SearchHit struct {
	// ID is the indexed document id.
	ID string `json:"id"`

	// Document is the text and metadata.
	Document Document `json:"document"`

	// Score is the cosine similarity (higher is closer).
	Score float64 `json:"score"`
}

// IndexStats summarises the collection.
type IndexStats struct {
	// TotalDocuments is the number of stored documents.
	TotalDocuments int `json:"total_documents"`

	// ProviderCounts maps provider to its document count.
	ProviderCounts map[string]int `json:"provider_counts"`

	// CollectionName is the logical namespace.
	CollectionName string `json:"collection_name"`

	// Backend names the backing store.
	Backend string `json:"backend"`
}

// EmptyStats returns the zeroed statistics structure.
func EmptyStats(collection, backend string) IndexStats {
	return IndexStats{
		ProviderCounts: map[string]int{},
		CollectionName: collection,
		Backend:        backend,
	}
}
