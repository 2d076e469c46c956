package domain

// IngestReport summarises one provider ingestion run.
type IngestReport struct {
	// Provider is the canonical provider name.
	Provider string `json:"provider"`

	// Plans is the number of canonical plans obtained.
	Plans int `json:"plans"`

	// Skipped is the number of raw records the normaliser rejected.
	Skipped int `json:"skipped"`

	// Documents is the number of documents written to the index.
	Documents int `json:"documents"`

	// FromCache is true when plans came from an existing snapshot.
	FromCache bool `json:"from_cache"`

	// SnapshotPath is the snapshot written by this run, if any.
	SnapshotPath string `json:"snapshot_path,omitempty"`
}
