package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// Default configuration values.
const (
	DefaultEmbeddingModel       = "text-embedding-ada-002"
	DefaultEmbeddingBatchSize   = 20
	DefaultEmbeddingTimeout     = 60 * time.Second
	DefaultRequestsPerSecond    = 3.0
	DefaultEmbeddingMaxRetries  = 2
	DefaultCollection           = "telecom_plans"
	DefaultIndexEmbedBatchSize  = 20
	DefaultIndexWriteBatchSize  = 10
	DefaultQdrantHost           = "localhost"
	DefaultQdrantPort           = 6334
	DefaultServerAddr           = ":8080"
	DefaultTelemetrySampleRate  = 1.0
	DefaultSnapshotDirName      = "scraped_data"
	DefaultFeedDirName          = "feeds"
	DefaultDataDirName          = "data"
	DefaultSearchLimit          = 5
	DefaultProviderListingLimit = 10
)

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies the backing store behind the vector index.
type IndexBackend string

// Available backends.
const (
	BackendMemory   IndexBackend = "memory"
	BackendSQLite   IndexBackend = "sqlite"
	BackendQdrant   IndexBackend = "qdrant"
	BackendPostgres IndexBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case BackendMemory, BackendSQLite, BackendQdrant, BackendPostgres:
		return true
	default:
		return false
	}
}

// IsPersistent reports whether documents survive a process restart.
func (b IndexBackend) IsPersistent() bool {
	return b != BackendMemory
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty selects the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Timeout bounds each outbound request.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound requests.
	RequestsPerSecond float64

	// MaxRetries is the number of retries on 429/5xx before failing.
	MaxRetries int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the backing store.
	Backend IndexBackend

	// Collection is the logical namespace for all documents.
	Collection string

	// EmbedBatchSize is how many texts the index hands the embedder at once.
	EmbedBatchSize int

	// WriteBatchSize is how many documents are written to the store at once.
	WriteBatchSize int

	// DataDir holds the SQLite database.
	DataDir string
}

// QdrantSettings holds the Qdrant gRPC endpoint.
type QdrantSettings struct {
	Host string
	Port int
}

// PostgresSettings holds the Postgres connection string.
type PostgresSettings struct {
	DSN string
}

// SnapshotSettings holds provider snapshot storage configuration.
type SnapshotSettings struct {
	// Dir is where snapshot JSON files are written.
	Dir string
}

// FeedSettings holds the local plan feed configuration.
type FeedSettings struct {
	// Dir is scanned for <provider>*.json raw plan feeds.
	Dir string
}

// TelemetrySettings holds tracing configuration.
type TelemetrySettings struct {
	// OTLPEndpoint is the OTLP gRPC endpoint. Empty disables export.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64
}

// ServerSettings holds the HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// Config holds all application settings. It is built once at start-up
// and passed to each component's constructor.
type Config struct {
	Embedding EmbeddingSettings
	Index     IndexSettings
	Qdrant    QdrantSettings
	Postgres  PostgresSettings
	Snapshot  SnapshotSettings
	Feed      FeedSettings
	Telemetry TelemetrySettings
	Server    ServerSettings

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultConfig returns settings with defaults rooted at baseDir
// (normally ~/.planscout). Credentials are left empty.
func DefaultConfig(baseDir string) Config {
	return Config{
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOpenAI,
			Model:             DefaultEmbeddingModel,
			BatchSize:         DefaultEmbeddingBatchSize,
			Timeout:           DefaultEmbeddingTimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
			MaxRetries:        DefaultEmbeddingMaxRetries,
		},
		Index: IndexSettings{
			Backend:        BackendSQLite,
			Collection:     DefaultCollection,
			EmbedBatchSize: DefaultIndexEmbedBatchSize,
			WriteBatchSize: DefaultIndexWriteBatchSize,
			DataDir:        filepath.Join(baseDir, DefaultDataDirName),
		},
		Qdrant: QdrantSettings{
			Host: DefaultQdrantHost,
			Port: DefaultQdrantPort,
		},
		Snapshot: SnapshotSettings{
			Dir: filepath.Join(baseDir, DefaultSnapshotDirName),
		},
		Feed: FeedSettings{
			Dir: filepath.Join(baseDir, DefaultFeedDirName),
		},
		Telemetry: TelemetrySettings{
			SampleRate: DefaultTelemetrySampleRate,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// Validate checks the configuration. All problems are joined into a single
// error of kind KindConfiguration.
func (c Config) Validate() error {
	var errs []error

	if !c.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("embedding.provider %q: %w", c.Embedding.Provider, ErrUnsupportedType))
	}
	if c.Embedding.Provider.RequiresAPIKey() && c.Embedding.APIKey == "" {
		errs = append(errs, errors.New("embedding.api_key is required (set OPENAI_API_KEY)"))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, errors.New("embedding.batch_size must be positive"))
	}
	if c.Embedding.Timeout <= 0 {
		errs = append(errs, errors.New("embedding.timeout_seconds must be positive"))
	}
	if !c.Index.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("index.backend %q: %w", c.Index.Backend, ErrUnsupportedType))
	}
	if c.Index.Collection == "" {
		errs = append(errs, errors.New("index.collection is required"))
	}
	if c.Index.EmbedBatchSize <= 0 || c.Index.WriteBatchSize <= 0 {
		errs = append(errs, errors.New("index batch sizes must be positive"))
	}
	if c.Index.Backend == BackendPostgres && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required for the postgres backend"))
	}
	if c.Index.Backend == BackendQdrant && (c.Qdrant.Host == "" || c.Qdrant.Port <= 0) {
		errs = append(errs, errors.New("qdrant.host and qdrant.port are required for the qdrant backend"))
	}
	if c.Snapshot.Dir == "" {
		errs = append(errs, errors.New("snapshot.dir is required"))
	}

	if len(errs) == 0 {
		return nil
	}
	return NewError(KindConfiguration, "config.validate",
		fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...)))
}
