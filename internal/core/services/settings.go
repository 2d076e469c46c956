package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedBatchSize    = "embedding.batch_size"
	KeyEmbedTimeout      = "embedding.timeout_seconds"
	KeyEmbedRPS          = "embedding.requests_per_second"
	KeyEmbedMaxRetries   = "embedding.max_retries"
	KeyIndexBackend      = "index.backend"
	KeyIndexCollection   = "index.collection"
	KeyIndexEmbedBatch   = "index.embed_batch_size"
	KeyIndexWriteBatch   = "index.write_batch_size"
	KeyIndexDataDir      = "index.data_dir"
	KeyQdrantHost        = "qdrant.host"
	KeyQdrantPort        = "qdrant.port"
	KeyPostgresDSN       = "postgres.dsn"
	KeySnapshotDir       = "snapshot.dir"
	KeyFeedDir           = "feed.dir"
	KeyTelemetryEndpoint = "telemetry.otlp_endpoint"
	KeyTelemetrySample   = "telemetry.sample_rate"
	KeyServerAddr        = "server.addr"
)

// Environment variables that override the file.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvPostgresDSN = "PLANSCOUT_POSTGRES_DSN"
)

// knownKeys lists the keys Set accepts.
var knownKeys = map[string]bool{
	KeyEmbedProvider: true, KeyEmbedModel: true, KeyEmbedBaseURL: true, KeyEmbedAPIKey: true,
	KeyEmbedBatchSize: true, KeyEmbedTimeout: true, KeyEmbedRPS: true, KeyEmbedMaxRetries: true,
	KeyIndexBackend: true, KeyIndexCollection: true, KeyIndexEmbedBatch: true, KeyIndexWriteBatch: true,
	KeyIndexDataDir: true, KeyQdrantHost: true, KeyQdrantPort: true, KeyPostgresDSN: true,
	KeySnapshotDir: true, KeyFeedDir: true, KeyTelemetryEndpoint: true, KeyTelemetrySample: true,
	KeyServerAddr: true,
}

// SettingsService builds domain.Config from the config store, defaults
// and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces the environment lookup. Used in tests.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// NewSettingsService creates a new settings service. Directory defaults
// are rooted at baseDir (normally ~/.planscout).
func NewSettingsService(configStore driven.ConfigStore, baseDir string, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the effective configuration. Unknown provider or backend
// names are kept as-is so Validate can report them.
func (s *SettingsService) Load() (domain.Config, error) {
	cfg := domain.DefaultConfig(s.baseDir)

	cfg.Embedding.Provider = domain.AIProvider(s.getString(KeyEmbedProvider, string(cfg.Embedding.Provider)))
	cfg.Embedding.Model = s.getString(KeyEmbedModel, cfg.Embedding.Model)
	cfg.Embedding.BaseURL = s.configStore.GetString(KeyEmbedBaseURL)
	cfg.Embedding.APIKey = s.configStore.GetString(KeyEmbedAPIKey)
	cfg.Embedding.BatchSize = s.getInt(KeyEmbedBatchSize, cfg.Embedding.BatchSize)
	cfg.Embedding.Timeout = time.Duration(s.getInt(KeyEmbedTimeout, int(cfg.Embedding.Timeout/time.Second))) * time.Second
	cfg.Embedding.RequestsPerSecond = s.getFloat(KeyEmbedRPS, cfg.Embedding.RequestsPerSecond)
	cfg.Embedding.MaxRetries = s.getInt(KeyEmbedMaxRetries, cfg.Embedding.MaxRetries)

	cfg.Index.Backend = domain.IndexBackend(s.getString(KeyIndexBackend, string(cfg.Index.Backend)))
	cfg.Index.Collection = s.getString(KeyIndexCollection, cfg.Index.Collection)
	cfg.Index.EmbedBatchSize = s.getInt(KeyIndexEmbedBatch, cfg.Index.EmbedBatchSize)
	cfg.Index.WriteBatchSize = s.getInt(KeyIndexWriteBatch, cfg.Index.WriteBatchSize)
	cfg.Index.DataDir = s.getString(KeyIndexDataDir, cfg.Index.DataDir)

	cfg.Qdrant.Host = s.getString(KeyQdrantHost, cfg.Qdrant.Host)
	cfg.Qdrant.Port = s.getInt(KeyQdrantPort, cfg.Qdrant.Port)
	cfg.Postgres.DSN = s.configStore.GetString(KeyPostgresDSN)
	cfg.Snapshot.Dir = s.getString(KeySnapshotDir, cfg.Snapshot.Dir)
	cfg.Feed.Dir = s.getString(KeyFeedDir, cfg.Feed.Dir)
	cfg.Telemetry.OTLPEndpoint = s.configStore.GetString(KeyTelemetryEndpoint)
	cfg.Telemetry.SampleRate = s.getFloat(KeyTelemetrySample, cfg.Telemetry.SampleRate)
	cfg.Server.Addr = s.getString(KeyServerAddr, cfg.Server.Addr)

	if key := s.getenv(EnvOpenAIKey); key != "" {
		cfg.Embedding.APIKey = key
	}
	if dsn := s.getenv(EnvPostgresDSN); dsn != "" {
		cfg.Postgres.DSN = dsn
	}

	return cfg, nil
}

// Set persists a single known key.
func (s *SettingsService) Set(key string, value any) error {
	if !knownKeys[key] {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}
