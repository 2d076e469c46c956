package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/planscout/internal/core/domain"
)

func noEnv(string) string { return "" }

func TestSettingsService_LoadDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), "/home/u/.planscout", WithEnv(noEnv))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig("/home/u/.planscout"), cfg)
	assert.Equal(t, filepath.Join("/home/u/.planscout", "scraped_data"), cfg.Snapshot.Dir)
}

func TestSettingsService_LoadFromStore(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		KeyEmbedProvider:   "ollama",
		KeyEmbedModel:      "nomic-embed-text",
		KeyEmbedBatchSize:  int64(5),
		KeyEmbedTimeout:    int64(10),
		KeyEmbedRPS:        0.5,
		KeyEmbedMaxRetries: int64(0),
		KeyIndexBackend:    "qdrant",
		KeyIndexCollection: "plans",
		KeyQdrantPort:      int64(7000),
		KeyTelemetrySample: 0.25,
		KeyServerAddr:      ":9090",
	})
	svc := NewSettingsService(store, t.TempDir(), WithEnv(noEnv))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 5, cfg.Embedding.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 0.5, cfg.Embedding.RequestsPerSecond)
	assert.Zero(t, cfg.Embedding.MaxRetries)
	assert.Equal(t, domain.BackendQdrant, cfg.Index.Backend)
	assert.Equal(t, "plans", cfg.Index.Collection)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestSettingsService_EnvOverrides(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		KeyEmbedAPIKey: "file-key",
		KeyPostgresDSN: "postgres://file",
	})
	env := map[string]string{
		EnvOpenAIKey:   "env-key",
		EnvPostgresDSN: "postgres://env",
	}
	svc := NewSettingsService(store, t.TempDir(), WithEnv(func(k string) string { return env[k] }))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Embedding.APIKey)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
}

func TestSettingsService_UnknownBackendSurvivesForValidation(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{KeyIndexBackend: "redis"})
	svc := NewSettingsService(store, t.TempDir(), WithEnv(func(string) string { return "sk-test" }))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackend("redis"), cfg.Index.Backend)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, t.TempDir(), WithEnv(noEnv))

	require.NoError(t, svc.Set(KeyIndexBackend, "memory"))
	assert.Equal(t, "memory", store.GetString(KeyIndexBackend))

	err := svc.Set("llm.provider", "openai")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, ":memory:", svc.Path())
}
