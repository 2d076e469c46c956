// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/planscout/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/planscout/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Known embedding dimensions for models without a fixed adapter default.
var embeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Missing credentials and unknown providers are configuration errors.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, domain.NewError(domain.KindConfiguration, "ai.create_embedding",
			fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider))
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingService {
	model := settings.Model
	if model == domain.DefaultEmbeddingModel {
		// The OpenAI default means nothing to Ollama.
		model = ollamaembed.DefaultModel
	}
	dimensions := embeddingDimensions[model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      model,
		Timeout:    settings.Timeout,
		Dimensions: dimensions,
		MaxRetries: settings.MaxRetries,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Timeout:           settings.Timeout,
		Dimensions:        embeddingDimensions[settings.Model],
		BatchSize:         settings.BatchSize,
		RequestsPerSecond: settings.RequestsPerSecond,
		MaxRetries:        settings.MaxRetries,
	})
}
