// Package ai builds the embedding backend selected in settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/siteassist/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/siteassist/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil, nil when no backend is configured.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'siteassist settings set embedding.provider none' to disable",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}

	logger.Debug("embedding backend %s ready (model %s, %d dims)",
		settings.Provider, svc.ModelName(), svc.Dimensions())
	return svc, nil
}

// CreateEmbeddingService creates an embedding service from settings
// without checking connectivity. The service is not throttled; wrap it with
// embedding.NewRateLimited where bulk generation needs settings.Delay.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" || settings.Provider == domain.EmbeddingProviderNone {
		return nil, nil
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.EmbeddingProviderOpenAI:
		openaiSvc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = openaiSvc
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}

	return svc, nil
}
