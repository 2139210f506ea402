package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector search returns no candidates.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-small)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// Cached vectors are only reused for the same model.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCacheStore persists intent vectors between runs.
type EmbeddingCacheStore interface {
	// Load returns the stored cache, or nil when nothing is stored.
	Load(ctx context.Context) (*domain.EmbeddingCache, error)

	// Save replaces the stored cache.
	Save(ctx context.Context, cache *domain.EmbeddingCache) error
}
