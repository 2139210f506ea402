// Package embedding holds decorators shared by the embedding adapters.
// The provider clients live in the ollama and openai subpackages.
package embedding

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimited spaces embedding calls at least delay apart. Batch calls
// wait once per text so a batch costs the same as its singles.
type RateLimited struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimited wraps next. A delay of zero or less returns next unchanged.
func NewRateLimited(next driven.EmbeddingService, delay time.Duration) driven.EmbeddingService {
	if delay <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Embed waits for a token, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, text)
}

// EmbedBatch waits for one token per text, then delegates the whole batch.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for range texts {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.next.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped service.
func (r *RateLimited) Dimensions() int { return r.next.Dimensions() }

// ModelName delegates to the wrapped service.
func (r *RateLimited) ModelName() string { return r.next.ModelName() }

// Ping delegates without consuming a token.
func (r *RateLimited) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close delegates to the wrapped service.
func (r *RateLimited) Close() error { return r.next.Close() }
