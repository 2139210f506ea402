package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// Normaliser turns ingested content into a document with plain content.
// Chunking is handled by the PostProcessor pipeline.
type Normaliser interface {
	// SupportedContentTypes returns the content types this normaliser handles.
	SupportedContentTypes() []string

	// Normalise produces a document without ID or timestamps.
	// The registry assigns the ID.
	Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error)
}
