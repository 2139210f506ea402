package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// PostProcessor turns a normalised document into chunks, or refines
// chunks produced by an earlier processor.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the chunks so far (nil for the first processor)
	// and returns the new set.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through every processor in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
