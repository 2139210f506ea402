package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// NormaliserRegistry dispatches ingested content to a normaliser by content type.
type NormaliserRegistry interface {
	// Normalise transforms input using the normaliser registered for its content type.
	Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error)

	// Register adds a normaliser for each of its content types.
	Register(normaliser Normaliser)

	// SupportedContentTypes returns every registered content type.
	SupportedContentTypes() []string
}
