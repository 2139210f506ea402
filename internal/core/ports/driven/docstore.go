package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks, replacing any with the same ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns every document ordered by creation time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListChunks returns every chunk of every document, ordered by
	// document creation time then chunk index.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)
}
