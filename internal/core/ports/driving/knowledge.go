package driving

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// KnowledgeService answers questions from intents and ingested documents.
type KnowledgeService interface {
	// Resolve returns the single best answer for a query. Failing to find
	// an answer is reported through Resolution.Found, not as an error.
	Resolve(ctx context.Context, query string) (domain.Resolution, error)

	// Search ranks document chunks against a query with TF-IDF.
	Search(ctx context.Context, query string, limit int) ([]domain.ChunkHit, error)

	// AddDocument ingests a document, chunks it and rebuilds the index.
	AddDocument(ctx context.Context, input domain.DocumentInput) (*domain.Document, error)

	// DeleteDocument removes a document and rebuilds the index.
	DeleteDocument(ctx context.Context, id string) error

	// GetDocument retrieves a document with its chunks.
	GetDocument(ctx context.Context, id string) (*domain.Document, []domain.Chunk, error)

	// ListDocuments returns every ingested document.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ReloadIntents replaces the intent set from the intent source and
	// returns how many intents were loaded.
	ReloadIntents(ctx context.Context) (int, error)

	// Intents returns the active intent set.
	Intents() []domain.Intent

	// RebuildIndex rebuilds the TF-IDF index from stored chunks.
	RebuildIndex(ctx context.Context) error

	// Status summarises the loaded knowledge base.
	Status(ctx context.Context) (domain.KnowledgeStatus, error)
}
