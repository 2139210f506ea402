package domain

import "time"

// Content types accepted at ingestion.
const (
	ContentTypePlain    = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeHTML     = "text/html"
)

// Document is a piece of ingested knowledge, such as an FAQ page.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title. Title matches weigh twice
	// as much as content matches when scoring.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Category is an optional grouping label, e.g. "billing".
	Category string

	// Keywords are optional extra trigger words.
	Keywords []string

	// URL is where the content was taken from, if anywhere.
	URL string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk is a bounded slice of a document's content and the unit indexed
// for retrieval. Chunks belong to exactly one document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Index is the ordinal position within the document.
	Index int
}

// DocumentInput is an ingestion request.
type DocumentInput struct {
	Title       string
	Content     string
	ContentType string
	Category    string
	Keywords    []string
	URL         string
}

// ChunkHit is a chunk ranked against a query.
type ChunkHit struct {
	Chunk         Chunk
	DocumentTitle string
	Score         float64
}
