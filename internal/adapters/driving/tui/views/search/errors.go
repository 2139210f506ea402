package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoKnowledgeService indicates that no knowledge service was provided.
	ErrNoKnowledgeService = errors.New("knowledge service is required")
)
