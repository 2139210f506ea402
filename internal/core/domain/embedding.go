package domain

import (
	"fmt"
	"time"
)

// EmbeddingRecord holds the vector for one intent.
type EmbeddingRecord struct {
	IntentName  string
	IntentIndex int
	Vector      []float32
	GeneratedAt time.Time
}

// EmbeddingCache is the persisted set of intent vectors. It is valid only
// for the corpus hash and model it was generated with.
type EmbeddingCache struct {
	Hash        string
	Model       string
	Records     []EmbeddingRecord
	GeneratedAt time.Time
}

// Matches reports whether the cache was built from the given corpus and model.
func (c *EmbeddingCache) Matches(hash, model string) bool {
	return c != nil && c.Hash == hash && c.Model == model
}

// Dimensions returns the shared vector length of every record.
// Empty or mixed-length vectors return ErrCorruptCache.
func (c *EmbeddingCache) Dimensions() (int, error) {
	if c == nil || len(c.Records) == 0 {
		return 0, nil
	}
	dims := len(c.Records[0].Vector)
	for _, r := range c.Records {
		if len(r.Vector) == 0 || len(r.Vector) != dims {
			return 0, fmt.Errorf("%w: intent %q has %d dimensions, expected %d",
				ErrCorruptCache, r.IntentName, len(r.Vector), dims)
		}
	}
	return dims, nil
}

// VectorStatus describes the vector search backend.
type VectorStatus struct {
	Ready   bool
	Count   int
	ModelID string
}

// VectorHit is an intent ranked by cosine similarity.
type VectorHit struct {
	ID    string
	Index int
	Score float64
}
