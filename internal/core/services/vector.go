package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// VectorSearch ranks intents by cosine similarity between the query
// embedding and cached intent embeddings. Both collaborators are optional:
// without an embedding service it is never ready and Search returns nothing,
// and without a cache store vectors are regenerated on every initialisation.
//
// Query embeddings always go straight to the embedder. Corpus regeneration
// can use a separate, throttled embedder set with WithCorpusEmbedder.
type VectorSearch struct {
	embedder driven.EmbeddingService
	corpus   driven.EmbeddingService
	cache    driven.EmbeddingCacheStore
	clock    func() time.Time

	mu      sync.RWMutex
	records []domain.EmbeddingRecord
	dims    int
	ready   bool
}

// VectorOption configures a VectorSearch.
type VectorOption func(*VectorSearch)

// WithCorpusEmbedder sets the service used to regenerate intent embeddings
// in Initialize, typically a rate limited wrapper of the query embedder.
// It must produce vectors in the same space as the query embedder.
func WithCorpusEmbedder(e driven.EmbeddingService) VectorOption {
	return func(v *VectorSearch) { v.corpus = e }
}

// NewVectorSearch creates a vector search over the given collaborators.
// Either may be nil.
func NewVectorSearch(embedder driven.EmbeddingService, cache driven.EmbeddingCacheStore, opts ...VectorOption) *VectorSearch {
	v := &VectorSearch{
		embedder: embedder,
		cache:    cache,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// generator returns the embedder used for corpus regeneration.
func (v *VectorSearch) generator() driven.EmbeddingService {
	if v.corpus != nil {
		return v.corpus
	}
	return v.embedder
}

// Initialize loads or regenerates embeddings for intents. A cache is reused
// only when its corpus hash and model match. Failures leave the search
// unavailable and are returned wrapped in domain.ErrBackendUnavailable.
func (v *VectorSearch) Initialize(ctx context.Context, intents []domain.Intent) error {
	logger.Section("Vector Initialise")

	if v.embedder == nil {
		logger.Debug("No embedding service configured, vector search disabled")
		v.setRecords(nil, 0, false)
		return nil
	}

	model := v.embedder.ModelName()
	hash := CorpusHash(intents)
	logger.Debug("Corpus hash %s for %d intents, model %s", hash[:12], len(intents), model)

	if cached := v.loadCache(ctx, hash, model, len(intents)); cached != nil {
		dims, _ := cached.Dimensions()
		v.setRecords(cached.Records, dims, true)
		logger.Debug("Loaded %d cached embeddings", len(cached.Records))
		return nil
	}

	gen := v.generator()
	records := make([]domain.EmbeddingRecord, 0, len(intents))
	for i, intent := range intents {
		vec, err := gen.Embed(ctx, intentText(intent))
		if err != nil {
			v.setRecords(nil, 0, false)
			logger.Warn("Embedding intent %q failed: %v", intent.Name, err)
			return fmt.Errorf("%w: embedding intent %q: %v", domain.ErrBackendUnavailable, intent.Name, err)
		}
		records = append(records, domain.EmbeddingRecord{
			IntentName:  intent.Name,
			IntentIndex: i,
			Vector:      vec,
			GeneratedAt: v.clock(),
		})
	}

	cache := &domain.EmbeddingCache{
		Hash:        hash,
		Model:       model,
		Records:     records,
		GeneratedAt: v.clock(),
	}
	dims, err := cache.Dimensions()
	if err != nil {
		v.setRecords(nil, 0, false)
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	if v.cache != nil {
		if err := v.cache.Save(ctx, cache); err != nil {
			logger.Warn("Saving embedding cache failed: %v", err)
		}
	}

	v.setRecords(records, dims, true)
	logger.Debug("Generated %d embeddings (%d dimensions)", len(records), dims)
	return nil
}

// loadCache returns a usable cache or nil. Corrupt caches are logged and ignored.
func (v *VectorSearch) loadCache(ctx context.Context, hash, model string, count int) *domain.EmbeddingCache {
	if v.cache == nil {
		return nil
	}
	cached, err := v.cache.Load(ctx)
	if err != nil {
		logger.Warn("Loading embedding cache failed: %v", err)
		return nil
	}
	if !cached.Matches(hash, model) {
		logger.Debug("Embedding cache is stale or missing")
		return nil
	}
	if len(cached.Records) != count {
		logger.Warn("Embedding cache has %d records for %d intents", len(cached.Records), count)
		return nil
	}
	if _, err := cached.Dimensions(); err != nil {
		logger.Warn("Ignoring embedding cache: %v", err)
		return nil
	}
	return cached
}

func (v *VectorSearch) setRecords(records []domain.EmbeddingRecord, dims int, ready bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = records
	v.dims = dims
	v.ready = ready
}

// Search embeds the query and returns the top limit intents by cosine
// similarity. It never fails: an unavailable backend yields no hits.
func (v *VectorSearch) Search(ctx context.Context, query string, limit int) []domain.VectorHit {
	v.mu.RLock()
	records, dims, ready := v.records, v.dims, v.ready
	v.mu.RUnlock()

	if !ready || v.embedder == nil || len(records) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	qvec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Embedding query failed: %v", err)
		return nil
	}
	if len(qvec) != dims {
		err := fmt.Errorf("%w: query has %d dimensions, cache has %d", domain.ErrCorruptCache, len(qvec), dims)
		logger.Error(err, "Disabling vector search")
		v.setRecords(nil, 0, false)
		return nil
	}

	hits := make([]domain.VectorHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, domain.VectorHit{
			ID:    r.IntentName,
			Index: r.IntentIndex,
			Score: CosineSimilarity(qvec, r.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Status reports readiness, vector count and model.
func (v *VectorSearch) Status() domain.VectorStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()

	status := domain.VectorStatus{Ready: v.ready, Count: len(v.records)}
	if v.embedder != nil {
		status.ModelID = v.embedder.ModelName()
	}
	return status
}

// Available reports whether Search can return hits.
func (v *VectorSearch) Available() bool {
	return v != nil && v.Status().Ready
}

// CorpusHash is a stable SHA-256 over every intent's name, keywords and responses.
func CorpusHash(intents []domain.Intent) string {
	h := sha256.New()
	for _, intent := range intents {
		h.Write([]byte(intentText(intent)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// intentText is the text embedded for an intent and hashed for the cache key.
func intentText(intent domain.Intent) string {
	parts := make([]string, 0, 1+len(intent.Keywords)+len(intent.Responses))
	parts = append(parts, intent.Name)
	parts = append(parts, intent.Keywords...)
	parts = append(parts, intent.Responses...)
	return strings.Join(parts, "\n")
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either has zero norm or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// isUnavailable reports whether err means a backend should be skipped.
func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrBackendUnavailable) || errors.Is(err, domain.ErrEmbeddingUnavailable)
}
