package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/siteassist/internal/adapters/driven/embedding"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/siteassist/internal/core/domain"
)

func testIntents() []domain.Intent {
	return []domain.Intent{
		{Name: "hours", Keywords: []string{"hours", "open"}, Responses: []string{"We're open 9 to 6"}},
		{Name: "pricing", Keywords: []string{"cost"}, Responses: []string{"Plans start at $10"}},
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, -1, 0.5}

	assert.Equal(t, 1.0, CosineSimilarity(a, a))
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{0, 1}))
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}), "zero norm")
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 1}), "length mismatch")
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func TestCorpusHash(t *testing.T) {
	intents := testIntents()

	assert.Equal(t, CorpusHash(intents), CorpusHash(testIntents()), "stable")

	changed := testIntents()
	changed[0].Responses = []string{"We're open 8 to 6"}
	assert.NotEqual(t, CorpusHash(intents), CorpusHash(changed))

	patterned := testIntents()
	patterned[0].Patterns = []string{"when do you open"}
	assert.Equal(t, CorpusHash(intents), CorpusHash(patterned), "patterns are not embedded")
}

func TestVectorSearch_NoEmbedder(t *testing.T) {
	vs := NewVectorSearch(nil, memory.NewEmbeddingCache())

	require.NoError(t, vs.Initialize(context.Background(), testIntents()))
	assert.False(t, vs.Available())
	assert.Empty(t, vs.Search(context.Background(), "opening hours", 1))
	assert.Equal(t, domain.VectorStatus{}, vs.Status())

	var nilSearch *VectorSearch
	assert.False(t, nilSearch.Available())
}

func TestVectorSearch_Search(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbeddingService{}
	vs := NewVectorSearch(embedder, nil)

	require.NoError(t, vs.Initialize(ctx, testIntents()))
	status := vs.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, 2, status.Count)
	assert.Equal(t, "mock-embed", status.ModelID)

	hits := vs.Search(ctx, "how expensive is it", 5)
	require.Len(t, hits, 2)
	assert.Equal(t, "pricing", hits[0].ID)
	assert.Equal(t, 1, hits[0].Index)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Zero(t, hits[1].Score)

	assert.Len(t, vs.Search(ctx, "how expensive is it", 1), 1)
	assert.Empty(t, vs.Search(ctx, "   ", 1))
}

func TestVectorSearch_ReusesMatchingCache(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewEmbeddingCache()

	first := &mockEmbeddingService{}
	require.NoError(t, NewVectorSearch(first, cache).Initialize(ctx, testIntents()))
	assert.Equal(t, 2, first.Calls())
	assert.Equal(t, 1, cache.Saves())

	second := &mockEmbeddingService{}
	vs := NewVectorSearch(second, cache)
	require.NoError(t, vs.Initialize(ctx, testIntents()))
	assert.Zero(t, second.Calls(), "cache hit needs no embedding calls")
	assert.Equal(t, 1, cache.Saves())
	assert.True(t, vs.Available())

	stored, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, CorpusHash(testIntents()), stored.Hash)
	assert.Equal(t, "mock-embed", stored.Model)
}

func TestVectorSearch_RegeneratesStaleCache(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewEmbeddingCache()
	require.NoError(t, NewVectorSearch(&mockEmbeddingService{}, cache).Initialize(ctx, testIntents()))

	t.Run("model changed", func(t *testing.T) {
		embedder := &mockEmbeddingService{model: "other-model"}
		require.NoError(t, NewVectorSearch(embedder, cache).Initialize(ctx, testIntents()))
		assert.Equal(t, 2, embedder.Calls())
	})

	t.Run("corpus changed", func(t *testing.T) {
		intents := testIntents()
		intents[1].Responses = []string{"Plans start at $12"}
		embedder := &mockEmbeddingService{model: "other-model"}
		require.NoError(t, NewVectorSearch(embedder, cache).Initialize(ctx, intents))
		assert.Equal(t, 2, embedder.Calls())
	})
}

func TestVectorSearch_IgnoresCorruptCache(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewEmbeddingCache()
	require.NoError(t, cache.Save(ctx, &domain.EmbeddingCache{
		Hash:  CorpusHash(testIntents()),
		Model: "mock-embed",
		Records: []domain.EmbeddingRecord{
			{IntentName: "hours", Vector: []float32{1, 0, 0}},
			{IntentName: "pricing", Vector: []float32{1, 0}},
		},
	}))

	embedder := &mockEmbeddingService{}
	require.NoError(t, NewVectorSearch(embedder, cache).Initialize(ctx, testIntents()))
	assert.Equal(t, 2, embedder.Calls())
}

func TestVectorSearch_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbeddingService{embedErr: errors.New("connection refused")}
	vs := NewVectorSearch(embedder, memory.NewEmbeddingCache())

	err := vs.Initialize(ctx, testIntents())
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.False(t, vs.Available())
	assert.Empty(t, vs.Search(ctx, "opening hours", 1))
}

func TestVectorSearch_QueryDimensionMismatchDisables(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbeddingService{}
	vs := NewVectorSearch(embedder, nil)
	require.NoError(t, vs.Initialize(ctx, testIntents()))

	embedder.dims = 2
	assert.Empty(t, vs.Search(ctx, "opening hours", 1))
	assert.False(t, vs.Available())
}

func TestVectorSearch_CorpusEmbedder(t *testing.T) {
	ctx := context.Background()
	query := &mockEmbeddingService{}
	corpus := &mockEmbeddingService{}
	vs := NewVectorSearch(query, nil, WithCorpusEmbedder(corpus))

	require.NoError(t, vs.Initialize(ctx, testIntents()))
	assert.Equal(t, 2, corpus.Calls())
	assert.Zero(t, query.Calls())

	hits := vs.Search(ctx, "how expensive is it", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "pricing", hits[0].ID)
	assert.Equal(t, 1, query.Calls())
	assert.Equal(t, 2, corpus.Calls(), "queries never use the corpus embedder")
}

func TestVectorSearch_SearchIsNotThrottled(t *testing.T) {
	ctx := context.Background()
	query := &mockEmbeddingService{}
	vs := NewVectorSearch(query, nil,
		WithCorpusEmbedder(embedding.NewRateLimited(query, 100*time.Millisecond)))

	require.NoError(t, vs.Initialize(ctx, testIntents()))

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.Len(t, vs.Search(ctx, "opening hours", 1), 1)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
