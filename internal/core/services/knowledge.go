package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// corpus is an immutable snapshot of everything the resolver reads.
// Writers build a new corpus and swap it in whole.
type corpus struct {
	intents   []domain.Intent
	documents []domain.Document
	docByID   map[string]domain.Document
	chunks    map[string]domain.Chunk
	byDoc     map[string][]domain.Chunk
	index     *TFIDFIndex
}

func emptyCorpus() *corpus {
	return &corpus{
		docByID: map[string]domain.Document{},
		chunks:  map[string]domain.Chunk{},
		byDoc:   map[string][]domain.Chunk{},
		index:   NewTFIDFIndex(),
	}
}

// KnowledgeService resolves queries against intents and documents.
//
// Resolution order: lexical intent scoring, lexical document scoring, then
// the top vector candidate at face value. The best candidate is accepted
// when it reaches the minimum confidence.
type KnowledgeService struct {
	intentStore driven.IntentStore
	docStore    driven.DocumentStore

	// Optional collaborators.
	intentSource driven.IntentSource
	normalisers  driven.NormaliserRegistry
	pipeline     driven.PostProcessorPipeline
	vector       *VectorSearch
	metrics      driven.Metrics

	settings domain.KnowledgeSettings
	scorer   *LexicalScorer
	clock    func() time.Time

	// intentMu orders intent reloads so the intent set and its vectors
	// always come from the same reload. Acquired before writeMu.
	intentMu sync.Mutex
	// writeMu serialises corpus rebuilds, store reads included; readers
	// only load current.
	writeMu sync.Mutex
	current atomic.Pointer[corpus]
}

// KnowledgeOption configures optional collaborators.
type KnowledgeOption func(*KnowledgeService)

// WithIntentSource sets where ReloadIntents reads authored intents from.
func WithIntentSource(src driven.IntentSource) KnowledgeOption {
	return func(s *KnowledgeService) { s.intentSource = src }
}

// WithNormalisers sets the registry used to normalise ingested content.
func WithNormalisers(r driven.NormaliserRegistry) KnowledgeOption {
	return func(s *KnowledgeService) { s.normalisers = r }
}

// WithPipeline sets the chunking pipeline.
func WithPipeline(p driven.PostProcessorPipeline) KnowledgeOption {
	return func(s *KnowledgeService) { s.pipeline = p }
}

// WithVectorSearch enables vector candidates.
func WithVectorSearch(v *VectorSearch) KnowledgeOption {
	return func(s *KnowledgeService) { s.vector = v }
}

// WithMetrics records resolution outcomes.
func WithMetrics(m driven.Metrics) KnowledgeOption {
	return func(s *KnowledgeService) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) KnowledgeOption {
	return func(s *KnowledgeService) { s.clock = clock }
}

// NewKnowledgeService creates a knowledge service. Call Load before use.
func NewKnowledgeService(
	intentStore driven.IntentStore,
	docStore driven.DocumentStore,
	settings domain.KnowledgeSettings,
	opts ...KnowledgeOption,
) *KnowledgeService {
	s := &KnowledgeService{
		intentStore: intentStore,
		docStore:    docStore,
		settings:    settings,
		scorer:      NewLexicalScorer(settings),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptyCorpus())
	return s
}

// Load reads intents and documents from storage and prepares every index.
// When no intents are stored yet they are read from the intent source.
func (s *KnowledgeService) Load(ctx context.Context) error {
	intents, err := s.intentStore.List(ctx)
	if err != nil {
		return fmt.Errorf("listing intents: %w", err)
	}

	if len(intents) == 0 && s.intentSource != nil {
		if _, err := s.ReloadIntents(ctx); err != nil {
			return err
		}
	} else {
		s.intentMu.Lock()
		s.swapIntents(intents)
		s.initVector(ctx, intents)
		s.intentMu.Unlock()
	}

	return s.RebuildIndex(ctx)
}

// Resolve returns the single best answer for query.
func (s *KnowledgeService) Resolve(ctx context.Context, query string) (domain.Resolution, error) {
	logger.Section("Resolve")

	q, ok := s.scorer.prepare(query)
	if !ok {
		logger.Debug("Query %q too short, not scored", query)
		s.observe(domain.Resolution{})
		return domain.Resolution{}, nil
	}

	c := s.current.Load()
	var best candidate

	for _, intent := range c.intents {
		if intent.Response() == "" {
			continue
		}
		best.consider(candidate{
			score:  s.scorer.scoreIntent(q, intent),
			source: domain.SourceIntent,
			id:     intent.Name,
			title:  intent.Name,
			answer: intent.Response(),
		})
	}
	logger.Debug("Best after intents: %.3f (%s)", best.score, best.id)

	for _, doc := range c.documents {
		best.consider(candidate{
			score:  s.scorer.scoreDocument(q, doc),
			source: domain.SourceDocument,
			id:     doc.ID,
			title:  doc.Title,
		})
	}
	logger.Debug("Best after documents: %.3f (%s)", best.score, best.id)

	if s.vectorEnabled() {
		hits := s.vector.Search(ctx, q.text, 1)
		if len(hits) > 0 {
			if intent, ok := intentByName(c.intents, hits[0].ID); ok && intent.Response() != "" {
				logger.Debug("Vector candidate %s scored %.3f", intent.Name, hits[0].Score)
				best.consider(candidate{
					score:  hits[0].Score,
					source: domain.SourceVector,
					id:     intent.Name,
					title:  intent.Name,
					answer: intent.Response(),
				})
			}
		}
	}

	res := domain.Resolution{Score: best.score}
	if best.source != domain.SourceNone && best.score >= s.settings.MinConfidence {
		res.Found = true
		res.Source = best.source
		res.MatchID = best.id
		res.MatchTitle = best.title
		res.Answer = best.answer
		if best.source == domain.SourceDocument {
			res.Answer = s.documentAnswer(c, q.text, best.id)
		}
		logger.Debug("Accepted %s %q with score %.3f", res.Source, res.MatchID, res.Score)
	} else {
		logger.Debug("No answer: best score %.3f below %.2f", best.score, s.settings.MinConfidence)
	}

	s.observe(res)
	return res, nil
}

// candidate is one scored answer during resolution.
type candidate struct {
	score  float64
	source domain.AnswerSource
	id     string
	title  string
	answer string
}

// consider keeps next only if it strictly beats the current best, so
// earlier sources win ties.
func (c *candidate) consider(next candidate) {
	if next.score > c.score {
		*c = next
	}
}

// documentAnswer picks the chunk of docID that best matches the query.
func (s *KnowledgeService) documentAnswer(c *corpus, query, docID string) string {
	for _, hit := range c.index.Query(query, 0) {
		if chunk, ok := c.chunks[hit.ID]; ok && chunk.DocumentID == docID {
			return chunk.Content
		}
	}
	if chunks := c.byDoc[docID]; len(chunks) > 0 {
		return chunks[0].Content
	}
	content := []rune(c.docByID[docID].Content)
	if len(content) > s.settings.ChunkSize {
		content = content[:s.settings.ChunkSize]
	}
	return strings.TrimSpace(string(content))
}

func (s *KnowledgeService) vectorEnabled() bool {
	return s.settings.VectorEnabled && s.vector.Available()
}

func (s *KnowledgeService) observe(res domain.Resolution) {
	if s.metrics != nil {
		s.metrics.ObserveResolution(res.Source, res.Found)
	}
}

// Search ranks chunks against query with TF-IDF.
func (s *KnowledgeService) Search(_ context.Context, query string, limit int) ([]domain.ChunkHit, error) {
	if len([]rune(normalise(query))) < s.settings.MinQueryLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.settings.SearchLimit
	}

	c := s.current.Load()
	hits := c.index.Query(query, limit)
	results := make([]domain.ChunkHit, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := c.chunks[hit.ID]
		if !ok {
			continue
		}
		results = append(results, domain.ChunkHit{
			Chunk:         chunk,
			DocumentTitle: c.docByID[chunk.DocumentID].Title,
			Score:         hit.Score,
		})
	}
	return results, nil
}

// AddDocument normalises, chunks and stores a document, then rebuilds the index.
func (s *KnowledgeService) AddDocument(ctx context.Context, input domain.DocumentInput) (*domain.Document, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}
	if input.ContentType == "" {
		input.ContentType = domain.ContentTypePlain
	}

	doc, err := s.normalise(ctx, &input)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	chunks, err := s.chunk(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("saving chunks: %w", err)
	}
	logger.Debug("Stored document %s with %d chunks", doc.ID, len(chunks))

	if err := s.RebuildIndex(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *KnowledgeService) normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers configured", domain.ErrBackendUnavailable)
	}
	doc, err := s.normalisers.Normalise(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("normalising document: %w", err)
	}
	if doc.ID == "" || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: normalised document has no content", domain.ErrInvalidInput)
	}
	return doc, nil
}

func (s *KnowledgeService) chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if s.pipeline == nil {
		return nil, fmt.Errorf("%w: no chunking pipeline configured", domain.ErrBackendUnavailable)
	}
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunking document: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document and rebuilds the index.
func (s *KnowledgeService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.docStore.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return s.RebuildIndex(ctx)
}

// GetDocument retrieves a document with its chunks.
func (s *KnowledgeService) GetDocument(ctx context.Context, id string) (*domain.Document, []domain.Chunk, error) {
	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := s.docStore.GetChunks(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting chunks: %w", err)
	}
	return doc, chunks, nil
}

// ListDocuments returns every ingested document.
func (s *KnowledgeService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// RebuildIndex rebuilds documents, chunks and the TF-IDF index from storage
// and swaps them in. The intent set is carried over. Concurrent rebuilds run
// one at a time, so the last one to finish has seen every earlier write.
func (s *KnowledgeService) RebuildIndex(ctx context.Context) error {
	logger.Section("Rebuild Index")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	chunks, err := s.docStore.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("listing chunks: %w", err)
	}

	next := emptyCorpus()
	next.intents = s.current.Load().intents
	next.documents = docs
	for _, doc := range docs {
		next.docByID[doc.ID] = doc
	}
	for _, chunk := range chunks {
		next.chunks[chunk.ID] = chunk
		next.byDoc[chunk.DocumentID] = append(next.byDoc[chunk.DocumentID], chunk)
		next.index.AddDocument(chunk.Content, chunk.ID)
	}
	s.current.Store(next)

	logger.Debug("Indexed %d chunks from %d documents", next.index.Len(), len(docs))
	return nil
}

// ReloadIntents replaces the intent set from the intent source. Without a
// source, the stored set is reloaded.
func (s *KnowledgeService) ReloadIntents(ctx context.Context) (int, error) {
	logger.Section("Reload Intents")

	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	var intents []domain.Intent
	if s.intentSource == nil {
		stored, err := s.intentStore.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing intents: %w", err)
		}
		intents = stored
	} else {
		raws, err := s.intentSource.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("loading intents: %w", err)
		}
		normalised, skipped := NormaliseIntents(raws)
		if len(skipped) > 0 {
			logger.Warn("Skipped %d invalid intents", len(skipped))
		}
		if err := s.intentStore.ReplaceAll(ctx, normalised); err != nil {
			return 0, fmt.Errorf("storing intents: %w", err)
		}
		intents = normalised
	}

	s.swapIntents(intents)
	s.initVector(ctx, intents)

	logger.Debug("Loaded %d intents", len(intents))
	return len(intents), nil
}

func (s *KnowledgeService) swapIntents(intents []domain.Intent) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.current.Load()
	next.intents = intents
	s.current.Store(&next)
}

// initVector prepares vector search. Failures only disable vector candidates.
func (s *KnowledgeService) initVector(ctx context.Context, intents []domain.Intent) {
	if s.vector == nil || !s.settings.VectorEnabled {
		return
	}
	if err := s.vector.Initialize(ctx, intents); err != nil {
		if isUnavailable(err) {
			logger.Warn("Vector search unavailable: %v", err)
			return
		}
		logger.Error(err, "Vector search initialisation failed")
	}
}

// WatchIntents reloads intents whenever the intent source changes, until
// ctx is done.
func (s *KnowledgeService) WatchIntents(ctx context.Context) error {
	if s.intentSource == nil {
		return nil
	}
	return s.intentSource.Watch(ctx, func() {
		n, err := s.ReloadIntents(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error(err, "Reloading intents")
			}
			return
		}
		logger.Info("Reloaded %d intents", n)
	})
}

// Intents returns the active intent set.
func (s *KnowledgeService) Intents() []domain.Intent {
	return s.current.Load().intents
}

// Status summarises the loaded knowledge base.
func (s *KnowledgeService) Status(_ context.Context) (domain.KnowledgeStatus, error) {
	c := s.current.Load()
	status := domain.KnowledgeStatus{
		Intents:   len(c.intents),
		Documents: len(c.documents),
		Chunks:    len(c.chunks),
	}
	if s.vector != nil {
		status.Vector = s.vector.Status()
	}
	return status, nil
}

func intentByName(intents []domain.Intent, name string) (domain.Intent, bool) {
	for _, intent := range intents {
		if intent.Name == name {
			return intent, true
		}
	}
	return domain.Intent{}, false
}
