package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// --- Mock implementations ---

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are derived from topic words so similar texts point the same way.
type mockEmbeddingService struct {
	mu       sync.Mutex
	model    string
	embedErr error
	dims     int
	calls    int
}

var topicWords = [][]string{
	{"hour", "open", "close"},
	{"pric", "cost", "expensive", "cheap"},
	{"ship", "deliver"},
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	dims := m.Dimensions()
	vec := make([]float32, dims)
	lower := strings.ToLower(text)
	for i, words := range topicWords {
		if i >= dims {
			break
		}
		for _, w := range words {
			if strings.Contains(lower, w) {
				vec[i] = 1
			}
		}
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		result = append(result, vec)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(topicWords)
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

func (m *mockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockTOTPVerifier accepts one fixed code for any non-empty secret.
type mockTOTPVerifier struct {
	validCode string
}

func (m *mockTOTPVerifier) Verify(secret, code string, _ time.Time) bool {
	return secret != "" && code != "" && code == m.validCode
}

func (m *mockTOTPVerifier) GenerateSecret(account string) (secret, url string, err error) {
	return "JBSWY3DPEHPK3PXP", "otpauth://totp/test:" + account + "?secret=JBSWY3DPEHPK3PXP", nil
}

// mockSMSSender records messages.
type mockSMSSender struct {
	mu       sync.Mutex
	sendErr  error
	messages []sentSMS
}

type sentSMS struct {
	to   string
	body string
}

func (m *mockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.messages = append(m.messages, sentSMS{to: to, body: body})
	return nil
}

func (m *mockSMSSender) Sent() []sentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentSMS(nil), m.messages...)
}

// recordingMetrics implements driven.Metrics for testing.
type recordingMetrics struct {
	mu          sync.Mutex
	resolutions []string
	transitions []string
	otpChecks   []domain.OTPReason
}

func (m *recordingMetrics) ObserveResolution(source domain.AnswerSource, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, fmt.Sprintf("%s:%t", source, found))
}

func (m *recordingMetrics) ObserveTransition(from, to domain.VerificationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, fmt.Sprintf("%s->%s", from, to))
}

func (m *recordingMetrics) ObserveOTPCheck(reason domain.OTPReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otpChecks = append(m.otpChecks, reason)
}

// stubRegistry implements driven.NormaliserRegistry by copying input as-is.
type stubRegistry struct {
	mu   sync.Mutex
	next int
}

func (r *stubRegistry) Normalise(_ context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if input.ContentType != domain.ContentTypePlain {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, input.ContentType)
	}
	r.mu.Lock()
	r.next++
	id := fmt.Sprintf("doc-%d", r.next)
	r.mu.Unlock()
	return &domain.Document{
		ID:       id,
		Title:    input.Title,
		Content:  strings.TrimSpace(input.Content),
		Category: input.Category,
		Keywords: input.Keywords,
		URL:      input.URL,
	}, nil
}

func (r *stubRegistry) Register(_ driven.Normaliser) {}

func (r *stubRegistry) SupportedContentTypes() []string {
	return []string{domain.ContentTypePlain}
}

// paragraphPipeline implements driven.PostProcessorPipeline with one chunk
// per blank-line separated paragraph.
type paragraphPipeline struct{}

func (paragraphPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, para := range strings.Split(doc.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", doc.ID, len(chunks)),
			DocumentID: doc.ID,
			Content:    para,
			Index:      len(chunks),
		})
	}
	return chunks, nil
}

// mockIntentSource implements driven.IntentSource for testing.
type mockIntentSource struct {
	raws    []domain.RawIntent
	loadErr error
	changes chan struct{}
}

func (m *mockIntentSource) Load(_ context.Context) ([]domain.RawIntent, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.raws, nil
}

func (m *mockIntentSource) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.changes:
			onChange()
		}
	}
}

// gatedDocStore wraps a document store. Once armed, the next ListChunks
// blocks until another writer has saved chunks, or a second has passed.
type gatedDocStore struct {
	driven.DocumentStore

	mu       sync.Mutex
	armed    bool
	blocking bool
	entered  chan struct{}
	release  chan struct{}
}

func newGatedDocStore(inner driven.DocumentStore) *gatedDocStore {
	return &gatedDocStore{
		DocumentStore: inner,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (g *gatedDocStore) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
}

func (g *gatedDocStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	g.mu.Lock()
	block := g.armed
	if block {
		g.armed = false
		g.blocking = true
	}
	g.mu.Unlock()

	if block {
		close(g.entered)
		select {
		case <-g.release:
		case <-time.After(time.Second):
		}
	}
	return g.DocumentStore.ListChunks(ctx)
}

func (g *gatedDocStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	err := g.DocumentStore.SaveChunks(ctx, chunks)
	g.mu.Lock()
	if g.blocking {
		g.blocking = false
		close(g.release)
	}
	g.mu.Unlock()
	return err
}

// sequencedIntentSource returns one intent set per Load call, repeating the
// last. The first Load blocks until Release.
type sequencedIntentSource struct {
	sets    [][]domain.RawIntent
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func newSequencedIntentSource(sets ...[]domain.RawIntent) *sequencedIntentSource {
	return &sequencedIntentSource{
		sets:    sets,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *sequencedIntentSource) Load(_ context.Context) ([]domain.RawIntent, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if call == 1 {
		close(s.entered)
		<-s.release
	}
	idx := call - 1
	if idx >= len(s.sets) {
		idx = len(s.sets) - 1
	}
	return s.sets[idx], nil
}

func (s *sequencedIntentSource) Watch(ctx context.Context, _ func()) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *sequencedIntentSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
