package mcp

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

var (
	_ driving.KnowledgeService    = (*mockKnowledgeService)(nil)
	_ driving.VerificationService = (*mockVerificationService)(nil)
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	resolution domain.Resolution
	hits       []domain.ChunkHit
	documents  []domain.Document
	document   *domain.Document
	chunks     []domain.Chunk
	status     domain.KnowledgeStatus
	err        error

	lastQuery string
	lastLimit int
}

func (m *mockKnowledgeService) Resolve(_ context.Context, query string) (domain.Resolution, error) {
	m.lastQuery = query
	return m.resolution, m.err
}

func (m *mockKnowledgeService) Search(_ context.Context, query string, limit int) ([]domain.ChunkHit, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.hits, m.err
}

func (m *mockKnowledgeService) AddDocument(_ context.Context, _ domain.DocumentInput) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockKnowledgeService) DeleteDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockKnowledgeService) GetDocument(_ context.Context, _ string) (*domain.Document, []domain.Chunk, error) {
	return m.document, m.chunks, m.err
}

func (m *mockKnowledgeService) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockKnowledgeService) ReloadIntents(_ context.Context) (int, error) {
	return m.status.Intents, m.err
}

func (m *mockKnowledgeService) Intents() []domain.Intent {
	return nil
}

func (m *mockKnowledgeService) RebuildIndex(_ context.Context) error {
	return m.err
}

func (m *mockKnowledgeService) Status(_ context.Context) (domain.KnowledgeStatus, error) {
	return m.status, m.err
}

// mockVerificationService records which event reached it.
type mockVerificationService struct {
	turn domain.Turn
	err  error

	lastCall  string
	lastEvent string
	lastValue string
}

func (m *mockVerificationService) record(callID, event, value string) (domain.Turn, error) {
	m.lastCall = callID
	m.lastEvent = event
	m.lastValue = value
	return m.turn, m.err
}

func (m *mockVerificationService) Start(_ context.Context, callID, phone string) (domain.Turn, error) {
	return m.record(callID, "start", phone)
}

func (m *mockVerificationService) HandleUtterance(_ context.Context, callID, text string) (domain.Turn, error) {
	return m.record(callID, "utterance", text)
}

func (m *mockVerificationService) HandleDigits(_ context.Context, callID, digits string) (domain.Turn, error) {
	return m.record(callID, "digits", digits)
}

func (m *mockVerificationService) HandleSensitiveRequest(_ context.Context, callID, request string) (domain.Turn, error) {
	return m.record(callID, "sensitive", request)
}

func (m *mockVerificationService) EnrollTOTP(_ context.Context, callID, secret string) error {
	_, err := m.record(callID, "enroll", secret)
	return err
}

func (m *mockVerificationService) Hangup(_ context.Context, callID string) (domain.Turn, error) {
	return m.record(callID, "hangup", "")
}

func (m *mockVerificationService) Session(_ context.Context, callID string) (*domain.VerificationSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.VerificationSession{ID: callID, State: m.turn.State}, nil
}
