package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

var (
	_ driving.KnowledgeService    = (*mockKnowledgeService)(nil)
	_ driving.VerificationService = (*mockVerificationService)(nil)
	_ driving.SettingsService     = (*mockSettingsService)(nil)
)

type mockKnowledgeService struct {
	resolution domain.Resolution
	hits       []domain.ChunkHit
	docs       []domain.Document
	intents    []domain.Intent
	status     domain.KnowledgeStatus
	err        error

	lastQuery string
	lastLimit int
	lastInput domain.DocumentInput
	deleted   []string
	rebuilt   bool
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

func (m *mockKnowledgeService) AddDocument(_ context.Context, in domain.DocumentInput) (*domain.Document, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	title := in.Title
	if title == "" {
		title = "Untitled"
	}
	return &domain.Document{ID: "doc-new", Title: title}, nil
}

func (m *mockKnowledgeService) DeleteDocument(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockKnowledgeService) GetDocument(_ context.Context, id string) (*domain.Document, []domain.Chunk, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], []domain.Chunk{
				{ID: id + "-0", DocumentID: id, Index: 0, Content: m.docs[i].Content},
			}, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
}

func (m *mockKnowledgeService) ListDocuments(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockKnowledgeService) ReloadIntents(context.Context) (int, error) {
	return len(m.intents), m.err
}

func (m *mockKnowledgeService) Intents() []domain.Intent {
	return m.intents
}

func (m *mockKnowledgeService) RebuildIndex(context.Context) error {
	m.rebuilt = true
	return m.err
}

func (m *mockKnowledgeService) Status(context.Context) (domain.KnowledgeStatus, error) {
	return m.status, m.err
}

// mockVerificationService walks a fixed script: start greets, "yes" sends
// an SMS, the digits 123456 verify it and hangup ends the call.
type mockVerificationService struct {
	state    domain.VerificationState
	events   []string
	enrolled string
}

func (m *mockVerificationService) turn(next domain.VerificationState, prompt string, kind domain.ActionKind) domain.Turn {
	prev := m.state
	m.state = next
	t := domain.Turn{
		SessionID: "call-1",
		Previous:  prev,
		State:     next,
		Prompt:    prompt,
		Action:    domain.Action{Kind: kind},
	}
	if prev != next {
		t.Path = []domain.VerificationState{next}
	}
	return t
}

func (m *mockVerificationService) Start(_ context.Context, callID, phone string) (domain.Turn, error) {
	m.events = append(m.events, "start "+callID+" "+phone)
	m.state = domain.StateGreeting
	return m.turn(domain.StateConsentPending, "May I text you a code?", domain.ActionSpeak), nil
}

func (m *mockVerificationService) HandleUtterance(_ context.Context, _, text string) (domain.Turn, error) {
	m.events = append(m.events, "utterance "+text)
	if strings.EqualFold(text, "yes") {
		return m.turn(domain.StateSMSPending, "I've sent a code.", domain.ActionSendSMS), nil
	}
	return m.turn(m.state, "Sorry?", domain.ActionSpeak), nil
}

func (m *mockVerificationService) HandleDigits(_ context.Context, _, digits string) (domain.Turn, error) {
	m.events = append(m.events, "digits "+digits)
	if digits == "123456" {
		return m.turn(domain.StateSMSVerified, "Thanks, you're verified.", domain.ActionSpeak), nil
	}
	t := m.turn(m.state, "That code didn't match.", domain.ActionWaitForSMSCode)
	t.Reason = "mismatch"
	return t, nil
}

func (m *mockVerificationService) HandleSensitiveRequest(_ context.Context, _, request string) (domain.Turn, error) {
	m.events = append(m.events, "sensitive "+request)
	return m.turn(domain.StateTOTPPending, "Please read your authenticator code.", domain.ActionWaitForTOTP), nil
}

func (m *mockVerificationService) EnrollTOTP(_ context.Context, _, secret string) error {
	m.events = append(m.events, "enroll")
	m.enrolled = secret
	return nil
}

func (m *mockVerificationService) Hangup(context.Context, string) (domain.Turn, error) {
	m.events = append(m.events, "hangup")
	return m.turn(domain.StateEnded, "Goodbye.", domain.ActionHangup), nil
}

func (m *mockVerificationService) Session(_ context.Context, callID string) (*domain.VerificationSession, error) {
	return &domain.VerificationSession{ID: callID, State: m.state}, nil
}

type mockSettingsService struct {
	settings domain.Settings
	set      map[string]string
	setErr   error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	switch key {
	case "embedding.provider":
		m.settings.Embedding.Provider = domain.EmbeddingProvider(value)
	case "embedding.model":
		m.settings.Embedding.Model = value
	case "embedding.api_key":
		m.settings.Embedding.APIKey = value
	}
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"knowledge.min_confidence", "embedding.provider"}
}

type mockTOTP struct{}

func (mockTOTP) GenerateSecret(account string) (string, string, error) {
	return "JBSWY3DPEHPK3PXP", "otpauth://totp/SiteAssist:" + account + "?secret=JBSWY3DPEHPK3PXP", nil
}

func (mockTOTP) Code(string, time.Time) (string, error) {
	return "654321", nil
}

type testServices struct {
	knowledge    *mockKnowledgeService
	verification *mockVerificationService
	settings     *mockSettingsService
}

// setupTestServices installs mocks for every service and returns them with
// a func that clears them again.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		knowledge: &mockKnowledgeService{
			docs: []domain.Document{
				{ID: "doc-1", Title: "Test Document 1", Content: "Parking is free after 6pm.", Category: "visiting"},
				{ID: "doc-2", Title: "Test Document 2", Content: "Returns within thirty days.", URL: "https://example.com/returns"},
			},
			intents: []domain.Intent{
				{Name: "opening_hours", Keywords: []string{"hours", "open"}, Responses: []string{"We are open 9 to 5."}},
			},
			status: domain.KnowledgeStatus{Intents: 1, Documents: 2, Chunks: 4},
		},
		verification: &mockVerificationService{},
		settings:     &mockSettingsService{settings: domain.DefaultSettings()},
	}

	SetServices(&Services{
		Knowledge:    ts.knowledge,
		Verification: ts.verification,
		Settings:     ts.settings,
		TOTP:         mockTOTP{},
		DecodeDigits: func(input string) (string, bool) {
			if strings.Contains(input, "four") {
				return "4", true
			}
			return "", false
		},
		LastSMS: func(string) (string, bool) {
			return "Your code is 123456", true
		},
	})

	return ts, func() { SetServices(nil) }
}

// executeCommand runs the root command with args and stdin and returns
// everything written to stdout and stderr. Flag variables are reset after.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(io.Discard)
		rootCmd.SetErr(io.Discard)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	askJSON = false
	searchLimit = 0
	searchJSON = false
	docTitle, docType, docCategory, docURL = "", "", "", ""
	docKeywords = nil
	chatPlain = false
	chatSearchLimit = 0
	simulatePhone = "+15555550100"
	simulateCallID = ""
	mcpHTTPAddr = ""
	verbose = false
}
