package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.SessionStore = (*SessionStore)(nil)
	_ driven.OTPStore     = (*OTPStore)(nil)
)

type sessionEntry struct {
	session   domain.VerificationSession
	expiresAt time.Time
}

// SessionStore is an in-memory implementation of driven.SessionStore.
// Expired sessions are dropped lazily on access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	clock    func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		clock:    time.Now,
	}
}

// WithClock overrides the time source used for expiry.
func (s *SessionStore) WithClock(clock func() time.Time) *SessionStore {
	s.clock = clock
	return s
}

// Get returns the session, or domain.ErrSessionNotFound.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.VerificationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

// Set stores the session with a time to live. A zero ttl never expires.
func (s *SessionStore) Set(_ context.Context, session *domain.VerificationSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = sessionEntry{session: *session, expiresAt: s.deadline(ttl)}
	return nil
}

// Delete removes the session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Expire resets the time to live of an existing session.
func (s *SessionStore) Expire(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.expiresAt = s.deadline(ttl)
	s.sessions[id] = entry
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.sessions {
		if _, ok := s.live(id); ok {
			n++
		}
	}
	return n
}

// live returns an unexpired entry, deleting it if expired. Callers hold mu.
func (s *SessionStore) live(id string) (sessionEntry, bool) {
	entry, ok := s.sessions[id]
	if !ok {
		return sessionEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.clock().Before(entry.expiresAt) {
		delete(s.sessions, id)
		return sessionEntry{}, false
	}
	return entry, true
}

func (s *SessionStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock().Add(ttl)
}

// OTPStore is an in-memory implementation of driven.OTPStore.
type OTPStore struct {
	mu      sync.RWMutex
	records map[string]domain.OTPRecord
}

// NewOTPStore creates a new in-memory OTP store.
func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[string]domain.OTPRecord)}
}

// Save stores or replaces the record for record.Key.
func (s *OTPStore) Save(_ context.Context, record *domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key] = *record
	return nil
}

// Get returns the record, or domain.ErrNotFound.
func (s *OTPStore) Get(_ context.Context, key string) (*domain.OTPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Delete discards the record.
func (s *OTPStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
