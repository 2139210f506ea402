package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure IntentStore implements the interface.
var _ driven.IntentStore = (*IntentStore)(nil)

// IntentStore is an in-memory implementation of driven.IntentStore.
type IntentStore struct {
	mu      sync.RWMutex
	intents []domain.Intent
}

// NewIntentStore creates a store holding intents.
func NewIntentStore(intents ...domain.Intent) *IntentStore {
	return &IntentStore{intents: intents}
}

// ReplaceAll swaps the stored set.
func (s *IntentStore) ReplaceAll(_ context.Context, intents []domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append([]domain.Intent(nil), intents...)
	return nil
}

// List returns the stored intents.
func (s *IntentStore) List(_ context.Context) ([]domain.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Intent(nil), s.intents...), nil
}
