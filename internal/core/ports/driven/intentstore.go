package driven

import (
	"context"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// IntentStore persists the normalised intent set.
// Intents are replaced wholesale, never edited one at a time.
type IntentStore interface {
	// ReplaceAll swaps the stored set for intents.
	ReplaceAll(ctx context.Context, intents []domain.Intent) error

	// List returns the stored intents in their original order.
	List(ctx context.Context) ([]domain.Intent, error)
}

// IntentSource loads authored intent collections.
type IntentSource interface {
	// Load reads every intent collection.
	Load(ctx context.Context) ([]domain.RawIntent, error)

	// Watch calls onChange after the collections change, until ctx is done.
	Watch(ctx context.Context, onChange func()) error
}
