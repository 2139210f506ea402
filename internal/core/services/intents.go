package services

import (
	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// NormaliseIntents converts authored intents into their canonical shape.
// Invalid intents are skipped and returned as errors. When two intents share
// a name the first one wins.
func NormaliseIntents(raws []domain.RawIntent) ([]domain.Intent, []error) {
	intents := make([]domain.Intent, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	var skipped []error

	for _, raw := range raws {
		intent, err := raw.Normalise()
		if err != nil {
			logger.Warn("Skipping intent: %v", err)
			skipped = append(skipped, err)
			continue
		}
		if _, dup := seen[intent.Name]; dup {
			logger.Warn("Skipping duplicate intent %q", intent.Name)
			continue
		}
		seen[intent.Name] = struct{}{}
		intents = append(intents, intent)
	}

	return intents, skipped
}
