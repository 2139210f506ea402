package driving

import "github.com/custodia-labs/siteassist/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns settings with file values and environment overrides applied.
	Get() (*domain.Settings, error)

	// Set validates and persists a single setting by key.
	Set(key, value string) error

	// Keys returns every settable key.
	Keys() []string
}
