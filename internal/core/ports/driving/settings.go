package driving

import "github.com/custodia-labs/planscout/internal/core/domain"

// SettingsService builds the application configuration.
type SettingsService interface {
	// Load reads configuration from storage, applies defaults and
	// environment overrides. It does not validate.
	Load() (domain.Config, error)

	// Set persists a single configuration key.
	Set(key string, value any) error

	// Path returns the configuration file path.
	Path() string
}
