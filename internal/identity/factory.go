package identity

import (
	"fmt"

	"dr-go/internal/config"
	"dr-go/internal/dr"
)

// NewProviderFromConfig creates an IdentityProvider implementation based on
// the identity config type.
func NewProviderFromConfig(cfg config.IdentityConfig, secrets *config.Secrets) (dr.IdentityProvider, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryProvider(), nil
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("http identity provider requires base_url")
		}
		return NewHTTPProvider(cfg.BaseURL, secrets.IdentityKey), nil
	default:
		return nil, fmt.Errorf("unknown identity provider type: %s", cfg.Type)
	}
}
