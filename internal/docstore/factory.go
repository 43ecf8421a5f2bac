package docstore

import (
	"fmt"

	"dr-go/internal/config"
	"dr-go/internal/dr"
)

// NewStoreFromConfig creates a DocumentStore implementation based on the
// document store config type.
func NewStoreFromConfig(cfg config.DocumentStoreConfig, secrets *config.Secrets) (dr.DocumentStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(nil), nil
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("http document store requires base_url")
		}
		return NewHTTPStore(cfg.BaseURL, secrets.DocumentStoreAuth), nil
	default:
		return nil, fmt.Errorf("unknown document store type: %s", cfg.Type)
	}
}
