package ai

import (
	"fmt"

	"github.com/commitwise/commitwise/internal/pkg/config"
)

// RequiresAPIKey reports whether provider needs a credential.
func RequiresAPIKey(provider string) bool {
	return provider != ProviderOllama
}

// NewBackend creates the backend selected by cfg.Provider.
func NewBackend(cfg *config.Config, apiKey string) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	bc := BackendConfig{
		APIKey:   apiKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIBackend(bc)

	case ProviderOllama:
		// The stock default names an OpenAI model.
		if bc.Model == config.Default().Model {
			bc.Model = ""
		}
		return NewOllamaBackend(bc)

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
