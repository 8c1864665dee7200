// Package ai turns a staged diff into candidate commit messages using a
// text-generation backend.
package ai

import "context"

// Provider names accepted in the configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

const (
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.2
	// DefaultMaxTokens is the default response budget.
	DefaultMaxTokens = 500
)

// Backend is a single "generate text from prompt" request.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Model() string
}

// BackendConfig contains the settings shared by all backends.
type BackendConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float32
	MaxTokens   int
}

func (c *BackendConfig) applyDefaults(model string) {
	if c.Model == "" {
		c.Model = model
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}
