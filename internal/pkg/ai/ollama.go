package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// DefaultOllamaModel is the default model for Ollama.
const DefaultOllamaModel = "llama3.2"

// OllamaBackend talks to a local or remote Ollama server.
type OllamaBackend struct {
	client *ollama.Client
	config BackendConfig
}

// NewOllamaBackend creates a backend for cfg.Endpoint, or for OLLAMA_HOST
// when no endpoint is configured.
func NewOllamaBackend(cfg BackendConfig) (*OllamaBackend, error) {
	cfg.applyDefaults(DefaultOllamaModel)

	var client *ollama.Client
	if cfg.Endpoint != "" {
		if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
			return nil, fmt.Errorf("endpoint must start with http:// or https://")
		}
		base, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama endpoint: %w", err)
		}
		client = ollama.NewClient(base, http.DefaultClient)
	} else {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		client = c
	}

	return &OllamaBackend{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (b *OllamaBackend) Name() string { return ProviderOllama }

// Model returns the model in use.
func (b *OllamaBackend) Model() string { return b.config.Model }

// Complete streams a chat response and returns the concatenated text.
func (b *OllamaBackend) Complete(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder
	err := b.client.Chat(ctx, &ollama.ChatRequest{
		Model: b.config.Model,
		Messages: []ollama.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Options: map[string]any{
			"temperature": b.config.Temperature,
			"num_predict": b.config.MaxTokens,
		},
	}, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return sb.String(), nil
}
