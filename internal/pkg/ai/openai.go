package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the default model for OpenAI.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend talks to OpenAI or any OpenAI-compatible endpoint.
type OpenAIBackend struct {
	client *openai.Client
	config BackendConfig
}

// NewOpenAIBackend creates a backend using go-openai.
func NewOpenAIBackend(cfg BackendConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required for OpenAI provider")
	}
	cfg.applyDefaults(DefaultOpenAIModel)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	// No client timeout: the generator bounds each attempt and cancels ctx.
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name.
func (b *OpenAIBackend) Name() string { return ProviderOpenAI }

// Model returns the model in use.
func (b *OpenAIBackend) Model() string { return b.config.Model }

// Complete sends prompt as a chat completion and returns the first choice.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: b.config.Temperature,
		MaxTokens:   b.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
