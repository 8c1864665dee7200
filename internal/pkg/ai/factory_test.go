package ai

import (
	"testing"

	"github.com/commitwise/commitwise/internal/pkg/config"
)

func TestNewBackend_OpenAI(t *testing.T) {
	cfg := config.Default()

	backend, err := NewBackend(cfg, "sk-test-key-that-is-long-enough")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if backend.Name() != ProviderOpenAI {
		t.Errorf("Name() = %q, want %q", backend.Name(), ProviderOpenAI)
	}
	if backend.Model() != "gpt-4o-mini" {
		t.Errorf("Model() = %q, want %q", backend.Model(), "gpt-4o-mini")
	}
}

func TestNewBackend_OpenAIRequiresKey(t *testing.T) {
	if _, err := NewBackend(config.Default(), ""); err == nil {
		t.Error("NewBackend() should fail without an API key")
	}
}

func TestNewBackend_Ollama(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = ProviderOllama

	backend, err := NewBackend(cfg, "")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if backend.Name() != ProviderOllama {
		t.Errorf("Name() = %q, want %q", backend.Name(), ProviderOllama)
	}
	if backend.Model() != DefaultOllamaModel {
		t.Errorf("Model() = %q, want %q", backend.Model(), DefaultOllamaModel)
	}
}

func TestNewBackend_OllamaCustomModelAndEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = ProviderOllama
	cfg.Model = "qwen2.5-coder"
	cfg.Endpoint = "http://192.168.1.100:11434"

	backend, err := NewBackend(cfg, "")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if backend.Model() != "qwen2.5-coder" {
		t.Errorf("Model() = %q, want %q", backend.Model(), "qwen2.5-coder")
	}
}

func TestNewBackend_OllamaInvalidEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = ProviderOllama
	cfg.Endpoint = "localhost:11434"

	if _, err := NewBackend(cfg, ""); err == nil {
		t.Error("NewBackend() should reject an endpoint without scheme")
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "deepthought"

	if _, err := NewBackend(cfg, "key"); err == nil {
		t.Error("NewBackend() should fail for an unknown provider")
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if !RequiresAPIKey(ProviderOpenAI) {
		t.Error("openai should require an API key")
	}
	if RequiresAPIKey(ProviderOllama) {
		t.Error("ollama should not require an API key")
	}
}
