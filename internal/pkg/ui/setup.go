package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/commitwise/commitwise/internal/pkg/ai"
	"github.com/commitwise/commitwise/internal/pkg/config"
	"github.com/commitwise/commitwise/internal/pkg/credential"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

// KeyStore persists an API key.
type KeyStore interface {
	SetAPIKey(key string) error
}

// SetupAnswers holds what the setup wizard collected.
type SetupAnswers struct {
	Provider string
	Model    string
	Endpoint string
	APIKey   string
}

// SetupDefaults returns the suggested answers for provider.
func SetupDefaults(provider string) SetupAnswers {
	switch provider {
	case ai.ProviderOllama:
		return SetupAnswers{Provider: provider, Model: ai.DefaultOllamaModel, Endpoint: "http://localhost:11434"}
	default:
		return SetupAnswers{Provider: ai.ProviderOpenAI, Model: ai.DefaultOpenAIModel}
	}
}

// RunInteractiveSetup walks the operator through provider, model, endpoint
// and API key, then persists the answers.
func RunInteractiveSetup(cfgMgr config.Manager, keys KeyStore) error {
	provider := ai.ProviderOpenAI
	if err := run(huh.NewSelect[string]().
		Title("Select AI provider").
		Options(
			huh.NewOption("OpenAI (or compatible endpoint)", ai.ProviderOpenAI),
			huh.NewOption("Ollama (local)", ai.ProviderOllama),
		).
		Value(&provider)); err != nil {
		return err
	}

	answers := SetupDefaults(provider)
	fields := []huh.Field{
		huh.NewInput().
			Title("Model").
			Value(&answers.Model).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("model name cannot be empty")
				}
				return nil
			}),
		huh.NewInput().
			Title("API endpoint").
			Description("Leave empty for the provider default").
			Value(&answers.Endpoint),
	}
	if ai.RequiresAPIKey(provider) {
		fields = append(fields, huh.NewInput().
			Title("API key").
			Description("Leave empty to keep the stored key").
			EchoMode(huh.EchoModePassword).
			Value(&answers.APIKey))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperrors.ErrCancelled
		}
		return err
	}

	if err := ApplySetup(cfgMgr, keys, answers); err != nil {
		return err
	}
	fmt.Printf("\nConfiguration saved to %s\n", cfgMgr.Path())
	return nil
}

// ApplySetup writes answers to the config file and stores the API key when
// one was given.
func ApplySetup(cfgMgr config.Manager, keys KeyStore, answers SetupAnswers) error {
	err := cfgMgr.Update(func(cfg *config.Config) error {
		cfg.Provider = answers.Provider
		cfg.Model = strings.TrimSpace(answers.Model)
		cfg.Endpoint = strings.TrimSpace(answers.Endpoint)
		return config.Validate(cfg)
	})
	if err != nil {
		return err
	}

	key := strings.TrimSpace(answers.APIKey)
	if key == "" {
		return nil
	}
	if err := credential.CheckFormat(answers.Provider, key); err != nil && answers.Endpoint == "" {
		apperrors.Warn("%v", err)
	}
	return keys.SetAPIKey(key)
}
