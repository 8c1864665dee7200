package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/commitwise/commitwise/internal/app"
	"github.com/commitwise/commitwise/internal/pkg/ai"
	"github.com/commitwise/commitwise/internal/pkg/config"
	"github.com/commitwise/commitwise/internal/pkg/credential"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/history"
	"github.com/commitwise/commitwise/internal/pkg/ui"
)

// deps holds what every command builds from the config file.
type deps struct {
	store   *config.Store
	cfg     *config.Config
	creds   *credential.Store
	history *history.FileManager
}

// loadDeps opens the config file named by --config and applies the
// --provider and --model overrides. Overrides are never persisted.
func loadDeps(cmd *cobra.Command) (*deps, error) {
	configPath, _ := cmd.Flags().GetString("config")
	store, err := config.NewStore(configPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfig, "failed to locate config file")
	}
	if configPath != "" {
		apperrors.Debug("using config file %s", configPath)
	}

	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
		apperrors.Debug("provider overridden via flag: %s", p)
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.Model = m
		apperrors.Debug("model overridden via flag: %s", m)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	apperrors.SetColor(cfg.ColorEnabled)

	cipher, err := credential.NewCipher(credential.Passphrase())
	if err != nil {
		return nil, err
	}

	return &deps{
		store:   store,
		cfg:     cfg,
		creds:   credential.NewStore(store, cipher),
		history: history.NewFileManager(history.PathFor(store.Path()), history.DefaultMaxEntries),
	}, nil
}

// uiManager picks the interactive manager unless --yes was given. Without a
// terminal the session cannot prompt, so --yes is required.
func (d *deps) uiManager(yes bool) (ui.Manager, error) {
	if yes {
		return ui.NewNonInteractiveManager(d.cfg.ColorEnabled), nil
	}
	if !ui.IsInteractive() {
		return nil, apperrors.New(apperrors.ErrInvalidArguments, "no terminal available for prompts").
			WithSuggestion("Run with --yes to take the first AI suggestion")
	}
	return ui.NewDefaultManager(d.cfg.ColorEnabled), nil
}

// generatorFactory builds the AI generator once the session knows the key.
func (d *deps) generatorFactory() app.GeneratorFactory {
	return func(apiKey string, onRetry func(attempt, maxAttempts int)) (app.Generator, error) {
		backend, err := ai.NewBackend(d.cfg, apiKey)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrGeneration, "failed to create AI backend")
		}
		apperrors.Debug("AI backend: %s (%s)", backend.Name(), backend.Model())

		opts := ai.OptionsFromConfig(d.cfg)
		opts.OnRetry = onRetry
		gen := ai.NewGenerator(backend, opts)
		if d.cfg.PromptTemplate != "" {
			pt, err := parsePromptTemplate(d.cfg.PromptTemplate)
			if err != nil {
				return nil, err
			}
			gen.SetPromptTemplate(pt)
		}
		return gen, nil
	}
}

func parsePromptTemplate(text string) (*ai.PromptTemplate, error) {
	pt, err := ai.NewPromptTemplateWithCustom(text)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfig, "invalid promptTemplate").
			WithSuggestion("Fix it with 'commitwise config set promptTemplate <template>' or set it to \"\"")
	}
	return pt, nil
}

func (d *deps) session(uiMgr ui.Manager) *app.Session {
	return app.NewSession(
		newGitClient(),
		uiMgr,
		d.creds,
		d.generatorFactory(),
		d.history,
		d.cfg,
	)
}

// signalContext is cancelled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
