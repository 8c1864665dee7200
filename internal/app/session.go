// Package app contains the interactive commit session that ties the
// repository, generator and operator prompts together.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/commitwise/commitwise/internal/pkg/ai"
	"github.com/commitwise/commitwise/internal/pkg/config"
	"github.com/commitwise/commitwise/internal/pkg/credential"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/git"
	"github.com/commitwise/commitwise/internal/pkg/history"
	"github.com/commitwise/commitwise/internal/pkg/message"
	"github.com/commitwise/commitwise/internal/pkg/ui"
)

// MaxRegenerations caps how many times the operator can ask for new
// suggestions before falling back to the manual flow.
const MaxRegenerations = 5

// Generator produces candidate messages for a diff.
type Generator interface {
	Generate(ctx context.Context, diff string) ([]string, error)
	GenerateExcluding(ctx context.Context, diff string, previous []string) ([]string, error)
}

// GeneratorFactory builds a Generator once the API key is known. onRetry is
// called after each failed attempt that will be retried.
type GeneratorFactory func(apiKey string, onRetry func(attempt, maxAttempts int)) (Generator, error)

// Credentials resolves and persists the API key.
type Credentials interface {
	APIKey() (string, error)
	SetAPIKey(key string) error
}

// Options contains per-invocation switches.
type Options struct {
	// DryRun prints the final message instead of committing.
	DryRun bool
	// Yes takes the first suggestion and skips every prompt.
	Yes bool
}

// Session runs one commit from staged diff to post-commit actions.
type Session struct {
	git          git.Client
	ui           ui.Manager
	credentials  Credentials
	newGenerator GeneratorFactory
	history      history.Manager
	config       *config.Config
	catalog      message.Catalog

	generator Generator
	spinner   ui.Spinner
}

// NewSession creates a Session. historyMgr may be nil to disable recording.
func NewSession(
	gitClient git.Client,
	uiManager ui.Manager,
	creds Credentials,
	newGenerator GeneratorFactory,
	historyMgr history.Manager,
	cfg *config.Config,
) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Session{
		git:          gitClient,
		ui:           uiManager,
		credentials:  creds,
		newGenerator: newGenerator,
		history:      historyMgr,
		config:       cfg,
		catalog:      message.DefaultCatalog(),
	}
}

// Run executes the session. Operator cancellation, including an interrupt
// that cancels ctx, is reported as apperrors.ErrCancelled; a repository
// without staged changes is not an error.
func (s *Session) Run(ctx context.Context, opts Options) error {
	return cancelled(s.run(ctx, opts))
}

// cancelled folds context cancellation into apperrors.ErrCancelled.
func cancelled(err error) error {
	if err != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperrors.ErrCancelled, err)
	}
	return err
}

func (s *Session) run(ctx context.Context, opts Options) error {
	if err := s.git.CheckRepository(ctx); err != nil {
		return err
	}

	diff, err := s.git.GetStagedDiff(ctx)
	if err != nil {
		if apperrors.IsRepositoryKind(err, apperrors.RepoNoStagedChanges) {
			s.ui.ShowWarning("No staged changes. Stage files with `git add` first.")
			return nil
		}
		return err
	}

	mode := ui.ModeAI
	if !opts.Yes {
		if mode, err = s.ui.SelectMode(); err != nil {
			return err
		}
	}

	msg, source := "", history.SourceManual
	if mode == ui.ModeAI {
		if msg, err = s.suggest(ctx, diff, opts.Yes); err != nil {
			return err
		}
		if msg != "" {
			source = history.SourceAI
		}
	}
	if msg == "" {
		if msg, err = s.compose(); err != nil {
			return err
		}
	}

	if !opts.Yes {
		if msg, err = s.review(msg); err != nil {
			return err
		}
	}

	if err := s.messageBounds().Validate("message", msg); err != nil {
		return err
	}

	if opts.DryRun {
		s.ui.ShowMessage(msg)
		s.ui.ShowSuccess("Dry run: nothing was committed")
		return nil
	}

	if err := s.git.Commit(ctx, msg); err != nil {
		return err
	}
	s.ui.ShowSuccess("Committed: " + msg)
	s.record(msg, source, diff)

	if opts.Yes {
		return nil
	}
	return s.afterCommit(ctx)
}

// Suggest returns the generated candidates for the staged diff without
// committing anything.
func (s *Session) Suggest(ctx context.Context) ([]string, error) {
	if err := s.git.CheckRepository(ctx); err != nil {
		return nil, err
	}
	diff, err := s.git.GetStagedDiff(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := s.getGenerator(false)
	if err != nil {
		return nil, err
	}
	candidates, err := s.generate(ctx, gen, diff, nil)
	return candidates, cancelled(err)
}

// suggest runs the AI path. An empty message with a nil error means the
// operator should fall back to the manual flow.
func (s *Session) suggest(ctx context.Context, diff string, yes bool) (string, error) {
	gen, err := s.getGenerator(yes)
	if err != nil {
		return "", err
	}

	var previous []string
	for round := 0; round <= MaxRegenerations; round++ {
		candidates, err := s.generate(ctx, gen, diff, previous)
		if err != nil {
			var genErr *apperrors.GenerationError
			if yes || !errors.As(err, &genErr) {
				return "", err
			}
			if genErr.RateLimited {
				s.ui.ShowWarning("AI quota or rate limit reached. Switching to manual mode.")
			} else {
				s.ui.ShowWarning(fmt.Sprintf("AI suggestions failed after %d attempts. Switching to manual mode.", genErr.Attempts))
			}
			return "", nil
		}

		if len(candidates) == 0 {
			if yes {
				return "", apperrors.New(apperrors.ErrGeneration, "no usable suggestions were generated").
					WithSuggestion("Run without --yes to write the message yourself")
			}
			s.ui.ShowWarning("No usable suggestions. Switching to manual mode.")
			return "", nil
		}
		if yes {
			return candidates[0], nil
		}

		pick, err := s.ui.SelectCandidate(candidates)
		if err != nil {
			return "", err
		}
		switch pick.Kind {
		case ui.PickMessage:
			return pick.Message, nil
		case ui.PickWriteOwn:
			return "", nil
		}
		previous = append(previous, candidates...)
	}

	s.ui.ShowWarning("Too many regenerations. Switching to manual mode.")
	return "", nil
}

// generate runs one generation round and keeps the candidates that fit the
// message bounds.
func (s *Session) generate(ctx context.Context, gen Generator, diff string, previous []string) ([]string, error) {
	s.spinner = s.ui.ShowSpinner("Generating commit messages...")
	s.spinner.Start()
	defer func() {
		s.spinner.Stop()
		s.spinner = nil
	}()

	var candidates []string
	var err error
	if len(previous) == 0 {
		candidates, err = gen.Generate(ctx, diff)
	} else {
		candidates, err = gen.GenerateExcluding(ctx, diff, previous)
	}
	if err != nil {
		return nil, err
	}

	bounds := s.messageBounds()
	kept := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if err := bounds.Validate("message", c); err != nil {
			apperrors.Debug("dropping suggestion %q: %v", c, err)
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// retrying shows the retry count on the active spinner.
func (s *Session) retrying(attempt, maxAttempts int) {
	if s.spinner != nil {
		s.spinner.UpdateText(fmt.Sprintf("Retrying (%d/%d)...", attempt+1, maxAttempts))
	}
}

func (s *Session) messageBounds() message.Bounds {
	return message.MessageBounds(s.config.MinMessageLength, s.config.MaxCommitLength)
}

// getGenerator builds the generator on first use, prompting for the API key
// when none is stored.
func (s *Session) getGenerator(yes bool) (Generator, error) {
	if s.generator != nil {
		return s.generator, nil
	}

	var key string
	if ai.RequiresAPIKey(s.config.Provider) {
		var err error
		key, err = s.credentials.APIKey()
		if errors.Is(err, credential.ErrNoCredential) {
			if yes {
				return nil, apperrors.New(apperrors.ErrMissingAPIKey, "no API key configured").
					WithSuggestion(fmt.Sprintf("Run 'commitwise config init' or set %s", credential.APIKeyEnv))
			}
			key, err = s.promptAPIKey()
		}
		if err != nil {
			return nil, err
		}
	}

	gen, err := s.newGenerator(key, s.retrying)
	if err != nil {
		return nil, err
	}
	s.generator = gen
	return gen, nil
}

func (s *Session) promptAPIKey() (string, error) {
	key, err := s.ui.PromptAPIKey(s.config.Provider)
	if err != nil {
		return "", err
	}
	if err := credential.CheckFormat(s.config.Provider, key); err != nil && s.config.Endpoint == "" {
		s.ui.ShowWarning(err.Error())
	}
	if err := s.credentials.SetAPIKey(key); err != nil {
		s.ui.ShowWarning("Could not save the API key: " + err.Error())
	}
	return key, nil
}

// compose runs the manual prefix flow.
func (s *Session) compose() (string, error) {
	maxName := s.config.MaxCommitLength - message.Length(message.Separator) - s.config.MinMessageLength
	if maxName < 1 {
		return "", apperrors.New(apperrors.ErrInvalidArguments,
			fmt.Sprintf("maxCommitLength %d leaves no room for a %d character description",
				s.config.MaxCommitLength, s.config.MinMessageLength))
	}

	prefix, err := s.ui.SelectPrefix(s.catalog, maxName)
	if err != nil {
		return "", err
	}
	bounds := message.DescriptionBounds(prefix.Name, s.config.MinMessageLength, s.config.MaxCommitLength)
	description, err := s.ui.PromptDescription(prefix.Name, bounds)
	if err != nil {
		return "", err
	}
	return message.Compose(prefix.Name, description), nil
}

// review shows msg, offers an edit and asks for confirmation.
func (s *Session) review(msg string) (string, error) {
	s.ui.ShowMessage(msg)

	edit, err := s.ui.PromptConfirm("Edit the message before committing?")
	if err != nil {
		return "", err
	}
	if edit {
		if msg, err = s.ui.EditMessage(msg, s.messageBounds()); err != nil {
			return "", err
		}
		if !message.Parse(msg).IsConventional(s.catalog) {
			s.ui.ShowWarning("Message does not follow the conventional commit format")
		}
		s.ui.ShowMessage(msg)
	}

	ok, err := s.ui.PromptConfirm("Commit with this message?")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.ErrCancelled
	}
	return msg, nil
}

func (s *Session) record(msg string, source history.Source, diff string) {
	if s.history == nil || !s.config.HistoryEnabled {
		return
	}
	entry := &history.Entry{
		Message:     msg,
		Source:      source,
		DiffSummary: history.DiffSummary(diff),
	}
	if source == history.SourceAI {
		entry.Provider = s.config.Provider
		entry.Model = s.config.Model
	}
	if err := s.history.Record(entry); err != nil {
		apperrors.Warn("failed to record history: %v", err)
	}
}

// afterCommit loops over the post-commit menu until the operator exits.
func (s *Session) afterCommit(ctx context.Context) error {
	for {
		action, err := s.ui.SelectAction()
		if err != nil {
			if errors.Is(err, apperrors.ErrCancelled) {
				return nil
			}
			return err
		}

		switch action {
		case ui.ActionPush:
			spinner := s.ui.ShowSpinner("Pushing...")
			spinner.Start()
			err := s.git.Push(ctx)
			spinner.Stop()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.ui.ShowWarning("Push failed: " + err.Error())
				continue
			}
			s.ui.ShowSuccess("Pushed")
		case ui.ActionStatus:
			out, err := s.git.Status(ctx)
			if err != nil {
				s.ui.ShowError(err)
				continue
			}
			s.ui.ShowOutput("Status", out)
		case ui.ActionLog:
			out, err := s.git.LastCommit(ctx)
			if err != nil {
				s.ui.ShowError(err)
				continue
			}
			s.ui.ShowOutput("Last commit", out)
		default:
			return nil
		}
	}
}
