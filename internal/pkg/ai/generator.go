package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/commitwise/commitwise/internal/pkg/config"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/message"
)

// ErrTimeout marks an attempt that did not answer within the timeout.
var ErrTimeout = errors.New("generation request timed out")

// Options controls a Generator.
type Options struct {
	MaxCommitLength int
	SuggestionCount int
	MaxRetries      int
	Timeout         time.Duration
	RetryDelay      time.Duration
	Types           []string
	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(attempt, maxAttempts int)
}

// OptionsFromConfig derives Options from the stored configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxCommitLength: cfg.MaxCommitLength,
		SuggestionCount: cfg.SuggestionCount,
		MaxRetries:      cfg.MaxRetries,
		Timeout:         cfg.APITimeout(),
		RetryDelay:      cfg.RetryDelay(),
		Types:           message.DefaultCatalog().Names(),
	}
}

// Generator produces candidate commit messages from a diff.
type Generator struct {
	backend Backend
	opts    Options
	prompt  *PromptTemplate
}

// NewGenerator creates a generator issuing requests through backend.
func NewGenerator(backend Backend, opts Options) *Generator {
	if opts.SuggestionCount < 1 {
		opts.SuggestionCount = 1
	}
	if len(opts.Types) == 0 {
		opts.Types = message.DefaultCatalog().Names()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.Default().APITimeout()
	}
	if opts.MaxCommitLength <= 0 {
		opts.MaxCommitLength = config.Default().MaxCommitLength
	}
	return &Generator{
		backend: backend,
		opts:    opts,
		prompt:  NewPromptTemplate(),
	}
}

// SetPromptTemplate replaces the user prompt template.
func (g *Generator) SetPromptTemplate(pt *PromptTemplate) {
	if pt != nil {
		g.prompt = pt
	}
}

// Generate returns candidate messages for diff. See GenerateExcluding.
func (g *Generator) Generate(ctx context.Context, diff string) ([]string, error) {
	return g.GenerateExcluding(ctx, diff, nil)
}

// GenerateExcluding returns candidate messages for diff, asking the backend
// not to repeat previous.
//
// Each attempt races the backend against Options.Timeout. A rate-limited
// failure ends generation at once; any other failure is retried after
// Options.RetryDelay until Options.MaxRetries attempts were made. Both end
// in a *errors.GenerationError. An empty result is not an error.
func (g *Generator) GenerateExcluding(ctx context.Context, diff string, previous []string) ([]string, error) {
	if strings.TrimSpace(diff) == "" {
		return nil, apperrors.NewRepositoryError(apperrors.RepoNoStagedChanges, "diff", nil)
	}

	data := BuildPromptData(diff, g.opts.MaxCommitLength, g.opts.SuggestionCount, g.opts.Types, previous)
	if data.Truncated {
		apperrors.Info("diff truncated to %d bytes for the prompt", data.DiffBytes)
	}
	prompt, err := g.prompt.Render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	retry := apperrors.FixedRetryConfig(g.opts.MaxRetries, g.opts.RetryDelay)
	retry.ShouldRetry = func(err error) bool { return !IsRateLimited(err) }

	var text string
	start := time.Now()
	attempts, err := apperrors.Retry(ctx, retry, func(ctx context.Context) error {
		apperrors.LogAPIRequest(g.backend.Name(), g.backend.Model(), len(prompt))
		out, err := g.attempt(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		apperrors.LogRetry(attempt, g.opts.MaxRetries, err, delay)
		if g.opts.OnRetry != nil {
			g.opts.OnRetry(attempt, g.opts.MaxRetries)
		}
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperrors.GenerationError{
			RateLimited: IsRateLimited(err),
			Attempts:    attempts,
			Err:         err,
		}
	}
	apperrors.LogAPIResponse(g.backend.Name(), len(text), time.Since(start))

	candidates := ParseCandidates(text, g.opts.MaxCommitLength)
	apperrors.Debug("parsed %d candidate(s) after %d attempt(s)", len(candidates), attempts)
	return candidates, nil
}

type completion struct {
	text string
	err  error
}

// attempt runs one request against the timeout. The request context is
// cancelled on return; a late answer lands in the buffered channel and is
// dropped.
func (g *Generator) attempt(ctx context.Context, prompt string) (string, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		text, err := g.backend.Complete(reqCtx, prompt)
		done <- completion{text: text, err: err}
	}()

	timer := time.NewTimer(g.opts.Timeout)
	defer timer.Stop()

	select {
	case c := <-done:
		return c.text, c.err
	case <-timer.C:
		return "", fmt.Errorf("%w after %v", ErrTimeout, g.opts.Timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
