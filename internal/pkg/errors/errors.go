// Package errors provides error types, handling utilities, and retry logic for commitwise.
package errors

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	ErrRepository ErrorCode = iota + 100
	ErrGeneration
	ErrConfig
	ErrDecryption
	ErrValidation
	ErrInvalidArguments
	ErrMissingAPIKey
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrRepository:
		return "Repository"
	case ErrGeneration:
		return "GenerationService"
	case ErrConfig:
		return "Config"
	case ErrDecryption:
		return "Decryption"
	case ErrValidation:
		return "Validation"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrMissingAPIKey:
		return "MissingAPIKey"
	default:
		return "Unknown"
	}
}

// ErrCancelled marks an operator-initiated cancellation. It maps to exit code 0.
var ErrCancelled = errors.New("cancelled by user")

// AppError represents an application error with context.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// RepositoryKind distinguishes the failure modes of the git boundary.
type RepositoryKind int

const (
	// RepoCommandFailed is any failure of the underlying git process.
	RepoCommandFailed RepositoryKind = iota
	// RepoNotRepository means the working directory is outside a work tree.
	RepoNotRepository
	// RepoNoStagedChanges means the staged diff is empty.
	RepoNoStagedChanges
)

// String returns the string representation of RepositoryKind.
func (k RepositoryKind) String() string {
	switch k {
	case RepoNotRepository:
		return "not a repository"
	case RepoNoStagedChanges:
		return "no staged changes"
	default:
		return "git command failed"
	}
}

// RepositoryError is any failure interacting with the version-control process.
type RepositoryError struct {
	Kind   RepositoryKind
	Op     string
	Output string
	Err    error
}

func (e *RepositoryError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString("git ")
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if out := strings.TrimSpace(e.Output); out != "" {
		sb.WriteString(": ")
		sb.WriteString(out)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// Suggestion returns a remediation hint for the operator.
func (e *RepositoryError) Suggestion() string {
	switch e.Kind {
	case RepoNotRepository:
		return "Run commitwise from inside a git working tree"
	case RepoNoStagedChanges:
		return "Use 'git add <files>' to stage changes first"
	}
	switch e.Op {
	case "commit":
		return "Check your git identity (user.name, user.email) and commit hooks"
	case "push":
		return "Check your remote, upstream branch and credentials"
	}
	return ""
}

// NewRepositoryError creates a RepositoryError of the given kind.
func NewRepositoryError(kind RepositoryKind, op string, err error) *RepositoryError {
	return &RepositoryError{Kind: kind, Op: op, Err: err}
}

// IsRepositoryKind reports whether err carries a RepositoryError of the given kind.
func IsRepositoryKind(err error, kind RepositoryKind) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr) && repoErr.Kind == kind
}

// GenerationError is a failure of the remote text-generation call.
type GenerationError struct {
	RateLimited bool
	Attempts    int
	Err         error
}

func (e *GenerationError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("generation service rate limited: %v", e.Err)
	}
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Suggestion returns a remediation hint for the operator.
func (e *GenerationError) Suggestion() string {
	if e.RateLimited {
		return "Your API quota is exhausted; wait before trying again or write the message manually"
	}
	return "Check your network connection and API key, or write the message manually"
}

// ConfigError is a failure to read, write or parse the persisted configuration.
type ConfigError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Suggestion returns a remediation hint for the operator.
func (e *ConfigError) Suggestion() string {
	return fmt.Sprintf("Fix or remove %s; it is recreated with defaults on the next run", e.Path)
}

// DecryptionError means a stored credential could not be decrypted.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("cannot decrypt stored credential: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Suggestion returns a remediation hint for the operator.
func (e *DecryptionError) Suggestion() string {
	return "The passphrase may have changed since the key was stored; enter the API key again"
}

// ValidationError reports an input outside its length bounds.
type ValidationError struct {
	Field  string
	Length int
	Min    int
	Max    int
}

func (e *ValidationError) Error() string {
	if e.Length < e.Min {
		return fmt.Sprintf("%s must be at least %d characters (got %d)", e.Field, e.Min, e.Length)
	}
	return fmt.Sprintf("%s must be at most %d characters (got %d)", e.Field, e.Max, e.Length)
}

// Suggestion names the accepted range, or the config keys to change when the
// range is empty.
func (e *ValidationError) Suggestion() string {
	if e.Min > e.Max {
		return "No length fits; lower minMessageLength or raise maxCommitLength"
	}
	return fmt.Sprintf("Use between %d and %d characters", e.Min, e.Max)
}

type suggester interface {
	Suggestion() string
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// SuggestionFor returns the first suggestion found in the error chain.
func SuggestionFor(err error) string {
	if appErr := GetAppError(err); appErr != nil && appErr.Suggestion != "" {
		return appErr.Suggestion
	}
	var s suggester
	if errors.As(err, &s) {
		return s.Suggestion()
	}
	return ""
}

// IsCancelled reports whether err stems from the operator: an aborted prompt
// or an interrupt that cancelled the run's context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// GetExitCode returns the process exit code for an error.
func GetExitCode(err error) int {
	if err == nil || IsCancelled(err) {
		return 0
	}
	return 1
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(SanitizeErrorMessage(err.Error()))

	if suggestion := SuggestionFor(err); suggestion != "" {
		sb.WriteString("\n  Suggestion: ")
		sb.WriteString(suggestion)
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with the full error chain.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(FormatError(err))
	sb.WriteString("\n  Error chain:\n")
	printErrorChain(&sb, err, 2)
	return sb.String()
}

// printErrorChain prints the error chain with indentation.
func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s- %T: %v\n", prefix, err, SanitizeErrorMessage(err.Error()))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks any API keys or sensitive data in error messages.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, func(match string) string {
		return strings.Repeat("*", len(match)-4) + match[len(match)-4:]
	})
}

// apiKeyPattern matches common API key shapes (OpenAI "sk-", Google "AIza").
var apiKeyPattern = regexp.MustCompile(`(sk-[a-zA-Z0-9_-]{20,}|AIza[0-9A-Za-z_-]{30,})`)
