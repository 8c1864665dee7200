package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commitwise/commitwise/internal/pkg/ai"
	"github.com/commitwise/commitwise/internal/pkg/config"
	"github.com/commitwise/commitwise/internal/pkg/credential"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/history"
	"github.com/commitwise/commitwise/internal/pkg/message"
	"github.com/commitwise/commitwise/internal/pkg/ui"
)

const testDiff = "diff --git a/a.go b/a.go\n+added line\n"

// MockGitClient is a mock implementation of git.Client
type MockGitClient struct {
	mock.Mock
}

func (m *MockGitClient) CheckRepository(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGitClient) GetStagedDiff(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGitClient) Commit(ctx context.Context, msg string) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockGitClient) Push(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGitClient) Status(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGitClient) LastCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockUIManager is a mock implementation of ui.Manager
type MockUIManager struct {
	mock.Mock
	spinnerTexts []string
}

func (m *MockUIManager) SelectMode() (ui.Mode, error) {
	args := m.Called()
	return args.Get(0).(ui.Mode), args.Error(1)
}

func (m *MockUIManager) SelectCandidate(candidates []string) (ui.Pick, error) {
	args := m.Called(candidates)
	return args.Get(0).(ui.Pick), args.Error(1)
}

func (m *MockUIManager) SelectPrefix(catalog message.Catalog, maxNameLength int) (message.Prefix, error) {
	args := m.Called(catalog, maxNameLength)
	return args.Get(0).(message.Prefix), args.Error(1)
}

func (m *MockUIManager) PromptDescription(prefix string, bounds message.Bounds) (string, error) {
	args := m.Called(prefix, bounds)
	return args.String(0), args.Error(1)
}

func (m *MockUIManager) EditMessage(msg string, bounds message.Bounds) (string, error) {
	args := m.Called(msg, bounds)
	return args.String(0), args.Error(1)
}

func (m *MockUIManager) PromptAPIKey(provider string) (string, error) {
	args := m.Called(provider)
	return args.String(0), args.Error(1)
}

func (m *MockUIManager) PromptConfirm(question string) (bool, error) {
	args := m.Called(question)
	return args.Bool(0), args.Error(1)
}

func (m *MockUIManager) SelectAction() (ui.Action, error) {
	args := m.Called()
	return args.Get(0).(ui.Action), args.Error(1)
}

func (m *MockUIManager) ShowSpinner(text string) ui.Spinner {
	m.spinnerTexts = append(m.spinnerTexts, text)
	return recordingSpinner{texts: &m.spinnerTexts}
}
func (m *MockUIManager) ShowMessage(msg string)            { m.Called(msg) }
func (m *MockUIManager) ShowOutput(title, text string)     { m.Called(title, text) }
func (m *MockUIManager) ShowWarning(msg string)            { m.Called(msg) }
func (m *MockUIManager) ShowError(err error)               { m.Called(err) }
func (m *MockUIManager) ShowSuccess(msg string)            { m.Called(msg) }

type recordingSpinner struct {
	texts *[]string
}

func (recordingSpinner) Start() {}
func (recordingSpinner) Stop()  {}
func (s recordingSpinner) UpdateText(text string) {
	*s.texts = append(*s.texts, text)
}

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, diff string) ([]string, error) {
	args := m.Called(ctx, diff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGenerator) GenerateExcluding(ctx context.Context, diff string, previous []string) ([]string, error) {
	args := m.Called(ctx, diff, previous)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockCredentials is a mock implementation of Credentials
type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) APIKey() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockCredentials) SetAPIKey(key string) error {
	return m.Called(key).Error(0)
}

// MockHistoryManager is a mock implementation of history.Manager
type MockHistoryManager struct {
	mock.Mock
}

func (m *MockHistoryManager) Record(entry *history.Entry) error {
	return m.Called(entry).Error(0)
}

func (m *MockHistoryManager) List(limit int) ([]*history.Entry, error) {
	args := m.Called(limit)
	return args.Get(0).([]*history.Entry), args.Error(1)
}

func (m *MockHistoryManager) Clear() error {
	return m.Called().Error(0)
}

type fixture struct {
	git     *MockGitClient
	ui      *MockUIManager
	gen     *MockGenerator
	creds   *MockCredentials
	history *MockHistoryManager
	cfg     *config.Config
	keys    []string
	onRetry func(attempt, maxAttempts int)
}

func newFixture() *fixture {
	f := &fixture{
		git:     new(MockGitClient),
		ui:      new(MockUIManager),
		gen:     new(MockGenerator),
		creds:   new(MockCredentials),
		history: new(MockHistoryManager),
		cfg:     config.Default(),
	}
	for _, method := range []string{"ShowMessage", "ShowWarning", "ShowError", "ShowSuccess"} {
		f.ui.On(method, mock.Anything).Maybe()
	}
	f.ui.On("ShowOutput", mock.Anything, mock.Anything).Maybe()
	f.history.On("Record", mock.Anything).Return(nil).Maybe()
	return f
}

func (f *fixture) session() *Session {
	factory := func(apiKey string, onRetry func(attempt, maxAttempts int)) (Generator, error) {
		f.keys = append(f.keys, apiKey)
		f.onRetry = onRetry
		return f.gen, nil
	}
	return NewSession(f.git, f.ui, f.creds, factory, f.history, f.cfg)
}

func (f *fixture) stagedDiff() {
	f.git.On("CheckRepository", mock.Anything).Return(nil).Once()
	f.git.On("GetStagedDiff", mock.Anything).Return(testDiff, nil).Once()
}

func TestSession_AICallSequence(t *testing.T) {
	f := newFixture()
	var calls []string
	track := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}

	f.git.On("CheckRepository", mock.Anything).Run(track("verify")).Return(nil).Once()
	f.git.On("GetStagedDiff", mock.Anything).Run(track("diff")).Return(testDiff, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Run(track("generate")).
		Return([]string{"feat: add line", "chore: tidy"}, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add line").Run(track("commit")).Return(nil).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"verify", "diff", "generate", "commit"}, calls)
	assert.Equal(t, []string{"sk-test"}, f.keys)
	f.history.AssertCalled(t, "Record", mock.MatchedBy(func(e *history.Entry) bool {
		return e.Message == "feat: add line" && e.Source == history.SourceAI &&
			e.Provider == "openai" && e.DiffSummary == "1 file changed, 1 insertion(+), 0 deletions(-)"
	}))
	f.git.AssertNotCalled(t, "Push", mock.Anything)
	f.ui.AssertNotCalled(t, "SelectMode")
}

func TestSession_NotARepository(t *testing.T) {
	f := newFixture()
	repoErr := apperrors.NewRepositoryError(apperrors.RepoNotRepository, "rev-parse", nil)
	f.git.On("CheckRepository", mock.Anything).Return(repoErr).Once()

	err := f.session().Run(context.Background(), Options{})

	assert.True(t, apperrors.IsRepositoryKind(err, apperrors.RepoNotRepository))
	assert.Equal(t, 1, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "GetStagedDiff", mock.Anything)
}

func TestSession_NoStagedChanges(t *testing.T) {
	f := newFixture()
	f.git.On("CheckRepository", mock.Anything).Return(nil).Once()
	f.git.On("GetStagedDiff", mock.Anything).
		Return("", apperrors.NewRepositoryError(apperrors.RepoNoStagedChanges, "diff", nil)).Once()

	err := f.session().Run(context.Background(), Options{})

	require.NoError(t, err)
	f.ui.AssertCalled(t, "ShowWarning", mock.AnythingOfType("string"))
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.ui.AssertNotCalled(t, "SelectMode")
}

func TestSession_InteractivePickAndConfirm(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser", "fix: handle nil"}, nil).Once()
	f.ui.On("SelectCandidate", []string{"feat: add parser", "fix: handle nil"}).Return(ui.Pick{Kind: ui.PickMessage, Message: "fix: handle nil"}, nil).Once()
	f.ui.On("PromptConfirm", "Edit the message before committing?").Return(false, nil).Once()
	f.ui.On("PromptConfirm", "Commit with this message?").Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "fix: handle nil").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.git.AssertExpectations(t)
	f.ui.AssertExpectations(t)
}

func TestSession_RateLimitedFallsBackToManual(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).
		Return(nil, &apperrors.GenerationError{RateLimited: true, Attempts: 1, Err: errors.New("quota")}).Once()

	feat := message.DefaultCatalog()[0]
	f.ui.On("SelectPrefix", mock.Anything, 60).Return(feat, nil).Once()
	f.ui.On("PromptDescription", "feat", message.Bounds{Min: 10, Max: 66}).Return("add login page", nil).Once()
	f.ui.On("PromptConfirm", "Edit the message before committing?").Return(false, nil).Once()
	f.ui.On("PromptConfirm", "Commit with this message?").Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add login page").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))

	f.ui.AssertCalled(t, "ShowWarning", "AI quota or rate limit reached. Switching to manual mode.")
	f.history.AssertCalled(t, "Record", mock.MatchedBy(func(e *history.Entry) bool {
		return e.Source == history.SourceManual && e.Provider == ""
	}))
	f.git.AssertExpectations(t)
}

func TestSession_ExhaustedWithYesFails(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	genErr := &apperrors.GenerationError{Attempts: 3, Err: errors.New("502")}
	f.gen.On("Generate", mock.Anything, testDiff).Return(nil, genErr).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	assert.ErrorIs(t, err, genErr)
	assert.Equal(t, 1, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_RegenerateExcludesPrevious(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser"}, nil).Once()
	f.ui.On("SelectCandidate", []string{"feat: add parser"}).Return(ui.Pick{Kind: ui.PickRegenerate}, nil).Once()
	f.gen.On("GenerateExcluding", mock.Anything, testDiff, []string{"feat: add parser"}).Return([]string{"feat: add lexer"}, nil).Once()
	f.ui.On("SelectCandidate", []string{"feat: add lexer"}).Return(ui.Pick{Kind: ui.PickMessage, Message: "feat: add lexer"}, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add lexer").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.gen.AssertExpectations(t)
	// The generator is built once and reused.
	assert.Len(t, f.keys, 1)
}

func TestSession_EmptyCandidatesWithYes(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{}, nil).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	require.Error(t, err)
	assert.Equal(t, 1, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_EmptyCandidatesGoManual(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{}, nil).Once()
	f.ui.On("SelectPrefix", mock.Anything, mock.Anything).Return(message.Prefix{Name: "docs"}, nil).Once()
	f.ui.On("PromptDescription", "docs", mock.Anything).Return("explain setup", nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "docs: explain setup").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.ui.AssertNotCalled(t, "SelectCandidate", mock.Anything)
}

func TestSession_DeclineConfirmCancels(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeManual, nil).Once()
	f.ui.On("SelectPrefix", mock.Anything, mock.Anything).Return(message.Prefix{Name: "fix"}, nil).Once()
	f.ui.On("PromptDescription", "fix", mock.Anything).Return("handle nil config", nil).Once()
	f.ui.On("PromptConfirm", "Edit the message before committing?").Return(false, nil).Once()
	f.ui.On("PromptConfirm", "Commit with this message?").Return(false, nil).Once()

	err := f.session().Run(context.Background(), Options{})

	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.Equal(t, 0, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	f.creds.AssertNotCalled(t, "APIKey")
}

func TestSession_EditWarnsOnNonConventional(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeManual, nil).Once()
	f.ui.On("SelectPrefix", mock.Anything, mock.Anything).Return(message.Prefix{Name: "fix"}, nil).Once()
	f.ui.On("PromptDescription", "fix", mock.Anything).Return("handle nil config", nil).Once()
	f.ui.On("PromptConfirm", "Edit the message before committing?").Return(true, nil).Once()
	f.ui.On("EditMessage", "fix: handle nil config", message.Bounds{Min: 10, Max: 72}).
		Return("Handle nil config", nil).Once()
	f.ui.On("PromptConfirm", "Commit with this message?").Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "Handle nil config").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.ui.AssertCalled(t, "ShowWarning", "Message does not follow the conventional commit format")
}

func TestSession_DryRun(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser"}, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{Yes: true, DryRun: true}))

	f.ui.AssertCalled(t, "ShowMessage", "feat: add parser")
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	f.history.AssertNotCalled(t, "Record", mock.Anything)
}

func TestSession_PromptsForMissingKey(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("", credential.ErrNoCredential).Once()
	f.ui.On("PromptAPIKey", "openai").Return("sk-abcdefghijklmnopqrstuvwx", nil).Once()
	f.creds.On("SetAPIKey", "sk-abcdefghijklmnopqrstuvwx").Return(nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser"}, nil).Once()
	f.ui.On("SelectCandidate", mock.Anything).Return(ui.Pick{Kind: ui.PickMessage, Message: "feat: add parser"}, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add parser").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.creds.AssertExpectations(t)
	assert.Equal(t, []string{"sk-abcdefghijklmnopqrstuvwx"}, f.keys)
}

func TestSession_MissingKeyWithYes(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("", credential.ErrNoCredential).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrMissingAPIKey, appErr.Code)
	f.ui.AssertNotCalled(t, "PromptAPIKey", mock.Anything)
}

func TestSession_OllamaSkipsCredentials(t *testing.T) {
	f := newFixture()
	f.cfg.Provider = ai.ProviderOllama
	f.stagedDiff()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser"}, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add parser").Return(nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{Yes: true}))
	f.creds.AssertNotCalled(t, "APIKey")
	assert.Equal(t, []string{""}, f.keys)
}

func TestSession_PostCommitActions(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeManual, nil).Once()
	f.ui.On("SelectPrefix", mock.Anything, mock.Anything).Return(message.Prefix{Name: "ci"}, nil).Once()
	f.ui.On("PromptDescription", "ci", mock.Anything).Return("cache modules", nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "ci: cache modules").Return(nil).Once()

	f.ui.On("SelectAction").Return(ui.ActionPush, nil).Once()
	f.git.On("Push", mock.Anything).Return(apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "push", errors.New("rejected"))).Once()
	f.ui.On("SelectAction").Return(ui.ActionStatus, nil).Once()
	f.git.On("Status", mock.Anything).Return("## main\n", nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionLog, nil).Once()
	f.git.On("LastCommit", mock.Anything).Return("commit abc\n", nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))

	f.ui.AssertCalled(t, "ShowWarning", mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "Push failed: ")
	}))
	f.ui.AssertCalled(t, "ShowOutput", "Status", "## main\n")
	f.ui.AssertCalled(t, "ShowOutput", "Last commit", "commit abc\n")
	f.git.AssertExpectations(t)
}

func TestSession_HistoryDisabled(t *testing.T) {
	f := newFixture()
	f.cfg.HistoryEnabled = false
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser"}, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add parser").Return(nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{Yes: true}))
	f.history.AssertNotCalled(t, "Record", mock.Anything)
}

func TestSession_Suggest(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"feat: add parser", "fix: handle nil"}, nil).Once()

	got, err := f.session().Suggest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"feat: add parser", "fix: handle nil"}, got)
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_ManualRejectsImpossibleBounds(t *testing.T) {
	f := newFixture()
	f.cfg.MaxCommitLength = 8
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeManual, nil).Once()

	err := f.session().Run(context.Background(), Options{})

	require.Error(t, err)
	f.ui.AssertNotCalled(t, "SelectPrefix", mock.Anything, mock.Anything)
}

func TestSession_YesSkipsCandidatesOutsideBounds(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).
		Return([]string{"fix: x", "fix: reject empty config"}, nil).Once()
	f.git.On("Commit", mock.Anything, "fix: reject empty config").Return(nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{Yes: true}))
	f.git.AssertExpectations(t)
}

func TestSession_YesFailsWhenNoCandidateFits(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"fix: x", "docs: y"}, nil).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	require.Error(t, err)
	assert.Equal(t, 1, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_ShortCandidatesNotOffered(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"fix: x", "fix: handle nil"}, nil).Once()
	f.ui.On("SelectCandidate", []string{"fix: handle nil"}).
		Return(ui.Pick{Kind: ui.PickMessage, Message: "fix: handle nil"}, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "fix: handle nil").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionExit, nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{}))
	f.ui.AssertExpectations(t)
}

func TestSession_RejectsMessageOutsideBounds(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeAI, nil).Once()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return([]string{"fix: handle nil"}, nil).Once()
	f.ui.On("SelectCandidate", mock.Anything).Return(ui.Pick{Kind: ui.PickMessage, Message: "fix: x"}, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()

	err := f.session().Run(context.Background(), Options{})

	var valErr *apperrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 10, valErr.Min)
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_InterruptDuringGenerationIsCancellation(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).Return(nil, context.Canceled).Once()

	err := f.session().Run(context.Background(), Options{Yes: true})

	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.Equal(t, 0, apperrors.GetExitCode(err))
	f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestSession_InterruptDuringPushIsCancellation(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.ui.On("SelectMode").Return(ui.ModeManual, nil).Once()
	f.ui.On("SelectPrefix", mock.Anything, mock.Anything).Return(message.Prefix{Name: "ci"}, nil).Once()
	f.ui.On("PromptDescription", "ci", mock.Anything).Return("cache modules", nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(false, nil).Once()
	f.ui.On("PromptConfirm", mock.Anything).Return(true, nil).Once()
	f.git.On("Commit", mock.Anything, "ci: cache modules").Return(nil).Once()
	f.ui.On("SelectAction").Return(ui.ActionPush, nil).Once()
	f.git.On("Push", mock.Anything).Return(apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "push",
		fmt.Errorf("interrupted: %w", context.Canceled))).Once()

	err := f.session().Run(context.Background(), Options{})

	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.Equal(t, 0, apperrors.GetExitCode(err))
	f.ui.AssertNumberOfCalls(t, "SelectAction", 1)
}

func TestSession_RetryShownOnSpinner(t *testing.T) {
	f := newFixture()
	f.stagedDiff()
	f.creds.On("APIKey").Return("sk-test", nil).Once()
	f.gen.On("Generate", mock.Anything, testDiff).
		Run(func(mock.Arguments) { f.onRetry(1, 3) }).
		Return([]string{"feat: add parser"}, nil).Once()
	f.git.On("Commit", mock.Anything, "feat: add parser").Return(nil).Once()

	require.NoError(t, f.session().Run(context.Background(), Options{Yes: true}))
	assert.Equal(t, []string{"Generating commit messages...", "Retrying (2/3)..."}, f.ui.spinnerTexts)

	// Outside a generation round there is no spinner to update.
	assert.NotPanics(t, func() { f.onRetry(2, 3) })
}
