// Package ui provides the interactive terminal prompts used by commitwise.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/message"
)

// ErrInteractionRequired is returned by the non-interactive manager for
// prompts that have no sensible automatic answer.
var ErrInteractionRequired = errors.New("operator input required but session is non-interactive")

// Mode is how the operator wants to produce the message.
type Mode int

const (
	ModeAI Mode = iota
	ModeManual
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeAI:
		return "ai"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Action is a post-commit choice from the terminal menu.
type Action int

const (
	ActionPush Action = iota
	ActionStatus
	ActionLog
	ActionExit
)

// String returns the string representation of an Action.
func (a Action) String() string {
	switch a {
	case ActionPush:
		return "push"
	case ActionStatus:
		return "status"
	case ActionLog:
		return "log"
	case ActionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// PickKind says what the operator chose from the candidate menu.
type PickKind int

const (
	PickMessage PickKind = iota
	PickWriteOwn
	PickRegenerate
)

// Pick is the result of the candidate menu. Message is set for PickMessage.
type Pick struct {
	Kind    PickKind
	Message string
}

const (
	writeOwnIndex   = -1
	regenerateIndex = -2
	customIndex     = -1
)

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager defines the operator-facing prompts of a session.
type Manager interface {
	SelectMode() (Mode, error)
	SelectCandidate(candidates []string) (Pick, error)
	SelectPrefix(catalog message.Catalog, maxNameLength int) (message.Prefix, error)
	PromptDescription(prefix string, bounds message.Bounds) (string, error)
	EditMessage(msg string, bounds message.Bounds) (string, error)
	PromptAPIKey(provider string) (string, error)
	PromptConfirm(question string) (bool, error)
	SelectAction() (Action, error)
	ShowSpinner(text string) Spinner
	ShowMessage(msg string)
	ShowOutput(title, text string)
	ShowWarning(msg string)
	ShowError(err error)
	ShowSuccess(msg string)
}

// styles holds the lipgloss styles for UI rendering.
type styles struct {
	title      lipgloss.Style
	subject    lipgloss.Style
	body       lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errorStyle lipgloss.Style
	spinner    lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{
			title:      plain,
			subject:    plain,
			body:       plain,
			success:    plain,
			warning:    plain,
			errorStyle: plain,
			spinner:    plain,
		}
	}

	return &styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		subject: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		body: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		errorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
	}
}

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// DefaultManager implements Manager with huh forms and a bubbletea spinner.
type DefaultManager struct {
	colorEnabled bool
	styles       *styles
	out          io.Writer
}

// NewDefaultManager creates a DefaultManager writing to stdout.
func NewDefaultManager(colorEnabled bool) *DefaultManager {
	return &DefaultManager{
		colorEnabled: colorEnabled,
		styles:       newStyles(colorEnabled),
		out:          os.Stdout,
	}
}

// run maps huh's abort into the application's cancellation error.
func run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return apperrors.ErrCancelled
	}
	return err
}

// SelectMode asks whether to use AI suggestions or the manual prefix menu.
func (m *DefaultManager) SelectMode() (Mode, error) {
	mode := ModeAI
	err := run(huh.NewSelect[Mode]().
		Title("How do you want to write the commit message?").
		Options(
			huh.NewOption("AI suggestions", ModeAI),
			huh.NewOption("Choose prefix manually", ModeManual),
		).
		Value(&mode))
	return mode, err
}

// SelectCandidate lists the generated messages plus "write my own" and
// "regenerate".
func (m *DefaultManager) SelectCandidate(candidates []string) (Pick, error) {
	options := make([]huh.Option[int], 0, len(candidates)+2)
	for i, c := range candidates {
		options = append(options, huh.NewOption(c, i))
	}
	options = append(options,
		huh.NewOption("Write my own", writeOwnIndex),
		huh.NewOption("Regenerate", regenerateIndex),
	)

	choice := 0
	if len(candidates) == 0 {
		choice = writeOwnIndex
	}
	if err := run(huh.NewSelect[int]().
		Title("Pick a commit message").
		Options(options...).
		Value(&choice)); err != nil {
		return Pick{}, err
	}

	switch choice {
	case writeOwnIndex:
		return Pick{Kind: PickWriteOwn}, nil
	case regenerateIndex:
		return Pick{Kind: PickRegenerate}, nil
	default:
		return Pick{Kind: PickMessage, Message: candidates[choice]}, nil
	}
}

// SelectPrefix shows the catalog plus a "custom" entry. A custom prefix name
// is limited to maxNameLength characters.
func (m *DefaultManager) SelectPrefix(catalog message.Catalog, maxNameLength int) (message.Prefix, error) {
	options := make([]huh.Option[int], 0, len(catalog)+1)
	for i, p := range catalog {
		options = append(options, huh.NewOption(fmt.Sprintf("%-9s %s", p.Name, p.Description), i))
	}
	options = append(options, huh.NewOption("custom    Enter your own prefix", customIndex))

	choice := 0
	if err := run(huh.NewSelect[int]().
		Title("Select the type of change").
		Options(options...).
		Height(len(options) + 2).
		Value(&choice)); err != nil {
		return message.Prefix{}, err
	}
	if choice != customIndex {
		return catalog[choice], nil
	}

	var name, description string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Prefix").
			Value(&name).
			Validate(func(s string) error {
				return ValidatePrefixName(s, maxNameLength)
			}),
		huh.NewInput().
			Title("What does this prefix mean?").
			Value(&description),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return message.Prefix{}, apperrors.ErrCancelled
		}
		return message.Prefix{}, err
	}

	custom := catalog.WithCustom(strings.TrimSpace(name), strings.TrimSpace(description))
	return custom[len(custom)-1], nil
}

// ValidatePrefixName checks an ad-hoc prefix typed by the operator.
func ValidatePrefixName(name string, maxLength int) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return errors.New("prefix cannot be empty")
	case strings.ContainsAny(name, " \t:"):
		return errors.New("prefix cannot contain spaces or colons")
	case message.Length(name) > maxLength:
		return fmt.Errorf("prefix must be at most %d characters", maxLength)
	}
	return nil
}

// PromptDescription reads the description that follows prefix. Input outside
// bounds is rejected in place and the operator is asked again.
func (m *DefaultManager) PromptDescription(prefix string, bounds message.Bounds) (string, error) {
	var description string
	err := run(huh.NewInput().
		Title(prefix + message.Separator).
		Description(fmt.Sprintf("Describe the change (%d-%d characters)", bounds.Min, bounds.Max)).
		CharLimit(bounds.Max).
		Value(&description).
		Validate(func(s string) error {
			return bounds.Validate("description", s)
		}))
	return strings.TrimSpace(description), err
}

// EditMessage lets the operator adjust the full message before committing.
func (m *DefaultManager) EditMessage(msg string, bounds message.Bounds) (string, error) {
	edited := msg
	err := run(huh.NewInput().
		Title("Edit commit message").
		CharLimit(bounds.Max).
		Value(&edited).
		Validate(func(s string) error {
			return bounds.Validate("message", s)
		}))
	return strings.TrimSpace(edited), err
}

// PromptAPIKey asks for a credential with masked input.
func (m *DefaultManager) PromptAPIKey(provider string) (string, error) {
	var key string
	err := run(huh.NewInput().
		Title(fmt.Sprintf("Enter your %s API key", provider)).
		Description("It is stored encrypted in the commitwise config file").
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("API key cannot be empty")
			}
			return nil
		}))
	return strings.TrimSpace(key), err
}

// PromptConfirm asks a yes/no question.
func (m *DefaultManager) PromptConfirm(question string) (bool, error) {
	confirmed := true
	err := run(huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed))
	return confirmed, err
}

// SelectAction shows the post-commit menu.
func (m *DefaultManager) SelectAction() (Action, error) {
	action := ActionExit
	err := run(huh.NewSelect[Action]().
		Title("What next?").
		Options(
			huh.NewOption("Push", ActionPush),
			huh.NewOption("Show status", ActionStatus),
			huh.NewOption("Show last commit", ActionLog),
			huh.NewOption("Exit", ActionExit),
		).
		Value(&action))
	return action, err
}

// ShowSpinner creates a spinner for loading states.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text, m.styles.spinner)
}

// ShowMessage displays the final commit message.
func (m *DefaultManager) ShowMessage(msg string) {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.styles.title.Render("Commit message"))
	fmt.Fprintln(m.out, m.styles.subject.Render(msg))
	fmt.Fprintln(m.out)
}

// ShowOutput displays text produced by git.
func (m *DefaultManager) ShowOutput(title, text string) {
	fmt.Fprintln(m.out, m.styles.title.Render(title))
	fmt.Fprintln(m.out, m.styles.body.Render(strings.TrimRight(text, "\n")))
}

// ShowWarning displays a non-fatal problem.
func (m *DefaultManager) ShowWarning(msg string) {
	fmt.Fprintln(m.out, m.styles.warning.Render("! "+msg))
}

// ShowError displays an error message to the user.
func (m *DefaultManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(m.out, m.styles.errorStyle.Render(apperrors.FormatError(err)))
}

// ShowSuccess displays a success message to the user.
func (m *DefaultManager) ShowSuccess(msg string) {
	fmt.Fprintln(m.out, m.styles.success.Render("[OK] "+msg))
}

// bubbleSpinner implements Spinner using Bubble Tea.
type bubbleSpinner struct {
	model   spinnerModel
	program *tea.Program
	done    chan struct{}
	mu      sync.Mutex
}

type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

type spinnerTextMsg struct {
	text string
}

type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = msg.text
		return m, nil
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text string, style lipgloss.Style) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style
	return &bubbleSpinner{model: spinnerModel{spinner: s, text: text}}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}

	s.program = tea.NewProgram(s.model, tea.WithInput(nil), tea.WithOutput(os.Stderr))
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()
}

// Stop blocks until the spinner has cleared its line.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.text = text
	if s.program != nil {
		s.program.Send(spinnerTextMsg{text: text})
	}
}

// NonInteractiveManager implements Manager for --yes mode and for runs
// without a terminal.
type NonInteractiveManager struct {
	styles *styles
	out    io.Writer
	errOut io.Writer
}

// NewNonInteractiveManager creates a NonInteractiveManager.
func NewNonInteractiveManager(colorEnabled bool) *NonInteractiveManager {
	return &NonInteractiveManager{
		styles: newStyles(colorEnabled),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

// SelectMode always picks AI suggestions.
func (m *NonInteractiveManager) SelectMode() (Mode, error) { return ModeAI, nil }

// SelectCandidate takes the first candidate.
func (m *NonInteractiveManager) SelectCandidate(candidates []string) (Pick, error) {
	if len(candidates) == 0 {
		return Pick{}, ErrInteractionRequired
	}
	return Pick{Kind: PickMessage, Message: candidates[0]}, nil
}

func (m *NonInteractiveManager) SelectPrefix(message.Catalog, int) (message.Prefix, error) {
	return message.Prefix{}, ErrInteractionRequired
}

func (m *NonInteractiveManager) PromptDescription(string, message.Bounds) (string, error) {
	return "", ErrInteractionRequired
}

// EditMessage returns msg unchanged.
func (m *NonInteractiveManager) EditMessage(msg string, _ message.Bounds) (string, error) {
	return msg, nil
}

func (m *NonInteractiveManager) PromptAPIKey(string) (string, error) {
	return "", ErrInteractionRequired
}

// PromptConfirm always answers yes.
func (m *NonInteractiveManager) PromptConfirm(string) (bool, error) { return true, nil }

// SelectAction always exits.
func (m *NonInteractiveManager) SelectAction() (Action, error) { return ActionExit, nil }

func (m *NonInteractiveManager) ShowSpinner(string) Spinner { return noopSpinner{} }

func (m *NonInteractiveManager) ShowMessage(msg string) {
	fmt.Fprintln(m.out, msg)
}

func (m *NonInteractiveManager) ShowOutput(_, text string) {
	fmt.Fprintln(m.out, strings.TrimRight(text, "\n"))
}

func (m *NonInteractiveManager) ShowWarning(msg string) {
	fmt.Fprintln(m.errOut, m.styles.warning.Render("Warning: "+msg))
}

func (m *NonInteractiveManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(m.errOut, m.styles.errorStyle.Render(apperrors.FormatError(err)))
}

func (m *NonInteractiveManager) ShowSuccess(msg string) {
	fmt.Fprintln(m.errOut, m.styles.success.Render(msg))
}

type noopSpinner struct{}

func (noopSpinner) Start()            {}
func (noopSpinner) Stop()             {}
func (noopSpinner) UpdateText(string) {}
