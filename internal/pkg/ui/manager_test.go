package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/message"
)

func TestActionString(t *testing.T) {
	tests := []struct {
		action   Action
		expected string
	}{
		{ActionPush, "push"},
		{ActionStatus, "status"},
		{ActionLog, "log"},
		{ActionExit, "exit"},
		{Action(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.action.String())
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "ai", ModeAI.String())
	assert.Equal(t, "manual", ModeManual.String())
	assert.Equal(t, "unknown", Mode(7).String())
}

func TestValidatePrefixName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "deps", false},
		{"surrounding space trimmed", "  deps ", false},
		{"empty", "   ", true},
		{"inner space", "my prefix", true},
		{"colon", "feat:", true},
		{"too long", "averyveryverylongprefix", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefixName(tt.input, 12)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func newTestNonInteractive() (*NonInteractiveManager, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	m := NewNonInteractiveManager(false)
	m.out = &out
	m.errOut = &errOut
	return m, &out, &errOut
}

func TestNonInteractiveManager_Answers(t *testing.T) {
	m, _, _ := newTestNonInteractive()

	mode, err := m.SelectMode()
	require.NoError(t, err)
	assert.Equal(t, ModeAI, mode)

	pick, err := m.SelectCandidate([]string{"feat: first", "fix: second"})
	require.NoError(t, err)
	assert.Equal(t, Pick{Kind: PickMessage, Message: "feat: first"}, pick)

	_, err = m.SelectCandidate(nil)
	assert.ErrorIs(t, err, ErrInteractionRequired)

	_, err = m.SelectPrefix(message.DefaultCatalog(), 10)
	assert.ErrorIs(t, err, ErrInteractionRequired)

	_, err = m.PromptDescription("feat", message.Bounds{Min: 1, Max: 10})
	assert.ErrorIs(t, err, ErrInteractionRequired)

	_, err = m.PromptAPIKey("openai")
	assert.ErrorIs(t, err, ErrInteractionRequired)

	edited, err := m.EditMessage("feat: keep", message.Bounds{Min: 1, Max: 72})
	require.NoError(t, err)
	assert.Equal(t, "feat: keep", edited)

	ok, err := m.PromptConfirm("Commit?")
	require.NoError(t, err)
	assert.True(t, ok)

	action, err := m.SelectAction()
	require.NoError(t, err)
	assert.Equal(t, ActionExit, action)
}

func TestNonInteractiveManager_Output(t *testing.T) {
	m, out, errOut := newTestNonInteractive()

	m.ShowMessage("feat: add X")
	m.ShowOutput("Status", "## main\n M a.go\n")
	m.ShowWarning("no staged changes")
	m.ShowError(errors.New("boom"))
	m.ShowError(nil)
	m.ShowSuccess("committed")

	assert.Equal(t, "feat: add X\n## main\n M a.go\n", out.String())
	assert.Contains(t, errOut.String(), "Warning: no staged changes")
	assert.Contains(t, errOut.String(), "Error: boom")
	assert.Contains(t, errOut.String(), "committed")

	s := m.ShowSpinner("working")
	s.Start()
	s.UpdateText("still working")
	s.Stop()
}

func TestDefaultManager_Output(t *testing.T) {
	var out bytes.Buffer
	m := NewDefaultManager(false)
	m.out = &out

	m.ShowMessage("fix: handle nil")
	m.ShowWarning("careful")
	m.ShowError(&apperrors.ConfigError{Op: "read", Path: "/x", Err: errors.New("denied")})
	m.ShowSuccess("done")

	got := out.String()
	assert.Contains(t, got, "Commit message\nfix: handle nil")
	assert.Contains(t, got, "! careful")
	assert.Contains(t, got, "denied")
	assert.Contains(t, got, "[OK] done")
}

func TestSpinnerModel(t *testing.T) {
	m := spinnerModel{spinner: spinner.New(), text: "Generating"}
	assert.Contains(t, m.View(), "Generating")

	updated, _ := m.Update(spinnerTextMsg{text: "Retrying"})
	m = updated.(spinnerModel)
	assert.Contains(t, m.View(), "Retrying")

	updated, cmd := m.Update(spinnerQuitMsg{})
	m = updated.(spinnerModel)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestBubbleSpinner_StopWithoutStart(t *testing.T) {
	s := newBubbleSpinner("idle", newStyles(false).spinner)
	s.UpdateText("changed")
	s.Stop()
	assert.Equal(t, "changed", s.model.text)
}
