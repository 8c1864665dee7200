package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/ui"
)

// NewGenerateCmd creates the generate command, which prints AI suggestions
// for the staged diff without committing.
func NewGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Print AI commit message suggestions without committing",
		Long: `Print AI-generated commit message suggestions for the staged changes,
one per line. Nothing is committed.

Examples:
  commitwise generate
  commitwise generate --provider ollama --model qwen2.5-coder`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}

	var uiMgr ui.Manager = ui.NewNonInteractiveManager(d.cfg.ColorEnabled)
	if ui.IsInteractive() {
		uiMgr = ui.NewDefaultManager(d.cfg.ColorEnabled)
	}

	candidates, err := d.session(uiMgr).Suggest(ctx)
	if apperrors.IsRepositoryKind(err, apperrors.RepoNoStagedChanges) {
		uiMgr.ShowWarning("No staged changes. Stage files with `git add` first.")
		return nil
	}
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return apperrors.New(apperrors.ErrGeneration, "no usable suggestions were generated")
	}

	out := cmd.OutOrStdout()
	for _, c := range candidates {
		fmt.Fprintln(out, c)
	}
	return nil
}
