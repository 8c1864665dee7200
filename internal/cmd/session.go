package cmd

import (
	"github.com/spf13/cobra"

	"github.com/commitwise/commitwise/internal/app"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
	"github.com/commitwise/commitwise/internal/pkg/git"
)

// SessionFlags holds the flags of the default command.
type SessionFlags struct {
	DryRun bool
	Yes    bool
}

// newGitClient is a variable so tests can point the CLI at a temp repository.
var newGitClient = func() git.Client { return git.NewClient() }

func runSession(cmd *cobra.Command, flags *SessionFlags) error {
	ctx, cancel := signalContext()
	defer cancel()

	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	uiMgr, err := d.uiManager(flags.Yes)
	if err != nil {
		return err
	}

	apperrors.Info("provider: %s, model: %s", d.cfg.Provider, d.cfg.Model)
	if flags.DryRun {
		apperrors.Info("dry-run mode enabled")
	}

	return d.session(uiMgr).Run(ctx, app.Options{DryRun: flags.DryRun, Yes: flags.Yes})
}
