// Package cmd contains the CLI command definitions for commitwise.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

// NewRootCmd creates the root command for the commitwise CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	flags := &SessionFlags{}

	rootCmd := &cobra.Command{
		Use:   "commitwise",
		Short: "Write conventional commit messages for staged changes",
		Long: `commitwise turns your staged git changes into a conventional commit message.

Pick a prefix from the conventional commit types and describe the change, or
let an AI provider (OpenAI, any OpenAI-compatible endpoint, or a local Ollama)
propose messages from the staged diff. Review, edit, confirm, commit.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			apperrors.SetVerbose(verbose)
			return loadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, flags)
		},
	}

	rootCmd.SetVersionTemplate(`commitwise {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.commitwise/config.json)")
	rootCmd.PersistentFlags().String("provider", "", "AI provider for this run (openai, ollama)")
	rootCmd.PersistentFlags().String("model", "", "AI model for this run")

	rootCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the message instead of committing")
	rootCmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Take the first AI suggestion and commit without prompts")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewHistoryCmd())

	return rootCmd
}

// loadDotEnv reads KEY=value pairs from path without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return apperrors.Wrap(err, apperrors.ErrConfig, "failed to read "+path)
}
