// Package main is the entry point for the commitwise CLI.
package main

import (
	"fmt"
	"os"

	"github.com/commitwise/commitwise/internal/cmd"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

// Version information - set via ldflags during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cmd.NewRootCmd(version, commit, date)
	err := rootCmd.Execute()
	if err != nil && !apperrors.IsCancelled(err) {
		if apperrors.IsVerbose() {
			fmt.Fprintln(os.Stderr, apperrors.FormatErrorVerbose(err))
		} else {
			fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		}
	}
	os.Exit(apperrors.GetExitCode(err))
}
