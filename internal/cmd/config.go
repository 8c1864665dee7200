package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/commitwise/commitwise/internal/pkg/config"
	"github.com/commitwise/commitwise/internal/pkg/credential"
	"github.com/commitwise/commitwise/internal/pkg/ui"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage commitwise configuration",
		Long: `Manage commitwise configuration settings.

Configuration is stored as JSON in ~/.commitwise/config.json by default.
Any tunable can be overridden for one run with a COMMITWISE_* environment
variable, for example COMMITWISE_MAX_RETRIES=5.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigPathCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigForgetKeyCmd())

	return configCmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Choose provider, model and API key interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd)
			if err != nil {
				return err
			}
			return ui.RunInteractiveSetup(d.store, d.creds)
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			store, err := config.NewStore(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration: defaults merged with the config file and
COMMITWISE_* overrides. The stored API key is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, key := range config.Keys {
				value, err := d.cfg.Value(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", key, value)
			}
			return w.Flush()
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by key.

The API key cannot be set here; run 'commitwise config init' or let
commitwise prompt for it.

Examples:
  commitwise config set maxRetries 5
  commitwise config set provider ollama
  commitwise config set endpoint http://localhost:11434
  commitwise config set promptTemplate 'Write {{.Count}} messages for {{.Diff}}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			store, err := config.NewStore(configPath)
			if err != nil {
				return err
			}
			if args[0] == "promptTemplate" && args[1] != "" {
				if _, err := parsePromptTemplate(args[1]); err != nil {
					return err
				}
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigForgetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget-key",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd)
			if err != nil {
				return err
			}
			if err := d.creds.Forget(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored API key removed.")
			if os.Getenv(credential.APIKeyEnv) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is set and still provides a key.\n", credential.APIKeyEnv)
			}
			return nil
		},
	}
}
