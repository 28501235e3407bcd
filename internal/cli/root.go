// Package cli wires the cobra command tree over the tool manager.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputJSON bool
	noProgress bool
	verbose    bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolvm",
		Short: "Manage development tool versions (java, node, python)",
	}

	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable interactive progress rendering")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug detail to the log file")

	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newUninstallCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newCurrentCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAliasCmd())
	cmd.AddCommand(newDetectCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newPluginsCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
