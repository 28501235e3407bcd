package cli

import (
	"github.com/spf13/cobra"
)

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <tool> <version>",
		Short: "Remove an installed tool version",
		Args:  cobra.ExactArgs(2),
		RunE:  runUninstall,
	}
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	toolID, versionStr := args[0], args[1]
	if err := a.manager.Uninstall(cmd.Context(), toolID, versionStr); err != nil {
		return err
	}

	cmd.Printf("Uninstalled %s %s\n", toolID, versionStr)
	return nil
}
