package cli

import (
	"github.com/spf13/cobra"
)

func newAliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage named version aliases",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <tool> <name> <version>",
			Short: "Point an alias at an installed version",
			Args:  cobra.ExactArgs(3),
			RunE:  runAliasSet,
		},
		&cobra.Command{
			Use:   "get <tool> <name>",
			Short: "Show the version an alias points at",
			Args:  cobra.ExactArgs(2),
			RunE:  runAliasGet,
		},
		&cobra.Command{
			Use:   "delete <tool> <name>",
			Short: "Remove an alias",
			Args:  cobra.ExactArgs(2),
			RunE:  runAliasDelete,
		},
	)

	return cmd
}

func runAliasSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	toolID, name, versionStr := args[0], args[1], args[2]
	if err := a.manager.SetAlias(toolID, name, versionStr); err != nil {
		return err
	}
	cmd.Printf("Alias %s/%s -> %s\n", toolID, name, versionStr)
	return nil
}

func runAliasGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	version, err := a.manager.GetAlias(args[0], args[1])
	if err != nil {
		return err
	}
	cmd.Println(version)
	return nil
}

func runAliasDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.DeleteAlias(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Deleted alias %s/%s\n", args[0], args[1])
	return nil
}
