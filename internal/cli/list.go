package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listRemote bool
	listLTS    bool
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [tool]",
		Short: "List installed or remote tool versions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}

	cmd.Flags().BoolVar(&listRemote, "remote", false, "List versions available for download")
	cmd.Flags().BoolVar(&listLTS, "lts", false, "Only LTS versions (with --remote)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	toolFilter := ""
	if len(args) == 1 {
		toolFilter = args[0]
	}

	if listRemote {
		if toolFilter == "" {
			return fmt.Errorf("list --remote: tool argument required")
		}
		return listRemoteVersions(cmd, a, toolFilter)
	}
	return listInstalled(cmd, a, toolFilter)
}

func listRemoteVersions(cmd *cobra.Command, a *app, toolID string) error {
	versions, err := a.manager.ListRemoteVersions(cmd.Context(), toolID, listLTS)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(versions, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(versions) == 0 {
		cmd.Printf("No remote versions found for %s.\n", toolID)
		return nil
	}
	for _, v := range versions {
		if v.IsLTS && a.cfg.Settings.ShowLTSIndicator {
			cmd.Printf("%s (LTS)\n", v.Raw)
		} else {
			cmd.Println(v.Raw)
		}
	}
	return nil
}

func listInstalled(cmd *cobra.Command, a *app, toolFilter string) error {
	installs, err := a.manager.ListInstalled(toolFilter)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(installs, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(installs) == 0 {
		cmd.Println("No versions installed. Run 'toolvm install <tool> <version>' to add one.")
		return nil
	}

	cmd.Printf("%-10s %-16s %-8s %-8s %s\n", "TOOL", "VERSION", "CURRENT", "DEFAULT", "PATH")
	for _, in := range installs {
		cmd.Printf("%-10s %-16s %-8s %-8s %s\n",
			in.ToolID, in.Version.Raw, mark(in.IsCurrent), mark(in.IsDefault), in.Path)
	}
	return nil
}

func mark(set bool) string {
	if set {
		return "*"
	}
	return "-"
}
