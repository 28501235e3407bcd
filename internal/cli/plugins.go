package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered tool plugins",
		Args:  cobra.NoArgs,
		RunE:  runPlugins,
	}
}

func runPlugins(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	metas := a.manager.Registry().ListMetadata()

	if outputJSON {
		data, err := json.MarshalIndent(metas, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%-10s %-20s %-10s %-10s %s\n", "ID", "NAME", "VERSION", "CATEGORY", "PLATFORMS")
	for _, m := range metas {
		platforms := make([]string, 0, len(m.Platforms))
		for _, p := range m.Platforms {
			platforms = append(platforms, string(p))
		}
		cmd.Printf("%-10s %-20s %-10s %-10s %s\n",
			m.ID, m.DisplayName(), m.Version, m.Category, strings.Join(platforms, ","))
	}
	return nil
}
