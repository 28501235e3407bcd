package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current [tool]",
		Short: "Show the active version of one or all tools",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCurrent,
	}
}

func runCurrent(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		version, err := a.manager.GetCurrent(args[0])
		if err != nil {
			return err
		}
		if version == "" {
			cmd.Printf("No active %s version. Run 'toolvm use %s <version>' to activate one.\n", args[0], args[0])
			return nil
		}
		cmd.Println(version)
		return nil
	}

	type currentEntry struct {
		Tool    string `json:"tool"`
		Version string `json:"version"`
	}

	var entries []currentEntry
	for _, toolID := range a.manager.Registry().ListPlugins() {
		version, err := a.manager.GetCurrent(toolID)
		if err != nil {
			return err
		}
		if version == "" {
			continue
		}
		entries = append(entries, currentEntry{Tool: toolID, Version: version})
	}

	if outputJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No active versions. Run 'toolvm use <tool> <version>' to activate one.")
		return nil
	}
	for _, e := range entries {
		cmd.Printf("%-10s %s\n", e.Tool, e.Version)
	}
	return nil
}
