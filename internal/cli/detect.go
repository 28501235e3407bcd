package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"toolvm/internal/manager"
	"toolvm/internal/tui"
)

var detectImport bool

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [tool]",
		Short: "Find tool installations outside managed directories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDetect,
	}

	cmd.Flags().BoolVar(&detectImport, "import", false, "Import findings as managed installations")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		return detectOne(cmd, a, args[0])
	}
	return detectSweep(cmd, a)
}

func detectOne(cmd *cobra.Command, a *app, toolID string) error {
	detected, err := a.manager.DetectTool(cmd.Context(), toolID)
	if err != nil {
		return err
	}

	if outputJSON && !detectImport {
		data, err := json.MarshalIndent(detected, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(detected) == 0 {
		cmd.Printf("No %s installations found.\n", toolID)
		return nil
	}

	cmd.Printf("%-12s %-12s %s\n", "VERSION", "SOURCE", "PATH")
	for _, d := range detected {
		cmd.Printf("%-12s %-12s %s\n", d.Version.Raw, d.Source, d.Path)
	}

	if !detectImport {
		return nil
	}
	for _, d := range detected {
		installed, err := a.manager.ImportTool(cmd.Context(), toolID, d)
		if err != nil {
			cmd.Printf("skip %s: %v\n", d.Path, err)
			continue
		}
		cmd.Printf("Imported %s %s\n", installed.ToolID, installed.Version.Raw)
	}
	return nil
}

func detectSweep(cmd *cobra.Command, a *app) error {
	var sw *tui.StatusWriter
	if tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON) == tui.ModeTUI {
		sw = tui.NewStatusWriter(cmd.OutOrStdout())
		sw.Update("Scanning for tool installations")
	}

	var results []manager.DetectionResult
	if detectImport {
		results = a.manager.DetectAndImportAll(cmd.Context())
	} else {
		results = a.manager.DetectAll(cmd.Context())
	}
	if sw != nil {
		sw.Stop()
	}

	if outputJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No unmanaged installations found.")
		return nil
	}
	cmd.Printf("%-10s %-10s %s\n", "TOOL", "DETECTED", "IMPORTED")
	for _, r := range results {
		cmd.Printf("%-10s %-10d %d\n", r.ToolID, r.Detected, r.Imported)
	}
	return nil
}
