package cli

import (
	"encoding/json"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"toolvm/internal/download"
	"toolvm/internal/plugin"
	"toolvm/internal/tui"
)

var (
	installForce bool
	installLTS   bool
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <tool> [version]",
		Short: "Download and install a tool version",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runInstall,
	}

	cmd.Flags().BoolVar(&installForce, "force", false, "Reinstall even if the version is already installed")
	cmd.Flags().BoolVar(&installLTS, "lts", false, "Offer only LTS versions when picking interactively")

	return cmd
}

// progressSink forwards download progress to a callback installed after the
// plugins were constructed. Downloads run on a worker goroutine while the
// TUI swaps the callback in, hence the lock.
type progressSink struct {
	mu sync.Mutex
	fn download.Progress
}

func (s *progressSink) set(fn download.Progress) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *progressSink) report(downloaded, total int64) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(downloaded, total)
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	toolID := args[0]

	sink := &progressSink{}
	a, err := newApp(withProgress(sink.report))
	if err != nil {
		return err
	}
	defer a.close()

	interactive := tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON) == tui.ModeTUI

	versionStr := ""
	if len(args) == 2 {
		versionStr = args[1]
	} else {
		versionStr, err = pickVersion(cmd, a, toolID, interactive)
		if err != nil {
			return err
		}
	}

	if !interactive {
		installed, err := a.manager.Install(cmd.Context(), toolID, versionStr, installForce)
		if err != nil {
			return err
		}
		return printInstalled(cmd, installed)
	}

	key := toolID + "@" + versionStr
	model := tui.NewProgressModel("Installing "+key, []tui.Column{
		{Header: "TOOL", Width: 8},
		{Header: "VERSION", Width: 12},
		{Header: "STATUS", Width: 12},
		{Header: "PROGRESS", Width: 20},
	})
	model.AddRow(key, []string{toolID, versionStr, "pending", "-"})

	var installed *plugin.InstalledTool
	runErr := tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) {
		reporter := tui.NewDownloadReporter(send, key)
		sink.set(reporter.Progress())
		reporter.Status("resolving")

		result, err := a.manager.Install(cmd.Context(), toolID, versionStr, installForce)
		if err != nil {
			send(tui.ErrorMsg{Err: err})
			return
		}
		installed = result
		reporter.Status("installed")
	})
	if runErr != nil {
		return runErr
	}
	if installed == nil {
		return fmt.Errorf("install %s: cancelled", key)
	}
	return printInstalled(cmd, installed)
}

// pickVersion resolves the version to install when none was given: an
// interactive picker over the remote listing, or an error otherwise.
func pickVersion(cmd *cobra.Command, a *app, toolID string, interactive bool) (string, error) {
	if !interactive {
		return "", fmt.Errorf("install %s: version required (non-interactive output)", toolID)
	}

	versions, err := a.manager.ListRemoteVersions(cmd.Context(), toolID, installLTS)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("install %s: no remote versions available", toolID)
	}

	items := make([]tui.PickerItem, 0, len(versions))
	for _, v := range versions {
		item := tui.PickerItem{Value: v.Raw}
		if v.IsLTS && a.cfg.Settings.ShowLTSIndicator {
			item.Tag = "LTS"
		}
		items = append(items, item)
	}

	result, err := tui.RunPicker(fmt.Sprintf("Select a %s version", toolID), items)
	if err != nil {
		return "", err
	}
	if result.Cancelled {
		return "", fmt.Errorf("install %s: no version selected", toolID)
	}
	return result.Value, nil
}

func printInstalled(cmd *cobra.Command, installed *plugin.InstalledTool) error {
	if outputJSON {
		data, err := json.MarshalIndent(installed, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf("Installed %s %s at %s\n", installed.ToolID, installed.Version.Raw, installed.Path)
	return nil
}
