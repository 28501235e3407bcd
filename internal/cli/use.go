package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolvm/internal/plugins"
)

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <tool> [version]",
		Short: "Activate an installed version as current",
		Long: `Activate an installed version as current. Without a version argument the
project pin file in the working directory is consulted (.nvmrc or
.node-version, .python-version, .java-version).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runUse,
	}
}

func runUse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	toolID := args[0]
	versionStr := ""
	if len(args) == 2 {
		versionStr = args[1]
	} else {
		versionStr, err = pinnedVersion(a, toolID)
		if err != nil {
			return err
		}
	}

	ctx, err := a.manager.SetCurrent(toolID, versionStr)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(ctx, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Now using %s %s\n", ctx.ToolInfo.Name, ctx.Version.Raw)
	cmd.Printf("Home: %s\n", ctx.HomePath)
	if len(ctx.Env) > 0 {
		cmd.Printf("Run 'toolvm env %s' to print the shell exports.\n", toolID)
	}
	return nil
}

// pinnedVersion resolves the version from the working directory's pin file,
// normalized through the plugin's parser so pins like "v20.10.0" match the
// installed directory name.
func pinnedVersion(a *app, toolID string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	pinned := plugins.PinnedVersion(toolID, cwd)
	if pinned == "" {
		return "", fmt.Errorf("use %s: no version given and no pin file in %s", toolID, cwd)
	}
	p, err := a.manager.Registry().Get(toolID)
	if err != nil {
		return "", err
	}
	version, err := p.ParseVersion(pinned)
	if err != nil {
		return "", fmt.Errorf("parse pin file version %q: %w", pinned, err)
	}
	return version.Raw, nil
}
