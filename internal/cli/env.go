package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env <tool> [version]",
		Short: "Print shell exports for a tool version",
		Long: `Print the environment variables a tool version needs, as shell export
statements. Without a version argument the active version is used.

  eval "$(toolvm env java)"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runEnv,
	}
}

func runEnv(cmd *cobra.Command, args []string) error {
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
		versionStr, err = a.manager.GetCurrent(toolID)
		if err != nil {
			return err
		}
		if versionStr == "" {
			return fmt.Errorf("env %s: no active version; pass a version or run 'toolvm use'", toolID)
		}
	}

	ctx, err := a.manager.Environment(toolID, versionStr)
	if err != nil {
		return err
	}
	for _, v := range ctx.Env {
		cmd.Printf("export %s=%q\n", v.Name, v.Value)
	}
	return nil
}
