package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the download and release caches",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "dir",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE:  runCacheDir,
		},
		&cobra.Command{
			Use:   "purge [tool]",
			Short: "Drop cached release listings (all tools, or one)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runCachePurge,
		},
	)

	return cmd
}

func runCacheDir(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cmd.Println(a.cfg.CacheDir)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cache == nil {
		return fmt.Errorf("release cache is disabled (cache_remote_versions: false)")
	}

	tool := ""
	if len(args) == 1 {
		tool = args[0]
	}
	if err := a.cache.Purge(tool); err != nil {
		return err
	}

	if tool == "" {
		cmd.Println("Purged cached release listings for all tools.")
	} else {
		cmd.Printf("Purged cached release listings for %s.\n", tool)
	}
	return nil
}
