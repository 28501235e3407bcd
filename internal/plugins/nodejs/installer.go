package nodejs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"toolvm/internal/archive"
	"toolvm/internal/download"
	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

type installer struct {
	api      *distAPI
	cacheDir string
	progress download.Progress
}

func (in *installer) install(ctx context.Context, dist plugin.ToolDistribution, destDir string) (*plugin.InstalledTool, error) {
	if _, err := os.Lstat(destDir); err == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: dist.Version.Raw, Path: destDir}
	}

	if err := os.MkdirAll(in.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	archiveName, err := download.ArchiveName(dist.DownloadURL)
	if err != nil {
		return nil, err
	}
	cacheFile := filepath.Join(in.cacheDir, archiveName)

	if _, err := os.Stat(cacheFile); err != nil {
		dl := download.New()
		if err := dl.Fetch(ctx, dist.DownloadURL, cacheFile, dist.Checksum, in.progress); err != nil {
			return nil, err
		}
	} else if dist.Checksum != "" {
		// A cached archive still has to match before it gets extracted.
		ok, err := download.VerifyChecksum(cacheFile, dist.Checksum)
		if err != nil {
			return nil, err
		}
		if !ok {
			_ = os.Remove(cacheFile)
			return nil, &errdefs.ChecksumMismatchError{File: cacheFile}
		}
	}

	if err := archive.Extract(ctx, dist.ArchiveType, cacheFile, destDir); err != nil {
		return nil, err
	}
	if err := archive.StripRoot(destDir); err != nil {
		return nil, fmt.Errorf("normalize extracted tree: %w", err)
	}

	executable := filepath.Join(destDir, "bin", "node")
	if runtime.GOOS == "windows" {
		executable = filepath.Join(destDir, "node.exe")
	}
	if _, err := os.Stat(executable); err != nil {
		_ = os.RemoveAll(destDir)
		return nil, &errdefs.InvalidToolStructureError{
			Tool:    "node",
			Message: fmt.Sprintf("node executable not found at %s after extraction", executable),
		}
	}

	return &plugin.InstalledTool{
		ToolID:         "node",
		Version:        dist.Version,
		Path:           destDir,
		InstalledAt:    time.Now().UTC(),
		Source:         "nodejs.org",
		ExecutablePath: executable,
	}, nil
}

func (in *installer) uninstall(installed *plugin.InstalledTool) error {
	if _, err := os.Lstat(installed.Path); err != nil {
		if os.IsNotExist(err) {
			return &errdefs.VersionNotFoundError{Ref: "node@" + installed.Version.Raw}
		}
		return fmt.Errorf("inspect installation: %w", err)
	}
	if err := os.RemoveAll(installed.Path); err != nil {
		return fmt.Errorf("remove installation: %w", err)
	}
	return nil
}

func (in *installer) verify(installed *plugin.InstalledTool) (bool, error) {
	if _, err := os.Stat(installed.Path); err != nil {
		return false, nil
	}
	executable := installed.ExecutablePath
	if executable == "" {
		executable = filepath.Join(installed.Path, "bin", "node")
		if runtime.GOOS == "windows" {
			executable = filepath.Join(installed.Path, "node.exe")
		}
	}
	_, err := os.Stat(executable)
	return err == nil, nil
}
