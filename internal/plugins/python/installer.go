package python

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toolvm/internal/archive"
	"toolvm/internal/download"
	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

type installer struct {
	cacheDir string
	progress download.Progress
}

func (in *installer) install(ctx context.Context, dist plugin.ToolDistribution, destDir string, p *Plugin) (*plugin.InstalledTool, error) {
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
	// Standalone builds unpack to a single "python" directory.
	if err := archive.StripRoot(destDir); err != nil {
		return nil, fmt.Errorf("normalize extracted tree: %w", err)
	}

	valid, err := p.ValidateInstallation(destDir)
	if err != nil {
		return nil, err
	}
	if !valid {
		_ = os.RemoveAll(destDir)
		return nil, &errdefs.InvalidToolStructureError{
			Tool:    "python",
			Message: fmt.Sprintf("python executable not found under %s after extraction", destDir),
		}
	}

	return &plugin.InstalledTool{
		ToolID:         "python",
		Version:        dist.Version,
		Path:           destDir,
		InstalledAt:    time.Now().UTC(),
		Source:         "python-build-standalone",
		ExecutablePath: pythonExecutable(destDir),
	}, nil
}

func (in *installer) uninstall(installed *plugin.InstalledTool) error {
	if _, err := os.Lstat(installed.Path); err != nil {
		if os.IsNotExist(err) {
			return &errdefs.VersionNotFoundError{Ref: "python@" + installed.Version.Raw}
		}
		return fmt.Errorf("inspect installation: %w", err)
	}
	if err := os.RemoveAll(installed.Path); err != nil {
		return fmt.Errorf("remove installation: %w", err)
	}
	return nil
}
