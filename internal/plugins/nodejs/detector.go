package nodejs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

type detector struct{}

// detect scans common install locations, PATH, nvm trees, and NODE_HOME for
// Node installations the manager does not own. Results are deduplicated by
// path and sorted for stable output.
func (d *detector) detect(ctx context.Context, p *Plugin) ([]plugin.DetectedInstallation, error) {
	var found []plugin.DetectedInstallation

	for _, base := range commonPaths() {
		if installation, ok := d.verifyNodeHome(ctx, p, base); ok {
			found = append(found, installation)
		}
	}

	if nodeBin, err := exec.LookPath("node"); err == nil {
		home := filepath.Dir(filepath.Dir(nodeBin))
		if installation, ok := d.verifyNodeHome(ctx, p, home); ok {
			found = append(found, installation)
		}
	}

	found = append(found, d.checkNvm(ctx, p)...)

	if nodeHome := os.Getenv("NODE_HOME"); nodeHome != "" {
		if installation, ok := d.verifyNodeHome(ctx, p, nodeHome); ok {
			found = append(found, installation)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	deduped := found[:0]
	seen := make(map[string]bool)
	for _, installation := range found {
		if seen[installation.Path] {
			continue
		}
		seen[installation.Path] = true
		deduped = append(deduped, installation)
	}
	return deduped, nil
}

// checkNvm walks $NVM_DIR/versions/node (default ~/.nvm), where nvm keeps
// one directory per installed version.
func (d *detector) checkNvm(ctx context.Context, p *Plugin) []plugin.DetectedInstallation {
	nvmDir := os.Getenv("NVM_DIR")
	if nvmDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		nvmDir = filepath.Join(home, ".nvm")
	}

	versionsDir := filepath.Join(nvmDir, "versions", "node")
	entries, err := os.ReadDir(versionsDir)
	if err != nil {
		return nil
	}

	var found []plugin.DetectedInstallation
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if installation, ok := d.verifyNodeHome(ctx, p, filepath.Join(versionsDir, entry.Name())); ok {
			found = append(found, installation)
		}
	}
	return found
}

// verifyNodeHome checks whether path holds a runnable Node and reads its
// version from `node --version`.
func (d *detector) verifyNodeHome(ctx context.Context, p *Plugin, path string) (plugin.DetectedInstallation, bool) {
	var nodeBin string
	for _, candidate := range []string{
		filepath.Join(path, "bin", "node"),
		filepath.Join(path, "node.exe"),
		filepath.Join(path, "node"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			nodeBin = candidate
			break
		}
	}
	if nodeBin == "" {
		return plugin.DetectedInstallation{}, false
	}

	output, err := exec.CommandContext(ctx, nodeBin, "--version").Output()
	if err != nil {
		return plugin.DetectedInstallation{}, false
	}
	version, err := p.ParseVersion(strings.TrimSpace(string(output)))
	if err != nil {
		return plugin.DetectedInstallation{}, false
	}

	return plugin.DetectedInstallation{
		ToolID:         "node",
		Version:        version,
		Path:           path,
		Source:         "detected",
		ExecutablePath: nodeBin,
	}, true
}

func commonPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/local", "/opt/homebrew", "/opt/nodejs"}
	case "linux":
		return []string{"/usr", "/usr/local", "/opt/nodejs", "/usr/lib/nodejs"}
	case "windows":
		return []string{`C:\Program Files\nodejs`, `C:\Program Files (x86)\nodejs`}
	default:
		return nil
	}
}

// importInstallation symlinks a detected Node tree into destDir. The source
// is never copied or modified.
func (d *detector) importInstallation(detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	if _, err := os.Lstat(destDir); err == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: detected.Version.Raw, Path: destDir}
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return nil, fmt.Errorf("create versions directory: %w", err)
	}
	if err := os.Symlink(detected.Path, destDir); err != nil {
		return nil, fmt.Errorf("link external installation: %w", err)
	}

	return &plugin.InstalledTool{
		ToolID:         "node",
		Version:        detected.Version,
		Path:           destDir,
		InstalledAt:    time.Now().UTC(),
		Source:         detected.Source,
		ExecutablePath: detected.ExecutablePath,
	}, nil
}

// ReadVersionFile reads the pin in a project's .nvmrc or .node-version.
// Empty string means no pin file.
func ReadVersionFile(directory string) string {
	for _, name := range []string{".nvmrc", ".node-version"} {
		contents, err := os.ReadFile(filepath.Join(directory, name))
		if err != nil {
			continue
		}
		if version := strings.TrimSpace(string(contents)); version != "" {
			return version
		}
	}
	return ""
}
