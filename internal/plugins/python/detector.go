package python

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

// protectedDirs are system roots that must never be imported: linking them
// into the managed tree would put the OS python under version management.
var protectedDirs = map[string]bool{
	"/usr":       true,
	"/usr/local": true,
	"/System":    true,
}

type detector struct{}

func (d *detector) detect(ctx context.Context, p *Plugin) ([]plugin.DetectedInstallation, error) {
	seen := make(map[string]bool)
	var found []plugin.DetectedInstallation

	add := func(home, source string) {
		home = filepath.Clean(home)
		if seen[home] {
			return
		}
		version, err := d.verifyPythonHome(ctx, home, p)
		if err != nil {
			return
		}
		seen[home] = true
		found = append(found, plugin.DetectedInstallation{
			ToolID:         "python",
			Version:        version,
			Path:           home,
			Source:         source,
			ExecutablePath: pythonExecutable(home),
		})
	}

	for _, home := range d.pyenvHomes() {
		add(home, "pyenv")
	}
	for _, home := range d.homebrewHomes() {
		add(home, "homebrew")
	}
	if home := os.Getenv("PYTHON_HOME"); home != "" {
		add(home, "PYTHON_HOME")
	}
	if bin, err := exec.LookPath("python3"); err == nil {
		if resolved, err := filepath.EvalSymlinks(bin); err == nil {
			bin = resolved
		}
		add(filepath.Dir(filepath.Dir(bin)), "system")
	}
	if cwd, err := os.Getwd(); err == nil {
		for _, candidate := range d.virtualenvHomes(cwd) {
			add(candidate, "virtualenv")
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// pyenvHomes lists installation directories under the pyenv root.
func (d *detector) pyenvHomes() []string {
	root := os.Getenv("PYENV_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		root = filepath.Join(home, ".pyenv")
	}

	entries, err := os.ReadDir(filepath.Join(root, "versions"))
	if err != nil {
		return nil
	}
	var homes []string
	for _, entry := range entries {
		if entry.IsDir() {
			homes = append(homes, filepath.Join(root, "versions", entry.Name()))
		}
	}
	return homes
}

// homebrewHomes lists python@X.Y kegs on macOS.
func (d *detector) homebrewHomes() []string {
	if runtime.GOOS != "darwin" {
		return nil
	}
	var homes []string
	for _, cellar := range []string{"/opt/homebrew/opt", "/usr/local/opt"} {
		entries, err := os.ReadDir(cellar)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "python@") {
				homes = append(homes, filepath.Join(cellar, entry.Name()))
			}
		}
	}
	return homes
}

// virtualenvHomes checks conventional virtualenv directory names under dir.
func (d *detector) virtualenvHomes(dir string) []string {
	var homes []string
	for _, name := range []string{"venv", ".venv", "env", ".env", "virtualenv"} {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			homes = append(homes, candidate)
		}
	}
	return homes
}

// verifyPythonHome confirms home contains a runnable interpreter and reads
// its version from `python3 --version` output ("Python 3.12.8").
func (d *detector) verifyPythonHome(ctx context.Context, home string, p *Plugin) (plugin.ToolVersion, error) {
	pythonBin := pythonExecutable(home)
	if _, err := os.Stat(pythonBin); err != nil {
		return plugin.ToolVersion{}, fmt.Errorf("python binary missing: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, pythonBin, "--version").Output()
	if err != nil {
		return plugin.ToolVersion{}, fmt.Errorf("probe python version: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	raw = strings.TrimPrefix(raw, "Python ")
	return p.ParseVersion(raw)
}

func (d *detector) importInstallation(detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	if protectedDirs[filepath.Clean(detected.Path)] {
		return nil, &errdefs.InvalidToolStructureError{
			Tool:    "python",
			Message: fmt.Sprintf("cannot import system directory %s; the OS python must stay unmanaged", detected.Path),
		}
	}
	if _, err := os.Stat(pythonExecutable(detected.Path)); err != nil {
		return nil, &errdefs.InvalidToolStructureError{
			Tool:    "python",
			Message: fmt.Sprintf("python executable not found at %s; %s is not a python home", pythonExecutable(detected.Path), detected.Path),
		}
	}
	if _, err := os.Lstat(destDir); err == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: detected.Version.Raw, Path: destDir}
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return nil, fmt.Errorf("create versions directory: %w", err)
	}
	if err := os.Symlink(detected.Path, destDir); err != nil {
		return nil, fmt.Errorf("link imported installation: %w", err)
	}

	return &plugin.InstalledTool{
		ToolID:         "python",
		Version:        detected.Version,
		Path:           destDir,
		InstalledAt:    time.Now().UTC(),
		Source:         "imported-" + detected.Source,
		ExecutablePath: pythonExecutable(destDir),
	}, nil
}

// ReadVersionFile reads a .python-version pin in directory, returning ""
// when none exists.
func ReadVersionFile(directory string) string {
	data, err := os.ReadFile(filepath.Join(directory, ".python-version"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
