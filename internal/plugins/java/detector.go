package java

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

func (d *detector) detect(ctx context.Context, p *Plugin) ([]plugin.DetectedInstallation, error) {
	seen := make(map[string]bool)
	var found []plugin.DetectedInstallation

	add := func(home, source string) {
		home = filepath.Clean(home)
		if seen[home] {
			return
		}
		version, err := d.verifyJavaHome(ctx, home, p)
		if err != nil {
			return
		}
		seen[home] = true
		found = append(found, plugin.DetectedInstallation{
			ToolID:  "java",
			Version: version,
			Path:    home,
			Source:  source,
		})
	}

	for _, home := range d.commonHomes() {
		add(home, "system")
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		add(home, "JAVA_HOME")
	}
	if bin, err := exec.LookPath("java"); err == nil {
		if resolved, err := filepath.EvalSymlinks(bin); err == nil {
			bin = resolved
		}
		add(filepath.Dir(filepath.Dir(bin)), "PATH")
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// commonHomes returns candidate JAVA_HOME directories for the current
// platform, expanding bundle or vendor subdirectories where distributions
// conventionally nest them.
func (d *detector) commonHomes() []string {
	var roots []string
	switch runtime.GOOS {
	case "darwin":
		roots = []string{
			"/Library/Java/JavaVirtualMachines",
			"/System/Library/Java/JavaVirtualMachines",
		}
	case "linux":
		roots = []string{"/usr/lib/jvm", "/usr/local/jvm", "/opt/java", "/opt/jdk"}
	case "windows":
		roots = []string{
			`C:\Program Files\Java`,
			`C:\Program Files\Eclipse Adoptium`,
		}
	}

	var homes []string
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			home := filepath.Join(root, entry.Name())
			if runtime.GOOS == "darwin" {
				home = filepath.Join(home, "Contents", "Home")
			}
			homes = append(homes, home)
		}
	}
	return homes
}

// verifyJavaHome confirms home contains a runnable JDK and extracts its
// version, preferring the release metadata file over spawning the binary.
func (d *detector) verifyJavaHome(ctx context.Context, home string, p *Plugin) (plugin.ToolVersion, error) {
	javaBin := filepath.Join(home, "bin", "java")
	if runtime.GOOS == "windows" {
		javaBin += ".exe"
	}
	if _, err := os.Stat(javaBin); err != nil {
		return plugin.ToolVersion{}, fmt.Errorf("java binary missing: %w", err)
	}

	if raw, err := readReleaseVersion(home); err == nil {
		if version, err := p.ParseVersion(raw); err == nil {
			return version, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, javaBin, "-version").CombinedOutput()
	if err != nil {
		return plugin.ToolVersion{}, fmt.Errorf("probe java version: %w", err)
	}
	raw, err := parseVersionOutput(string(out))
	if err != nil {
		return plugin.ToolVersion{}, err
	}
	return p.ParseVersion(raw)
}

// readReleaseVersion extracts JAVA_VERSION from the release file every
// modern JDK ships at its root.
func readReleaseVersion(home string) (string, error) {
	data, err := os.ReadFile(filepath.Join(home, "release"))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "JAVA_VERSION=") {
			continue
		}
		value := strings.TrimPrefix(line, "JAVA_VERSION=")
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("no JAVA_VERSION entry in release file")
}

// parseVersionOutput pulls the quoted version string out of `java -version`
// output, e.g. `openjdk version "21.0.7" 2025-04-15`.
func parseVersionOutput(out string) (string, error) {
	start := strings.IndexByte(out, '"')
	if start < 0 {
		return "", fmt.Errorf("unrecognized java -version output")
	}
	rest := out[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", fmt.Errorf("unrecognized java -version output")
	}
	return rest[:end], nil
}

func (d *detector) importInstallation(detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	if _, err := os.Lstat(destDir); err == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: detected.Version.Raw, Path: destDir}
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return nil, fmt.Errorf("create versions directory: %w", err)
	}
	if err := os.Symlink(detected.Path, destDir); err != nil {
		return nil, fmt.Errorf("link imported installation: %w", err)
	}

	javaBin := filepath.Join(detected.Path, "bin", "java")
	if runtime.GOOS == "windows" {
		javaBin += ".exe"
	}
	return &plugin.InstalledTool{
		ToolID:         "java",
		Version:        detected.Version,
		Path:           destDir,
		InstalledAt:    time.Now().UTC(),
		Source:         detected.Source,
		ExecutablePath: javaBin,
	}, nil
}

// ReadVersionFile reads a .java-version pin in directory, returning ""
// when none exists.
func ReadVersionFile(directory string) string {
	data, err := os.ReadFile(filepath.Join(directory, ".java-version"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
