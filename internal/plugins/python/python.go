// Package python manages CPython runtimes using python-build-standalone
// release builds.
package python

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"toolvm/internal/download"
	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

// Plugin implements the full tool contract for CPython.
type Plugin struct {
	api       *standaloneAPI
	installer *installer
	detector  *detector
}

// Option configures the plugin.
type Option func(*Plugin)

// WithProgress sets a callback invoked during distribution downloads.
func WithProgress(fn download.Progress) Option {
	return func(p *Plugin) { p.installer.progress = fn }
}

// New builds the Python plugin. Downloads are cached under cacheDir.
func New(cacheDir string, opts ...Option) *Plugin {
	p := &Plugin{
		api:       newStandaloneAPI(),
		installer: &installer{cacheDir: cacheDir},
		detector:  &detector{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metadata returns the registration descriptor.
func Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		ID:            "python",
		Name:          "Python",
		Version:       "1.0.0",
		Author:        "toolvm contributors",
		Platforms:     []plugin.Platform{plugin.PlatformMac, plugin.PlatformLinux, plugin.PlatformWindows},
		Architectures: []plugin.Architecture{plugin.ArchX64, plugin.ArchAarch64, plugin.ArchX86},
		Category:      plugin.CategoryLanguage,
		Builtin:       true,
	}
}

func (p *Plugin) Info() plugin.ToolInfo {
	return plugin.ToolInfo{
		ID:          "python",
		Name:        "Python",
		Description: "CPython runtime builds from python-build-standalone",
		Homepage:    "https://www.python.org",
		DocsURL:     "https://docs.python.org",
	}
}

// ListRemoteVersions lists available CPython versions. Python has no LTS
// designation; ltsOnly narrows the list to currently maintained 3.10+
// releases, newest patch per minor.
func (p *Plugin) ListRemoteVersions(ctx context.Context, ltsOnly bool) ([]plugin.ToolVersion, error) {
	versions, err := p.api.listVersions(ctx)
	if err != nil {
		return nil, err
	}
	if !ltsOnly {
		return versions, nil
	}

	seenMinors := make(map[int]bool)
	maintained := versions[:0]
	for _, v := range versions {
		if v.Major != 3 || v.Minor == nil || *v.Minor < 10 {
			continue
		}
		if seenMinors[*v.Minor] {
			continue
		}
		seenMinors[*v.Minor] = true
		maintained = append(maintained, v)
	}
	return maintained, nil
}

func (p *Plugin) FindDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	return p.api.findDistribution(ctx, version, platform, arch)
}

// ParseVersion parses versions like "3.12.8" or "3.11".
func (p *Plugin) ParseVersion(versionStr string) (plugin.ToolVersion, error) {
	return parseVersion(versionStr)
}

func parseVersion(versionStr string) (plugin.ToolVersion, error) {
	trimmed := strings.TrimSpace(versionStr)
	parts := strings.Split(trimmed, ".")
	if len(parts) == 0 || parts[0] == "" {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	v := plugin.ToolVersion{Raw: trimmed, Major: major}
	if len(parts) > 1 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
		}
		v.Minor = plugin.Int(minor)
	}
	if len(parts) > 2 {
		patch, err := strconv.Atoi(parts[2])
		if err != nil {
			return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
		}
		v.Patch = plugin.Int(patch)
	}
	return v, nil
}

// ValidateInstallation requires bin/python3 on Unix or a root python.exe on
// Windows.
func (p *Plugin) ValidateInstallation(path string) (bool, error) {
	if _, err := os.Stat(pythonExecutable(path)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspect installation: %w", err)
	}
	return true, nil
}

// pythonExecutable returns the interpreter path inside a Python home.
func pythonExecutable(installPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(installPath, "python.exe")
	}
	return filepath.Join(installPath, "bin", "python3")
}

func (p *Plugin) ExecutablePaths(installPath string) ([]string, error) {
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(installPath, "python.exe"),
			filepath.Join(installPath, "Scripts", "pip.exe"),
		}, nil
	}
	bin := filepath.Join(installPath, "bin")
	return []string{
		filepath.Join(bin, "python3"),
		filepath.Join(bin, "pip3"),
		filepath.Join(bin, "python"),
		filepath.Join(bin, "pip"),
	}, nil
}

func (p *Plugin) EnvironmentVars(installPath string) ([]plugin.EnvVar, error) {
	return []plugin.EnvVar{
		{Name: "PYTHON_HOME", Value: installPath},
		{Name: "PATH", Value: fmt.Sprintf("%s/bin:$PATH", installPath)},
		{Name: "LD_LIBRARY_PATH", Value: fmt.Sprintf("%s/lib", installPath)},
	}, nil
}

func (p *Plugin) Install(ctx context.Context, dist plugin.ToolDistribution, destDir string) (*plugin.InstalledTool, error) {
	return p.installer.install(ctx, dist, destDir, p)
}

func (p *Plugin) Uninstall(ctx context.Context, installed *plugin.InstalledTool) error {
	return p.installer.uninstall(installed)
}

func (p *Plugin) Verify(ctx context.Context, installed *plugin.InstalledTool) (bool, error) {
	return p.ValidateInstallation(installed.Path)
}

func (p *Plugin) DetectInstallations(ctx context.Context) ([]plugin.DetectedInstallation, error) {
	return p.detector.detect(ctx, p)
}

func (p *Plugin) ImportInstallation(ctx context.Context, detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	return p.detector.importInstallation(detected, destDir)
}

// SupportsPlatform: standalone builds exist for every desktop platform.
func (p *Plugin) SupportsPlatform(platform plugin.Platform, arch plugin.Architecture) bool {
	switch platform {
	case plugin.PlatformMac, plugin.PlatformLinux, plugin.PlatformWindows:
		return true
	default:
		return false
	}
}
