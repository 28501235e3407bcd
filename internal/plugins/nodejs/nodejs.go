// Package nodejs manages Node.js runtimes from nodejs.org/dist.
package nodejs

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

// ltsCodenames maps LTS major versions to their release codenames.
var ltsCodenames = map[int]string{
	22: "Jod",
	20: "Iron",
	18: "Hydrogen",
	16: "Gallium",
	14: "Fermium",
}

// Plugin implements the full tool contract for Node.js.
type Plugin struct {
	api       *distAPI
	installer *installer
	detector  *detector
}

// Option configures the plugin.
type Option func(*Plugin)

// WithProgress sets a callback invoked during distribution downloads.
func WithProgress(fn download.Progress) Option {
	return func(p *Plugin) { p.installer.progress = fn }
}

// New builds the Node.js plugin. Downloads are cached under cacheDir.
func New(cacheDir string, opts ...Option) *Plugin {
	api := newDistAPI()
	p := &Plugin{
		api:       api,
		installer: &installer{api: api, cacheDir: cacheDir},
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
		ID:            "node",
		Name:          "Node.js",
		Version:       "1.0.0",
		Author:        "toolvm contributors",
		Platforms:     []plugin.Platform{plugin.PlatformMac, plugin.PlatformLinux, plugin.PlatformWindows},
		Architectures: []plugin.Architecture{plugin.ArchX64, plugin.ArchAarch64},
		Category:      plugin.CategoryRuntime,
		Builtin:       true,
	}
}

func (p *Plugin) Info() plugin.ToolInfo {
	return plugin.ToolInfo{
		ID:          "node",
		Name:        "Node.js",
		Description: "Node.js JavaScript runtime built on Chrome's V8 engine",
		Homepage:    "https://nodejs.org",
		DocsURL:     "https://nodejs.org/docs",
	}
}

func (p *Plugin) ListRemoteVersions(ctx context.Context, ltsOnly bool) ([]plugin.ToolVersion, error) {
	versions, err := p.api.listVersions(ctx)
	if err != nil {
		return nil, err
	}
	if !ltsOnly {
		return versions, nil
	}
	lts := versions[:0]
	for _, v := range versions {
		if v.IsLTS {
			lts = append(lts, v)
		}
	}
	return lts, nil
}

func (p *Plugin) FindDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	return p.api.findDistribution(ctx, version, platform, arch)
}

// ParseVersion parses Node version strings, tolerating the "v" prefix used
// by nodejs.org and .nvmrc files. Floating aliases like "lts" or "latest"
// are rejected; they must be resolved against a listing first.
func (p *Plugin) ParseVersion(versionStr string) (plugin.ToolVersion, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(versionStr), "v")

	switch cleaned {
	case "lts", "lts/*", "latest", "current":
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	parts := strings.Split(cleaned, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	v := plugin.ToolVersion{Raw: cleaned, Major: major}
	if len(parts) > 1 {
		if minor, err := strconv.Atoi(parts[1]); err == nil {
			v.Minor = plugin.Int(minor)
		}
	}
	if len(parts) > 2 {
		if patch, err := strconv.Atoi(parts[2]); err == nil {
			v.Patch = plugin.Int(patch)
		}
	}

	if name, ok := ltsCodenames[major]; ok {
		v.IsLTS = true
		v.Metadata = "lts:" + name
	}
	return v, nil
}

func (p *Plugin) ValidateInstallation(path string) (bool, error) {
	for _, candidate := range []string{
		filepath.Join(path, "bin", "node"),
		filepath.Join(path, "node.exe"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return true, nil
		}
	}
	return false, nil
}

func (p *Plugin) ExecutablePaths(installPath string) ([]string, error) {
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(installPath, "node.exe"),
			filepath.Join(installPath, "npm.cmd"),
			filepath.Join(installPath, "npx.cmd"),
		}, nil
	}
	bin := filepath.Join(installPath, "bin")
	return []string{
		filepath.Join(bin, "node"),
		filepath.Join(bin, "npm"),
		filepath.Join(bin, "npx"),
	}, nil
}

func (p *Plugin) EnvironmentVars(installPath string) ([]plugin.EnvVar, error) {
	binPath := installPath
	if runtime.GOOS != "windows" {
		binPath = filepath.Join(installPath, "bin")
	}
	return []plugin.EnvVar{
		{Name: "NODE_HOME", Value: installPath},
		{Name: "PATH", Value: fmt.Sprintf("%s:$PATH", binPath)},
	}, nil
}

func (p *Plugin) Install(ctx context.Context, dist plugin.ToolDistribution, destDir string) (*plugin.InstalledTool, error) {
	return p.installer.install(ctx, dist, destDir)
}

func (p *Plugin) Uninstall(ctx context.Context, installed *plugin.InstalledTool) error {
	return p.installer.uninstall(installed)
}

func (p *Plugin) Verify(ctx context.Context, installed *plugin.InstalledTool) (bool, error) {
	return p.installer.verify(installed)
}

func (p *Plugin) DetectInstallations(ctx context.Context) ([]plugin.DetectedInstallation, error) {
	return p.detector.detect(ctx, p)
}

func (p *Plugin) ImportInstallation(ctx context.Context, detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	return p.detector.importInstallation(detected, destDir)
}

func (p *Plugin) SupportsPlatform(platform plugin.Platform, arch plugin.Architecture) bool {
	switch platform {
	case plugin.PlatformMac, plugin.PlatformLinux:
		return arch == plugin.ArchX64 || arch == plugin.ArchAarch64
	case plugin.PlatformWindows:
		return arch == plugin.ArchX64
	default:
		return false
	}
}
