// Package java manages JDK installations backed by Adoptium (Eclipse
// Temurin) releases.
package java

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

func isLTSMajor(major int) bool {
	switch major {
	case 8, 11, 17, 21:
		return true
	}
	return false
}

// Plugin implements the full tool contract for the JDK.
type Plugin struct {
	api       *adoptiumAPI
	installer *installer
	detector  *detector
}

// Option configures the plugin.
type Option func(*Plugin)

// WithProgress sets a callback invoked during distribution downloads.
func WithProgress(fn download.Progress) Option {
	return func(p *Plugin) { p.installer.progress = fn }
}

// New builds the Java plugin. Downloads are cached under cacheDir.
func New(cacheDir string, opts ...Option) *Plugin {
	p := &Plugin{
		api:       newAdoptiumAPI(),
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
		ID:            "java",
		Name:          "Java Development Kit",
		Version:       "1.0.0",
		Author:        "toolvm contributors",
		Platforms:     []plugin.Platform{plugin.PlatformMac, plugin.PlatformLinux, plugin.PlatformWindows},
		Architectures: []plugin.Architecture{plugin.ArchX64, plugin.ArchAarch64},
		Category:      plugin.CategoryLanguage,
		Builtin:       true,
	}
}

func (p *Plugin) Info() plugin.ToolInfo {
	return plugin.ToolInfo{
		ID:          "java",
		Name:        "Java Development Kit",
		Description: "OpenJDK distributions from Adoptium (Eclipse Temurin)",
		Homepage:    "https://adoptium.net",
		DocsURL:     "https://adoptium.net/docs",
	}
}

func (p *Plugin) ListRemoteVersions(ctx context.Context, ltsOnly bool) ([]plugin.ToolVersion, error) {
	majors, err := p.api.listReleases(ctx, ltsOnly)
	if err != nil {
		return nil, err
	}
	versions := make([]plugin.ToolVersion, 0, len(majors))
	for _, major := range majors {
		versions = append(versions, plugin.ToolVersion{
			Raw:   strconv.Itoa(major),
			Major: major,
			IsLTS: ltsOnly || isLTSMajor(major),
		})
	}
	return versions, nil
}

func (p *Plugin) FindDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	return p.api.findDistribution(ctx, version, platform, arch)
}

// ParseVersion parses JDK version strings like "21", "17.0.10", or
// "11.0.22+7". Legacy "1.8.0_452" style strings parse too; the underscore
// segment simply fails numeric patch parsing and stays raw-only.
func (p *Plugin) ParseVersion(versionStr string) (plugin.ToolVersion, error) {
	trimmed := strings.TrimSpace(versionStr)
	parts := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '.' || r == '+' })
	if len(parts) == 0 {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
	}

	v := plugin.ToolVersion{Raw: trimmed, Major: major, IsLTS: isLTSMajor(major)}
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
	if len(parts) > 3 {
		v.Metadata = parts[3]
	}
	return v, nil
}

// ValidateInstallation accepts the standard layout (bin/java), the macOS
// bundle layout (Contents/Home/bin/java), and the Windows layout.
func (p *Plugin) ValidateInstallation(path string) (bool, error) {
	for _, candidate := range []string{
		filepath.Join(path, "Contents", "Home", "bin", "java"),
		filepath.Join(path, "bin", "java"),
		filepath.Join(path, "bin", "java.exe"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// javaHome resolves the effective home: macOS bundles nest it under
// Contents/Home, everywhere else the install directory is the home.
func javaHome(installPath string) string {
	bundled := filepath.Join(installPath, "Contents", "Home")
	if _, err := os.Stat(bundled); err == nil {
		return bundled
	}
	return installPath
}

func (p *Plugin) ExecutablePaths(installPath string) ([]string, error) {
	bin := filepath.Join(javaHome(installPath), "bin")
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(bin, "java.exe"),
			filepath.Join(bin, "javac.exe"),
			filepath.Join(bin, "jar.exe"),
		}, nil
	}
	return []string{
		filepath.Join(bin, "java"),
		filepath.Join(bin, "javac"),
		filepath.Join(bin, "jar"),
	}, nil
}

func (p *Plugin) EnvironmentVars(installPath string) ([]plugin.EnvVar, error) {
	home := javaHome(installPath)
	return []plugin.EnvVar{
		{Name: "JAVA_HOME", Value: home},
		{Name: "PATH", Value: fmt.Sprintf("%s/bin:$PATH", home)},
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
