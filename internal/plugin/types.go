package plugin

import (
	"runtime"
	"time"

	"toolvm/internal/errdefs"
)

// ToolInfo is the static identity a plugin reports for its tool.
type ToolInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Homepage    string `json:"homepage,omitempty"`
	DocsURL     string `json:"docsUrl,omitempty"`
}

// ToolVersion is a parsed version. Raw is authoritative: it is the string
// shown to users and the directory name on disk, and equality is by Raw.
// Major/Minor/Patch exist only for ordering and fuzzy matching; Minor and
// Patch are nil when the source string omitted them.
type ToolVersion struct {
	Raw      string `json:"raw"`
	Major    int    `json:"major"`
	Minor    *int   `json:"minor,omitempty"`
	Patch    *int   `json:"patch,omitempty"`
	Metadata string `json:"metadata,omitempty"`
	IsLTS    bool   `json:"isLts"`
}

func (v ToolVersion) String() string { return v.Raw }

// Equal compares by raw string only.
func (v ToolVersion) Equal(other ToolVersion) bool { return v.Raw == other.Raw }

// Compare orders versions ascending by major, minor, patch (absent parts
// count as 0) with the raw string as a deterministic final tiebreak.
// Returns <0 when v sorts before other.
func (v ToolVersion) Compare(other ToolVersion) int {
	if d := v.Major - other.Major; d != 0 {
		return d
	}
	if d := intOrZero(v.Minor) - intOrZero(other.Minor); d != 0 {
		return d
	}
	if d := intOrZero(v.Patch) - intOrZero(other.Patch); d != 0 {
		return d
	}
	switch {
	case v.Raw < other.Raw:
		return -1
	case v.Raw > other.Raw:
		return 1
	default:
		return 0
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Int returns a pointer to v, for building optional version parts.
func Int(v int) *int { return &v }

// Platform is a target operating system.
type Platform string

const (
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

// Architecture is a target CPU architecture.
type Architecture string

const (
	ArchX64     Architecture = "x64"
	ArchAarch64 Architecture = "aarch64"
	ArchX86     Architecture = "x86"
	ArchArm     Architecture = "arm"
)

// HostPlatform maps the running process to a Platform/Architecture pair.
func HostPlatform() (Platform, Architecture, error) {
	var platform Platform
	switch runtime.GOOS {
	case "darwin":
		platform = PlatformMac
	case "linux":
		platform = PlatformLinux
	case "windows":
		platform = PlatformWindows
	default:
		return "", "", &errdefs.UnsupportedPlatformError{OS: runtime.GOOS, Arch: runtime.GOARCH}
	}

	var arch Architecture
	switch runtime.GOARCH {
	case "amd64":
		arch = ArchX64
	case "arm64":
		arch = ArchAarch64
	case "386":
		arch = ArchX86
	case "arm":
		arch = ArchArm
	default:
		return "", "", &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: runtime.GOARCH}
	}

	return platform, arch, nil
}

// ArchiveType names the packaging of a downloadable distribution.
type ArchiveType string

const (
	ArchiveTarGz  ArchiveType = "tar.gz"
	ArchiveTarXz  ArchiveType = "tar.xz"
	ArchiveZip    ArchiveType = "zip"
	ArchiveBinary ArchiveType = "binary"
)

// ToolDistribution describes one installable artifact for a
// (tool, version, platform, arch) combination. Distributions are produced
// per install call and never persisted.
type ToolDistribution struct {
	ToolID       string            `json:"toolId"`
	Version      ToolVersion       `json:"version"`
	Platform     Platform          `json:"platform"`
	Architecture Architecture      `json:"architecture"`
	DownloadURL  string            `json:"downloadUrl"`
	Checksum     string            `json:"checksum,omitempty"`
	Size         int64             `json:"size,omitempty"`
	ArchiveType  ArchiveType       `json:"archiveType"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// InstalledTool is the durable manifest record written after a successful
// install or import. It is written once and deleted on uninstall, never
// mutated in place.
type InstalledTool struct {
	ToolID         string      `json:"toolId"`
	Version        ToolVersion `json:"version"`
	Path           string      `json:"path"`
	InstalledAt    time.Time   `json:"installedAt"`
	Source         string      `json:"source"`
	ExecutablePath string      `json:"executablePath,omitempty"`
}

// DetectedInstallation is an externally found installation. It is produced
// by detection and consumed by import; it is never persisted directly.
type DetectedInstallation struct {
	ToolID         string      `json:"toolId"`
	Version        ToolVersion `json:"version"`
	Path           string      `json:"path"`
	Source         string      `json:"source"`
	ExecutablePath string      `json:"executablePath,omitempty"`
}

// PluginCategory groups plugins in listings.
type PluginCategory string

const (
	CategoryLanguage PluginCategory = "language"
	CategoryRuntime  PluginCategory = "runtime"
	CategoryDatabase PluginCategory = "database"
	CategoryTool     PluginCategory = "tool"
	CategoryBrowser  PluginCategory = "browser"
	CategoryEditor   PluginCategory = "editor"
	CategoryOther    PluginCategory = "other"
)

// PluginMetadata is the registration descriptor for a plugin. ID must equal
// the plugin's own reported ToolInfo.ID. The declared platform/architecture
// lists are advisory; the plugin's SupportsPlatform is the runtime gate.
type PluginMetadata struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Version       string         `json:"version"`
	Author        string         `json:"author"`
	Platforms     []Platform     `json:"platforms"`
	Architectures []Architecture `json:"architectures"`
	Category      PluginCategory `json:"category"`
	Builtin       bool           `json:"builtin"`
}

// DisplayName returns the human-friendly name, falling back to the id.
func (m PluginMetadata) DisplayName() string {
	if m.Name == "" {
		return m.ID
	}
	return m.Name
}

// SupportsHost reports whether the declared metadata covers the pair.
func (m PluginMetadata) SupportsHost(platform Platform, arch Architecture) bool {
	return containsPlatform(m.Platforms, platform) && containsArch(m.Architectures, arch)
}

func containsPlatform(list []Platform, p Platform) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func containsArch(list []Architecture, a Architecture) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

// EnvVar is a single environment variable a tool needs when active. A name
// ending in _HOME declares the version's canonical home directory.
type EnvVar struct {
	Name  string
	Value string
}
