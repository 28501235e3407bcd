// Package plugin defines the capability contract every managed tool
// implements, plus the registry the manager resolves plugins through.
package plugin

import "context"

// Provider answers questions about a tool: what it is, which versions exist
// remotely, how version strings parse, and what a valid installation looks
// like. Methods that reach the network take a context; the rest are pure.
type Provider interface {
	// Info returns the tool's static identity.
	Info() ToolInfo

	// ListRemoteVersions lists versions available from the tool's remote
	// source. With ltsOnly set, only long-term-support versions return.
	ListRemoteVersions(ctx context.Context, ltsOnly bool) ([]ToolVersion, error)

	// FindDistribution locates the downloadable artifact for a version on
	// the given platform/architecture.
	FindDistribution(ctx context.Context, version ToolVersion, platform Platform, arch Architecture) (ToolDistribution, error)

	// ParseVersion parses a raw version string. Unparseable input fails
	// with errdefs.InvalidVersionError.
	ParseVersion(versionStr string) (ToolVersion, error)

	// ValidateInstallation reports whether path holds a structurally valid
	// installation. It is a pure filesystem check and never mutates path.
	ValidateInstallation(path string) (bool, error)

	// ExecutablePaths returns the executables an installation at path provides.
	ExecutablePaths(installPath string) ([]string, error)

	// EnvironmentVars returns the variables a shell needs to use the
	// installation at installPath. A *_HOME variable names the home path.
	EnvironmentVars(installPath string) ([]EnvVar, error)
}

// Installer performs the tool-specific portion of install and removal.
type Installer interface {
	// Install places the distribution at destDir and returns the manifest
	// record. It fails if destDir already exists.
	Install(ctx context.Context, dist ToolDistribution, destDir string) (*InstalledTool, error)

	// Uninstall removes an installation previously produced by Install or
	// ImportInstallation.
	Uninstall(ctx context.Context, installed *InstalledTool) error

	// Verify checks installation integrity.
	Verify(ctx context.Context, installed *InstalledTool) (bool, error)
}

// Detector finds installations the manager did not create. Detection is
// best effort: invalid candidates are skipped, results are deduplicated by
// resolved path, and failures are non-fatal during cross-tool sweeps.
type Detector interface {
	DetectInstallations(ctx context.Context) ([]DetectedInstallation, error)

	// ImportInstallation brings a detected installation under management at
	// destDir without copying or mutating the source. It fails if destDir
	// exists or the source is a protected system directory.
	ImportInstallation(ctx context.Context, detected DetectedInstallation, destDir string) (*InstalledTool, error)
}

// ToolPlugin is the complete contract a registered tool satisfies.
type ToolPlugin interface {
	Provider
	Installer
	Detector

	// SupportsPlatform is the authoritative pre-install gate.
	SupportsPlatform(platform Platform, arch Architecture) bool
}
