// Package errdefs defines the error kinds shared across toolvm. Callers
// match them with errors.As after any amount of fmt.Errorf %w wrapping.
package errdefs

import "fmt"

// VersionNotFoundError reports that no installed version matched a
// tool@version reference.
type VersionNotFoundError struct {
	Ref string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found", e.Ref)
}

// VersionAlreadyInstalledError reports an install collision at Path.
type VersionAlreadyInstalledError struct {
	Version string
	Path    string
}

func (e *VersionAlreadyInstalledError) Error() string {
	return fmt.Sprintf("version %s is already installed at %s", e.Version, e.Path)
}

// InvalidVersionError reports an unparseable version string.
type InvalidVersionError struct {
	Input string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version format: %s", e.Input)
}

// UnsupportedPlatformError reports a platform/arch pair no plugin can serve.
type UnsupportedPlatformError struct {
	OS   string
	Arch string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s %s", e.OS, e.Arch)
}

// InvalidToolStructureError reports a directory that failed structural
// validation, or installation metadata too corrupt to act on. It always
// names the tool; Message names the path involved.
type InvalidToolStructureError struct {
	Tool    string
	Message string
}

func (e *InvalidToolStructureError) Error() string {
	return fmt.Sprintf("invalid %s structure: %s", e.Tool, e.Message)
}

// PluginNotFoundError reports a lookup for an unregistered plugin id.
type PluginNotFoundError struct {
	ID string
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("plugin not found: %s", e.ID)
}

// PluginError reports a failure attributed to a specific plugin.
type PluginError struct {
	Plugin  string
	Message string
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s", e.Plugin, e.Message)
}

// ToolNotFoundError reports a tool id with no installation or definition.
type ToolNotFoundError struct {
	ID string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.ID)
}

// DownloadFailedError reports a failed artifact download.
type DownloadFailedError struct {
	URL string
	Err error
}

func (e *DownloadFailedError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadFailedError) Unwrap() error { return e.Err }

// ChecksumMismatchError reports a digest that did not match the expected value.
type ChecksumMismatchError struct {
	File string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s", e.File)
}

// ExtractionFailedError reports a failed archive extraction.
type ExtractionFailedError struct {
	Archive string
	Err     error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Err }
