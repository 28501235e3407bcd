// Package manager orchestrates tool installs, activation, and detection on
// top of the plugin registry. It owns all cross-tool filesystem state: the
// versions/alias layout, the alias symlink graph, and manifest files.
// Plugins own only the contents inside a version's install directory.
package manager

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"toolvm/internal/config"
	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
	"toolvm/internal/relcache"
)

const manifestFileName = ".jcvm-manifest.json"

// Manager resolves (tool, version) pairs to concrete installations and keeps
// the symlink and manifest state consistent. It holds no mutable state of
// its own beyond the registry handle; everything else lives on disk and is
// re-read per call.
type Manager struct {
	cfg      config.Config
	registry *plugin.Registry
	cache    *relcache.Store
	log      *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithReleaseCache attaches a remote-listing cache. Without one, every
// ListRemoteVersions call hits the network.
func WithReleaseCache(store *relcache.Store) Option {
	return func(m *Manager) { m.cache = store }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// New builds a Manager over the given layout and registry.
func New(cfg config.Config, registry *plugin.Registry, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry exposes the underlying plugin registry.
func (m *Manager) Registry() *plugin.Registry { return m.registry }

// Metadata returns the registration descriptor for a tool.
func (m *Manager) Metadata(toolID string) (plugin.PluginMetadata, error) {
	return m.registry.GetMetadata(toolID)
}

// ListRemoteVersions lists the versions available from a tool's remote
// source, consulting the release cache when one is configured.
func (m *Manager) ListRemoteVersions(ctx context.Context, toolID string, ltsOnly bool) ([]plugin.ToolVersion, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(m.cfg.Settings.CacheTTLHours) * time.Hour
	if m.cache != nil && m.cfg.Settings.CacheRemoteVersions {
		if versions, ok, err := m.cache.Get(toolID, ltsOnly, ttl); err != nil {
			m.log.Warn("release cache read failed", zap.String("tool", toolID), zap.Error(err))
		} else if ok {
			return versions, nil
		}
	}

	versions, err := p.ListRemoteVersions(ctx, ltsOnly)
	if err != nil {
		return nil, err
	}

	if m.cache != nil && m.cfg.Settings.CacheRemoteVersions {
		if err := m.cache.Put(toolID, ltsOnly, versions); err != nil {
			m.log.Warn("release cache write failed", zap.String("tool", toolID), zap.Error(err))
		}
	}
	return versions, nil
}

// Install downloads and installs versionStr of the tool. With force set, an
// existing installation of the same version is removed first; otherwise a
// collision fails with VersionAlreadyInstalled. There is no retry: a failed
// install returns to the caller as-is.
func (m *Manager) Install(ctx context.Context, toolID, versionStr string, force bool) (*plugin.InstalledTool, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	version, err := p.ParseVersion(versionStr)
	if err != nil {
		return nil, err
	}

	destDir := m.cfg.ToolVersionDir(toolID, version.Raw)
	if _, statErr := os.Lstat(destDir); statErr == nil {
		if !force {
			return nil, &errdefs.VersionAlreadyInstalledError{Version: version.Raw, Path: destDir}
		}
		if err := m.Uninstall(ctx, toolID, version.Raw); err != nil {
			return nil, fmt.Errorf("remove existing %s %s: %w", toolID, version.Raw, err)
		}
	}

	if err := os.MkdirAll(m.cfg.ToolVersionsDir(toolID), 0o755); err != nil {
		return nil, fmt.Errorf("create tool directory: %w", err)
	}

	platform, arch, err := plugin.HostPlatform()
	if err != nil {
		return nil, err
	}
	if !p.SupportsPlatform(platform, arch) {
		return nil, &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: string(arch)}
	}

	dist, err := p.FindDistribution(ctx, version, platform, arch)
	if err != nil {
		return nil, err
	}

	installed, err := p.Install(ctx, dist, destDir)
	if err != nil {
		return nil, err
	}
	if err := m.writeManifest(installed); err != nil {
		return nil, err
	}

	m.log.Info("installed tool version",
		zap.String("tool", toolID),
		zap.String("version", version.Raw),
		zap.String("path", installed.Path))
	return installed, nil
}

// Uninstall removes an installed version: the plugin tears down the
// directory, then the manifest is deleted and every alias targeting the
// directory (current, default, named, legacy) is purged. A missing manifest
// is tolerated as long as the version string still parses.
func (m *Manager) Uninstall(ctx context.Context, toolID, versionStr string) error {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return err
	}
	installDir, err := m.resolveInstallDir(toolID, versionStr)
	if err != nil {
		return err
	}

	installed, err := m.readManifest(installDir)
	if err != nil {
		return err
	}
	if installed == nil {
		m.log.Warn("manifest not found, reconstructing from version string",
			zap.String("tool", toolID),
			zap.String("version", versionStr),
			zap.String("path", installDir))

		parsed, parseErr := p.ParseVersion(versionStr)
		if parseErr != nil {
			return &errdefs.InvalidToolStructureError{
				Tool: toolID,
				Message: fmt.Sprintf(
					"cannot uninstall: manifest missing and version parsing failed (%v); installation data may be corrupted at: %s",
					parseErr, installDir),
			}
		}
		installed = &plugin.InstalledTool{
			ToolID:      toolID,
			Version:     parsed,
			Path:        installDir,
			InstalledAt: time.Now().UTC(),
			Source:      "unknown",
		}
	}

	if err := p.Uninstall(ctx, installed); err != nil {
		return err
	}
	_ = os.Remove(m.manifestPath(installDir))
	_ = os.Remove(m.sideManifestPath(toolID, installed.Version.Raw))
	return m.cleanupAliases(toolID, installDir)
}

// DetectTool runs one plugin's detector over the host.
func (m *Manager) DetectTool(ctx context.Context, toolID string) ([]plugin.DetectedInstallation, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}
	return p.DetectInstallations(ctx)
}

// ImportTool brings a detected installation under management. The source is
// symlinked, never copied or mutated; the manifest goes to the side store.
func (m *Manager) ImportTool(ctx context.Context, toolID string, detected plugin.DetectedInstallation) (*plugin.InstalledTool, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	destDir := m.cfg.ToolVersionDir(toolID, detected.Version.Raw)
	if _, statErr := os.Lstat(destDir); statErr == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: detected.Version.Raw, Path: destDir}
	}
	if err := os.MkdirAll(m.cfg.ToolVersionsDir(toolID), 0o755); err != nil {
		return nil, fmt.Errorf("create tool directory: %w", err)
	}

	installed, err := p.ImportInstallation(ctx, detected, destDir)
	if err != nil {
		return nil, err
	}
	if err := m.writeManifest(installed); err != nil {
		return nil, err
	}

	m.log.Info("imported external installation",
		zap.String("tool", toolID),
		zap.String("version", detected.Version.Raw),
		zap.String("source", detected.Path))
	return installed, nil
}

// DetectionResult summarizes one plugin's contribution to a sweep.
type DetectionResult struct {
	ToolID   string
	Detected int
	Imported int
}

// DetectAll runs every registered plugin's detector. A failing detector is
// skipped; it never aborts the sweep. Tools with zero findings are omitted.
func (m *Manager) DetectAll(ctx context.Context) []DetectionResult {
	var results []DetectionResult
	for _, toolID := range m.registry.ListPlugins() {
		p, err := m.registry.Get(toolID)
		if err != nil {
			continue
		}
		detected, err := p.DetectInstallations(ctx)
		if err != nil {
			m.log.Warn("detection failed", zap.String("tool", toolID), zap.Error(err))
			continue
		}
		if len(detected) > 0 {
			results = append(results, DetectionResult{ToolID: toolID, Detected: len(detected)})
		}
	}
	return results
}

// DetectAndImportAll detects and imports across every registered plugin,
// skipping installations already under management. Per-item failures are
// counted out, not raised.
func (m *Manager) DetectAndImportAll(ctx context.Context) []DetectionResult {
	var results []DetectionResult
	for _, toolID := range m.registry.ListPlugins() {
		p, err := m.registry.Get(toolID)
		if err != nil {
			continue
		}
		detected, err := p.DetectInstallations(ctx)
		if err != nil {
			m.log.Warn("detection failed", zap.String("tool", toolID), zap.Error(err))
			continue
		}
		if len(detected) == 0 {
			continue
		}

		imported := 0
		for _, installation := range detected {
			destDir := m.cfg.ToolVersionDir(toolID, installation.Version.Raw)
			if _, statErr := os.Lstat(destDir); statErr == nil {
				continue
			}
			if err := os.MkdirAll(m.cfg.ToolVersionsDir(toolID), 0o755); err != nil {
				continue
			}
			installed, err := p.ImportInstallation(ctx, installation, destDir)
			if err != nil {
				m.log.Warn("import failed",
					zap.String("tool", toolID),
					zap.String("version", installation.Version.Raw),
					zap.Error(err))
				continue
			}
			if err := m.writeManifest(installed); err != nil {
				m.log.Warn("manifest write failed",
					zap.String("tool", toolID),
					zap.String("version", installation.Version.Raw),
					zap.Error(err))
				continue
			}
			imported++
		}

		results = append(results, DetectionResult{ToolID: toolID, Detected: len(detected), Imported: imported})
	}
	return results
}
