package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"toolvm/internal/plugin"
)

// writeManifest persists the durable install record. When the install
// directory is itself a symlink (an imported external install) the manifest
// goes to the side metadata store instead of inside the symlinked target,
// which the manager must never mutate. Whether a directory is a symlink is
// checked on every call, never cached.
func (m *Manager) writeManifest(installed *plugin.InstalledTool) error {
	writePath := filepath.Join(installed.Path, manifestFileName)

	if isSymlink(installed.Path) {
		if err := os.MkdirAll(m.cfg.MetadataDir(), 0o755); err != nil {
			return fmt.Errorf("create metadata directory: %w", err)
		}
		writePath = m.sideManifestPath(installed.ToolID, installed.Version.Raw)
	}

	buf, err := json.MarshalIndent(installed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(writePath, buf, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// readManifest loads the manifest for an install directory, checking the
// in-place location first, then the side store for symlinked directories.
// Absence is not an error: callers get (nil, nil) and decide the fallback.
func (m *Manager) readManifest(installDir string) (*plugin.InstalledTool, error) {
	inPlace := m.manifestPath(installDir)
	if contents, err := os.ReadFile(inPlace); err == nil {
		return decodeManifest(inPlace, contents)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if isSymlink(installDir) {
		versionStr := filepath.Base(installDir)
		toolID := filepath.Base(filepath.Dir(installDir))
		sidePath := m.sideManifestPath(toolID, versionStr)
		if contents, err := os.ReadFile(sidePath); err == nil {
			return decodeManifest(sidePath, contents)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
	}

	return nil, nil
}

func (m *Manager) manifestPath(installDir string) string {
	return filepath.Join(installDir, manifestFileName)
}

func (m *Manager) sideManifestPath(toolID, rawVersion string) string {
	return filepath.Join(m.cfg.MetadataDir(), fmt.Sprintf("%s_%s.json", toolID, rawVersion))
}

func decodeManifest(path string, contents []byte) (*plugin.InstalledTool, error) {
	var installed plugin.InstalledTool
	if err := json.Unmarshal(contents, &installed); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &installed, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}
