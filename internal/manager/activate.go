package manager

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

// ActivationContext is everything a caller needs after activating a
// version: the resolved paths and the environment a shell should export.
type ActivationContext struct {
	ToolID      string
	ToolInfo    plugin.ToolInfo
	Version     plugin.ToolVersion
	InstallPath string
	HomePath    string
	Env         []plugin.EnvVar
}

// SetCurrent activates a version: the installation is structurally
// validated, the home path derived, and the "current" alias repointed.
// This is the only operation that mutates activation state; reads always
// go back to the symlink graph.
func (m *Manager) SetCurrent(toolID, versionStr string) (*ActivationContext, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}
	installDir, err := m.resolveInstallDir(toolID, versionStr)
	if err != nil {
		return nil, err
	}

	valid, err := p.ValidateInstallation(installDir)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, &errdefs.InvalidToolStructureError{
			Tool:    toolID,
			Message: fmt.Sprintf("installation at %s failed validation", installDir),
		}
	}

	homePath, env, err := loadEnv(p, installDir)
	if err != nil {
		return nil, err
	}

	currentLink := m.cfg.ToolCurrentSymlink(toolID)
	if err := replaceSymlink(homePath, currentLink); err != nil {
		return nil, err
	}
	if toolID == "java" {
		legacyCurrent := m.cfg.LegacyAliasPath("current")
		if legacyCurrent != currentLink {
			if err := replaceSymlink(homePath, legacyCurrent); err != nil {
				return nil, err
			}
		}
	}

	manifest, err := m.readManifest(installDir)
	if err != nil {
		return nil, err
	}
	var version plugin.ToolVersion
	if manifest != nil {
		version = manifest.Version
	} else {
		m.log.Warn("manifest not found, activating from parsed version",
			zap.String("tool", toolID),
			zap.String("version", versionStr),
			zap.String("path", installDir))

		version, err = p.ParseVersion(versionStr)
		if err != nil {
			return nil, &errdefs.InvalidToolStructureError{
				Tool: toolID,
				Message: fmt.Sprintf(
					"cannot activate: manifest missing and version parsing failed (%v); installation data may be corrupted at: %s",
					err, installDir),
			}
		}
	}

	return &ActivationContext{
		ToolID:      toolID,
		ToolInfo:    p.Info(),
		Version:     version,
		InstallPath: installDir,
		HomePath:    homePath,
		Env:         env,
	}, nil
}

// Environment resolves the shell environment for a version without
// touching any activation state. It is the read-only counterpart of
// SetCurrent.
func (m *Manager) Environment(toolID, versionStr string) (*ActivationContext, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return nil, err
	}
	installDir, err := m.resolveInstallDir(toolID, versionStr)
	if err != nil {
		return nil, err
	}
	homePath, env, err := loadEnv(p, installDir)
	if err != nil {
		return nil, err
	}
	version, err := p.ParseVersion(versionStr)
	if err != nil {
		if manifest, mErr := m.readManifest(installDir); mErr == nil && manifest != nil {
			version = manifest.Version
		} else {
			return nil, err
		}
	}

	return &ActivationContext{
		ToolID:      toolID,
		ToolInfo:    p.Info(),
		Version:     version,
		InstallPath: installDir,
		HomePath:    homePath,
		Env:         env,
	}, nil
}

// SetAlias points a named alias at a version's home path. The reserved
// names "current" and "default" go through the same symlink discipline;
// SetCurrent is the path that also validates the installation.
func (m *Manager) SetAlias(toolID, alias, versionStr string) error {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return err
	}
	installDir, err := m.resolveInstallDir(toolID, versionStr)
	if err != nil {
		return err
	}
	homePath, _, err := loadEnv(p, installDir)
	if err != nil {
		return err
	}

	aliasPath := m.cfg.ToolAliasPath(toolID, alias)
	if err := replaceSymlink(homePath, aliasPath); err != nil {
		return err
	}
	if toolID == "java" {
		legacyAlias := m.cfg.LegacyAliasPath(alias)
		if legacyAlias != aliasPath {
			if err := replaceSymlink(homePath, legacyAlias); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteAlias removes a named alias. Removing an absent alias succeeds.
func (m *Manager) DeleteAlias(toolID, alias string) error {
	if err := removeLink(m.cfg.ToolAliasPath(toolID, alias)); err != nil {
		return err
	}
	if toolID == "java" {
		_ = removeLink(m.cfg.LegacyAliasPath(alias))
	}
	return nil
}

// GetAlias resolves an alias back to an installed version's raw string.
// The alias stores a home path while installations are indexed by their
// install directory, so the target is matched exactly or by prefix against
// every installed version. Returns "" when the alias does not resolve.
func (m *Manager) GetAlias(toolID, alias string) (string, error) {
	paths := []string{m.cfg.ToolAliasPath(toolID, alias)}
	if toolID == "java" {
		paths = append(paths, m.cfg.LegacyAliasPath(alias))
	}

	for _, aliasPath := range paths {
		target, err := symlinkTarget(aliasPath)
		if err != nil {
			return "", err
		}
		if target == "" {
			continue
		}
		installs, err := m.ListInstalled(toolID)
		if err != nil {
			return "", err
		}
		for _, install := range installs {
			if targetMatches(target, install.Path) {
				return install.Version.Raw, nil
			}
		}
	}
	return "", nil
}

// GetCurrent returns the raw version the "current" alias resolves to, or ""
// when nothing is active.
func (m *Manager) GetCurrent(toolID string) (string, error) {
	installs, err := m.ListInstalled(toolID)
	if err != nil {
		return "", err
	}
	for _, install := range installs {
		if install.IsCurrent {
			return install.Version.Raw, nil
		}
	}
	return "", nil
}

// loadEnv asks the plugin for the environment of an installation and
// derives the home path from it.
func loadEnv(p plugin.ToolPlugin, installDir string) (string, []plugin.EnvVar, error) {
	env, err := p.EnvironmentVars(installDir)
	if err != nil {
		return "", nil, err
	}
	return extractHomePath(env, installDir), env, nil
}

// extractHomePath finds the first *_HOME variable and sanitizes its value
// into a plain path. Without one, the install directory itself is the home.
func extractHomePath(env []plugin.EnvVar, installDir string) string {
	for _, v := range env {
		if !strings.HasSuffix(v.Name, "_HOME") {
			continue
		}
		if cleaned := sanitizeHomeValue(v.Value); cleaned != "" {
			return cleaned
		}
	}
	return installDir
}

// sanitizeHomeValue strips shell references ($VAR, %VAR%), path-list tails
// (: or ;, skipping a Windows drive colon), and trailing slashes from an
// environment value, leaving a bare path.
func sanitizeHomeValue(value string) string {
	cleaned := strings.TrimSpace(value)

	for _, delimiter := range []byte{'$', '%'} {
		if idx := strings.IndexByte(cleaned, delimiter); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}

	for _, separator := range []byte{':', ';'} {
		if idx := findSeparatorIndex(cleaned, separator); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, "/\\")
	return strings.TrimSpace(cleaned)
}

// findSeparatorIndex locates a path-list separator, treating the colon in a
// Windows drive prefix ("C:\...") as part of the path.
func findSeparatorIndex(value string, separator byte) int {
	if separator != ':' {
		return strings.IndexByte(value, separator)
	}
	for i := 0; i < len(value); i++ {
		if value[i] == ':' && !isDriveColon(value, i) {
			return i
		}
	}
	return -1
}

func isDriveColon(value string, idx int) bool {
	if idx != 1 || len(value) < 3 {
		return false
	}
	first := value[0]
	isAlpha := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
	return isAlpha && (value[2] == '\\' || value[2] == '/')
}
