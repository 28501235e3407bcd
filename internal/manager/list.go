package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"toolvm/internal/plugin"
)

// ManagedInstallation is one row of the installed-versions catalogue.
// IsCurrent and IsDefault are computed from the alias symlink graph at
// listing time, never stored.
type ManagedInstallation struct {
	ToolID      string
	Version     plugin.ToolVersion
	Path        string
	IsCurrent   bool
	IsDefault   bool
	InstalledAt time.Time
	Manifest    *plugin.InstalledTool
}

// ListInstalled enumerates installed versions. With toolFilter set, only
// that tool is listed; otherwise every registered tool. Directory names
// that do not parse as versions are skipped. Results sort by tool id
// ascending, then version descending.
func (m *Manager) ListInstalled(toolFilter string) ([]ManagedInstallation, error) {
	var toolIDs []string
	if toolFilter != "" {
		toolIDs = []string{toolFilter}
	} else {
		toolIDs = m.registry.ListPlugins()
	}
	sort.Strings(toolIDs)

	var results []ManagedInstallation
	for _, toolID := range toolIDs {
		p, err := m.registry.Get(toolID)
		if err != nil {
			return nil, err
		}

		currentLinks := []string{m.cfg.ToolCurrentSymlink(toolID)}
		defaultLinks := []string{m.cfg.ToolDefaultSymlink(toolID)}
		if toolID == "java" {
			currentLinks = append(currentLinks, m.cfg.LegacyAliasPath("current"))
			defaultLinks = append(defaultLinks, m.cfg.LegacyAliasPath("default"))
		}

		seen := make(map[string]bool)

		versionsRoot := m.cfg.ToolVersionsDir(toolID)
		entries, err := os.ReadDir(versionsRoot)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("scan versions for %s: %w", toolID, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			version, err := p.ParseVersion(entry.Name())
			if err != nil {
				continue
			}
			if seen[version.Raw] {
				continue
			}
			seen[version.Raw] = true

			path := filepath.Join(versionsRoot, entry.Name())
			install, err := m.buildInstallation(toolID, version, path, currentLinks, defaultLinks)
			if err != nil {
				return nil, err
			}
			results = append(results, install)
		}

		if toolID == "java" {
			legacy, err := m.collectLegacyJava(p, seen, currentLinks, defaultLinks)
			if err != nil {
				return nil, err
			}
			results = append(results, legacy...)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ToolID != results[j].ToolID {
			return results[i].ToolID < results[j].ToolID
		}
		return results[i].Version.Compare(results[j].Version) > 0
	})
	return results, nil
}

func (m *Manager) buildInstallation(toolID string, version plugin.ToolVersion, path string, currentLinks, defaultLinks []string) (ManagedInstallation, error) {
	manifest, err := m.readManifest(path)
	if err != nil {
		return ManagedInstallation{}, err
	}

	installedAt := time.Now().UTC()
	if manifest != nil {
		installedAt = manifest.InstalledAt
	} else if info, statErr := os.Stat(path); statErr == nil {
		installedAt = info.ModTime().UTC()
	}

	isCurrent, err := linksPointTo(currentLinks, path)
	if err != nil {
		return ManagedInstallation{}, err
	}
	isDefault, err := linksPointTo(defaultLinks, path)
	if err != nil {
		return ManagedInstallation{}, err
	}

	return ManagedInstallation{
		ToolID:      toolID,
		Version:     version,
		Path:        path,
		IsCurrent:   isCurrent,
		IsDefault:   isDefault,
		InstalledAt: installedAt,
		Manifest:    manifest,
	}, nil
}

// collectLegacyJava picks up installations from the flat pre-multi-tool
// layout directly under the versions root. Tool-scoped subdirectories and
// the metadata store are skipped; versions already seen under the scoped
// layout are not duplicated.
func (m *Manager) collectLegacyJava(p plugin.ToolPlugin, seen map[string]bool, currentLinks, defaultLinks []string) ([]ManagedInstallation, error) {
	entries, err := os.ReadDir(m.cfg.VersionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan legacy versions: %w", err)
	}

	registered := make(map[string]bool)
	for _, id := range m.registry.ListPlugins() {
		registered[id] = true
	}

	var results []ManagedInstallation
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if registered[name] || name == filepath.Base(m.cfg.MetadataDir()) {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		version, err := p.ParseVersion(name)
		if err != nil {
			continue
		}

		path := filepath.Join(m.cfg.VersionsDir, name)
		install, err := m.buildInstallation("java", version, path, currentLinks, defaultLinks)
		if err != nil {
			return nil, err
		}
		results = append(results, install)
	}
	return results, nil
}
