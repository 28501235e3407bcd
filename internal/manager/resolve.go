package manager

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

// resolveInstallDir maps (tool, version string) to a concrete install
// directory. Order: exact directory name, then fuzzy prefix match against
// installed versions, then the legacy flat layout for "java".
func (m *Manager) resolveInstallDir(toolID, versionStr string) (string, error) {
	primary := m.cfg.ToolVersionDir(toolID, versionStr)
	if pathExists(primary) {
		return primary, nil
	}

	if matched, err := m.findMatchingVersion(toolID, versionStr); err == nil && matched != "" {
		matchedPath := m.cfg.ToolVersionDir(toolID, matched)
		if pathExists(matchedPath) {
			return matchedPath, nil
		}
	}

	if toolID == "java" {
		legacy := m.cfg.LegacyVersionDir(versionStr)
		if pathExists(legacy) {
			return legacy, nil
		}
	}

	return "", &errdefs.VersionNotFoundError{Ref: fmt.Sprintf("%s@%s", toolID, versionStr)}
}

// findMatchingVersion returns the highest installed version whose directory
// name starts with prefix and parses under the tool's plugin. This is what
// lets "3.10" resolve to an installed "3.10.18" with no separate index.
// Empty string means no match.
func (m *Manager) findMatchingVersion(toolID, prefix string) (string, error) {
	p, err := m.registry.Get(toolID)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(m.cfg.ToolVersionsDir(toolID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("scan versions for %s: %w", toolID, err)
	}

	type candidate struct {
		name    string
		version plugin.ToolVersion
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		version, err := p.ParseVersion(name)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, version: version})
	}

	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].version.Compare(candidates[j].version) > 0
	})
	return candidates[0].name, nil
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
