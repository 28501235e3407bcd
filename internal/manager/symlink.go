package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// replaceSymlink points link at target, removing whatever occupied the link
// path first. The remove-then-create pair is not atomic; a crash in between
// leaves a missing alias, which later resolution treats as "no alias".
func replaceSymlink(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("create alias directory: %w", err)
	}
	if err := removeLink(link); err != nil {
		return err
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("create symlink %s: %w", link, err)
	}
	return nil
}

// removeLink deletes whatever sits at the path: symlink, file, or directory
// tree. A missing path is not an error.
func removeLink(link string) error {
	info, err := os.Lstat(link)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("inspect %s: %w", link, err)
	}
	if info.IsDir() {
		if err := os.RemoveAll(link); err != nil {
			return fmt.Errorf("remove %s: %w", link, err)
		}
		return nil
	}
	if err := os.Remove(link); err != nil {
		return fmt.Errorf("remove %s: %w", link, err)
	}
	return nil
}

// symlinkTarget reads where link points. A plain directory resolves to
// itself, a missing path or regular file to "".
func symlinkTarget(link string) (string, error) {
	info, err := os.Lstat(link)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("inspect %s: %w", link, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(link)
		if err != nil {
			return "", fmt.Errorf("read symlink %s: %w", link, err)
		}
		return target, nil
	}
	if info.IsDir() {
		return link, nil
	}
	return "", nil
}

// linkPointsTo reports whether link resolves to installDir or somewhere
// inside it. Alias targets are home paths, which for some tools nest below
// the install directory, so prefix containment counts as a match.
func linkPointsTo(link, installDir string) (bool, error) {
	target, err := symlinkTarget(link)
	if err != nil {
		return false, err
	}
	if target == "" {
		return false, nil
	}
	return targetMatches(target, installDir), nil
}

func targetMatches(target, installDir string) bool {
	if target == installDir {
		return true
	}
	return strings.HasPrefix(target, installDir+string(os.PathSeparator))
}

func linksPointTo(links []string, installDir string) (bool, error) {
	for _, link := range links {
		ok, err := linkPointsTo(link, installDir)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// cleanupAliases removes every alias, reserved or named, new or legacy,
// that targets installDir. Aliases targeting other directories are left
// alone.
func (m *Manager) cleanupAliases(toolID, installDir string) error {
	var links []string

	aliasDir := m.cfg.ToolAliasDir(toolID)
	entries, err := os.ReadDir(aliasDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scan aliases for %s: %w", toolID, err)
	}
	for _, entry := range entries {
		links = append(links, filepath.Join(aliasDir, entry.Name()))
	}

	if toolID == "java" {
		links = append(links,
			m.cfg.LegacyAliasPath("current"),
			m.cfg.LegacyAliasPath("default"))
	}

	for _, link := range links {
		ok, err := linkPointsTo(link, installDir)
		if err != nil {
			return err
		}
		if ok {
			if err := removeLink(link); err != nil {
				return err
			}
		}
	}
	return nil
}
