// Package config resolves the toolvm root directory, loads user settings,
// and provides the canonical on-disk layout every other package builds on.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	settingsFileName = "config.yaml"
	metadataDirName  = ".metadata"
)

// Settings holds the user-tunable options persisted in config.yaml.
type Settings struct {
	// DefaultDistribution names the JDK distribution used for Java installs.
	DefaultDistribution string `yaml:"default_distribution"`

	// VerifyChecksums controls sha256 verification of downloads.
	VerifyChecksums bool `yaml:"verify_checksums"`

	// CacheRemoteVersions enables the local cache of remote version listings.
	CacheRemoteVersions bool `yaml:"cache_remote_versions"`

	// CacheTTLHours bounds how long cached remote listings stay fresh.
	CacheTTLHours int `yaml:"cache_ttl_hours"`

	// ShowLTSIndicator toggles the LTS marker in version lists.
	ShowLTSIndicator bool `yaml:"show_lts_indicator"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		DefaultDistribution: "adoptium",
		VerifyChecksums:     true,
		CacheRemoteVersions: true,
		CacheTTLHours:       24,
		ShowLTSIndicator:    true,
	}
}

// Config captures the resolved directory layout plus loaded settings.
type Config struct {
	RootDir      string
	VersionsDir  string
	AliasDir     string
	CacheDir     string
	LogsDir      string
	SettingsFile string

	Settings Settings
}

// New builds a Config rooted at root without touching the filesystem.
// Tests use this with t.TempDir roots.
func New(root string) Config {
	return Config{
		RootDir:      root,
		VersionsDir:  filepath.Join(root, "versions"),
		AliasDir:     filepath.Join(root, "alias"),
		CacheDir:     filepath.Join(root, "cache"),
		LogsDir:      filepath.Join(root, "logs"),
		SettingsFile: filepath.Join(root, settingsFileName),
		Settings:     DefaultSettings(),
	}
}

// Load resolves the root directory, creates the layout, and merges the
// settings file when present (writing defaults otherwise).
func Load() (Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return Config{}, err
	}

	cfg := New(root)
	for _, dir := range []string{cfg.RootDir, cfg.VersionsDir, cfg.AliasDir, cfg.CacheDir, cfg.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Config{}, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	contents, err := os.ReadFile(cfg.SettingsFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg.Settings); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", cfg.SettingsFile, err)
		}
	case os.IsNotExist(err):
		if err := cfg.SaveSettings(); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("read settings: %w", err)
	}

	return cfg, nil
}

// SaveSettings writes the current settings back to config.yaml.
func (c Config) SaveSettings() error {
	buf, err := yaml.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(c.SettingsFile, buf, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// resolveRoot determines the toolvm root: TOOLVM_DIR when set, otherwise
// ~/.toolvm.
func resolveRoot() (string, error) {
	if override, ok := os.LookupEnv("TOOLVM_DIR"); ok && override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve TOOLVM_DIR: %w", err)
		}
		return abs, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return filepath.Join(home, ".toolvm"), nil
}

// ToolVersionsDir returns the directory holding every installed version of
// a tool: <root>/versions/<tool>.
func (c Config) ToolVersionsDir(toolID string) string {
	return filepath.Join(c.VersionsDir, toolID)
}

// ToolVersionDir returns the install directory for one version:
// <root>/versions/<tool>/<rawVersion>.
func (c Config) ToolVersionDir(toolID, rawVersion string) string {
	return filepath.Join(c.VersionsDir, toolID, rawVersion)
}

// ToolAliasDir returns the tool-scoped alias directory.
func (c Config) ToolAliasDir(toolID string) string {
	return filepath.Join(c.AliasDir, toolID)
}

// ToolAliasPath returns the symlink path for a named alias.
func (c Config) ToolAliasPath(toolID, alias string) string {
	return filepath.Join(c.AliasDir, toolID, alias)
}

// ToolCurrentSymlink returns the reserved "current" alias path.
func (c Config) ToolCurrentSymlink(toolID string) string {
	return c.ToolAliasPath(toolID, "current")
}

// ToolDefaultSymlink returns the reserved "default" alias path.
func (c Config) ToolDefaultSymlink(toolID string) string {
	return c.ToolAliasPath(toolID, "default")
}

// MetadataDir returns the side store for manifests of symlinked installs:
// <root>/versions/.metadata.
func (c Config) MetadataDir() string {
	return filepath.Join(c.VersionsDir, metadataDirName)
}

// LegacyVersionDir returns the flat pre-multi-tool install directory
// (<root>/versions/<rawVersion>), consulted for tool id "java" only.
func (c Config) LegacyVersionDir(rawVersion string) string {
	return filepath.Join(c.VersionsDir, rawVersion)
}

// LegacyAliasPath returns the flat pre-multi-tool alias path
// (<root>/alias/<name>), written alongside java's tool-scoped aliases.
func (c Config) LegacyAliasPath(alias string) string {
	return filepath.Join(c.AliasDir, alias)
}
