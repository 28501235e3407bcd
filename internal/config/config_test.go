package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "toolvm-root")
	t.Setenv("TOOLVM_DIR", root)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, dir := range []string{cfg.VersionsDir, cfg.AliasDir, cfg.CacheDir, cfg.LogsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected directory at %s", dir)
		}
	}

	if _, err := os.Stat(cfg.SettingsFile); err != nil {
		t.Fatalf("expected default settings file: %v", err)
	}
	if !cfg.Settings.VerifyChecksums {
		t.Fatal("expected verify_checksums default true")
	}
}

func TestLoadMergesSettingsFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("TOOLVM_DIR", root)

	contents := "default_distribution: temurin\nverify_checksums: false\ncache_remote_versions: true\ncache_ttl_hours: 6\nshow_lts_indicator: true\n"
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.DefaultDistribution != "temurin" {
		t.Fatalf("expected temurin, got %q", cfg.Settings.DefaultDistribution)
	}
	if cfg.Settings.VerifyChecksums {
		t.Fatal("expected verify_checksums false")
	}
	if cfg.Settings.CacheTTLHours != 6 {
		t.Fatalf("expected ttl 6, got %d", cfg.Settings.CacheTTLHours)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := New("/opt/toolvm")

	cases := []struct {
		got  string
		want string
	}{
		{cfg.ToolVersionsDir("node"), "/opt/toolvm/versions/node"},
		{cfg.ToolVersionDir("node", "20.10.0"), "/opt/toolvm/versions/node/20.10.0"},
		{cfg.ToolAliasPath("node", "stable"), "/opt/toolvm/alias/node/stable"},
		{cfg.ToolCurrentSymlink("node"), "/opt/toolvm/alias/node/current"},
		{cfg.ToolDefaultSymlink("node"), "/opt/toolvm/alias/node/default"},
		{cfg.MetadataDir(), "/opt/toolvm/versions/.metadata"},
		{cfg.LegacyVersionDir("21.0.7"), "/opt/toolvm/versions/21.0.7"},
		{cfg.LegacyAliasPath("current"), "/opt/toolvm/alias/current"},
	}
	for _, tc := range cases {
		if filepath.ToSlash(tc.got) != tc.want {
			t.Fatalf("got %s, want %s", tc.got, tc.want)
		}
	}
}
