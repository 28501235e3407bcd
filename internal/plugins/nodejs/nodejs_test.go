package nodejs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

func TestParseVersionStandard(t *testing.T) {
	p := New(t.TempDir())

	v, err := p.ParseVersion("20.10.0")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.Major != 20 || *v.Minor != 10 || *v.Patch != 0 {
		t.Fatalf("parsed %+v, want 20.10.0", v)
	}
	if !v.IsLTS {
		t.Fatal("20.x should be LTS")
	}
	if v.Metadata != "lts:Iron" {
		t.Fatalf("metadata = %q, want lts:Iron", v.Metadata)
	}
}

func TestParseVersionVPrefix(t *testing.T) {
	p := New(t.TempDir())

	v, err := p.ParseVersion("v18.17.1")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.Raw != "18.17.1" {
		t.Fatalf("raw = %q, want v prefix stripped", v.Raw)
	}
	if !v.IsLTS || v.Metadata != "lts:Hydrogen" {
		t.Fatalf("parsed %+v, want Hydrogen LTS", v)
	}
}

func TestParseVersionMajorOnly(t *testing.T) {
	p := New(t.TempDir())

	v, err := p.ParseVersion("20")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.Minor != nil || v.Patch != nil {
		t.Fatalf("parsed %+v, want nil minor/patch", v)
	}
	if !v.IsLTS {
		t.Fatal("20 should be LTS")
	}
}

func TestParseVersionNonLTS(t *testing.T) {
	p := New(t.TempDir())

	v, err := p.ParseVersion("19.0.0")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.IsLTS || v.Metadata != "" {
		t.Fatalf("19.x should not be LTS, got %+v", v)
	}
}

func TestParseVersionRejectsAliases(t *testing.T) {
	p := New(t.TempDir())

	for _, alias := range []string{"lts", "lts/*", "latest", "current", "not-a-version"} {
		_, err := p.ParseVersion(alias)
		var invalidErr *errdefs.InvalidVersionError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("ParseVersion(%q) = %v, want *errdefs.InvalidVersionError", alias, err)
		}
	}
}

func TestParseVersionRoundTrip(t *testing.T) {
	p := New(t.TempDir())

	for _, raw := range []string{"20.10.0", "18.17.1", "22", "19.0.0"} {
		first, err := p.ParseVersion(raw)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", raw, err)
		}
		second, err := p.ParseVersion(first.Raw)
		if err != nil {
			t.Fatalf("ParseVersion(round trip %q): %v", first.Raw, err)
		}
		if !first.Equal(second) || first.Major != second.Major {
			t.Fatalf("round trip mismatch: %+v vs %+v", first, second)
		}
	}
}

func TestSupportsPlatform(t *testing.T) {
	p := New(t.TempDir())

	supported := [][2]any{
		{plugin.PlatformMac, plugin.ArchX64},
		{plugin.PlatformMac, plugin.ArchAarch64},
		{plugin.PlatformLinux, plugin.ArchX64},
		{plugin.PlatformLinux, plugin.ArchAarch64},
		{plugin.PlatformWindows, plugin.ArchX64},
	}
	for _, pair := range supported {
		if !p.SupportsPlatform(pair[0].(plugin.Platform), pair[1].(plugin.Architecture)) {
			t.Fatalf("%v/%v should be supported", pair[0], pair[1])
		}
	}
	if p.SupportsPlatform(plugin.PlatformWindows, plugin.ArchAarch64) {
		t.Fatal("windows/aarch64 should not be supported")
	}
	if p.SupportsPlatform(plugin.PlatformLinux, plugin.ArchX86) {
		t.Fatal("linux/x86 should not be supported")
	}
}

func TestValidateInstallation(t *testing.T) {
	p := New(t.TempDir())

	dir := t.TempDir()
	valid, err := p.ValidateInstallation(dir)
	if err != nil {
		t.Fatalf("ValidateInstallation: %v", err)
	}
	if valid {
		t.Fatal("empty directory should not validate")
	}

	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bin", "node"), []byte("x"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	valid, err = p.ValidateInstallation(dir)
	if err != nil {
		t.Fatalf("ValidateInstallation: %v", err)
	}
	if !valid {
		t.Fatal("directory with bin/node should validate")
	}
}

func TestListVersionsDedupesByMajor(t *testing.T) {
	index := []release{
		{Version: "v20.9.0", LTS: json.RawMessage(`"Iron"`)},
		{Version: "v18.20.8", LTS: json.RawMessage(`"Hydrogen"`)},
		{Version: "v20.10.0", LTS: json.RawMessage(`"Iron"`)},
		{Version: "v19.9.0", LTS: json.RawMessage(`false`)},
		{Version: "vnot-a-version", LTS: json.RawMessage(`false`)},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.json" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(index)
	}))
	defer server.Close()

	api := newDistAPI()
	api.baseURL = server.URL

	versions, err := api.listVersions(context.Background())
	if err != nil {
		t.Fatalf("listVersions: %v", err)
	}

	want := []string{"20.10.0", "19.9.0", "18.20.8"}
	if len(versions) != len(want) {
		t.Fatalf("got %d versions, want one per major: %+v", len(versions), versions)
	}
	for i, raw := range want {
		if versions[i].Raw != raw {
			t.Fatalf("versions[%d].Raw = %s, want %s", i, versions[i].Raw, raw)
		}
	}
	if !versions[0].IsLTS || versions[0].Metadata != "lts:Iron" {
		t.Fatalf("20.10.0 parsed as %+v, want LTS Iron", versions[0])
	}
	if versions[1].IsLTS {
		t.Fatal("19.9.0 should not be LTS")
	}
}

func TestFindDistribution(t *testing.T) {
	checksums := "abc123  node-v20.10.0-linux-x64.tar.gz\ndef456  node-v20.10.0-darwin-arm64.tar.gz\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v20.10.0/SHASUMS256.txt" {
			fmt.Fprint(w, checksums)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	api := newDistAPI()
	api.baseURL = server.URL

	version := plugin.ToolVersion{Raw: "20.10.0", Major: 20, Minor: plugin.Int(10), Patch: plugin.Int(0), IsLTS: true, Metadata: "lts:Iron"}
	dist, err := api.findDistribution(context.Background(), version, plugin.PlatformLinux, plugin.ArchX64)
	if err != nil {
		t.Fatalf("findDistribution: %v", err)
	}
	wantURL := server.URL + "/v20.10.0/node-v20.10.0-linux-x64.tar.gz"
	if dist.DownloadURL != wantURL {
		t.Fatalf("url = %s, want %s", dist.DownloadURL, wantURL)
	}
	if dist.Checksum != "abc123" {
		t.Fatalf("checksum = %q, want abc123", dist.Checksum)
	}
	if dist.ArchiveType != plugin.ArchiveTarGz {
		t.Fatalf("archive type = %s, want tar.gz", dist.ArchiveType)
	}
	if dist.Metadata["lts_name"] != "Iron" {
		t.Fatalf("metadata = %v, want lts_name Iron", dist.Metadata)
	}

	_, err = api.findDistribution(context.Background(), version, plugin.PlatformWindows, plugin.ArchArm)
	var unsupportedErr *errdefs.UnsupportedPlatformError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("error = %v, want *errdefs.UnsupportedPlatformError", err)
	}
}

func TestReadVersionFile(t *testing.T) {
	dir := t.TempDir()
	if got := ReadVersionFile(dir); got != "" {
		t.Fatalf("ReadVersionFile on empty dir = %q, want empty", got)
	}

	if err := os.WriteFile(filepath.Join(dir, ".node-version"), []byte("v18.17.1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := ReadVersionFile(dir); got != "v18.17.1" {
		t.Fatalf("ReadVersionFile = %q, want v18.17.1", got)
	}

	// .nvmrc wins when both exist.
	if err := os.WriteFile(filepath.Join(dir, ".nvmrc"), []byte("20.10.0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := ReadVersionFile(dir); got != "20.10.0" {
		t.Fatalf("ReadVersionFile = %q, want 20.10.0", got)
	}
}

func TestImportInstallationSymlinks(t *testing.T) {
	p := New(t.TempDir())
	source := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "20.10.0")

	detected := plugin.DetectedInstallation{
		ToolID:  "node",
		Version: plugin.ToolVersion{Raw: "20.10.0", Major: 20},
		Path:    source,
		Source:  "system",
	}
	installed, err := p.ImportInstallation(context.Background(), detected, destDir)
	if err != nil {
		t.Fatalf("ImportInstallation: %v", err)
	}
	target, err := os.Readlink(installed.Path)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != source {
		t.Fatalf("link -> %s, want %s", target, source)
	}

	_, err = p.ImportInstallation(context.Background(), detected, destDir)
	var alreadyErr *errdefs.VersionAlreadyInstalledError
	if !errors.As(err, &alreadyErr) {
		t.Fatalf("error = %v, want *errdefs.VersionAlreadyInstalledError", err)
	}
}

func TestMetadataMatchesInfo(t *testing.T) {
	p := New(t.TempDir())
	if Metadata().ID != p.Info().ID {
		t.Fatalf("metadata id %q != info id %q", Metadata().ID, p.Info().ID)
	}
}
