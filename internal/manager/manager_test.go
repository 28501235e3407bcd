package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"toolvm/internal/config"
	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

// fakePlugin is an in-memory tool whose install just creates a directory
// with a bin stub. Version strings are dotted integers.
type fakePlugin struct {
	id         string
	homeSuffix string
	detections []plugin.DetectedInstallation
	detectErr  error
	remote     []plugin.ToolVersion
	invalid    bool
}

func (f *fakePlugin) Info() plugin.ToolInfo {
	return plugin.ToolInfo{ID: f.id, Name: strings.ToUpper(f.id)}
}

func (f *fakePlugin) ListRemoteVersions(ctx context.Context, ltsOnly bool) ([]plugin.ToolVersion, error) {
	return f.remote, nil
}

func (f *fakePlugin) FindDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	return plugin.ToolDistribution{
		ToolID:       f.id,
		Version:      version,
		Platform:     platform,
		Architecture: arch,
		DownloadURL:  "https://example.invalid/" + version.Raw,
		ArchiveType:  plugin.ArchiveTarGz,
	}, nil
}

func (f *fakePlugin) ParseVersion(versionStr string) (plugin.ToolVersion, error) {
	parts := strings.Split(versionStr, ".")
	nums := make([]int, 0, 3)
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: versionStr}
		}
		nums = append(nums, n)
	}
	v := plugin.ToolVersion{Raw: versionStr, Major: nums[0]}
	if len(nums) > 1 {
		v.Minor = plugin.Int(nums[1])
	}
	if len(nums) > 2 {
		v.Patch = plugin.Int(nums[2])
	}
	return v, nil
}

func (f *fakePlugin) ValidateInstallation(path string) (bool, error) {
	if f.invalid {
		return false, nil
	}
	_, err := os.Stat(path)
	return err == nil, nil
}

func (f *fakePlugin) ExecutablePaths(installPath string) ([]string, error) {
	return []string{filepath.Join(installPath, "bin", f.id)}, nil
}

func (f *fakePlugin) EnvironmentVars(installPath string) ([]plugin.EnvVar, error) {
	home := installPath
	if f.homeSuffix != "" {
		home = filepath.Join(installPath, f.homeSuffix)
	}
	return []plugin.EnvVar{
		{Name: strings.ToUpper(f.id) + "_HOME", Value: home},
		{Name: "PATH", Value: filepath.Join(home, "bin") + ":$PATH"},
	}, nil
}

func (f *fakePlugin) Install(ctx context.Context, dist plugin.ToolDistribution, destDir string) (*plugin.InstalledTool, error) {
	if _, err := os.Lstat(destDir); err == nil {
		return nil, &errdefs.VersionAlreadyInstalledError{Version: dist.Version.Raw, Path: destDir}
	}
	if err := os.MkdirAll(filepath.Join(destDir, "bin"), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(destDir, "bin", f.id), []byte("stub"), 0o755); err != nil {
		return nil, err
	}
	return &plugin.InstalledTool{
		ToolID:      f.id,
		Version:     dist.Version,
		Path:        destDir,
		InstalledAt: time.Now().UTC(),
		Source:      "fake",
	}, nil
}

func (f *fakePlugin) Uninstall(ctx context.Context, installed *plugin.InstalledTool) error {
	return os.RemoveAll(installed.Path)
}

func (f *fakePlugin) Verify(ctx context.Context, installed *plugin.InstalledTool) (bool, error) {
	_, err := os.Stat(installed.Path)
	return err == nil, nil
}

func (f *fakePlugin) DetectInstallations(ctx context.Context) ([]plugin.DetectedInstallation, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.detections, nil
}

func (f *fakePlugin) ImportInstallation(ctx context.Context, detected plugin.DetectedInstallation, destDir string) (*plugin.InstalledTool, error) {
	if err := os.Symlink(detected.Path, destDir); err != nil {
		return nil, err
	}
	return &plugin.InstalledTool{
		ToolID:      f.id,
		Version:     detected.Version,
		Path:        destDir,
		InstalledAt: time.Now().UTC(),
		Source:      detected.Source,
	}, nil
}

func (f *fakePlugin) SupportsPlatform(platform plugin.Platform, arch plugin.Architecture) bool {
	return true
}

func metadataFor(f *fakePlugin) plugin.PluginMetadata {
	return plugin.PluginMetadata{
		ID:            f.id,
		Version:       "1.0.0",
		Author:        "test",
		Platforms:     []plugin.Platform{plugin.PlatformMac, plugin.PlatformLinux, plugin.PlatformWindows},
		Architectures: []plugin.Architecture{plugin.ArchX64, plugin.ArchAarch64, plugin.ArchX86, plugin.ArchArm},
		Category:      plugin.CategoryRuntime,
		Builtin:       true,
	}
}

func newTestManager(t *testing.T, plugins ...*fakePlugin) (*Manager, config.Config) {
	t.Helper()
	cfg := config.New(t.TempDir())
	for _, dir := range []string{cfg.VersionsDir, cfg.AliasDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	registry := plugin.NewRegistry()
	for _, p := range plugins {
		if err := registry.Register(p, metadataFor(p)); err != nil {
			t.Fatalf("register %s: %v", p.id, err)
		}
	}
	return New(cfg, registry), cfg
}

func TestInstallThenActivateFindsSameDirectory(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, cfg := newTestManager(t, node)
	ctx := context.Background()

	installed, err := mgr.Install(ctx, "node", "20.10.0", false)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	wantDir := cfg.ToolVersionDir("node", "20.10.0")
	if installed.Path != wantDir {
		t.Fatalf("installed path = %s, want %s", installed.Path, wantDir)
	}

	activation, err := mgr.SetCurrent("node", "20.10.0")
	if err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if activation.InstallPath != wantDir {
		t.Fatalf("activation path = %s, want %s", activation.InstallPath, wantDir)
	}
	if activation.Version.Raw != "20.10.0" {
		t.Fatalf("activation version = %s, want 20.10.0", activation.Version.Raw)
	}
	if len(activation.Env) == 0 {
		t.Fatal("activation env is empty")
	}
}

func TestInstallTwiceWithoutForceFails(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, cfg := newTestManager(t, node)
	ctx := context.Background()

	if _, err := mgr.Install(ctx, "node", "20.10.0", false); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(cfg.ToolVersionDir("node", "20.10.0"), manifestFileName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	_, err = mgr.Install(ctx, "node", "20.10.0", false)
	var alreadyErr *errdefs.VersionAlreadyInstalledError
	if !errors.As(err, &alreadyErr) {
		t.Fatalf("error = %v, want *errdefs.VersionAlreadyInstalledError", err)
	}

	after, err := os.ReadFile(filepath.Join(cfg.ToolVersionDir("node", "20.10.0"), manifestFileName))
	if err != nil {
		t.Fatalf("read manifest after failed reinstall: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("failed reinstall modified the original manifest")
	}
}

func TestForceReinstallReplacesInstallation(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, cfg := newTestManager(t, node)
	ctx := context.Background()

	first, err := mgr.Install(ctx, "node", "20.10.0", false)
	if err != nil {
		t.Fatalf("first Install: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	second, err := mgr.Install(ctx, "node", "20.10.0", true)
	if err != nil {
		t.Fatalf("forced Install: %v", err)
	}
	if !second.InstalledAt.After(first.InstalledAt) {
		t.Fatalf("forced reinstall timestamp %v not after original %v", second.InstalledAt, first.InstalledAt)
	}

	installs, err := mgr.ListInstalled("node")
	if err != nil {
		t.Fatalf("ListInstalled: %v", err)
	}
	if len(installs) != 1 {
		t.Fatalf("got %d installations after forced reinstall, want 1", len(installs))
	}
	if installs[0].Path != cfg.ToolVersionDir("node", "20.10.0") {
		t.Fatalf("unexpected path %s", installs[0].Path)
	}
}

func TestUninstallPurgesManifestDirectoryAndAliases(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, cfg := newTestManager(t, node)
	ctx := context.Background()

	for _, v := range []string{"18.20.8", "20.10.0"} {
		if _, err := mgr.Install(ctx, "node", v, false); err != nil {
			t.Fatalf("Install %s: %v", v, err)
		}
	}
	if _, err := mgr.SetCurrent("node", "20.10.0"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if err := mgr.SetAlias("node", "work", "20.10.0"); err != nil {
		t.Fatalf("SetAlias work: %v", err)
	}
	if err := mgr.SetAlias("node", "legacy-project", "18.20.8"); err != nil {
		t.Fatalf("SetAlias legacy-project: %v", err)
	}

	if err := mgr.Uninstall(ctx, "node", "20.10.0"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	dir := cfg.ToolVersionDir("node", "20.10.0")
	if _, err := os.Lstat(dir); !os.IsNotExist(err) {
		t.Fatal("install directory still present after uninstall")
	}
	for _, link := range []string{
		cfg.ToolCurrentSymlink("node"),
		cfg.ToolAliasPath("node", "work"),
	} {
		if _, err := os.Lstat(link); !os.IsNotExist(err) {
			t.Fatalf("alias %s still present after uninstall", link)
		}
	}

	got, err := mgr.GetAlias("node", "legacy-project")
	if err != nil {
		t.Fatalf("GetAlias: %v", err)
	}
	if got != "18.20.8" {
		t.Fatalf("unrelated alias resolved to %q, want 18.20.8", got)
	}
}

func TestUninstallWithMissingManifestAndBadVersion(t *testing.T) {
	python := &fakePlugin{id: "python"}
	mgr, cfg := newTestManager(t, python)

	installDir := cfg.ToolVersionDir("python", "invalid-version")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := mgr.Uninstall(context.Background(), "python", "invalid-version")
	var structErr *errdefs.InvalidToolStructureError
	if !errors.As(err, &structErr) {
		t.Fatalf("error = %v, want *errdefs.InvalidToolStructureError", err)
	}
	if structErr.Tool != "python" {
		t.Fatalf("error tool = %q, want python", structErr.Tool)
	}
	for _, fragment := range []string{"manifest missing", "version parsing failed", "corrupted", installDir} {
		if !strings.Contains(structErr.Message, fragment) {
			t.Fatalf("error message %q missing %q", structErr.Message, fragment)
		}
	}
}

func TestImportWritesSideStoreManifest(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, cfg := newTestManager(t, node)
	ctx := context.Background()

	external := filepath.Join(t.TempDir(), "node-22.1.0")
	if err := os.MkdirAll(filepath.Join(external, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir external: %v", err)
	}

	detected := plugin.DetectedInstallation{
		ToolID:  "node",
		Version: plugin.ToolVersion{Raw: "22.1.0", Major: 22, Minor: plugin.Int(1), Patch: plugin.Int(0)},
		Path:    external,
		Source:  "system",
	}
	installed, err := mgr.ImportTool(ctx, "node", detected)
	if err != nil {
		t.Fatalf("ImportTool: %v", err)
	}

	// The install dir is a symlink, so the manifest must live in the side
	// store and the external tree must stay untouched.
	sidePath := filepath.Join(cfg.MetadataDir(), "node_22.1.0.json")
	if _, err := os.Stat(sidePath); err != nil {
		t.Fatalf("side-store manifest missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(external, manifestFileName)); !os.IsNotExist(err) {
		t.Fatal("manifest written inside externally-owned directory")
	}

	installs, err := mgr.ListInstalled("node")
	if err != nil {
		t.Fatalf("ListInstalled: %v", err)
	}
	if len(installs) != 1 || installs[0].Manifest == nil {
		t.Fatalf("imported installation not listed with manifest: %+v", installs)
	}
	if installs[0].Manifest.Source != "system" {
		t.Fatalf("manifest source = %q, want system", installs[0].Manifest.Source)
	}
	if target, err := os.Readlink(installed.Path); err != nil || target != external {
		t.Fatalf("import link target = %q (%v), want %q", target, err, external)
	}
}

func TestImportRefusesDuplicate(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, _ := newTestManager(t, node)
	ctx := context.Background()

	if _, err := mgr.Install(ctx, "node", "22.1.0", false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	detected := plugin.DetectedInstallation{
		ToolID:  "node",
		Version: plugin.ToolVersion{Raw: "22.1.0", Major: 22},
		Path:    t.TempDir(),
		Source:  "system",
	}
	_, err := mgr.ImportTool(ctx, "node", detected)
	var alreadyErr *errdefs.VersionAlreadyInstalledError
	if !errors.As(err, &alreadyErr) {
		t.Fatalf("error = %v, want *errdefs.VersionAlreadyInstalledError", err)
	}
}

func TestDetectAllSkipsFailingPlugin(t *testing.T) {
	external := t.TempDir()
	good := &fakePlugin{
		id: "node",
		detections: []plugin.DetectedInstallation{
			{ToolID: "node", Version: plugin.ToolVersion{Raw: "20.10.0", Major: 20}, Path: external, Source: "system"},
		},
	}
	bad := &fakePlugin{id: "python", detectErr: fmt.Errorf("scanner exploded")}
	mgr, _ := newTestManager(t, good, bad)

	results := mgr.DetectAll(context.Background())
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ToolID != "node" || results[0].Detected != 1 {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestDetectAndImportAllCountsAndSkipsManaged(t *testing.T) {
	externalA := filepath.Join(t.TempDir(), "a")
	externalB := filepath.Join(t.TempDir(), "b")
	for _, dir := range []string{externalA, externalB} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	node := &fakePlugin{
		id: "node",
		detections: []plugin.DetectedInstallation{
			{ToolID: "node", Version: plugin.ToolVersion{Raw: "20.10.0", Major: 20}, Path: externalA, Source: "system"},
			{ToolID: "node", Version: plugin.ToolVersion{Raw: "18.20.8", Major: 18}, Path: externalB, Source: "system"},
		},
	}
	mgr, _ := newTestManager(t, node)
	ctx := context.Background()

	// Pre-install one detected version so the sweep must skip it.
	if _, err := mgr.Install(ctx, "node", "20.10.0", false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	results := mgr.DetectAndImportAll(ctx)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Detected != 2 || results[0].Imported != 1 {
		t.Fatalf("result = %+v, want Detected=2 Imported=1", results[0])
	}
}

func TestGetCurrentScenario(t *testing.T) {
	node := &fakePlugin{id: "node"}
	mgr, _ := newTestManager(t, node)
	ctx := context.Background()

	for _, v := range []string{"18.20.8", "20.10.0"} {
		if _, err := mgr.Install(ctx, "node", v, false); err != nil {
			t.Fatalf("Install %s: %v", v, err)
		}
	}
	if _, err := mgr.SetCurrent("node", "20.10.0"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	current, err := mgr.GetCurrent("node")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current != "20.10.0" {
		t.Fatalf("GetCurrent = %q, want 20.10.0", current)
	}

	if err := mgr.Uninstall(ctx, "node", "20.10.0"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	current, err = mgr.GetCurrent("node")
	if err != nil {
		t.Fatalf("GetCurrent after uninstall: %v", err)
	}
	if current != "" {
		t.Fatalf("GetCurrent after uninstall = %q, want empty", current)
	}
}
