package python

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

const standaloneReleasesURL = "https://api.github.com/repos/indygreg/python-build-standalone/releases"

type githubRelease struct {
	TagName    string        `json:"tag_name"`
	Assets     []githubAsset `json:"assets"`
	Prerelease bool          `json:"prerelease"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// standaloneAPI queries python-build-standalone GitHub releases for
// relocatable CPython builds.
type standaloneAPI struct {
	client  *http.Client
	baseURL string
}

func newStandaloneAPI() *standaloneAPI {
	return &standaloneAPI{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: standaloneReleasesURL,
	}
}

// listVersions extracts the CPython versions available as install_only
// builds across recent releases, newest first.
func (a *standaloneAPI) listVersions(ctx context.Context) ([]plugin.ToolVersion, error) {
	var releases []githubRelease
	if err := a.getJSON(ctx, a.baseURL, &releases); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var versions []plugin.ToolVersion
	for _, release := range releases {
		if release.Prerelease {
			continue
		}
		for _, asset := range release.Assets {
			version, ok := versionFromAssetName(asset.Name)
			if !ok || seen[version.Raw] {
				continue
			}
			seen[version.Raw] = true
			versions = append(versions, version)
		}
	}
	if len(versions) == 0 {
		return nil, &errdefs.PluginError{Plugin: "python", Message: "no CPython builds found in release assets"}
	}

	sort.SliceStable(versions, func(i, j int) bool { return versions[i].Compare(versions[j]) > 0 })
	return versions, nil
}

// versionFromAssetName extracts the CPython version from asset names like
// "cpython-3.12.8+20241219-x86_64-unknown-linux-gnu-install_only.tar.gz".
func versionFromAssetName(name string) (plugin.ToolVersion, bool) {
	if !strings.HasPrefix(name, "cpython-") || !strings.Contains(name, "install_only") {
		return plugin.ToolVersion{}, false
	}
	rest := strings.TrimPrefix(name, "cpython-")
	raw, _, found := strings.Cut(rest, "+")
	if !found {
		return plugin.ToolVersion{}, false
	}
	version, err := parseVersion(raw)
	if err != nil {
		return plugin.ToolVersion{}, false
	}
	return version, true
}

// findDistribution locates the install_only build of a version for the
// requested target triple.
func (a *standaloneAPI) findDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	triple, err := targetTriple(platform, arch)
	if err != nil {
		return plugin.ToolDistribution{}, err
	}

	var releases []githubRelease
	if err := a.getJSON(ctx, a.baseURL, &releases); err != nil {
		return plugin.ToolDistribution{}, err
	}

	prefix := "cpython-" + version.Raw + "+"
	for _, release := range releases {
		for _, asset := range release.Assets {
			if !strings.HasPrefix(asset.Name, prefix) ||
				!strings.Contains(asset.Name, triple) ||
				!strings.Contains(asset.Name, "install_only") {
				continue
			}

			checksum, err := a.checksumFor(ctx, asset.BrowserDownloadURL)
			if err != nil {
				return plugin.ToolDistribution{}, err
			}

			return plugin.ToolDistribution{
				ToolID:       "python",
				Version:      version,
				Platform:     platform,
				Architecture: arch,
				DownloadURL:  asset.BrowserDownloadURL,
				Checksum:     checksum,
				Size:         asset.Size,
				ArchiveType:  plugin.ArchiveTarGz,
				Metadata: map[string]string{
					"source":      "python-build-standalone",
					"release_tag": release.TagName,
				},
			}, nil
		}
	}

	return plugin.ToolDistribution{}, &errdefs.PluginError{
		Plugin:  "python",
		Message: fmt.Sprintf("no standalone build for %s on %s/%s", version.Raw, platform, arch),
	}
}

// targetTriple maps a platform/arch pair to the build target triple used in
// asset names.
func targetTriple(platform plugin.Platform, arch plugin.Architecture) (string, error) {
	switch {
	case platform == plugin.PlatformMac && arch == plugin.ArchX64:
		return "x86_64-apple-darwin", nil
	case platform == plugin.PlatformMac && arch == plugin.ArchAarch64:
		return "aarch64-apple-darwin", nil
	case platform == plugin.PlatformLinux && arch == plugin.ArchX64:
		return "x86_64-unknown-linux-gnu", nil
	case platform == plugin.PlatformLinux && arch == plugin.ArchAarch64:
		return "aarch64-unknown-linux-gnu", nil
	case platform == plugin.PlatformWindows && arch == plugin.ArchX64:
		return "x86_64-pc-windows-msvc", nil
	case platform == plugin.PlatformWindows && arch == plugin.ArchX86:
		return "i686-pc-windows-msvc", nil
	default:
		return "", &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: string(arch)}
	}
}

// checksumFor fetches the sidecar .sha256 file for a build. A missing
// checksum file is not an error; the download proceeds unverified.
func (a *standaloneAPI) checksumFor(ctx context.Context, downloadURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL+".sha256", nil)
	if err != nil {
		return "", fmt.Errorf("build checksum request: %w", err)
	}
	req.Header.Set("User-Agent", "toolvm/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	scanner := bufio.NewScanner(resp.Body)
	if scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			return fields[0], nil
		}
	}
	return "", nil
}

func (a *standaloneAPI) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "toolvm/1.0")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return &errdefs.DownloadFailedError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &errdefs.DownloadFailedError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
