package java

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

const adoptiumBase = "https://api.adoptium.net/v3"

type availableReleases struct {
	AvailableReleases    []int `json:"available_releases"`
	AvailableLTSReleases []int `json:"available_lts_releases"`
}

type asset struct {
	Binary binary `json:"binary"`
}

type binary struct {
	OS           string  `json:"os"`
	Architecture string  `json:"architecture"`
	ImageType    string  `json:"image_type"`
	Package      pkgInfo `json:"package"`
}

type pkgInfo struct {
	Link     string `json:"link"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

type adoptiumAPI struct {
	client  *http.Client
	baseURL string
}

func newAdoptiumAPI() *adoptiumAPI {
	return &adoptiumAPI{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: adoptiumBase,
	}
}

// listReleases returns the major versions Adoptium publishes, optionally
// restricted to LTS releases.
func (a *adoptiumAPI) listReleases(ctx context.Context, ltsOnly bool) ([]int, error) {
	var releases availableReleases
	url := a.baseURL + "/info/available_releases"
	if err := a.getJSON(ctx, url, &releases); err != nil {
		return nil, err
	}
	if ltsOnly {
		return releases.AvailableLTSReleases, nil
	}
	return releases.AvailableReleases, nil
}

// findDistribution locates the latest hotspot JDK asset for a major version
// on the given platform.
func (a *adoptiumAPI) findDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	url := fmt.Sprintf("%s/assets/latest/%d/hotspot", a.baseURL, version.Major)
	var assets []asset
	if err := a.getJSON(ctx, url, &assets); err != nil {
		return plugin.ToolDistribution{}, err
	}

	osName := adoptiumOS(platform)
	archName := adoptiumArch(arch)

	for _, candidate := range assets {
		b := candidate.Binary
		if b.OS != osName || b.Architecture != archName || b.ImageType != "jdk" {
			continue
		}

		archiveType := plugin.ArchiveTarGz
		if strings.HasSuffix(b.Package.Link, ".zip") {
			archiveType = plugin.ArchiveZip
		}

		return plugin.ToolDistribution{
			ToolID:       "java",
			Version:      version,
			Platform:     platform,
			Architecture: arch,
			DownloadURL:  b.Package.Link,
			Checksum:     b.Package.Checksum,
			Size:         b.Package.Size,
			ArchiveType:  archiveType,
		}, nil
	}

	return plugin.ToolDistribution{}, &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: string(arch)}
}

func adoptiumOS(platform plugin.Platform) string {
	switch platform {
	case plugin.PlatformMac:
		return "mac"
	case plugin.PlatformLinux:
		return "linux"
	default:
		return "windows"
	}
}

func adoptiumArch(arch plugin.Architecture) string {
	if arch == plugin.ArchAarch64 {
		return "aarch64"
	}
	return "x64"
}

func (a *adoptiumAPI) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "toolvm/1.0")

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
