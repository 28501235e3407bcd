package nodejs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"toolvm/internal/errdefs"
	"toolvm/internal/plugin"
)

const distBase = "https://nodejs.org/dist"

// release is one entry of nodejs.org's dist index. The lts field is false
// for non-LTS releases and the codename string for LTS ones.
type release struct {
	Version string          `json:"version"`
	LTS     json.RawMessage `json:"lts"`
	Files   []string        `json:"files"`
}

type distAPI struct {
	client  *http.Client
	baseURL string
}

func newDistAPI() *distAPI {
	return &distAPI{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: distBase,
	}
}

// listVersions fetches the dist index and reduces it to one entry per major
// version, newest first.
func (a *distAPI) listVersions(ctx context.Context) ([]plugin.ToolVersion, error) {
	var releases []release
	if err := a.getJSON(ctx, a.baseURL+"/index.json", &releases); err != nil {
		return nil, err
	}

	versions := make([]plugin.ToolVersion, 0, len(releases))
	for _, r := range releases {
		v, err := parseRelease(r)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
	deduped := versions[:0]
	lastMajor := -1
	for _, v := range versions {
		if v.Major == lastMajor {
			continue
		}
		lastMajor = v.Major
		deduped = append(deduped, v)
	}
	return deduped, nil
}

func parseRelease(r release) (plugin.ToolVersion, error) {
	cleaned := strings.TrimPrefix(r.Version, "v")
	parts := strings.Split(cleaned, ".")

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return plugin.ToolVersion{}, &errdefs.InvalidVersionError{Input: r.Version}
	}
	v := plugin.ToolVersion{Raw: cleaned, Major: major}
	if len(parts) > 1 {
		if minor, err := strconv.Atoi(parts[1]); err == nil {
			v.Minor = plugin.Int(minor)
		}
	}
	if len(parts) > 2 {
		if patch, err := strconv.Atoi(parts[2]); err == nil {
			v.Patch = plugin.Int(patch)
		}
	}

	// The index marks LTS releases with their codename; older indexes may
	// omit it, so the static table backs it up.
	var codename string
	if err := json.Unmarshal(r.LTS, &codename); err == nil && codename != "" {
		v.IsLTS = true
		v.Metadata = "lts:" + codename
	} else if name, ok := ltsCodenames[major]; ok {
		v.IsLTS = true
		v.Metadata = "lts:" + name
	}
	return v, nil
}

// findDistribution builds the download URL for a version and looks up its
// sha256 from the per-release SHASUMS256.txt.
func (a *distAPI) findDistribution(ctx context.Context, version plugin.ToolVersion, platform plugin.Platform, arch plugin.Architecture) (plugin.ToolDistribution, error) {
	var osName string
	switch platform {
	case plugin.PlatformMac:
		osName = "darwin"
	case plugin.PlatformLinux:
		osName = "linux"
	case plugin.PlatformWindows:
		osName = "win"
	default:
		return plugin.ToolDistribution{}, &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: string(arch)}
	}

	var archName string
	switch arch {
	case plugin.ArchX64:
		archName = "x64"
	case plugin.ArchAarch64:
		archName = "arm64"
	default:
		return plugin.ToolDistribution{}, &errdefs.UnsupportedPlatformError{OS: string(platform), Arch: string(arch)}
	}

	extension := "tar.gz"
	archiveType := plugin.ArchiveTarGz
	if platform == plugin.PlatformWindows {
		extension = "zip"
		archiveType = plugin.ArchiveZip
	}

	filename := fmt.Sprintf("node-v%s-%s-%s.%s", version.Raw, osName, archName, extension)
	url := fmt.Sprintf("%s/v%s/%s", a.baseURL, version.Raw, filename)

	checksum, err := a.checksumFor(ctx, version, filename)
	if err != nil {
		return plugin.ToolDistribution{}, err
	}

	metadata := map[string]string{"npm_included": "true"}
	if version.IsLTS {
		metadata["lts"] = "true"
		if name, ok := strings.CutPrefix(version.Metadata, "lts:"); ok {
			metadata["lts_name"] = name
		}
	}

	return plugin.ToolDistribution{
		ToolID:       "node",
		Version:      version,
		Platform:     platform,
		Architecture: arch,
		DownloadURL:  url,
		Checksum:     checksum,
		ArchiveType:  archiveType,
		Metadata:     metadata,
	}, nil
}

// checksumFor parses the release's SHASUMS256.txt. Missing checksum files
// (very old releases) yield an empty checksum, not an error.
func (a *distAPI) checksumFor(ctx context.Context, version plugin.ToolVersion, filename string) (string, error) {
	url := fmt.Sprintf("%s/v%s/SHASUMS256.txt", a.baseURL, version.Raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build checksum request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", &errdefs.DownloadFailedError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == filename {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read checksum list: %w", err)
	}
	return "", nil
}

func (a *distAPI) getJSON(ctx context.Context, url string, out any) error {
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
