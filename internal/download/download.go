// Package download fetches distribution artifacts over HTTP with sha256
// verification. Downloads land in a temp file and are renamed into place
// only after the checksum passes, so interrupted transfers never leave a
// plausible-looking artifact behind.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"toolvm/internal/errdefs"
)

const userAgent = "toolvm/1.0"

// Progress receives byte counts during a download. total is 0 when the
// server did not report a content length.
type Progress func(downloaded, total int64)

// Downloader fetches artifacts. The zero value is not usable; call New.
type Downloader struct {
	client *http.Client
}

// New creates a Downloader with the default HTTP client.
func New() *Downloader {
	return &Downloader{client: http.DefaultClient}
}

// Fetch downloads url into dest, verifying the sha256 checksum when one is
// given. progress may be nil.
func (d *Downloader) Fetch(ctx context.Context, downloadURL, dest, checksum string, progress Progress) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &errdefs.DownloadFailedError{URL: downloadURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errdefs.DownloadFailedError{
			URL: downloadURL,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	writer := io.Writer(tmpFile)
	if progress != nil {
		writer = io.MultiWriter(tmpFile, &progressWriter{total: resp.ContentLength, report: progress})
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		tmpFile.Close()
		return &errdefs.DownloadFailedError{URL: downloadURL, Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if checksum != "" {
		match, err := VerifyChecksum(tmpPath, checksum)
		if err != nil {
			return err
		}
		if !match {
			return &errdefs.ChecksumMismatchError{File: downloadURL}
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}

type progressWriter struct {
	total      int64
	downloaded int64
	report     Progress
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.downloaded += int64(len(p))
	total := w.total
	if total < 0 {
		total = 0
	}
	w.report(w.downloaded, total)
	return len(p), nil
}

// Checksum computes the hex-encoded sha256 digest of the file at path.
func Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum reports whether the file at path hashes to expected.
// Comparison is case-insensitive.
func VerifyChecksum(path, expected string) (bool, error) {
	sum, err := Checksum(path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(sum, expected), nil
}

// ArchiveName infers the local filename for a download URL.
func ArchiveName(downloadURL string) (string, error) {
	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "" || base == "/" {
		return "", fmt.Errorf("infer archive name from url: %s", downloadURL)
	}
	return base, nil
}
