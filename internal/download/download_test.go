package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"toolvm/internal/errdefs"
)

// SHA256 of "hello world".
const helloChecksum = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestFetchVerifiesChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	if err := New().Fetch(context.Background(), srv.URL+"/artifact.bin", dest, helloChecksum, nil); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	contents, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(contents) != "hello world" {
		t.Fatalf("unexpected contents %q", contents)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	err := New().Fetch(context.Background(), srv.URL, dest, helloChecksum, nil)

	var mismatch *errdefs.ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ChecksumMismatchError, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("expected no artifact left behind after mismatch")
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	err := New().Fetch(context.Background(), srv.URL, dest, "", nil)

	var dl *errdefs.DownloadFailedError
	if !errors.As(err, &dl) {
		t.Fatalf("expected DownloadFailedError, got %v", err)
	}
}

func TestFetchReportsProgress(t *testing.T) {
	payload := make([]byte, 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var last, total int64
	dest := filepath.Join(t.TempDir(), "artifact.bin")
	err := New().Fetch(context.Background(), srv.URL, dest, "", func(done, tot int64) {
		last, total = done, tot
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if last != int64(len(payload)) {
		t.Fatalf("expected final progress %d, got %d", len(payload), last)
	}
	if total != int64(len(payload)) {
		t.Fatalf("expected total %d, got %d", len(payload), total)
	}
}

func TestVerifyChecksumCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	match, err := VerifyChecksum(path, "B94D27B9934D3E08A52E52D7DA7DABFAC484EFE37A5380EE9088F7ACE2EFCDE9")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !match {
		t.Fatal("expected case-insensitive match")
	}
}

func TestArchiveName(t *testing.T) {
	name, err := ArchiveName("https://nodejs.org/dist/v20.10.0/node-v20.10.0-linux-x64.tar.gz")
	if err != nil {
		t.Fatalf("archive name: %v", err)
	}
	if name != "node-v20.10.0-linux-x64.tar.gz" {
		t.Fatalf("unexpected name %q", name)
	}

	if _, err := ArchiveName("https://example.com/"); err == nil {
		t.Fatal("expected error for empty basename")
	}
}
