package tui

import (
	"bytes"
	"testing"
	"time"
)

func TestDetectModeFlags(t *testing.T) {
	out := &bytes.Buffer{}

	if got := DetectMode(out, false, true); got != ModeJSON {
		t.Fatalf("json flag: got %v, want ModeJSON", got)
	}
	if got := DetectMode(out, true, false); got != ModePlain {
		t.Fatalf("no-progress flag: got %v, want ModePlain", got)
	}
	// A buffer is never a terminal.
	if got := DetectMode(out, false, false); got != ModePlain {
		t.Fatalf("buffer output: got %v, want ModePlain", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{15 * time.Second, "15s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tc := range cases {
		if got := formatElapsed(tc.d); got != tc.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestStatusWriterStopClearsLine(t *testing.T) {
	out := &bytes.Buffer{}
	sw := NewStatusWriter(out)
	sw.Update("scanning")
	sw.Stop()
	sw.Stop() // second stop is a no-op

	if got := out.String(); len(got) == 0 {
		t.Fatal("expected clear sequence in output")
	}
}
