package tui

import (
	"io"
	"os"
	"runtime"
	"strings"
)

// OutputMode selects how a command renders its progress.
type OutputMode int

const (
	// ModeTUI drives an interactive bubbletea display.
	ModeTUI OutputMode = iota
	// ModePlain prints results once the work is done.
	ModePlain
	// ModeJSON emits machine-readable output only.
	ModeJSON
)

// DetectMode picks the output mode for out. Explicit flags win; otherwise
// the interactive display is used only when out is a real terminal.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress:
		return ModePlain
	case !isTerminal(out):
		return ModePlain
	}
	return ModeTUI
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	// Dumb terminals cannot handle the cursor control bubbletea emits.
	term := os.Getenv("TERM")
	return term != "" && !strings.EqualFold(term, "dumb")
}
