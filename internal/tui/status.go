package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const statusInterval = 100 * time.Millisecond

// StatusWriter renders a single spinning status line in-place. Detection
// sweeps use it: they have no per-row progress to tabulate, only a phase
// name and elapsed time.
type StatusWriter struct {
	w io.Writer

	mu      sync.Mutex
	message string
	since   time.Time
	stopped bool

	quit chan struct{}
}

// NewStatusWriter starts the spinner goroutine immediately; callers set
// the visible text with Update and must call Stop before writing anything
// else to w.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:     w,
		since: time.Now(),
		quit:  make(chan struct{}),
	}
	go sw.spin()
	return sw
}

// Update swaps the status text and restarts the elapsed-time counter.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.since = time.Now()
	sw.mu.Unlock()
}

// Stop halts the spinner and erases the status line. Safe to call twice.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.stopped {
		return
	}
	sw.stopped = true
	close(sw.quit)
	fmt.Fprint(sw.w, "\r\033[K")
}

func (sw *StatusWriter) spin() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-sw.quit:
			return
		case <-ticker.C:
		}

		sw.mu.Lock()
		msg := sw.message
		elapsed := time.Since(sw.since)
		sw.mu.Unlock()

		spinner := spinnerFrames[frame%len(spinnerFrames)]
		fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinner, msg, formatElapsed(elapsed))
	}
}

// formatElapsed keeps the elapsed display short: millisecond precision
// only below a second, tenths below ten seconds.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
