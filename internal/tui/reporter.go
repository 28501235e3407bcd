package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"toolvm/internal/download"
)

// throttleInterval limits how often byte-level download progress is pushed
// into the renderer; downloads fire callbacks far faster than frames draw.
const throttleInterval = 200 * time.Millisecond

// DownloadReporter adapts download progress callbacks to row updates for a
// ProgressModel. One reporter drives one table row.
type DownloadReporter struct {
	send     func(tea.Msg)
	rowKey   string
	lastSent time.Time
}

// NewDownloadReporter creates a reporter that updates the row identified by
// rowKey through send.
func NewDownloadReporter(send func(tea.Msg), rowKey string) *DownloadReporter {
	return &DownloadReporter{send: send, rowKey: rowKey}
}

// Progress returns a download.Progress callback that pushes throttled
// PROGRESS column updates.
func (r *DownloadReporter) Progress() download.Progress {
	return func(downloaded, total int64) {
		now := time.Now()
		if downloaded != total && now.Sub(r.lastSent) < throttleInterval {
			return
		}
		r.lastSent = now
		r.send(RowUpdateMsg{
			Key:    r.rowKey,
			Fields: map[string]string{"PROGRESS": FormatTransfer(downloaded, total)},
		})
	}
}

// Status pushes a STATUS column update for the row.
func (r *DownloadReporter) Status(status string) {
	r.send(RowUpdateMsg{
		Key:    r.rowKey,
		Fields: map[string]string{"STATUS": status},
	})
}
