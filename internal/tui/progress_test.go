package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRowUpdateMsg(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "TOOL", Width: 8},
		{Header: "STATUS", Width: 11},
		{Header: "VERSION", Width: 10},
	})
	m.AddRow("node@20.10.0", []string{"node", "pending", "20.10.0"})
	m.AddRow("java@21.0.7", []string{"java", "pending", "21.0.7"})

	updated, _ := m.Update(RowUpdateMsg{
		Key:    "node@20.10.0",
		Fields: map[string]string{"STATUS": "installed", "VERSION": "20.10.0"},
	})
	m = updated.(ProgressModel)

	if m.rows[0].Fields[1] != "installed" {
		t.Errorf("expected STATUS=installed, got %q", m.rows[0].Fields[1])
	}
	// Second row unchanged.
	if m.rows[1].Fields[1] != "pending" {
		t.Errorf("expected row 2 STATUS=pending, got %q", m.rows[1].Fields[1])
	}
}

func TestRowUpdateMsg_UnknownKey(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})
	m.AddRow("node@20.10.0", []string{"pending"})

	updated, _ := m.Update(RowUpdateMsg{
		Key:    "node@99.0.0",
		Fields: map[string]string{"STATUS": "installed"},
	})
	m = updated.(ProgressModel)

	if m.rows[0].Fields[0] != "pending" {
		t.Errorf("expected STATUS unchanged, got %q", m.rows[0].Fields[0])
	}
}

func TestWorkDoneMsg(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})

	updated, cmd := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsg(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})

	updated, cmd := m.Update(ErrorMsg{Err: tea.ErrProgramKilled})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after ErrorMsg")
	}
	if m.Err() == nil {
		t.Error("expected Err() to be non-nil")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestView(t *testing.T) {
	m := NewProgressModel("Installing tools", []Column{
		{Header: "TOOL", Width: 8},
		{Header: "STATUS", Width: 11},
		{Header: "PROGRESS", Width: 18},
	})
	m.AddRow("node@20.10.0", []string{"node", "pending", "-"})
	m.AddRow("java@21.0.7", []string{"java", "downloading", "12.0 MB/200.0 MB"})

	view := m.View()

	for _, fragment := range []string{"Installing tools", "TOOL", "STATUS", "PROGRESS", "node", "pending", "downloading", "12.0 MB/200.0 MB"} {
		if !strings.Contains(view, fragment) {
			t.Errorf("expected view to contain %q", fragment)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"  ", "-"},
		{"20.10.0", "20.10.0"},
		{" 20.10.0 ", "20.10.0"},
	}
	for _, tt := range tests {
		got := NonEmptyOrDash(tt.input)
		if got != tt.want {
			t.Errorf("NonEmptyOrDash(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		got := TruncateWithEllipsis(tt.input, tt.max)
		if got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestMarqueeText(t *testing.T) {
	tests := []struct {
		text    string
		width   int
		tick    int
		want    string
		wantLen int
	}{
		{"short", 10, 0, "short", 5},
		{"hello world here", 5, 0, "hello", 5},
		{"hello world here", 5, 1, "ello ", 5},
		{"hello world here", 5, 5, " worl", 5},
		{"abcdef", 4, 0, "abcd", 4},
		{"abcdef", 4, 6, "   a", 4},
	}
	for _, tt := range tests {
		got := marqueeText(tt.text, tt.width, tt.tick)
		if len(got) != tt.wantLen {
			t.Errorf("marqueeText(%q, %d, %d) length = %d, want %d", tt.text, tt.width, tt.tick, len(got), tt.wantLen)
		}
		if got != tt.want {
			t.Errorf("marqueeText(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.tick, got, tt.want)
		}
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})
	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	updated, cmd := m.Update(tickMsg{})
	_ = updated
	if cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestProgressCounts(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "TOOL", Width: 8},
		{Header: "STATUS", Width: 11},
	})
	m.AddRow("node@20.10.0", []string{"node", "pending"})
	m.AddRow("java@21.0.7", []string{"java", "pending"})
	m.AddRow("python@3.12.8", []string{"python", "installed"})

	processed, total := m.progressCounts()
	if total != 3 {
		t.Errorf("expected total=3, got %d", total)
	}
	if processed != 1 {
		t.Errorf("expected processed=1, got %d", processed)
	}
}

func TestViewFooter(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})
	m.AddRow("node@20.10.0", []string{"pending"})

	if view := m.View(); !strings.Contains(view, "Working") {
		t.Error("expected view to contain Working footer when not done")
	}

	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)
	if view := m.View(); strings.Contains(view, "Working") {
		t.Error("expected view to NOT contain Working footer when done")
	}
}

func TestCtrlC(t *testing.T) {
	m := NewProgressModel("test", []Column{
		{Header: "STATUS", Width: 11},
	})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after ctrl+c")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{-1, "-"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{12 * 1024 * 1024, "12.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatTransfer(t *testing.T) {
	if got := FormatTransfer(1024, 0); got != "1.0 KB" {
		t.Errorf("FormatTransfer with unknown total = %q", got)
	}
	if got := FormatTransfer(1024, 2048); got != "1.0 KB/2.0 KB" {
		t.Errorf("FormatTransfer = %q", got)
	}
}
