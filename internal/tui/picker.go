package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	pickerDimStyle    = lipgloss.NewStyle().Faint(true)
	pickerTagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// PickerItem is one selectable entry in a PickerModel.
type PickerItem struct {
	Value string
	// Tag is an optional annotation rendered after the value (e.g. "LTS").
	Tag string
}

// PickerResult holds the outcome of a picker session.
type PickerResult struct {
	Cancelled bool
	Value     string
}

// PickerModel is a bubbletea model for selecting one value from a vertical
// list, used to choose a version when none was given on the command line.
type PickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	viewTop  int
	pageSize int
	result   PickerResult
	done     bool
}

// NewPickerModel creates a picker over items with the given title.
func NewPickerModel(title string, items []PickerItem) PickerModel {
	return PickerModel{
		title:    title,
		items:    items,
		pageSize: 12,
		result:   PickerResult{Cancelled: true},
	}
}

// Result returns the selection after the program exits.
func (m PickerModel) Result() PickerResult {
	return m.result
}

// Init satisfies the tea.Model interface.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update satisfies the tea.Model interface.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "pgup":
		m.cursor -= m.pageSize
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "pgdown":
		m.cursor += m.pageSize
		if m.cursor >= len(m.items) {
			m.cursor = len(m.items) - 1
		}
	case "enter":
		if len(m.items) > 0 {
			m.result = PickerResult{Value: m.items[m.cursor].Value}
		}
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.result = PickerResult{Cancelled: true}
		m.done = true
		return m, tea.Quit
	}

	// Keep the cursor inside the visible window.
	if m.cursor < m.viewTop {
		m.viewTop = m.cursor
	}
	if m.cursor >= m.viewTop+m.pageSize {
		m.viewTop = m.cursor - m.pageSize + 1
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m PickerModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	end := m.viewTop + m.pageSize
	if end > len(m.items) {
		end = len(m.items)
	}
	for i := m.viewTop; i < end; i++ {
		item := m.items[i]
		line := item.Value
		if item.Tag != "" {
			line += "  " + pickerTagStyle.Render(item.Tag)
		}
		if i == m.cursor {
			fmt.Fprintf(&b, "%s %s\n", pickerCursorStyle.Render(">"), line)
		} else {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if end < len(m.items) {
		fmt.Fprintf(&b, "%s\n", pickerDimStyle.Render(fmt.Sprintf("  ... %d more", len(m.items)-end)))
	}

	b.WriteString("\n")
	b.WriteString(pickerDimStyle.Render("↑/↓ move · enter select · q cancel"))
	b.WriteString("\n")
	return b.String()
}

// RunPicker runs a picker program and returns its result.
func RunPicker(title string, items []PickerItem) (PickerResult, error) {
	p := tea.NewProgram(NewPickerModel(title, items))
	final, err := p.Run()
	if err != nil {
		return PickerResult{Cancelled: true}, err
	}
	model, ok := final.(PickerModel)
	if !ok {
		return PickerResult{Cancelled: true}, nil
	}
	return model.Result(), nil
}
