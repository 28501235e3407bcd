package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle styles the table title line.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"imported":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"active":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"removed":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"resolving":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"downloading": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"extracting":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"verifying":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"importing":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"scanning":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		// Skipped / warning
		"skipped":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"detected": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"managed":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		// Error
		"error":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		// Pending
		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
