// Package theme holds the terminal palette shared by the dashboard and its components.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Accent    = lipgloss.Color("#7C3AED")
	AccentDim = lipgloss.Color("#4C1D95")
	Good      = lipgloss.Color("#10B981")
	Bad       = lipgloss.Color("#EF4444")
	Caution   = lipgloss.Color("#F59E0B")
	Muted     = lipgloss.Color("#6B7280")
	Faint     = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#374151")
	Text      = lipgloss.Color("#FFFFFF")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Text).Background(Accent).Padding(0, 2)
	Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Border).Padding(0, 1)
	Help  = lipgloss.NewStyle().Foreground(Muted).Padding(0, 1)

	Heading = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	Value   = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Dim     = lipgloss.NewStyle().Foreground(Muted)
	Note    = lipgloss.NewStyle().Foreground(Faint)

	Ok   = lipgloss.NewStyle().Foreground(Good)
	Warn = lipgloss.NewStyle().Foreground(Caution)
	Fail = lipgloss.NewStyle().Foreground(Bad)
)

// Status renders a feed or venue label as up or down.
func Status(label string, up bool) string {
	if up {
		return Ok.Bold(true).Render("● " + label)
	}
	return Fail.Bold(true).Render("○ " + label + " (disconnected)")
}
