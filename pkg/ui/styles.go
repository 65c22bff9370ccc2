package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light and dark terminals. Light mode colors tuned for
// contrast on white backgrounds.
var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	rowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	rowSubtitleStyle = lipgloss.NewStyle().
				Foreground(ColorSubtext)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorBgHighlight).
				Bold(true)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	errorRowStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	footerStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
