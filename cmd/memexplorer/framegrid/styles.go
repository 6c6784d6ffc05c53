package framegrid

import "github.com/charmbracelet/lipgloss"

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	freeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	grantedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	writtenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D7FF"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#7D56F4")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	cursorBlurStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#383838")).
			Foreground(lipgloss.Color("#FFFFFF"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

// stateStyle returns the render style for a frame state cell.
func stateStyle(s FrameState) lipgloss.Style {
	switch s {
	case StateFree:
		return freeStyle
	case StateGranted:
		return grantedStyle
	default:
		return writtenStyle
	}
}
