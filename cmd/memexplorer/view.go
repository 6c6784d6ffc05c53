package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	// If help overlay is showing, render it instead of the panes
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	content := m.renderContent()
	status := m.renderStatus()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		status,
	)
}

// renderHeader renders the title, image name, and current selection
func (m Model) renderHeader() string {
	title := "Physical Memory Explorer"
	imageName := fmt.Sprintf("Image: %s", m.imagePath)

	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render(title),
		lipgloss.NewStyle().Render("  "),
		pathStyle.Render(imageName),
	)

	if m.grid.Total() > 0 {
		sel := fmt.Sprintf("Frame %d of %d at %s (%s)",
			m.grid.Cursor()+1, m.grid.Total(), m.grid.CursorAddr(), m.grid.CursorState())
		header = lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			pathStyle.Render(sel),
		)
	}

	return header
}

// renderContent renders the split-pane content: frame grid and image
// info on the left, hex detail on the right
func (m Model) renderContent() string {
	paneHeight := max(m.height-8, 5)
	gridWidth := m.width / 2
	detailWidth := m.width - gridWidth

	gridHeight := max(paneHeight-infoPanelHeight, 5)

	gridTitle := fmt.Sprintf("Frames (%d)", m.grid.Total())
	gridContent := lipgloss.NewStyle().
		Width(gridWidth - 4).
		Height(gridHeight - 2).
		Render(m.grid.View())

	gridBoxStyle := paneStyle
	if m.focusedPane == MapPane {
		gridBoxStyle = activePaneStyle
	}
	gridBox := gridBoxStyle.
		Width(gridWidth - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, gridTitle, gridContent))

	infoBox := m.renderInfoPanel(gridWidth - 2)

	leftColumn := lipgloss.JoinVertical(
		lipgloss.Left,
		gridBox,
		infoBox,
	)

	// The detail box matches the measured left column height exactly.
	detailBoxStyle := paneStyle
	if m.focusedPane == DetailPane {
		detailBoxStyle = activePaneStyle
	}
	detailHeight := max(lipgloss.Height(leftColumn)-2, 5)
	detailBox := detailBoxStyle.
		Width(detailWidth - 2).
		Height(detailHeight).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, detailBox)
}

// renderInfoPanel renders the image geometry and frame counts
func (m Model) renderInfoPanel(width int) string {
	managed := m.img.Managed()
	free, granted, written := m.grid.Counts()

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(infoLabelStyle.Render(fmt.Sprintf("%-9s", label)))
		b.WriteString(infoValueStyle.Render(value))
		b.WriteString("\n")
	}
	row("Memory", fmt.Sprintf("[%s, %s)", m.img.Base(), m.img.Top()))
	row("Managed", fmt.Sprintf("[%s, %s)", managed.RangeStart, managed.RangeEnd))

	b.WriteString(infoLabelStyle.Render(fmt.Sprintf("%-9s", "Frames")))
	b.WriteString(freeCountStyle.Render(fmt.Sprintf("%d free", free)))
	b.WriteString("  ")
	b.WriteString(grantedCountStyle.Render(fmt.Sprintf("%d granted", granted)))
	b.WriteString("  ")
	b.WriteString(writtenCountStyle.Render(fmt.Sprintf("%d written", written)))

	return paneStyle.
		Width(width).
		Height(infoPanelHeight - 2).
		Render(b.String())
}

// renderStatus renders the status bar with a transient message or the
// short key help
func (m Model) renderStatus() string {
	if m.statusMessage != "" {
		return statusStyle.Width(m.width).Render(
			statusMessageStyle.Render(m.statusMessage),
		)
	}

	parts := []string{}
	for _, b := range m.keys.ShortHelp() {
		parts = append(parts, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	parts = append(parts, "tab switch pane", "y copy address", "r reload")
	return statusStyle.Width(m.width).Render(strings.Join(parts, " • "))
}

// renderHelpOverlay renders the full-screen help view
func (m Model) renderHelpOverlay() string {
	var b strings.Builder

	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	// Key column width for alignment
	const keyWidth = 14

	item := func(keys, desc string) {
		b.WriteString(helpKeyStyle.Width(keyWidth).Render(keys))
		b.WriteString("  ")
		b.WriteString(helpDescStyle.Render(desc))
		b.WriteString("\n")
	}

	b.WriteString(helpSectionStyle.Render("Navigation"))
	b.WriteString("\n")
	item("↑/↓ or k/j", "Move one row up/down")
	item("←/→ or h/l", "Previous/next frame")
	item("PgUp/PgDn", "Move one screen")
	item("Home or g", "First frame")
	item("End or G", "Last frame")
	item("Tab", "Switch between map and hex panes")
	b.WriteString("\n")

	b.WriteString(helpSectionStyle.Render("Commands"))
	b.WriteString("\n")
	item("y", "Copy selected frame address")
	item("r or F5", "Reload the image from disk")
	item("?", "Toggle this help")
	item("q", "Quit")
	b.WriteString("\n")

	b.WriteString(helpSectionStyle.Render("Frame Map"))
	b.WriteString("\n")
	item(".", "Free frame (scrub pattern)")
	item("a", "Granted frame (grant fill, unwritten)")
	item("#", "Frame with live data")
	b.WriteString("\n")

	b.WriteString(helpDescStyle.Render("Press Esc, ?, or q to close"))

	return b.String()
}
