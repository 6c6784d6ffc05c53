// Package framedetail shows a scrollable hex dump of a single frame.
package framedetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshuapare/framekit/internal/hexdump"
	"github.com/joshuapare/framekit/phys"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D7FF")).
			Italic(true)
)

// Model is the frame detail component: a viewport over the hex dump of
// the selected frame.
type Model struct {
	addr     phys.PhysAddr
	state    string
	viewport viewport.Model
	width    int
	height   int
}

// NewModel creates an empty detail view.
func NewModel() Model {
	return Model{viewport: viewport.New(0, 0)}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// SetFrame loads a frame's content into the viewport and scrolls back to
// the top.
func (m *Model) SetFrame(addr phys.PhysAddr, state string, data []byte) {
	m.addr = addr
	m.state = state
	m.viewport.SetContent(strings.Join(hexdump.Dump(data, uint64(addr)), "\n"))
	m.viewport.GotoTop()
}

// Addr returns the address of the displayed frame.
func (m Model) Addr() phys.PhysAddr { return m.addr }

// SetSize resizes the viewport, reserving one line for the title.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = max(h-1, 1)
}

// Update handles scroll messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// ScrollPercent reports how far down the viewport is scrolled.
func (m Model) ScrollPercent() float64 { return m.viewport.ScrollPercent() }

// View renders the title line and the hex viewport.
func (m Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("Frame %s", m.addr)) +
		stateStyle.Render(fmt.Sprintf("  [%s]", m.state))
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View())
}
