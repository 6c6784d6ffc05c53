package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/framekit/cmd/memexplorer/framedetail"
	"github.com/joshuapare/framekit/cmd/memexplorer/framegrid"
	"github.com/joshuapare/framekit/cmd/memexplorer/logger"
	"github.com/joshuapare/framekit/phys"
)

// Pane represents which pane is focused
type Pane int

const (
	MapPane Pane = iota
	DetailPane
)

// infoPanelHeight is the height of the image info box under the grid,
// borders included.
const infoPanelHeight = 6

// Model is the main application model
type Model struct {
	imagePath string
	img       *phys.Image
	grid      framegrid.Model
	detail    framedetail.Model
	keys      KeyMap

	focusedPane Pane
	width       int
	height      int

	// Help overlay
	showHelp bool

	// Status message for temporary feedback
	statusMessage string

	err error
}

// clearStatusMsg clears the transient status message.
type clearStatusMsg struct{}

// NewModel creates a new TUI model over an image file.
func NewModel(imagePath string) Model {
	m := Model{
		imagePath: imagePath,
		keys:      DefaultKeyMap(),
	}

	img, err := phys.Open(imagePath)
	if err != nil {
		logger.Error("failed to open image", "path", imagePath, "error", err)
		m.err = err
		return m
	}
	m.img = img
	m.grid = framegrid.NewModel(img)
	m.grid.Focus()
	m.detail = framedetail.NewModel()
	m.refreshDetail()

	logger.Info("image opened",
		"path", imagePath,
		"base", img.Base(),
		"frames", m.grid.Total())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// refreshDetail reloads the detail pane with the selected frame.
func (m *Model) refreshDetail() {
	if m.img == nil || m.grid.Total() == 0 {
		return
	}
	addr := m.grid.CursorAddr()
	b, err := m.img.Window(addr, phys.FrameSize)
	if err != nil {
		logger.Warn("failed to read frame", "addr", addr, "error", err)
		return
	}
	m.detail.SetFrame(addr, m.grid.CursorState().String(), b)
}

// layoutPanes distributes the window between the grid, info panel, and
// detail viewport. Interior sizes subtract the pane borders and padding.
func (m *Model) layoutPanes() {
	if m.img == nil {
		return
	}
	paneHeight := max(m.height-8, 5)
	gridWidth := m.width / 2
	detailWidth := m.width - gridWidth

	gridHeight := max(paneHeight-infoPanelHeight, 5)

	m.grid.SetSize(max(gridWidth-4, 1), max(gridHeight-2, 1))
	m.detail.SetSize(max(detailWidth-4, 1), max(paneHeight-2, 1))
}

// Close releases the image mapping.
func (m Model) Close() error {
	if m.img == nil {
		return nil
	}
	return m.img.Close()
}
