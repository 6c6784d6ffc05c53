// Package framegrid renders a frame pool as a navigable character grid:
// one cell per frame, classified by the frame's content pattern.
package framegrid

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/framekit/internal/format"
	"github.com/joshuapare/framekit/phys"
	"github.com/joshuapare/framekit/phys/alloc"
)

// FrameState classifies a frame by its content pattern.
type FrameState int

const (
	StateFree FrameState = iota
	StateGranted
	StateWritten
)

// String returns the human name of the state.
func (s FrameState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateGranted:
		return "granted"
	default:
		return "written"
	}
}

// Rune returns the grid cell character for the state.
func (s FrameState) Rune() rune {
	switch s {
	case StateFree:
		return '.'
	case StateGranted:
		return 'a'
	default:
		return '#'
	}
}

// Classify inspects a frame's content pattern. The link word of a free
// frame is exempt from the scrub check, so frames on the free list read
// as free regardless of where they point.
func Classify(b []byte) FrameState {
	free := true
	for _, v := range b[format.LinkSize:] {
		if v != alloc.FreeFill {
			free = false
			break
		}
	}
	if free {
		return StateFree
	}
	for _, v := range b {
		if v != alloc.AllocFill {
			return StateWritten
		}
	}
	return StateGranted
}

// Row labels render the frame address padded to this width.
const labelWidth = 12

// Model is the frame grid component. The parent drives navigation through
// the Move methods and reads the selection back with CursorAddr.
type Model struct {
	img    *phys.Image
	layout phys.Layout
	states []FrameState

	cursor int // selected frame index
	top    int // first visible row
	cols   int // frames per row
	rows   int // visible rows

	focused bool
}

// NewModel builds a grid over the image's managed range and classifies
// every frame.
func NewModel(img *phys.Image) Model {
	m := Model{
		img:    img,
		layout: img.Managed(),
		cols:   32,
		rows:   16,
	}
	m.states = make([]FrameState, m.layout.FrameCount())
	m.Reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Reload reclassifies every frame from the image content.
func (m *Model) Reload() {
	for i := range m.states {
		b, err := m.img.Window(m.layout.AddrOf(phys.Frame(i)), phys.FrameSize)
		if err != nil {
			m.states[i] = StateWritten
			continue
		}
		m.states[i] = Classify(b)
	}
}

// SetSize fits the grid to a pane of w by h cells. Row labels take
// labelWidth columns; whatever remains is one frame per column.
func (m *Model) SetSize(w, h int) {
	m.cols = max(w-labelWidth, 1)
	m.rows = max(h, 1)
	m.scrollToCursor()
}

// Focus marks the grid as the active pane.
func (m *Model) Focus() { m.focused = true }

// Blur marks the grid as inactive.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the grid is the active pane.
func (m Model) Focused() bool { return m.focused }

// Cursor returns the selected frame index.
func (m Model) Cursor() int { return m.cursor }

// CursorAddr returns the physical address of the selected frame.
func (m Model) CursorAddr() phys.PhysAddr {
	return m.layout.AddrOf(phys.Frame(m.cursor))
}

// CursorState returns the state of the selected frame.
func (m Model) CursorState() FrameState {
	if len(m.states) == 0 {
		return StateFree
	}
	return m.states[m.cursor]
}

// Total returns the number of frames in the grid.
func (m Model) Total() int { return len(m.states) }

// Counts returns how many frames are in each state.
func (m Model) Counts() (free, granted, written int) {
	for _, s := range m.states {
		switch s {
		case StateFree:
			free++
		case StateGranted:
			granted++
		default:
			written++
		}
	}
	return free, granted, written
}

// MoveLeft selects the previous frame.
func (m *Model) MoveLeft() { m.setCursor(m.cursor - 1) }

// MoveRight selects the next frame.
func (m *Model) MoveRight() { m.setCursor(m.cursor + 1) }

// MoveUp selects the frame one row up.
func (m *Model) MoveUp() { m.setCursor(m.cursor - m.cols) }

// MoveDown selects the frame one row down.
func (m *Model) MoveDown() { m.setCursor(m.cursor + m.cols) }

// PageUp selects the frame one screen up.
func (m *Model) PageUp() { m.setCursor(m.cursor - m.cols*m.rows) }

// PageDown selects the frame one screen down.
func (m *Model) PageDown() { m.setCursor(m.cursor + m.cols*m.rows) }

// Home selects the first frame.
func (m *Model) Home() { m.setCursor(0) }

// End selects the last frame.
func (m *Model) End() { m.setCursor(len(m.states) - 1) }

func (m *Model) setCursor(i int) {
	if len(m.states) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(i, 0), len(m.states)-1)
	m.scrollToCursor()
}

// scrollToCursor keeps the cursor row inside the visible window.
func (m *Model) scrollToCursor() {
	if m.cols <= 0 {
		return
	}
	row := m.cursor / m.cols
	if row < m.top {
		m.top = row
	}
	if row >= m.top+m.rows {
		m.top = row - m.rows + 1
	}
	m.top = min(max(m.top, 0), max(m.rowCount()-m.rows, 0))
}

func (m Model) rowCount() int {
	if m.cols <= 0 {
		return 0
	}
	return (len(m.states) + m.cols - 1) / m.cols
}

// View renders the visible rows with the cursor cell highlighted.
func (m Model) View() string {
	if len(m.states) == 0 {
		return emptyStyle.Render("no managed frames")
	}

	var b strings.Builder
	last := min(m.top+m.rows, m.rowCount())
	for row := m.top; row < last; row++ {
		start := row * m.cols
		addr := m.layout.AddrOf(phys.Frame(start))
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, addr)))

		end := min(start+m.cols, len(m.states))
		for i := start; i < end; i++ {
			cell := string(m.states[i].Rune())
			switch {
			case i == m.cursor && m.focused:
				b.WriteString(cursorStyle.Render(cell))
			case i == m.cursor:
				b.WriteString(cursorBlurStyle.Render(cell))
			default:
				b.WriteString(stateStyle(m.states[i]).Render(cell))
			}
		}
		if row < last-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
