package main

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/framekit/cmd/memexplorer/logger"
)

// statusTimeout is how long transient status messages stay visible.
const statusTimeout = 2 * time.Second

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Wheel scrolling goes to the hex viewport when it is focused.
		if m.focusedPane == DetailPane {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanes()
		return m, nil

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil
	}

	return m, nil
}

// handleKey routes a key press by mode and focused pane.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// If help is showing, handle help keys
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) ||
			key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		// Ignore other keys when help is showing
		return m, nil
	}

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		logger.Info("memexplorer exiting")
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == MapPane {
			m.focusedPane = DetailPane
			m.grid.Blur()
		} else {
			m.focusedPane = MapPane
			m.grid.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		addr := m.grid.CursorAddr().String()
		if err := clipboard.WriteAll(addr); err != nil {
			logger.Warn("clipboard write failed", "error", err)
			m.statusMessage = "Failed to copy address"
		} else {
			m.statusMessage = fmt.Sprintf("Copied %s", addr)
		}
		return m, clearStatusAfter(statusTimeout)

	case key.Matches(msg, m.keys.Refresh):
		m.grid.Reload()
		m.refreshDetail()
		m.statusMessage = "Image reloaded"
		return m, clearStatusAfter(statusTimeout)
	}

	if m.focusedPane == MapPane {
		return m.handleGridKey(msg)
	}
	return m.handleDetailKey(msg)
}

// handleGridKey moves the frame cursor and refreshes the detail pane.
func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.grid.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.grid.MoveDown()
	case key.Matches(msg, m.keys.Left):
		m.grid.MoveLeft()
	case key.Matches(msg, m.keys.Right):
		m.grid.MoveRight()
	case key.Matches(msg, m.keys.PageUp):
		m.grid.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.grid.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.grid.Home()
	case key.Matches(msg, m.keys.End):
		m.grid.End()
	default:
		return m, nil
	}
	m.refreshDetail()
	return m, nil
}

// handleDetailKey scrolls the hex viewport.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Up) || key.Matches(msg, m.keys.Down) ||
		key.Matches(msg, m.keys.PageUp) || key.Matches(msg, m.keys.PageDown) {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}
