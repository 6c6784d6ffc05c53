package main

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/framekit/phys"
	"github.com/joshuapare/framekit/phys/alloc"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
}

// NewTestHelper creates a test helper with a model
func NewTestHelper(imagePath string) *TestHelper {
	return &TestHelper{
		model: NewModel(imagePath),
	}
}

// SendKey simulates a key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	msg := tea.KeyMsg{Type: keyType}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	msg := tea.WindowSizeMsg{Width: width, Height: height}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// Model returns the current model state
func (h *TestHelper) Model() Model {
	return h.model
}

// Close releases the model's image mapping
func (h *TestHelper) Close() {
	_ = h.model.Close()
}

// createTestImage writes a bootstrapped image with the given number of
// managed frames under dir and returns its path.
func createTestImage(t *testing.T, dir string, frames int) string {
	t.Helper()

	path := filepath.Join(dir, "test.pmem")
	base := phys.PhysAddr(0x8000_0000)
	size := uint64(frames) * phys.FrameSize

	img, err := phys.Create(path, base, size, base)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer img.Close()

	if _, err := alloc.New(img, img.Managed(), nil); err != nil {
		t.Fatalf("failed to bootstrap test image: %v", err)
	}
	if err := img.Sync(); err != nil {
		t.Fatalf("failed to sync test image: %v", err)
	}
	return path
}
