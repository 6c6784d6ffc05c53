package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/framekit/cmd/memexplorer/logger"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse flags first (before positional args)
	args := os.Args[1:]
	debugMode := false

	// Extract --debug/-d flag
	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("memexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	imagePath := filteredArgs[0]
	logger.Info("starting memexplorer", "path", imagePath, "debug", debugMode)

	// Check if file exists
	if _, err := os.Stat(imagePath); err != nil {
		logger.Error("image file not found", "path", imagePath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: image file not found: %s\n", imagePath)
		os.Exit(1)
	}

	// Create the TUI model
	m := NewModel(imagePath)

	// Create the Bubbletea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	// Run the program
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean up resources
	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			// Log error but don't fail - cleanup is best effort
			logger.Warn("error closing image", "error", err)
		}
	}

	logger.Info("memexplorer exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: memexplorer [options] <image-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'memexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("memexplorer - Interactive TUI for Physical Memory Images")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  memexplorer [options] <image-file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Launches an interactive terminal UI for exploring physical memory images.")
	fmt.Println()
	fmt.Println("  Features:")
	fmt.Println("    - Frame map grid with one cell per frame, colored by state")
	fmt.Println("    - Scrollable hex dump of the selected frame")
	fmt.Println("    - Image geometry and frame pool statistics")
	fmt.Println("    - Copy frame addresses to the clipboard (y)")
	fmt.Println("    - Reload a live image from disk (r)")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k, ↓/j    Move one row up/down")
	fmt.Println("    ←/h, →/l    Previous/next frame")
	fmt.Println("    Tab         Switch between map and hex panes")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.memexplorer/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  memexplorer machine.pmem")
	fmt.Println("  memexplorer --debug machine.pmem")
	fmt.Println()
	fmt.Println("For non-interactive operations, use the 'memctl' command instead.")
}
