package main

import (
	"fmt"

	"github.com/joshuapare/framekit/internal/hexdump"
	"github.com/joshuapare/framekit/phys"
	"github.com/spf13/cobra"
)

var inspectLines int

func init() {
	cmd := newInspectCmd()
	cmd.Flags().IntVar(&inspectLines, "lines", 16, "Hex dump lines to print (0 = whole frame)")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image> <addr>",
		Short: "Hex dump the frame containing a physical address",
		Long: `The inspect command locates the frame containing the given physical
address, reports its state, and hex dumps its content. The address is
rounded down to the frame boundary; it accepts hex (0x...) or decimal.

Example:
  memctl inspect machine.pmem 0x80012000
  memctl inspect machine.pmem 0x80012abc --lines 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
}

func runInspect(args []string) error {
	path := args[0]
	addr, err := parseAddr(args[1])
	if err != nil {
		return err
	}
	if inspectLines < 0 {
		return fmt.Errorf("--lines must not be negative, got %d", inspectLines)
	}

	img, err := phys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	start := phys.AlignDown(addr)
	if !img.Contains(start) {
		return fmt.Errorf("address %s outside image [%s, %s)", addr, img.Base(), img.Top())
	}

	w, err := img.Window(start, phys.FrameSize)
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}

	managed := img.Managed()
	state := frameState(classifyFrame(w))

	lines := hexdump.Dump(w, uint64(start))
	full := len(lines)
	truncated := inspectLines > 0 && full > inspectLines
	if truncated {
		lines = lines[:inspectLines]
	}

	if jsonOut {
		out := map[string]interface{}{
			"path":        path,
			"addr":        addr.String(),
			"frame_start": start.String(),
			"state":       state,
			"truncated":   truncated,
			"lines":       lines,
		}
		if f, ok := managed.IndexOf(start); ok {
			out["frame"] = uint64(f)
		}
		return printJSON(out)
	}

	printInfo("\nFrame at %s:\n", start)
	if f, ok := managed.IndexOf(start); ok {
		printInfo("  Frame index: %d of %d\n", f, managed.FrameCount())
	} else {
		printInfo("  Outside the managed range (kernel region)\n")
	}
	printInfo("  State: %s\n\n", state)
	for _, line := range lines {
		printInfo("  %s\n", line)
	}
	if truncated {
		printInfo("  ... (%d more lines, use --lines 0 for the whole frame)\n", full-inspectLines)
	}
	return nil
}

// frameState names a class character for human output.
func frameState(c byte) string {
	switch c {
	case classFree:
		return "free"
	case classGranted:
		return "granted"
	default:
		return "written"
	}
}
