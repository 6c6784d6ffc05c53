package main

import (
	"fmt"
	"strings"

	"github.com/joshuapare/framekit/internal/format"
	"github.com/joshuapare/framekit/phys"
	"github.com/joshuapare/framekit/phys/alloc"
	"github.com/spf13/cobra"
)

var mapWidth int

// Frame class characters shared by the map and inspect commands.
const (
	classFree    = '.'
	classGranted = 'a'
	classUsed    = '#'
)

func init() {
	cmd := newMapCmd()
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Frames per row")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <image>",
		Short: "Render a frame state map of an image",
		Long: `The map command classifies every managed frame by its content pattern
and renders one character per frame: '.' for frames on the free list,
'a' for frames granted but never written, '#' for frames with live data.

Classification reads fill patterns, so a frame whose owner wrote the
scrub byte everywhere shows as free.

Example:
  memctl map machine.pmem
  memctl map machine.pmem --width 32`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
}

func runMap(args []string) error {
	path := args[0]

	if mapWidth <= 0 {
		return fmt.Errorf("--width must be positive, got %d", mapWidth)
	}

	img, err := phys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	managed := img.Managed()
	total := managed.FrameCount()

	var (
		rows     []string
		rowAddrs []string
		sb       strings.Builder
		counts   [256]int
	)
	for i := range total {
		addr := managed.AddrOf(phys.Frame(i))
		w, err := img.Window(addr, phys.FrameSize)
		if err != nil {
			return fmt.Errorf("failed to read frame %d: %w", i, err)
		}
		c := classifyFrame(w)
		counts[c]++
		if sb.Len() == 0 {
			rowAddrs = append(rowAddrs, addr.String())
		}
		sb.WriteByte(c)
		if sb.Len() == mapWidth {
			rows = append(rows, sb.String())
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		rows = append(rows, sb.String())
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":        path,
			"range_start": managed.RangeStart.String(),
			"frames":      total,
			"width":       mapWidth,
			"free":        counts[classFree],
			"granted":     counts[classGranted],
			"used":        counts[classUsed],
			"rows":        rows,
		})
	}

	printInfo("\nFrame map: %s\n", path)
	printInfo("  %d frames, %d per row\n", total, mapWidth)
	printInfo("  '%c' free  '%c' granted  '%c' written\n\n", classFree, classGranted, classUsed)
	for i, row := range rows {
		printInfo("  %s  %s\n", rowAddrs[i], row)
	}
	printInfo("\n  %d free, %d granted, %d written\n",
		counts[classFree], counts[classGranted], counts[classUsed])
	return nil
}

// classifyFrame inspects a frame's content pattern. Free frames carry the
// scrub byte everywhere except the link word; granted frames keep the
// grant fill until their owner writes to them.
func classifyFrame(b []byte) byte {
	if isFreePattern(b) {
		return classFree
	}
	if isAll(b, alloc.AllocFill) {
		return classGranted
	}
	return classUsed
}

func isFreePattern(b []byte) bool {
	for _, v := range b[format.LinkSize:] {
		if v != alloc.FreeFill {
			return false
		}
	}
	return true
}

func isAll(b []byte, fill byte) bool {
	for _, v := range b {
		if v != fill {
			return false
		}
	}
	return true
}
