package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/framekit/phys"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Display image header and geometry information",
		Long: `The info command opens an image, validates its header, and reports
the modeled memory geometry and frame pool dimensions.

Example:
  memctl info machine.pmem
  memctl info machine.pmem --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
}

func runInfo(args []string) error {
	path := args[0]

	printVerbose("Opening image: %s\n", path)

	img, err := phys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	hdr := img.Header()
	managed := img.Managed()
	kernelFrames := uint64(managed.RangeStart-img.Base()) / phys.FrameSize

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":          path,
			"version":       hdr.Version(),
			"checksum":      fmt.Sprintf("0x%08X", hdr.StoredChecksum()),
			"base":          img.Base().String(),
			"top":           img.Top().String(),
			"size":          img.Size(),
			"range_start":   managed.RangeStart.String(),
			"kernel_frames": kernelFrames,
			"frames":        managed.FrameCount(),
		})
	}

	printInfo("\nImage Information:\n")
	printInfo("  File: %s\n", path)
	if st, err := os.Stat(path); err == nil {
		printInfo("  File size: %d bytes\n", st.Size())
	}
	printInfo("  Format version: %d\n", hdr.Version())
	printInfo("  Header checksum: 0x%08X (valid)\n", hdr.StoredChecksum())

	printInfo("\nGeometry:\n")
	printInfo("  Memory:  [%s, %s), 0x%X bytes\n", img.Base(), img.Top(), img.Size())
	printInfo("  Managed: [%s, %s)\n", managed.RangeStart, managed.RangeEnd)
	printInfo("  Frames:  %d managed, %d reserved for the kernel\n", managed.FrameCount(), kernelFrames)
	return nil
}
