package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/framekit/devicetree"
	"github.com/joshuapare/framekit/phys"
	"github.com/spf13/cobra"
)

var dtbKernelSize string

func init() {
	dtbCmd := &cobra.Command{
		Use:   "dtb",
		Short: "Inspect flattened device tree blobs",
		Long: `The dtb commands read flattened device tree blobs (.dtb files) of the
kind a boot loader hands to a kernel, and extract the memory topology an
allocator needs: where RAM starts, how big it is, and what remains once
a kernel image is placed at the bottom.`,
	}

	layoutCmd := newDtbLayoutCmd()
	layoutCmd.Flags().
		StringVar(&dtbKernelSize, "kernel-size", "0x200000", "Modeled kernel image size in bytes")

	dtbCmd.AddCommand(newDtbInfoCmd(), layoutCmd)
	rootCmd.AddCommand(dtbCmd)
}

func newDtbInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <blob>",
		Short: "Display device tree header and memory regions",
		Long: `The info command parses a device tree blob and reports its header
fields, reservation map, and the memory regions declared by memory
nodes.

Example:
  memctl dtb info board.dtb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDtbInfo(args)
		},
	}
}

func newDtbLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <blob>",
		Short: "Derive an allocator layout from a device tree",
		Long: `The layout command reads the first memory region of a device tree and
computes the manageable frame range left after placing a kernel image of
--kernel-size bytes at the bottom of that memory. The numbers it prints
feed straight into memctl create.

Example:
  memctl dtb layout board.dtb --kernel-size 0x200000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDtbLayout(args)
		},
	}
}

func loadTree(path string) (*devicetree.Tree, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	t, err := devicetree.Parse(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device tree: %w", err)
	}
	return t, nil
}

func regionList(rs []devicetree.Region) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rs))
	for _, r := range rs {
		out = append(out, map[string]interface{}{
			"base": fmt.Sprintf("0x%x", r.Base),
			"size": r.Size,
		})
	}
	return out
}

func runDtbInfo(args []string) error {
	path := args[0]

	t, err := loadTree(path)
	if err != nil {
		return err
	}

	hdr := t.Header()
	reserved, err := t.ReservedRegions()
	if err != nil {
		return err
	}
	memory, err := t.MemoryRegions()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":            path,
			"version":         hdr.Version,
			"last_compatible": hdr.LastCompVersion,
			"total_size":      hdr.TotalSize,
			"boot_cpu":        hdr.BootCPUID,
			"reserved":        regionList(reserved),
			"memory":          regionList(memory),
		})
	}

	printInfo("\nDevice Tree: %s\n", path)
	printInfo("  Version: %d (last compatible %d)\n", hdr.Version, hdr.LastCompVersion)
	printInfo("  Total size: %d bytes\n", hdr.TotalSize)
	printInfo("  Structure block: offset 0x%X, %d bytes\n", hdr.StructOffset, hdr.StructSize)
	printInfo("  Strings block:   offset 0x%X, %d bytes\n", hdr.StringsOffset, hdr.StringsSize)
	printInfo("  Boot CPU: %d\n", hdr.BootCPUID)

	printInfo("\nReserved regions: %d\n", len(reserved))
	for _, r := range reserved {
		printInfo("  %s\n", r)
	}
	printInfo("\nMemory regions: %d\n", len(memory))
	for _, r := range memory {
		printInfo("  %s (0x%X bytes)\n", r, r.Size)
	}
	return nil
}

func runDtbLayout(args []string) error {
	path := args[0]

	kernelSize, err := parseSize(dtbKernelSize)
	if err != nil {
		return err
	}
	t, err := loadTree(path)
	if err != nil {
		return err
	}
	memory, err := t.MemoryRegions()
	if err != nil {
		return err
	}
	if len(memory) == 0 {
		return fmt.Errorf("device tree declares no memory regions")
	}

	region := memory[0]
	base := phys.PhysAddr(region.Base)
	if !phys.IsAligned(base) {
		return fmt.Errorf("memory region base %s not frame aligned", base)
	}
	if kernelSize > region.Size {
		return fmt.Errorf("kernel size 0x%X exceeds memory region %s", kernelSize, region)
	}

	layout := phys.AfterKernel(base+phys.PhysAddr(kernelSize), phys.PhysAddr(region.End()))
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("derived layout invalid: %w", err)
	}
	kernelFrames := uint64(layout.RangeStart-base) / phys.FrameSize

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":          path,
			"memory_base":   fmt.Sprintf("0x%x", region.Base),
			"memory_size":   region.Size,
			"kernel_size":   kernelSize,
			"kernel_frames": kernelFrames,
			"range_start":   layout.RangeStart.String(),
			"range_end":     layout.RangeEnd.String(),
			"frames":        layout.FrameCount(),
		})
	}

	printInfo("\nLayout for %s:\n", path)
	printInfo("  Memory region: %s\n", region)
	printInfo("  Kernel image:  0x%X bytes from %s\n", kernelSize, base)
	printInfo("  Managed range: [%s, %s)\n", layout.RangeStart, layout.RangeEnd)
	printInfo("  Frames:        %d managed, %d reserved for the kernel\n",
		layout.FrameCount(), kernelFrames)
	printInfo("\nMatching create command:\n")
	printInfo("  memctl create machine.pmem --base %s --kernel-frames %d --frames %d\n",
		base, kernelFrames, layout.FrameCount())
	return nil
}
