package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joshuapare/framekit/phys"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Create, inspect, and exercise physical memory images",
	Long: `memctl works with physical memory images: files that model a machine's
RAM the way a frame allocator sees it, including the on-disk free list
threaded through unused frames and the fill patterns that mark frame
state.

Images are created with a bootstrapped frame pool, inspected frame by
frame, and stress-tested with concurrent allocation workloads. The dtb
subcommands read flattened device tree blobs to derive memory layouts
for new images.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// printInfo prints informational output unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

// printError prints error output to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// printVerbose prints output only when verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Printf(format, args...)
	}
}

// printJSON marshals v with indentation and prints it to stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// parseAddr parses a physical address in any Go literal base, so both
// 0x80000000 and plain decimal work.
func parseAddr(s string) (phys.PhysAddr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return phys.PhysAddr(v), nil
}

// parseSize parses a byte count in any Go literal base.
func parseSize(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return v, nil
}
