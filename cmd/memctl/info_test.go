package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 2, 6)

	bogus := filepath.Join(dir, "bogus.pmem")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write bogus file: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		wantJSON    bool
		wantErr     bool
		wantContain []string
	}{
		{
			name: "text output",
			path: path,
			wantContain: []string{
				"Format version: 1",
				"[0x80000000, 0x80008000)",
				"Managed: [0x80002000, 0x80008000)",
				"6 managed, 2 reserved",
			},
		},
		{
			name:     "json output",
			path:     path,
			wantJSON: true,
			wantContain: []string{
				`"base": "0x80000000"`,
				`"range_start": "0x80002000"`,
				`"frames": 6`,
				`"kernel_frames": 2`,
			},
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "nope.pmem"),
			wantErr: true,
		},
		{
			name:    "not an image file",
			path:    bogus,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = false
			jsonOut = tt.wantJSON

			output, err := captureOutput(t, func() error {
				return runInfo([]string{tt.path})
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runInfo() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}
			if tt.wantErr {
				return
			}
			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestInfoCommand_Quiet(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 0, 4)

	quiet = true
	verbose = false
	jsonOut = false
	defer func() { quiet = false }()

	output, err := captureOutput(t, func() error {
		return runInfo([]string{path})
	})
	if err != nil {
		t.Fatalf("runInfo() error = %v", err)
	}
	if output != "" {
		t.Errorf("quiet mode produced output: %q", output)
	}
}
