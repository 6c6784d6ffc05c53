//go:build darwin

package phys

import "golang.org/x/sys/unix"

// fdatasync performs file descriptor sync.
//
// macOS doesn't have fdatasync, use fsync.
func fdatasync(fd int) error {
	return unix.Fsync(fd)
}
