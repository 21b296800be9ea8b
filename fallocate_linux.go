//go:build linux

package fsa

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserveFile sizes file to exactly size bytes, reserving disk blocks so that
// writes through a mapping cannot fault on a full disk.
func reserveFile(file *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	if err := unix.Fallocate(int(file.Fd()), 0, 0, size); err != nil {
		// Filesystems without fallocate (NFS, some FUSE mounts): size only.
		return unix.Ftruncate(int(file.Fd()), size)
	}
	return unix.Ftruncate(int(file.Fd()), size)
}
