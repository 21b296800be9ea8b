//go:build darwin

package fsa

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserveFile sizes file to exactly size bytes, reserving disk blocks with
// F_PREALLOCATE where the filesystem supports it.
func reserveFile(file *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}
	if err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst); err != nil {
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// F_PREALLOCATE reserves space but does not set the size.
	return unix.Ftruncate(int(file.Fd()), size)
}
