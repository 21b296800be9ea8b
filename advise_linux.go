//go:build linux

package fsa

import "golang.org/x/sys/unix"

// MADV_POPULATE_WRITE was added in Linux 5.14.
// On older kernels, madvise returns EINVAL which we ignore.
const madvPopulateWrite = 23

// prefaultRegion asks the kernel to populate a writable mapping up front so
// the encoder does not take a page fault per 4 KiB. Best-effort.
func prefaultRegion(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, madvPopulateWrite)
}

// adviseSequential hints that a file is about to be read front to back.
// Best-effort: errors are silently ignored.
func adviseSequential(fd int, length int64) {
	_ = unix.Fadvise(fd, 0, length, unix.FADV_SEQUENTIAL)
}
