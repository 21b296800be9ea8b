//go:build !linux && !darwin

package fsa

import "os"

// reserveFile sizes file to exactly size bytes. Disk blocks may not be
// reserved on this platform.
func reserveFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
