//go:build !linux

package fsa

// prefaultRegion is a no-op: MADV_POPULATE_WRITE is Linux-specific.
func prefaultRegion(data []byte) {}

// adviseSequential is a no-op: FADV_SEQUENTIAL is Linux-specific.
func adviseSequential(fd int, length int64) {}
