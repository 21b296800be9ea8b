//go:build linux || darwin

package fsa

import (
	"errors"

	"golang.org/x/sys/unix"
)

// pinMapping locks a read-only mapping into RAM and hints the kernel to read
// it in. When the lock is refused for lack of privilege or memlock quota, the
// soft RLIMIT_MEMLOCK is raised to the hard limit and the lock retried once.
func pinMapping(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Mlock(data)
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOMEM) || errors.Is(err, unix.EAGAIN) {
		if raiseErr := raiseMemlockLimit(); raiseErr != nil {
			return errors.Join(err, raiseErr)
		}
		err = unix.Mlock(data)
	}
	if err != nil {
		return err
	}
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
	return nil
}

// unpinMapping releases a lock taken by pinMapping.
func unpinMapping(data []byte) {
	if len(data) > 0 {
		_ = unix.Munlock(data)
	}
}

func raiseMemlockLimit() error {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rl); err != nil {
		return err
	}
	if rl.Cur >= rl.Max {
		return unix.EPERM
	}
	rl.Cur = rl.Max
	return unix.Setrlimit(unix.RLIMIT_MEMLOCK, &rl)
}
