//go:build !linux && !darwin

package fsa

import "errors"

var errPinUnsupported = errors.New("fsa: locking mappings is not supported on this platform")

// pinMapping always fails here; callers fall back to an unlocked mapping.
func pinMapping(data []byte) error {
	return errPinUnsupported
}

func unpinMapping(data []byte) {}
