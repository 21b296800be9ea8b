// Package errors defines all exported error sentinels for the fsa library.
//
// This is the single source of truth for error values. Both the top-level
// fsa package and internal packages import from here, ensuring errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrBuilderFinalized = errors.New("fsa: builder is finalized")
	ErrNotInitialized   = errors.New("fsa: not initialized")
	ErrNotFinalized     = errors.New("fsa: automaton is not finalized")
	ErrNoPerfectHash    = errors.New("fsa: automaton has no perfect hash")
	ErrReservedSymbol   = errors.New("fsa: key contains a reserved symbol (0x00 or 0xFF)")
)

// Load errors
var (
	ErrInvalidMagic        = errors.New("fsa: invalid magic number")
	ErrInvalidVersion      = errors.New("fsa: unsupported version")
	ErrChecksumFailed      = errors.New("fsa: checksum verification failed")
	ErrTruncatedFile       = errors.New("fsa: automaton file is truncated")
	ErrCorruptedAutomaton  = errors.New("fsa: automaton data is corrupted")
	ErrInvalidAccessMethod = errors.New("fsa: unknown access method")
)

// Query errors
var (
	ErrAutomatonClosed = errors.New("fsa: automaton is closed")
)
