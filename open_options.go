package fsa

import "log/slog"

// AccessMethod selects how Open brings an automaton file into memory.
type AccessMethod int

const (
	// AccessRead reads the whole file into memory owned by the Automaton.
	AccessRead AccessMethod = iota

	// AccessMmap maps the file read-only. Processes mapping the same file
	// share its physical pages.
	AccessMmap

	// AccessMmapLocked maps the file and asks the OS to keep it resident.
	// If locking is not permitted, the memlock limit is raised once and the
	// lock retried; on failure the mapping stays unlocked.
	AccessMmapLocked
)

// DefaultAccessMethod is the access method used when Open is given no
// WithAccessMethod option.
const DefaultAccessMethod = AccessMmap

// String returns the access method name.
func (m AccessMethod) String() string {
	switch m {
	case AccessRead:
		return "read"
	case AccessMmap:
		return "mmap"
	case AccessMmapLocked:
		return "mmap-locked"
	default:
		return "unknown"
	}
}

// ParseAccessMethod parses the names returned by AccessMethod.String.
func ParseAccessMethod(s string) (AccessMethod, bool) {
	for _, m := range []AccessMethod{AccessRead, AccessMmap, AccessMmapLocked} {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// OpenOption is a functional option for configuring Open.
type OpenOption func(*openConfig)

type openConfig struct {
	access         AccessMethod
	verifyChecksum bool
	logger         *slog.Logger
}

func defaultOpenConfig() *openConfig {
	return &openConfig{
		access:         DefaultAccessMethod,
		verifyChecksum: true,
		logger:         slog.New(slog.DiscardHandler),
	}
}

// WithAccessMethod selects how the file is loaded.
func WithAccessMethod(m AccessMethod) OpenOption {
	return func(c *openConfig) {
		c.access = m
	}
}

// WithChecksumVerification controls whether the checksum of files with a
// checksum-bearing version is validated at load (default true). Skipping it
// avoids touching every page of a large mapped file up front.
func WithChecksumVerification(verify bool) OpenOption {
	return func(c *openConfig) {
		c.verifyChecksum = verify
	}
}

// WithOpenLogger sets the logger used to report load fallbacks.
// A nil logger discards output.
func WithOpenLogger(l *slog.Logger) OpenOption {
	return func(c *openConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
