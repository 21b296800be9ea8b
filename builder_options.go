package fsa

import (
	"log/slog"

	"github.com/tamirms/fsa/internal/pack"
)

// BuildOption is a functional option for configuring builds.
type BuildOption func(*buildConfig)

type buildConfig struct {
	perfectHash         bool
	fixedSizeCompaction bool
	serial              uint32
	backCheck           int
	initialCells        int
	logger              *slog.Logger
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		backCheck:    pack.DefaultBackCheck,
		initialCells: pack.DefaultInitialCells,
		logger:       slog.New(slog.DiscardHandler),
	}
}

// WithPerfectHash computes perfect-hash deltas when the builder is finalized.
func WithPerfectHash() BuildOption {
	return func(c *buildConfig) {
		c.perfectHash = true
	}
}

// WithFixedSizeCompaction drops per-entry length prefixes from the blob
// buffer at finalize time if every blob has the same length. The option is
// ignored when blob lengths differ.
func WithFixedSizeCompaction() BuildOption {
	return func(c *buildConfig) {
		c.fixedSizeCompaction = true
	}
}

// WithSerial sets the opaque version tag stored in the file header.
func WithSerial(serial uint32) BuildOption {
	return func(c *buildConfig) {
		c.serial = serial
	}
}

// WithBackCheck sets how many cells behind the highest used cell the packer
// starts searching for a free base. Larger values pack denser but slower.
func WithBackCheck(cells int) BuildOption {
	return func(c *buildConfig) {
		c.backCheck = cells
	}
}

// WithInitialCells sets the initial capacity of the cell arrays.
func WithInitialCells(n int) BuildOption {
	return func(c *buildConfig) {
		c.initialCells = n
	}
}

// WithLogger sets the logger used for build statistics (Debug level).
// A nil logger discards output.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
