package fsa

import (
	"bytes"
	"fmt"
	"io"

	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/graph"
	"github.com/tamirms/fsa/internal/pack"
)

// Builder constructs a minimal automaton from keys inserted in strictly
// ascending byte order. States are minimized and packed as soon as sorted
// order proves they can no longer change, so memory stays proportional to
// the minimal automaton rather than the input.
//
// Usage:
//
//	b := fsa.NewBuilder(fsa.WithPerfectHash())
//	for _, e := range sortedEntries {
//	    if err := b.Insert(e.Key, e.Blob); err != nil { return err }
//	}
//	return b.WriteFile("dict.fsa")
//
// Unsorted input is not detected; it produces an automaton whose language is
// unspecified. A Builder is not safe for concurrent use.
type Builder struct {
	cfg    *buildConfig
	graph  *graph.Graph
	packer *pack.Packer

	finalized  bool
	graphStats graph.Stats
	img        *image // encoded form, built on first use after Finalize
}

// BuildStats describes a finalized (or in-progress) build.
type BuildStats struct {
	Keys          int // accepted keys
	States        int // packed states
	Recycled      int // states merged away by minimization
	Cells         int
	UsedCells     int
	DataBytes     int
	DistinctBlobs int
	FixedSize     int // blob entry length when compacted, else -1
	PerfectHash   bool
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...BuildOption) *Builder {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	p := pack.New(cfg.backCheck, cfg.initialCells)
	return &Builder{
		cfg:    cfg,
		graph:  graph.New(p),
		packer: p,
	}
}

// Insert adds key with its blob. Keys must be inserted in strictly ascending
// byte order. Re-inserting the most recent key keeps its first blob.
// Keys may not contain the reserved symbols 0x00 and 0xFF.
func (b *Builder) Insert(key []byte, blob Blob) error {
	if b.finalized {
		return fsaerrors.ErrBuilderFinalized
	}
	if bytes.IndexByte(key, 0) >= 0 || bytes.IndexByte(key, FinalSymbol) >= 0 {
		return fsaerrors.ErrReservedSymbol
	}
	return b.graph.Insert(key, []byte(blob.s))
}

// InsertString is Insert for string keys.
func (b *Builder) InsertString(key string, blob Blob) error {
	return b.Insert([]byte(key), blob)
}

// Finalize minimizes the remaining branch, resolves every packed reference
// and applies the configured post-passes (fixed-size compaction, perfect
// hash). Calling it again is a no-op; inserts afterwards are rejected.
func (b *Builder) Finalize() error {
	if b.finalized {
		return nil
	}

	root := b.graph.Finalize()
	if err := b.packer.Finalize(root); err != nil {
		return fmt.Errorf("pack automaton: %w", err)
	}
	b.graphStats = b.graph.Stats()
	b.graph = nil
	b.finalized = true

	if b.cfg.fixedSizeCompaction {
		fixed, err := b.packer.CompactFixedSize()
		if err != nil {
			return fmt.Errorf("compact blobs: %w", err)
		}
		if !fixed {
			b.cfg.logger.Debug("fixed-size compaction skipped, blob lengths differ")
		}
	}
	if b.cfg.perfectHash {
		if err := b.packer.AddPerfectHash(); err != nil {
			return fmt.Errorf("perfect hash: %w", err)
		}
	}

	st := b.Stats()
	b.cfg.logger.Debug("automaton finalized",
		"keys", st.Keys,
		"states", st.States,
		"recycled", st.Recycled,
		"cells", st.Cells,
		"used_cells", st.UsedCells,
		"data_bytes", st.DataBytes,
		"distinct_blobs", st.DistinctBlobs,
		"fixed_size", st.FixedSize,
		"perfect_hash", st.PerfectHash,
	)
	return nil
}

// AddPerfectHash computes the order-preserving perfect hash of a finalized
// automaton. It is a no-op when the hash already exists.
func (b *Builder) AddPerfectHash() error {
	if !b.finalized {
		return fsaerrors.ErrNotFinalized
	}
	if err := b.packer.AddPerfectHash(); err != nil {
		return err
	}
	b.img = nil
	return nil
}

// Stats returns build statistics.
func (b *Builder) Stats() BuildStats {
	gs := b.graphStats
	if b.graph != nil {
		gs = b.graph.Stats()
	}
	ps := b.packer.Stats()
	out, err := b.packer.Output()
	return BuildStats{
		Keys:          gs.Keys,
		States:        ps.States,
		Recycled:      gs.Recycled,
		Cells:         ps.Cells,
		UsedCells:     ps.UsedCells,
		DataBytes:     ps.DataBytes,
		DistinctBlobs: ps.DistinctBlobs,
		FixedSize:     ps.FixedSize,
		PerfectHash:   err == nil && out.PerfectHash != nil,
	}
}

// image finalizes the builder and returns its encoded form.
func (b *Builder) image() (*image, error) {
	if err := b.Finalize(); err != nil {
		return nil, err
	}
	if b.img == nil {
		out, err := b.packer.Output()
		if err != nil {
			return nil, err
		}
		b.img = newImage(out, b.cfg.serial)
	}
	return b.img, nil
}

// Automaton finalizes the builder and returns a reader over the packed
// arrays without writing a file. The reader shares memory with the builder.
func (b *Builder) Automaton() (*Automaton, error) {
	img, err := b.image()
	if err != nil {
		return nil, err
	}
	return newAutomaton(img, AccessRead, b.cfg.logger), nil
}

// WriteTo finalizes the builder and writes the automaton file to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	img, err := b.image()
	if err != nil {
		return 0, err
	}
	return img.WriteTo(w)
}

// WriteFile finalizes the builder and writes the automaton to path. On
// failure no partial file is left behind.
func (b *Builder) WriteFile(path string) error {
	img, err := b.image()
	if err != nil {
		return err
	}
	if err := img.writeFile(path); err != nil {
		return err
	}
	b.cfg.logger.Debug("automaton written", "path", path, "bytes", img.fileSize())
	return nil
}
