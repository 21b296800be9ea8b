package fsa

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/encoding"
	"github.com/tamirms/fsa/internal/graph"
)

const (
	// FinalSymbol is the reserved symbol tagging a final state's blob cell.
	FinalSymbol = graph.FinalSymbol

	// InvalidState is the sentinel returned by failed transitions.
	InvalidState = uint32(0)
)

// Automaton is a read-only packed automaton.
//
// States are base indexes into the cell arrays. Query primitives never fail:
// a missing transition yields InvalidState, and a zero-value or closed
// Automaton behaves like the empty automaton.
//
// Thread Safety:
// - All query methods, iterators and cursors are safe for concurrent use
// - Close is NOT safe to call concurrently with queries
// - After Close returns, the Automaton answers every query with a sentinel
type Automaton struct {
	// Memory map (nil in read mode and for builder-backed automata)
	mmap mmap.MMap
	raw  []byte

	header      header
	symbols     []byte
	states      []byte // uint32_le per cell
	data        []byte
	perfectHash []byte // uint32_le per cell, nil without perfect hash

	access AccessMethod
	pinned bool
	logger *slog.Logger

	closed atomic.Bool
}

// Stats holds automaton statistics.
type Stats struct {
	Version       uint32
	Serial        uint32
	Checksum      uint32
	Cells         int
	UsedCells     int
	Start         uint32
	DataBytes     int
	DataType      DataType
	FixedDataSize int
	PerfectHash   bool
	Access        AccessMethod
	Pinned        bool
	FileSize      int64
}

// Open loads the automaton file at path.
// The file descriptor is closed before Open returns.
func Open(path string, opts ...OpenOption) (*Automaton, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open automaton file: %w", err)
	}
	defer file.Close()
	return OpenFile(file, opts...)
}

// OpenFile loads an automaton from f using the configured access method.
// The caller is responsible for closing f; mapped automata stay valid after
// f is closed.
func OpenFile(f *os.File, opts ...OpenOption) (*Automaton, error) {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat automaton file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < headerSize {
		return nil, fsaerrors.ErrTruncatedFile
	}

	a := &Automaton{access: cfg.access, logger: cfg.logger}
	switch cfg.access {
	case AccessRead:
		adviseSequential(int(f.Fd()), fileSize)
		buf := make([]byte, fileSize)
		if _, err := io.ReadFull(io.NewSectionReader(f, 0, fileSize), buf); err != nil {
			return nil, fmt.Errorf("read automaton file: %w", err)
		}
		a.raw = buf

	case AccessMmap, AccessMmapLocked:
		mm, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("mmap automaton file: %w", err)
		}
		a.mmap = mm
		a.raw = []byte(mm)
		if cfg.access == AccessMmapLocked {
			if err := pinMapping(a.raw); err != nil {
				cfg.logger.Warn("locking automaton mapping failed, continuing unlocked",
					"file", f.Name(), "bytes", fileSize, "error", err)
			} else {
				a.pinned = true
			}
		}

	default:
		return nil, fsaerrors.ErrInvalidAccessMethod
	}

	if err := a.initFromData(cfg.verifyChecksum); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	cfg.logger.Debug("automaton opened",
		"file", f.Name(),
		"access", cfg.access,
		"pinned", a.pinned,
		"cells", len(a.symbols),
		"version", a.header.Version)
	return a, nil
}

// OpenBytes loads an automaton from an in-memory file image. The arrays are
// queried in place; the caller must not modify data while the Automaton is
// in use. The access method option is ignored.
func OpenBytes(data []byte, opts ...OpenOption) (*Automaton, error) {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	a := &Automaton{raw: data, access: AccessRead, logger: cfg.logger}
	if err := a.initFromData(cfg.verifyChecksum); err != nil {
		return nil, err
	}
	return a, nil
}

// newAutomaton wraps a builder's encoded image without serializing it.
func newAutomaton(img *image, access AccessMethod, logger *slog.Logger) *Automaton {
	return &Automaton{
		header:      img.header,
		symbols:     img.symbols,
		states:      img.states,
		data:        img.data,
		perfectHash: img.perfectHash,
		access:      access,
		logger:      logger,
	}
}

// initFromData parses the header and slices the arrays out of a.raw.
func (a *Automaton) initFromData(verifyChecksum bool) error {
	hdr, err := decodeHeader(a.raw)
	if err != nil {
		return err
	}
	if uint64(len(a.raw)) < hdr.fileSize() {
		return fsaerrors.ErrTruncatedFile
	}
	if hdr.DataType == DataFixed && hdr.FixedDataSize > 0 && hdr.DataSize%hdr.FixedDataSize != 0 {
		return fsaerrors.ErrCorruptedAutomaton
	}

	size := uint64(hdr.Size)
	off := uint64(headerSize)
	a.symbols = a.raw[off : off+size : off+size]
	off += size
	a.states = a.raw[off : off+size*stateSize : off+size*stateSize]
	off += size * stateSize
	a.data = a.raw[off : off+uint64(hdr.DataSize) : off+uint64(hdr.DataSize)]
	off += uint64(hdr.DataSize)
	if hdr.HasPerfectHash {
		a.perfectHash = a.raw[off : off+size*stateSize : off+size*stateSize]
	}
	a.header = *hdr

	if verifyChecksum && hdr.verifiesChecksum() {
		if sum := checksum(a.symbols, a.states, a.data, a.perfectHash); sum != hdr.Checksum {
			return fsaerrors.ErrChecksumFailed
		}
	}
	return nil
}

// Close releases the mapping (if any). It is idempotent.
func (a *Automaton) Close() error {
	if a.closed.Swap(true) {
		return nil // Already closed
	}

	if a.pinned {
		unpinMapping(a.raw)
		a.pinned = false
	}
	a.raw = nil
	a.symbols = nil
	a.states = nil
	a.data = nil
	a.perfectHash = nil
	if a.mmap != nil {
		mm := a.mmap
		a.mmap = nil
		return mm.Unmap()
	}
	return nil
}

// Start returns the base of the start state, or InvalidState for a closed or
// zero-value automaton.
func (a *Automaton) Start() uint32 {
	if len(a.symbols) == 0 {
		return InvalidState
	}
	return a.header.Start
}

// cell returns the index of state's cell for symbol if it carries that tag.
func (a *Automaton) cell(state uint32, symbol byte) (uint32, bool) {
	if state == InvalidState {
		return 0, false
	}
	c := uint64(state) + uint64(symbol)
	if c >= uint64(len(a.symbols)) || a.symbols[c] != symbol {
		return 0, false
	}
	return uint32(c), true
}

// Delta returns the state reached from state on symbol, or InvalidState.
// The reserved symbols 0x00 and FinalSymbol never lead anywhere.
func (a *Automaton) Delta(state uint32, symbol byte) uint32 {
	if symbol == 0 || symbol == FinalSymbol {
		return InvalidState
	}
	c, ok := a.cell(state, symbol)
	if !ok {
		return InvalidState
	}
	return encoding.Uint32At(a.states, c)
}

// IsFinal reports whether state accepts.
func (a *Automaton) IsFinal(state uint32) bool {
	_, ok := a.cell(state, FinalSymbol)
	return ok
}

// DataOffset returns the blob reference stored in a final state: a byte
// offset into the blob buffer. ok is false if state is not final.
func (a *Automaton) DataOffset(state uint32) (offset uint32, ok bool) {
	c, ok := a.cell(state, FinalSymbol)
	if !ok {
		return 0, false
	}
	return encoding.Uint32At(a.states, c), true
}

// blob returns the payload at a data offset, or ok=false when the offset
// points outside the buffer.
func (a *Automaton) blob(off uint32) ([]byte, bool) {
	start := uint64(off)
	var n uint64
	if a.header.DataType == DataFixed {
		n = uint64(a.header.FixedDataSize)
	} else {
		if start+4 > uint64(len(a.data)) {
			return nil, false
		}
		n = uint64(encoding.Uint32At(a.data[start:], 0))
		start += 4
	}
	if start+n > uint64(len(a.data)) {
		return nil, false
	}
	return a.data[start : start+n : start+n], true
}

// DataSize returns the blob length of a final state, or -1 if state is not
// final.
func (a *Automaton) DataSize(state uint32) int {
	off, ok := a.DataOffset(state)
	if !ok {
		return -1
	}
	b, ok := a.blob(off)
	if !ok {
		return -1
	}
	return len(b)
}

// Data returns the blob of a final state, or nil if state is not final.
// The slice aliases the automaton's memory and must not be modified.
func (a *Automaton) Data(state uint32) []byte {
	off, ok := a.DataOffset(state)
	if !ok {
		return nil
	}
	b, _ := a.blob(off)
	return b
}

// HasPerfectHash reports whether perfect-hash deltas are present.
func (a *Automaton) HasPerfectHash() bool {
	return a.perfectHash != nil
}

// HashDelta returns the perfect-hash contribution of the transition from
// state on symbol, or 0 if there is no such transition or no perfect hash.
func (a *Automaton) HashDelta(state uint32, symbol byte) uint32 {
	if a.perfectHash == nil || symbol == 0 || symbol == FinalSymbol {
		return 0
	}
	c, ok := a.cell(state, symbol)
	if !ok {
		return 0
	}
	return encoding.Uint32At(a.perfectHash, c)
}

// Lookup walks key from the start state. It returns the key's blob and true
// if the automaton accepts key.
func (a *Automaton) Lookup(key []byte) ([]byte, bool) {
	s := a.Start()
	for _, sym := range key {
		if s = a.Delta(s, sym); s == InvalidState {
			return nil, false
		}
	}
	if !a.IsFinal(s) {
		return nil, false
	}
	return a.Data(s), true
}

// Hash returns the perfect hash of key: its rank among all accepted strings
// in ascending order. ok is false if key is not accepted or the automaton
// has no perfect hash.
func (a *Automaton) Hash(key []byte) (hash uint32, ok bool) {
	if a.perfectHash == nil {
		return 0, false
	}
	s := a.Start()
	for _, sym := range key {
		hash += a.HashDelta(s, sym)
		if s = a.Delta(s, sym); s == InvalidState {
			return 0, false
		}
	}
	if !a.IsFinal(s) {
		return 0, false
	}
	return hash, true
}

// RevLookup returns the accepted string whose perfect hash is hash. It
// returns "" and false if the automaton has no perfect hash or hash is out
// of range.
//
// At every state the walk takes the highest transition whose delta does not
// exceed the residual hash; a final state consumes rank 0 of its subtree.
func (a *Automaton) RevLookup(hash uint32) (string, bool) {
	if a.perfectHash == nil {
		return "", false
	}
	s := a.Start()
	if s == InvalidState {
		return "", false
	}

	var key []byte
	residual := hash
	// A path never revisits a state, so it has fewer steps than cells.
	for range len(a.symbols) {
		if residual == 0 && a.IsFinal(s) {
			return string(key), true
		}
		var (
			best     uint32
			bestSym  byte
			bestNext uint32
		)
		for sym := 1; sym < FinalSymbol; sym++ {
			c, ok := a.cell(s, byte(sym))
			if !ok {
				continue
			}
			d := encoding.Uint32At(a.perfectHash, c)
			if d > residual {
				break
			}
			best, bestSym, bestNext = d, byte(sym), encoding.Uint32At(a.states, c)
		}
		if bestSym == 0 {
			return "", false
		}
		key = append(key, bestSym)
		residual -= best
		s = bestNext
	}
	return "", false
}

// Size returns the number of cells.
func (a *Automaton) Size() int {
	return len(a.symbols)
}

// Version returns the file format version.
func (a *Automaton) Version() uint32 {
	return a.header.Version
}

// Serial returns the caller-assigned serial number.
func (a *Automaton) Serial() uint32 {
	return a.header.Serial
}

// DataType returns the blob layout.
func (a *Automaton) DataType() DataType {
	return a.header.DataType
}

// Stats returns statistics for the automaton.
func (a *Automaton) Stats() *Stats {
	used := 0
	for _, sym := range a.symbols {
		if sym != 0 {
			used++
		}
	}
	return &Stats{
		Version:       a.header.Version,
		Serial:        a.header.Serial,
		Checksum:      a.header.Checksum,
		Cells:         len(a.symbols),
		UsedCells:     used,
		Start:         a.Start(),
		DataBytes:     len(a.data),
		DataType:      a.header.DataType,
		FixedDataSize: int(a.header.FixedDataSize),
		PerfectHash:   a.perfectHash != nil,
		Access:        a.access,
		Pinned:        a.pinned,
		FileSize:      int64(a.header.fileSize()),
	}
}

// Verify recomputes the checksum of the loaded arrays, regardless of the
// format version or the checksum option used at load time.
func (a *Automaton) Verify() error {
	if a.closed.Load() {
		return fsaerrors.ErrAutomatonClosed
	}
	if a.header.Magic != magic {
		return fsaerrors.ErrNotInitialized
	}
	if checksum(a.symbols, a.states, a.data, a.perfectHash) != a.header.Checksum {
		return fsaerrors.ErrChecksumFailed
	}
	return nil
}

// GetStats returns statistics for an automaton file.
func GetStats(path string, opts ...OpenOption) (*Stats, error) {
	a, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return a.Stats(), a.Close()
}
