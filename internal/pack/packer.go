// Package pack converts a minimized construction graph into the dense cell
// arrays of the automaton file format.
//
// Every state gets a base index b. Its transition on symbol s lives in cell
// b+s, tagged with s; the cell holds the target's base, or for FinalSymbol a
// byte offset into the blob buffer. Bases are unique per state, and a base is
// only chosen where all of the state's cells are still free, so a tag match
// at b+s proves the transition belongs to the state at b.
package pack

import (
	"slices"

	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/bits"
	"github.com/tamirms/fsa/internal/graph"
)

const (
	// FinalSymbol tags the cell holding a final state's blob offset.
	FinalSymbol = graph.FinalSymbol

	// DefaultBackCheck is how far behind the highest used cell the base
	// search starts. Larger windows pack denser and build slower.
	DefaultBackCheck = 512

	// DefaultInitialCells is the starting capacity of the cell arrays.
	DefaultInitialCells = 1 << 12

	// alphabetSize bounds the cell offset of any transition from its base.
	alphabetSize = 256
)

// Stats describes the packed arrays.
type Stats struct {
	States        int // packed states, root included
	Cells         int // array length
	UsedCells     int // cells carrying a symbol tag
	DataBytes     int // blob buffer length
	DistinctBlobs int
	FixedSize     int // entry length when compacted, else -1
}

// Packer assigns base indexes to canonical states and owns the cell arrays.
// It implements graph.Sink, so states are packed as soon as they are
// registered. Not safe for concurrent use.
type Packer struct {
	symbols []byte
	// pending holds graph.StateID targets (or blob offsets for FinalSymbol
	// cells) until Finalize resolves them into states.
	pending []uint32
	bases   []uint32 // graph.StateID -> base, 0 if not packed
	taken   bits.Set // bases already assigned to a state

	backCheck int
	maxCell   int
	maxBase   int
	numStates int
	usedCells int
	blobs     *blobStore
	err       error
	scratch   []byte

	finalized   bool
	start       uint32
	states      []uint32
	perfectHash []uint32
	fixedSize   int
}

// New returns an empty packer. backCheck and initialCells fall back to the
// defaults when not positive.
func New(backCheck, initialCells int) *Packer {
	if backCheck <= 0 {
		backCheck = DefaultBackCheck
	}
	if initialCells <= alphabetSize {
		initialCells = DefaultInitialCells
	}
	return &Packer{
		symbols:   make([]byte, initialCells),
		pending:   make([]uint32, initialCells),
		backCheck: backCheck,
		blobs:     newBlobStore(),
		fixedSize: -1,
	}
}

// PackState implements graph.Sink. The first packing error is kept and
// reported by Finalize.
func (p *Packer) PackState(g *graph.Graph, id graph.StateID) {
	if err := p.Pack(g, id); err != nil && p != nil && p.err == nil {
		p.err = err
	}
}

// Pack assigns a base to state id and writes its transitions.
// It fails without writing anything on a nil or finalized packer.
func (p *Packer) Pack(g *graph.Graph, id graph.StateID) error {
	if p == nil || p.symbols == nil {
		return fsaerrors.ErrNotInitialized
	}
	if p.finalized {
		return fsaerrors.ErrBuilderFinalized
	}

	trans := g.Transitions(id)
	var base int
	if len(trans) == 0 {
		base = p.getEmptyCell()
	} else {
		syms := p.scratch[:0]
		for _, t := range trans {
			syms = append(syms, t.Symbol)
		}
		slices.Sort(syms)
		p.scratch = syms
		base = p.findBase(syms)

		for _, t := range trans {
			cell := base + int(t.Symbol)
			if p.symbols[cell] == 0 {
				p.usedCells++
			}
			p.symbols[cell] = t.Symbol
			if t.Symbol == FinalSymbol {
				p.pending[cell] = p.blobs.pack(g.Blob(t.Target))
			} else {
				p.pending[cell] = uint32(t.Target)
			}
			p.maxCell = max(p.maxCell, cell)
		}
	}

	p.taken.Add(base)
	p.maxBase = max(p.maxBase, base)
	p.setBase(id, uint32(base))
	p.numStates++
	return nil
}

// searchStart positions the scan slightly behind the highest used cell.
func (p *Packer) searchStart() int {
	return max(1, p.maxCell-p.backCheck)
}

// getEmptyCell finds a free cell to serve as the base of a state without
// transitions.
func (p *Packer) getEmptyCell() int {
	for b := p.searchStart(); ; b++ {
		p.ensure(b + 1)
		if !p.taken.Has(b) && p.symbols[b] == 0 {
			return b
		}
	}
}

// findBase finds the first base at or after the search start whose cells
// for every symbol in syms are free. Base 0 is never used: it is the invalid
// state.
func (p *Packer) findBase(syms []byte) int {
	for b := p.searchStart(); ; b++ {
		p.ensure(b + alphabetSize)
		if p.taken.Has(b) {
			continue
		}
		free := true
		for _, s := range syms {
			if p.symbols[b+int(s)] != 0 {
				free = false
				break
			}
		}
		if free {
			return b
		}
	}
}

// ensure grows the cell arrays geometrically to hold at least n cells.
func (p *Packer) ensure(n int) {
	if n <= len(p.symbols) {
		return
	}
	size := max(2*len(p.symbols), n)
	p.symbols = append(p.symbols, make([]byte, size-len(p.symbols))...)
	p.pending = append(p.pending, make([]uint32, size-len(p.pending))...)
}

func (p *Packer) setBase(id graph.StateID, base uint32) {
	if int(id) >= len(p.bases) {
		p.bases = append(p.bases, make([]uint32, max(int(id)+1, 2*len(p.bases))-len(p.bases))...)
	}
	p.bases[id] = base
}

// Finalize resolves every pending reference to its definitive base and trims
// the arrays. root must already be packed. Finalize is idempotent.
func (p *Packer) Finalize(root graph.StateID) error {
	if p == nil || p.symbols == nil {
		return fsaerrors.ErrNotInitialized
	}
	if p.err != nil {
		return p.err
	}
	if p.finalized {
		return nil
	}
	if int(root) >= len(p.bases) || p.bases[root] == 0 {
		return fsaerrors.ErrNotFinalized
	}

	size := max(p.maxCell, p.maxBase) + 1
	p.start = p.bases[root]
	p.symbols = p.symbols[:size:size]
	p.states = make([]uint32, size)
	for i, sym := range p.symbols {
		switch sym {
		case 0:
		case FinalSymbol:
			p.states[i] = p.pending[i]
		default:
			p.states[i] = p.bases[p.pending[i]]
		}
	}
	p.pending = nil
	p.bases = nil
	p.finalized = true
	return nil
}

// CompactFixedSize rewrites the blob buffer without length prefixes when
// every stored blob has the same length, remapping all final cells. It
// reports whether the automaton is in fixed-size form afterwards.
func (p *Packer) CompactFixedSize() (bool, error) {
	if !p.finalized {
		return false, fsaerrors.ErrNotFinalized
	}
	if p.fixedSize >= 0 {
		return true, nil
	}
	entryLen, ok := p.blobs.compact()
	if !ok {
		return false, nil
	}
	for i, sym := range p.symbols {
		if sym == FinalSymbol {
			p.states[i] = fixedOffset(p.states[i], entryLen)
		}
	}
	p.fixedSize = entryLen
	return true, nil
}

// Start returns the base of the root state (valid after Finalize).
func (p *Packer) Start() uint32 {
	return p.start
}

// Stats returns packing statistics.
func (p *Packer) Stats() Stats {
	return Stats{
		States:        p.numStates,
		Cells:         len(p.symbols),
		UsedCells:     p.usedCells,
		DataBytes:     len(p.blobs.data),
		DistinctBlobs: p.blobs.count,
		FixedSize:     p.fixedSize,
	}
}

// Output is the packed automaton, ready to be encoded or queried.
type Output struct {
	Symbols     []byte
	States      []uint32
	Data        []byte
	PerfectHash []uint32 // nil unless AddPerfectHash ran
	Start       uint32
	FixedSize   int // -1 for variable-length blobs
}

// Output returns the finalized arrays. The slices are shared with the packer.
func (p *Packer) Output() (Output, error) {
	if !p.finalized {
		return Output{}, fsaerrors.ErrNotFinalized
	}
	return Output{
		Symbols:     p.symbols,
		States:      p.states,
		Data:        p.blobs.data,
		PerfectHash: p.perfectHash,
		Start:       p.start,
		FixedSize:   p.fixedSize,
	}, nil
}
