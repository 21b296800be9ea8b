package pack

import (
	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/bits"
)

// AddPerfectHash computes, for every live transition cell, the number of
// accepted strings that sort before any string reached through it from its
// source state. Summing these deltas along an accepting path yields the
// string's rank in [0, N).
//
// Shared subtrees are counted once: totals are memoized per base, which keeps
// the work linear in the number of states rather than the number of strings.
// It is a no-op when already computed.
func (p *Packer) AddPerfectHash() error {
	if !p.finalized {
		return fsaerrors.ErrNotFinalized
	}
	if p.perfectHash != nil {
		return nil
	}
	h := &hashBuilder{
		symbols: p.symbols,
		states:  p.states,
		deltas:  make([]uint32, len(p.symbols)),
		totals:  make([]uint32, len(p.symbols)),
	}
	h.total(p.start)
	p.perfectHash = h.deltas
	return nil
}

type hashBuilder struct {
	symbols []byte
	states  []uint32
	deltas  []uint32
	totals  []uint32
	done    bits.Set
}

// total returns the number of strings accepted from state s.
func (h *hashBuilder) total(s uint32) uint32 {
	if h.done.Has(int(s)) {
		return h.totals[s]
	}
	size := uint32(len(h.symbols))
	var count uint32
	if f := s + FinalSymbol; f < size && h.symbols[f] == FinalSymbol {
		count = 1
	}
	for sym := uint32(1); sym < FinalSymbol; sym++ {
		c := s + sym
		if c >= size {
			break
		}
		if h.symbols[c] != byte(sym) {
			continue
		}
		h.deltas[c] = count
		count += h.total(h.states[c])
	}
	h.totals[s] = count
	h.done.Add(int(s))
	return count
}
