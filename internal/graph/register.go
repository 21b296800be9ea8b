package graph

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Register is the minimization map: transition-list content to the canonical
// state owning that content.
//
// Lookups hash the content with xxHash64 and fall back to Equal on the
// bucket, so two states collide only if their edges are identical. Keys are
// never addresses, which keeps the register independent of arena layout.
type Register struct {
	g       *Graph
	buckets map[uint64][]StateID
	scratch []byte
	size    int
}

func newRegister(g *Graph) *Register {
	return &Register{
		g:       g,
		buckets: make(map[uint64][]StateID),
	}
}

// hash returns the content hash of list.
func (r *Register) hash(list TransitionList) uint64 {
	buf := r.scratch[:0]
	for _, t := range list {
		buf = append(buf, t.Symbol)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Target))
	}
	r.scratch = buf
	return xxhash.Sum64(buf)
}

// Find returns the registered state equivalent to list, or NoState.
func (r *Register) Find(list TransitionList) StateID {
	for _, id := range r.buckets[r.hash(list)] {
		if r.g.states[id].trans.Equal(list) {
			return id
		}
	}
	return NoState
}

// Insert records id as the canonical representative of its content.
// The state's transitions must not change afterwards.
func (r *Register) Insert(id StateID) {
	h := r.hash(r.g.states[id].trans)
	r.buckets[h] = append(r.buckets[h], id)
	r.size++
}

// Len returns the number of registered states.
func (r *Register) Len() int {
	return r.size
}
