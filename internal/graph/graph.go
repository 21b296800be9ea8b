// Package graph implements the construction-time automaton: an arena of
// mutable states grown by sorted insertion and minimized incrementally.
//
// States are addressed by StateID. Every state that sorted order guarantees
// will never change again is either merged into an equivalent registered
// state or becomes the registered representative of its class, at which point
// it is handed to the Sink (packing as you go). Children are always handed
// over before their parents.
package graph

import (
	"bytes"

	"github.com/zeebo/xxh3"

	fsaerrors "github.com/tamirms/fsa/errors"
)

// Sink receives every canonical state exactly once, children first.
// The root is delivered last, from Finalize.
type Sink interface {
	PackState(g *Graph, id StateID)
}

type state struct {
	trans      TransitionList
	blob       []byte // blob states only
	isBlob     bool
	registered bool
}

// Stats describes the graph after (or during) construction.
type Stats struct {
	Keys       int // accepted keys inserted
	Registered int // canonical regular states, root excluded
	Blobs      int // distinct blobs
	Live       int // arena slots in use
	Recycled   int // states discarded as duplicates
}

// Graph is the construction graph. It is not safe for concurrent use.
type Graph struct {
	states   []state
	free     []StateID
	root     StateID
	register *Register
	blobs    map[xxh3.Uint128][]StateID
	sink     Sink

	finalized bool
	keys      int
	numBlobs  int
	recycled  int
}

type discardSink struct{}

func (discardSink) PackState(*Graph, StateID) {}

// New creates an empty graph. A nil sink discards packing callbacks.
func New(sink Sink) *Graph {
	if sink == nil {
		sink = discardSink{}
	}
	g := &Graph{
		states: make([]state, 1, 1024), // slot 0 is NoState
		blobs:  make(map[xxh3.Uint128][]StateID),
		sink:   sink,
	}
	g.register = newRegister(g)
	g.root = g.newState()
	return g
}

// Root returns the root state.
func (g *Graph) Root() StateID {
	return g.root
}

// Finalized reports whether Finalize has been called.
func (g *Graph) Finalized() bool {
	return g.finalized
}

// Transitions returns the outgoing edges of id. The slice must not be modified.
func (g *Graph) Transitions(id StateID) TransitionList {
	return g.states[id].trans
}

// IsBlob reports whether id is a blob state (the target of a FinalSymbol edge).
func (g *Graph) IsBlob(id StateID) bool {
	return g.states[id].isBlob
}

// Blob returns the payload held by a blob state.
func (g *Graph) Blob(id StateID) []byte {
	return g.states[id].blob
}

// Stats returns construction statistics.
func (g *Graph) Stats() Stats {
	return Stats{
		Keys:       g.keys,
		Registered: g.register.Len(),
		Blobs:      g.numBlobs,
		Live:       len(g.states) - 1 - len(g.free),
		Recycled:   g.recycled,
	}
}

// Insert adds key with its blob. Keys must arrive in strictly ascending byte
// order; other orders are not detected and yield an unspecified language.
// Inserting a key equal to the previous one keeps the first blob.
func (g *Graph) Insert(key, blob []byte) error {
	if g.finalized {
		return fsaerrors.ErrBuilderFinalized
	}

	// Longest prefix already present. Along the rightmost (unregistered)
	// path the matching edge is always the last one.
	s := g.root
	i := 0
	for ; i < len(key); i++ {
		last, ok := g.states[s].trans.Last()
		if !ok || last.Symbol != key[i] || g.states[last.Target].registered {
			break
		}
		s = last.Target
	}

	if i == len(key) && g.states[s].trans.IsFinal() {
		return nil
	}

	// Everything below the divergence point is closed off.
	if len(g.states[s].trans) > 0 {
		g.replaceOrRegister(s)
	}

	for ; i < len(key); i++ {
		n := g.newState()
		g.states[s].trans = append(g.states[s].trans, Transition{Symbol: key[i], Target: n})
		s = n
	}
	b := g.blobState(blob)
	g.states[s].trans = append(g.states[s].trans, Transition{Symbol: FinalSymbol, Target: b})
	g.keys++
	return nil
}

// Finalize minimizes the pending branch, hands the root to the sink and
// freezes the graph. It is idempotent.
func (g *Graph) Finalize() StateID {
	if g.finalized {
		return g.root
	}
	if len(g.states[g.root].trans) > 0 {
		g.replaceOrRegister(g.root)
	}
	g.finalized = true
	g.states[g.root].registered = true
	g.sink.PackState(g, g.root)
	return g.root
}

// replaceOrRegister canonicalizes the last child of s, depth first.
func (g *Graph) replaceOrRegister(s StateID) {
	last := len(g.states[s].trans) - 1
	child := g.states[s].trans[last].Target
	if g.states[child].registered {
		return
	}
	if len(g.states[child].trans) > 0 {
		g.replaceOrRegister(child)
	}

	if q := g.register.Find(g.states[child].trans); q != NoState {
		g.states[s].trans[last].Target = q
		g.release(child)
		return
	}
	g.register.Insert(child)
	g.states[child].registered = true
	g.sink.PackState(g, child)
}

// blobState returns the unique blob state holding blob's content.
func (g *Graph) blobState(blob []byte) StateID {
	h := xxh3.Hash128(blob)
	for _, id := range g.blobs[h] {
		if bytes.Equal(g.states[id].blob, blob) {
			return id
		}
	}
	id := g.newState()
	st := &g.states[id]
	st.blob = append([]byte{}, blob...)
	st.isBlob = true
	st.registered = true
	g.blobs[h] = append(g.blobs[h], id)
	g.numBlobs++
	return id
}

func (g *Graph) newState() StateID {
	if n := len(g.free); n > 0 {
		id := g.free[n-1]
		g.free = g.free[:n-1]
		return id
	}
	g.states = append(g.states, state{})
	return StateID(len(g.states) - 1)
}

// release returns an unregistered duplicate to the recycle list.
func (g *Graph) release(id StateID) {
	trans := g.states[id].trans[:0]
	g.states[id] = state{trans: trans}
	g.free = append(g.free, id)
	g.recycled++
}
