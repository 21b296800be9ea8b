package fsa

import "iter"

// frame is one level of the depth-first walk: a state and the next symbol
// to try from it.
type frame struct {
	state uint32
	next  int
}

// Iterator enumerates accepted strings in ascending byte order. It keeps its
// position on an explicit stack, so it can be paused after any string and
// resumed, or rewound with Reset.
//
// Usage:
//
//	it := a.Iterator()
//	for it.Next() {
//	    fmt.Printf("%s\t%x\n", it.Key(), it.Data())
//	}
type Iterator struct {
	a       *Automaton
	stack   []frame
	key     []byte
	final   uint32
	started bool
	done    bool
}

// Iterator returns an iterator positioned before the first string.
func (a *Automaton) Iterator() *Iterator {
	return &Iterator{a: a}
}

// Reset rewinds the iterator to before the first string.
func (it *Iterator) Reset() {
	it.stack = it.stack[:0]
	it.key = it.key[:0]
	it.final = InvalidState
	it.started = false
	it.done = false
}

// Next advances to the next accepted string. It returns false once every
// string has been produced.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	a := it.a
	if !it.started {
		it.started = true
		s := a.Start()
		if s == InvalidState {
			it.done = true
			return false
		}
		it.stack = append(it.stack, frame{state: s, next: 1})
		if a.IsFinal(s) {
			it.final = s
			return true
		}
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		var child uint32
		for ; top.next < FinalSymbol; top.next++ {
			if child = a.Delta(top.state, byte(top.next)); child != InvalidState {
				break
			}
		}
		if child == InvalidState {
			it.stack = it.stack[:len(it.stack)-1]
			if n := len(it.stack); n > 0 {
				it.key = it.key[:n-1]
			}
			continue
		}

		it.key = append(it.key, byte(top.next))
		top.next++
		if len(it.stack) > len(a.symbols) {
			// Deeper than any acyclic path: the arrays are corrupt.
			break
		}
		it.stack = append(it.stack, frame{state: child, next: 1})
		if a.IsFinal(child) {
			it.final = child
			return true
		}
	}

	it.final = InvalidState
	it.done = true
	return false
}

// Key returns the current string. The slice is reused by Next.
func (it *Iterator) Key() []byte {
	return it.key
}

// State returns the final state of the current string.
func (it *Iterator) State() uint32 {
	return it.final
}

// Data returns the blob of the current string.
func (it *Iterator) Data() []byte {
	return it.a.Data(it.final)
}

// All returns every accepted string with its blob, in ascending order.
// Keys are reused between iterations; copy them to retain.
func (a *Automaton) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		it := a.Iterator()
		for it.Next() {
			if !yield(it.Key(), it.Data()) {
				return
			}
		}
	}
}
