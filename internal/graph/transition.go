package graph

// FinalSymbol is the reserved symbol whose transition marks a state as
// accepting. Its target is a blob state rather than a regular state.
const FinalSymbol = 0xFF

// StateID addresses a state in the graph arena.
// NoState (0) is never a valid state.
type StateID uint32

// NoState is the invalid state handle.
const NoState StateID = 0

// Transition is one outgoing edge of a construction-time state.
type Transition struct {
	Symbol byte
	Target StateID
}

// TransitionList holds the outgoing edges of a state in insertion order.
//
// Sorted insertion appends edges in ascending symbol order, except for the
// FinalSymbol edge which is always added first (the shorter key sorts first),
// so the order is canonical for equivalent states.
type TransitionList []Transition

// Last returns the most recently added transition.
func (l TransitionList) Last() (Transition, bool) {
	if len(l) == 0 {
		return Transition{}, false
	}
	return l[len(l)-1], true
}

// Find returns the target of the transition on symbol, or NoState.
func (l TransitionList) Find(symbol byte) StateID {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Symbol == symbol {
			return l[i].Target
		}
	}
	return NoState
}

// IsFinal reports whether the list contains a FinalSymbol transition.
func (l TransitionList) IsFinal() bool {
	return l.Find(FinalSymbol) != NoState
}

// Equal reports whether both lists have the same symbols and targets in the
// same order. Targets are canonical at comparison time, so identity of
// targets is structural equivalence of the subtrees.
func (l TransitionList) Equal(o TransitionList) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}
