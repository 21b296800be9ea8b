package graph

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	fsaerrors "github.com/tamirms/fsa/errors"
)

// recordingSink remembers the order in which canonical states are delivered.
type recordingSink struct {
	order  []StateID
	packed map[StateID]bool
	dupes  int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{packed: make(map[StateID]bool)}
}

func (r *recordingSink) PackState(_ *Graph, id StateID) {
	if r.packed[id] {
		r.dupes++
	}
	r.packed[id] = true
	r.order = append(r.order, id)
}

func build(t *testing.T, sink Sink, keys ...string) *Graph {
	t.Helper()
	g := New(sink)
	for _, k := range keys {
		if err := g.Insert([]byte(k), nil); err != nil {
			t.Fatalf("Insert(%q): %v", k, err)
		}
	}
	g.Finalize()
	return g
}

// accepts walks key through the finalized graph.
func accepts(g *Graph, key string) bool {
	s := g.Root()
	for i := 0; i < len(key); i++ {
		s = g.Transitions(s).Find(key[i])
		if s == NoState {
			return false
		}
	}
	return g.Transitions(s).IsFinal()
}

func TestSuffixSharing(t *testing.T) {
	sink := newRecordingSink()
	g := build(t, sink, "ab", "cb")

	// final state, the shared "b" state, and the root
	if got := len(sink.order); got != 3 {
		t.Fatalf("packed %d states, want 3", got)
	}
	a := g.Transitions(g.Root()).Find('a')
	c := g.Transitions(g.Root()).Find('c')
	if a != c {
		t.Errorf("states after 'a' (%d) and 'c' (%d) were not merged", a, c)
	}
	if g.Stats().Recycled != 2 {
		t.Errorf("Recycled = %d, want 2", g.Stats().Recycled)
	}
}

func TestLeafSharing(t *testing.T) {
	sink := newRecordingSink()
	g := build(t, sink, "a", "b", "c")
	if got := len(sink.order); got != 2 {
		t.Fatalf("packed %d states, want 2 (one leaf + root)", got)
	}
	root := g.Transitions(g.Root())
	if root.Find('a') != root.Find('b') || root.Find('b') != root.Find('c') {
		t.Error("final leaves with equal blobs were not merged")
	}
}

func TestDistinctBlobsPreventMerge(t *testing.T) {
	sink := newRecordingSink()
	g := New(sink)
	for i, k := range []string{"a", "b"} {
		if err := g.Insert([]byte(k), []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	g.Finalize()
	root := g.Transitions(g.Root())
	if root.Find('a') == root.Find('b') {
		t.Error("leaves with different blobs must stay distinct")
	}
	if g.Stats().Blobs != 2 {
		t.Errorf("Blobs = %d, want 2", g.Stats().Blobs)
	}
}

func TestChildrenPackedBeforeParents(t *testing.T) {
	sink := newRecordingSink()
	keys := []string{"car", "card", "care", "cared", "cars", "cat", "cats", "dog", "dogs"}
	g := build(t, sink, keys...)

	if sink.dupes != 0 {
		t.Fatalf("%d states packed more than once", sink.dupes)
	}
	if last := sink.order[len(sink.order)-1]; last != g.Root() {
		t.Fatalf("root packed at position != last")
	}
	seen := make(map[StateID]bool)
	for _, id := range sink.order {
		for _, tr := range g.Transitions(id) {
			if tr.Symbol == FinalSymbol {
				if !g.IsBlob(tr.Target) {
					t.Fatalf("final edge of %d targets a non-blob state", id)
				}
				continue
			}
			if !seen[tr.Target] {
				t.Fatalf("state %d packed before its child %d", id, tr.Target)
			}
		}
		seen[id] = true
	}
	for _, k := range keys {
		if !accepts(g, k) {
			t.Errorf("key %q not accepted", k)
		}
	}
	for _, k := range []string{"", "c", "ca", "cards", "do", "cat s"} {
		if accepts(g, k) {
			t.Errorf("key %q unexpectedly accepted", k)
		}
	}
}

func TestMinimalOnSharedSuffixes(t *testing.T) {
	// Numbers 000..999 as fixed-width strings form a tiny minimal DAG: one
	// state per remaining length, plus the final state.
	var keys []string
	for i := range 1000 {
		keys = append(keys, fmt.Sprintf("%03d", i))
	}
	sink := newRecordingSink()
	g := build(t, sink, keys...)
	if got := len(sink.order); got != 4 {
		t.Fatalf("packed %d states, want 4", got)
	}
	for _, k := range keys {
		if !accepts(g, k) {
			t.Fatalf("key %q not accepted", k)
		}
	}
}

func TestInsertAfterFinalize(t *testing.T) {
	g := build(t, nil, "a")
	if err := g.Insert([]byte("b"), nil); !errors.Is(err, fsaerrors.ErrBuilderFinalized) {
		t.Fatalf("Insert after Finalize: got %v, want ErrBuilderFinalized", err)
	}
	if accepts(g, "b") {
		t.Fatal("rejected insert changed the language")
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	sink := newRecordingSink()
	g := build(t, sink, "x", "y")
	n := len(sink.order)
	if root := g.Finalize(); root != g.Root() {
		t.Fatal("second Finalize returned a different root")
	}
	if len(sink.order) != n {
		t.Fatal("second Finalize delivered states again")
	}
}

func TestEmptyKeyAndDuplicates(t *testing.T) {
	g := New(nil)
	for _, k := range []string{"", "a", "a", "ab"} {
		if err := g.Insert([]byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	g.Finalize()
	if !accepts(g, "") || !accepts(g, "a") || !accepts(g, "ab") {
		t.Fatal("expected keys not accepted")
	}
	if g.Stats().Keys != 3 {
		t.Fatalf("Keys = %d, want 3 (duplicate ignored)", g.Stats().Keys)
	}
}

func TestRandomSetsMatchReference(t *testing.T) {
	words := []string{"a", "ab", "abc", "abd", "b", "ba", "bab", "bb", "c", "ca", "cab", "cb", "cc"}
	for mask := 1; mask < 1<<len(words); mask += 37 {
		var keys []string
		for i, w := range words {
			if mask&(1<<i) != 0 {
				keys = append(keys, w)
			}
		}
		slices.Sort(keys)
		g := build(t, nil, keys...)
		for _, w := range words {
			want := slices.Contains(keys, w)
			if got := accepts(g, w); got != want {
				t.Fatalf("mask %#x: accepts(%q) = %v, want %v", mask, w, got, want)
			}
		}
	}
}
