package fsa

import (
	"bytes"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestIteratorOrderAndBlobs(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 2000, func(int) int { return rng.IntN(4) })
	a, err := newTestBuilder(t, entries).Automaton()
	if err != nil {
		t.Fatal(err)
	}

	it := a.Iterator()
	i := 0
	for it.Next() {
		if i >= len(entries) {
			t.Fatalf("iterator produced extra key %q", it.Key())
		}
		if string(it.Key()) != entries[i].Key {
			t.Fatalf("key %d = %q, want %q", i, it.Key(), entries[i].Key)
		}
		if string(it.Data()) != entries[i].Blob.String() {
			t.Fatalf("key %q: blob %x, want %x", it.Key(), it.Data(), entries[i].Blob.String())
		}
		if !a.IsFinal(it.State()) {
			t.Fatalf("key %q: state not final", it.Key())
		}
		i++
	}
	if i != len(entries) {
		t.Fatalf("iterated %d keys, want %d", i, len(entries))
	}
	if it.Next() {
		t.Fatal("Next after exhaustion returned true")
	}
}

func TestIteratorPrefixKeys(t *testing.T) {
	entries := []entry{
		{"", BlobString("e")},
		{"a", BlobString("1")},
		{"ab", BlobString("2")},
		{"abc", BlobString("3")},
		{"b", BlobString("4")},
	}
	a, err := newTestBuilder(t, entries).Automaton()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for key, data := range a.All() {
		got = append(got, string(key)+"="+string(data))
	}
	want := []string{"=e", "a=1", "ab=2", "abc=3", "b=4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIteratorResetAndResume(t *testing.T) {
	entries := []entry{{"x", Blob{}}, {"xy", Blob{}}, {"y", Blob{}}, {"yz", Blob{}}}
	a, err := newTestBuilder(t, entries).Automaton()
	if err != nil {
		t.Fatal(err)
	}

	it := a.Iterator()
	if !it.Next() || !it.Next() {
		t.Fatal("iterator ended early")
	}
	if string(it.Key()) != "xy" {
		t.Fatalf("second key = %q, want xy", it.Key())
	}

	it.Reset()
	var keys [][]byte
	for it.Next() {
		keys = append(keys, bytes.Clone(it.Key()))
	}
	if len(keys) != 4 || string(keys[0]) != "x" || string(keys[3]) != "yz" {
		t.Fatalf("after Reset got %q", keys)
	}
}

func TestAllStopsEarly(t *testing.T) {
	entries := []entry{{"a", Blob{}}, {"b", Blob{}}, {"c", Blob{}}}
	a, err := newTestBuilder(t, entries).Automaton()
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range a.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
}

func TestPerfectHashBijection(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 5000, func(int) int { return rng.IntN(3) })
	path := writeTestAutomaton(t, entries, WithPerfectHash())
	a := openTestAutomaton(t, path)

	for rank, e := range entries {
		h, ok := a.Hash([]byte(e.Key))
		if !ok {
			t.Fatalf("Hash(%q) failed", e.Key)
		}
		if h != uint32(rank) {
			t.Fatalf("Hash(%q) = %d, want rank %d", e.Key, h, rank)
		}
		back, ok := a.RevLookup(h)
		if !ok || back != e.Key {
			t.Fatalf("RevLookup(%d) = %q, %v; want %q", h, back, ok, e.Key)
		}
	}
	if _, ok := a.RevLookup(uint32(len(entries))); ok {
		t.Fatal("RevLookup(N) succeeded")
	}
}

func TestConcurrentReaders(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 3000, func(int) int { return 1 + rng.IntN(4) })
	path := writeTestAutomaton(t, entries, WithPerfectHash())
	a := openTestAutomaton(t, path, WithAccessMethod(AccessMmap))

	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			c := a.HashCursor()
			for i := w; i < len(entries); i += 8 {
				e := entries[i]
				c.Start()
				if !c.DeltaString(e.Key) || !c.IsFinal() {
					t.Errorf("worker %d: key %q not accepted", w, e.Key)
					return nil
				}
				if c.Hash() != uint32(i) || string(c.Data()) != e.Blob.String() {
					t.Errorf("worker %d: key %q hash %d blob %x", w, e.Key, c.Hash(), c.Data())
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
