package fsa

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a deterministic RNG seeded from the test name, so each
// test sees its own reproducible sequence.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// entry is a key with its blob.
type entry struct {
	Key  string
	Blob Blob
}

// randomEntries returns n distinct keys over a small alphabet (so suffixes
// are shared) in ascending order. blobLen gives the blob length of the i-th
// generated entry.
func randomEntries(rng *rand.Rand, n int, blobLen func(i int) int) []entry {
	seen := make(map[string]struct{}, n)
	entries := make([]entry, 0, n)
	for len(entries) < n {
		k := make([]byte, 1+rng.IntN(10))
		for i := range k {
			k[i] = 'a' + byte(rng.IntN(8))
		}
		if _, ok := seen[string(k)]; ok {
			continue
		}
		seen[string(k)] = struct{}{}
		b := make([]byte, blobLen(len(entries)))
		for i := range b {
			b[i] = byte(rng.IntN(3))
		}
		entries = append(entries, entry{Key: string(k), Blob: NewBlob(b)})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.Key, b.Key) })
	return entries
}

// newTestBuilder inserts entries (which must be sorted) into a new builder.
func newTestBuilder(t testing.TB, entries []entry, opts ...BuildOption) *Builder {
	t.Helper()
	b := NewBuilder(opts...)
	for _, e := range entries {
		if err := b.InsertString(e.Key, e.Blob); err != nil {
			t.Fatalf("Insert(%q): %v", e.Key, err)
		}
	}
	return b
}

// writeTestAutomaton builds entries into a file under t.TempDir.
func writeTestAutomaton(t testing.TB, entries []entry, opts ...BuildOption) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fsa")
	if err := newTestBuilder(t, entries, opts...).WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// openTestAutomaton opens path and closes it when the test ends.
func openTestAutomaton(t testing.TB, path string, opts ...OpenOption) *Automaton {
	t.Helper()
	a, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// walk follows key from the start state.
func walk(a *Automaton, key string) uint32 {
	s := a.Start()
	for i := 0; i < len(key); i++ {
		s = a.Delta(s, key[i])
	}
	return s
}

// verifyEntries checks that a accepts exactly the entries' keys with their
// blobs, probing a few strings that must be rejected.
func verifyEntries(t *testing.T, a *Automaton, entries []entry) {
	t.Helper()
	keys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		keys[e.Key] = struct{}{}
		data, ok := a.Lookup([]byte(e.Key))
		if !ok {
			t.Fatalf("key %q not accepted", e.Key)
		}
		if string(data) != e.Blob.String() {
			t.Fatalf("key %q: blob %x, want %x", e.Key, data, e.Blob.String())
		}
	}
	for _, e := range entries {
		for _, probe := range []string{e.Key + "z", e.Key[:len(e.Key)-1], "z" + e.Key} {
			if _, want := keys[probe]; want {
				continue
			}
			if _, ok := a.Lookup([]byte(probe)); ok {
				t.Fatalf("probe %q unexpectedly accepted", probe)
			}
		}
	}
}
