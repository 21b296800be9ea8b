package pack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"

	fsaerrors "github.com/tamirms/fsa/errors"
	"github.com/tamirms/fsa/internal/graph"
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])))
}

type kv struct {
	key  string
	blob string
}

// packAll builds and packs entries (which must be sorted).
func packAll(t *testing.T, p *Packer, entries []kv) Output {
	t.Helper()
	g := graph.New(p)
	for _, e := range entries {
		if err := g.Insert([]byte(e.key), []byte(e.blob)); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Finalize(g.Finalize()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	out, err := p.Output()
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func delta(out Output, s uint32, sym byte) uint32 {
	c := uint64(s) + uint64(sym)
	if s == 0 || sym == 0 || c >= uint64(len(out.Symbols)) || out.Symbols[c] != sym {
		return 0
	}
	return out.States[c]
}

// lookup walks key and returns the blob and perfect hash.
func lookup(out Output, key string) (blob []byte, hash uint32, ok bool) {
	s := out.Start
	for i := 0; i < len(key) && s != 0; i++ {
		if out.PerfectHash != nil && delta(out, s, key[i]) != 0 {
			hash += out.PerfectHash[s+uint32(key[i])]
		}
		s = delta(out, s, key[i])
	}
	if s == 0 {
		return nil, 0, false
	}
	if f := uint64(s) + FinalSymbol; f >= uint64(len(out.Symbols)) || out.Symbols[f] != FinalSymbol {
		return nil, 0, false
	}
	off := out.States[s+FinalSymbol]
	if out.FixedSize >= 0 {
		return out.Data[off : off+uint32(out.FixedSize)], hash, true
	}
	n := binary.LittleEndian.Uint32(out.Data[off:])
	return out.Data[off+4 : off+4+n], hash, true
}

func randomEntries(rng *rand.Rand, n int, blobLen func(int) int) []kv {
	seen := make(map[string]bool)
	var entries []kv
	for len(entries) < n {
		k := make([]byte, 1+rng.IntN(8))
		for i := range k {
			k[i] = 'a' + byte(rng.IntN(6))
		}
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		b := make([]byte, blobLen(len(entries)))
		for i := range b {
			b[i] = byte(rng.IntN(4))
		}
		entries = append(entries, kv{string(k), string(b)})
	}
	slices.SortFunc(entries, func(a, b kv) int { return bytes.Compare([]byte(a.key), []byte(b.key)) })
	return entries
}

func TestPackRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 2000, func(int) int { return rng.IntN(6) })
	out := packAll(t, New(0, 0), entries)

	for _, e := range entries {
		blob, _, ok := lookup(out, e.key)
		if !ok {
			t.Fatalf("key %q not accepted", e.key)
		}
		if string(blob) != e.blob {
			t.Fatalf("key %q blob = %q, want %q", e.key, blob, e.blob)
		}
	}
	for _, k := range []string{"", "g", "zz", "aaaaaaaaaaaa"} {
		if _, _, ok := lookup(out, k); ok {
			t.Errorf("key %q unexpectedly accepted", k)
		}
	}
}

// TestPackNoCollisions walks every reachable state and checks that bases are
// unique and that every transition's cell carries its own symbol.
func TestPackNoCollisions(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 3000, func(i int) int { return i % 3 })
	p := New(16, 300) // tiny window and capacity: exercise growth
	out := packAll(t, p, entries)

	seen := map[uint32]bool{}
	stack := []uint32{out.Start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		if s == 0 {
			t.Fatal("state with base 0 reachable")
		}
		for sym := 1; sym < FinalSymbol; sym++ {
			if next := delta(out, s, byte(sym)); next != 0 {
				stack = append(stack, next)
			}
		}
	}
	if len(seen) != p.Stats().States {
		t.Errorf("reachable states = %d, packed states = %d", len(seen), p.Stats().States)
	}
	for _, e := range entries {
		if _, _, ok := lookup(out, e.key); !ok {
			t.Fatalf("key %q lost", e.key)
		}
	}
}

// TestPackBlobSharing verifies that equal blobs on distinct final states
// resolve to the same byte offset.
func TestPackBlobSharing(t *testing.T) {
	out := packAll(t, New(0, 0), []kv{{"a", "Q"}, {"ab", "Q"}, {"b", "Q"}, {"c", "R"}})

	a := delta(out, out.Start, 'a')
	b := delta(out, out.Start, 'b')
	if a == b {
		t.Fatal("states for \"a\" and \"b\" should differ (a has a child)")
	}
	if out.States[a+FinalSymbol] != out.States[b+FinalSymbol] {
		t.Fatalf("blob offsets differ: %d vs %d", out.States[a+FinalSymbol], out.States[b+FinalSymbol])
	}
	// two distinct blobs of one byte each, length prefixed
	if len(out.Data) != 2*(4+1) {
		t.Fatalf("data length = %d, want 10", len(out.Data))
	}
}

func TestPackSharedSuffixBlob(t *testing.T) {
	out := packAll(t, New(0, 0), []kv{{"xy", "Q"}, {"zy", "Q"}})
	x := delta(out, delta(out, out.Start, 'x'), 'y')
	z := delta(out, delta(out, out.Start, 'z'), 'y')
	if out.States[x+FinalSymbol] != out.States[z+FinalSymbol] {
		t.Fatal("\"xy\" and \"zy\" do not share one stored blob")
	}
	if len(out.Data) != 4+1 {
		t.Fatalf("data length = %d, want 5", len(out.Data))
	}
}

func TestCompactFixedSize(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 500, func(int) int { return 4 })
	p := New(0, 0)
	out := packAll(t, p, entries)
	distinct := p.Stats().DistinctBlobs

	ok, err := p.CompactFixedSize()
	if err != nil || !ok {
		t.Fatalf("CompactFixedSize = %v, %v; want true, nil", ok, err)
	}
	out, _ = p.Output()
	if out.FixedSize != 4 {
		t.Fatalf("FixedSize = %d, want 4", out.FixedSize)
	}
	if len(out.Data) != distinct*4 {
		t.Fatalf("data length = %d, want %d", len(out.Data), distinct*4)
	}
	for _, e := range entries {
		blob, _, ok := lookup(out, e.key)
		if !ok || string(blob) != e.blob {
			t.Fatalf("key %q: blob %q ok=%v, want %q", e.key, blob, ok, e.blob)
		}
	}

	// idempotent
	if ok, _ := p.CompactFixedSize(); !ok {
		t.Fatal("second CompactFixedSize reported variable form")
	}
}

func TestCompactFixedSizeMixedLengths(t *testing.T) {
	p := New(0, 0)
	packAll(t, p, []kv{{"a", "1"}, {"b", "22"}})
	ok, err := p.CompactFixedSize()
	if err != nil || ok {
		t.Fatalf("CompactFixedSize = %v, %v; want false, nil", ok, err)
	}
	if p.Stats().FixedSize != -1 {
		t.Fatal("mixed-length blobs must stay variable")
	}
}

func TestPerfectHashScenario(t *testing.T) {
	p := New(0, 0)
	packAll(t, p, []kv{{"ab", "1"}, {"ac", "2"}, {"b", "3"}})
	if err := p.AddPerfectHash(); err != nil {
		t.Fatal(err)
	}
	out, _ := p.Output()
	for want, k := range []string{"ab", "ac", "b"} {
		_, h, ok := lookup(out, k)
		if !ok || h != uint32(want) {
			t.Errorf("hash(%q) = %d ok=%v, want %d", k, h, ok, want)
		}
	}
}

func TestPerfectHashBijection(t *testing.T) {
	rng := newTestRNG(t)
	entries := randomEntries(rng, 3000, func(i int) int { return i % 2 })
	p := New(0, 0)
	packAll(t, p, entries)
	if err := p.AddPerfectHash(); err != nil {
		t.Fatal(err)
	}
	if err := p.AddPerfectHash(); err != nil {
		t.Fatal(err)
	}
	out, _ := p.Output()
	for i, e := range entries {
		_, h, ok := lookup(out, e.key)
		if !ok || h != uint32(i) {
			t.Fatalf("hash(%q) = %d, want %d (rank)", e.key, h, i)
		}
	}
}

func TestPackerErrors(t *testing.T) {
	var nilPacker *Packer
	g := graph.New(nil)
	if err := nilPacker.Pack(g, g.Root()); !errors.Is(err, fsaerrors.ErrNotInitialized) {
		t.Errorf("nil Pack: got %v", err)
	}
	if err := (&Packer{}).Finalize(g.Root()); !errors.Is(err, fsaerrors.ErrNotInitialized) {
		t.Errorf("zero Finalize: got %v", err)
	}

	p := New(0, 0)
	if err := p.AddPerfectHash(); !errors.Is(err, fsaerrors.ErrNotFinalized) {
		t.Errorf("AddPerfectHash before Finalize: got %v", err)
	}
	if _, err := p.Output(); !errors.Is(err, fsaerrors.ErrNotFinalized) {
		t.Errorf("Output before Finalize: got %v", err)
	}
	if _, err := p.CompactFixedSize(); !errors.Is(err, fsaerrors.ErrNotFinalized) {
		t.Errorf("CompactFixedSize before Finalize: got %v", err)
	}

	packAll(t, p, []kv{{"a", ""}})
	if err := p.Pack(g, g.Root()); !errors.Is(err, fsaerrors.ErrBuilderFinalized) {
		t.Errorf("Pack after Finalize: got %v", err)
	}
	if err := p.Finalize(g.Root()); err != nil {
		t.Errorf("second Finalize: %v", err)
	}
}

func TestPackEmpty(t *testing.T) {
	p := New(0, 0)
	out := packAll(t, p, nil)
	if out.Start == 0 {
		t.Fatal("empty automaton got base 0")
	}
	if err := p.AddPerfectHash(); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := lookup(out, ""); ok {
		t.Fatal("empty automaton accepts the empty string")
	}
}

func BenchmarkPack(b *testing.B) {
	keys := make([]string, 0, 20000)
	for i := range 20000 {
		keys = append(keys, fmt.Sprintf("key%06d", i))
	}
	for b.Loop() {
		p := New(0, 0)
		g := graph.New(p)
		for _, k := range keys {
			_ = g.Insert([]byte(k), nil)
		}
		_ = p.Finalize(g.Finalize())
	}
}
