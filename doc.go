// Package fsa builds, persists and queries minimal deterministic finite-state
// automata over byte strings, where each accepted string may carry a binary
// payload (a Blob).
//
// Keys are inserted in ascending order. The builder minimizes states as it
// goes and packs them into a double-array: every state is a base index, and
// its transition on symbol s lives in cell base+s, tagged with s. Optional
// perfect-hash deltas map each accepted string to its rank in [0, N).
//
// # Basic Usage
//
// Building an automaton:
//
//	b := fsa.NewBuilder(fsa.WithPerfectHash())
//	for _, e := range sortedEntries {
//	    if err := b.InsertString(e.Key, fsa.BlobString(e.Value)); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := b.WriteFile("dict.fsa"); err != nil {
//	    log.Fatal(err)
//	}
//
// Querying it:
//
//	a, err := fsa.Open("dict.fsa", fsa.WithAccessMethod(fsa.AccessMmap))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	c := a.Cursor()
//	if c.DeltaString("hello") && c.IsFinal() {
//	    fmt.Printf("%s\n", c.Data())
//	}
//
// # Package Structure
//
//   - Public API: builder.go (NewBuilder, Insert, Finalize, WriteFile),
//     automaton.go (Open, Delta, IsFinal, Data, RevLookup), iterator.go,
//     cursor.go
//   - Configuration: builder_options.go, open_options.go
//   - Serialization: header.go (256-byte header), writer.go
//   - Construction: internal/graph (minimization), internal/pack (cell
//     packing, blob store, perfect hash)
//   - Platform: fallocate_*.go, advise_*.go, pin_*.go
package fsa
