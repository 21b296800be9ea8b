// Bench measures automaton build time, packed size, memory use and lookup
// throughput on synthetic dictionaries.
//
// Usage:
//
//	go run ./cmd/bench -keys 2000000 -payload 4 -perfect-hash
//
// Flags:
//
//	-keys          Number of distinct keys (default: 1,000,000)
//	-payload       Payload bytes per key, 0 for none (default: 4)
//	-distinct      Number of distinct payloads, 0 for one per key (default: 1000)
//	-perfect-hash  Add perfect-hash deltas (default: true)
//	-fixed         Compact equal-length payloads (default: true)
//	-access        read, mmap or mmap-locked (default: mmap)
//	-workers       Parallel lookup goroutines (default: GOMAXPROCS)
//	-queries       Lookups per worker (default: 1,000,000)
package main

import (
	"cmp"
	"encoding/binary"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/fsa"
)

const payloadSeed = 0x1234

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// generateKeys returns n distinct sorted keys shaped like dictionary
// phrases: one to three lowercase words separated by spaces.
func generateKeys(rng *mrand.Rand, n int) []string {
	seen := make(map[string]struct{}, n)
	keys := make([]string, 0, n)
	buf := make([]byte, 0, 64)
	for len(keys) < n {
		buf = buf[:0]
		words := 1 + rng.IntN(3)
		for w := range words {
			if w > 0 {
				buf = append(buf, fsa.WordSeparator)
			}
			for range 2 + rng.IntN(9) {
				buf = append(buf, 'a'+byte(rng.IntN(26)))
			}
		}
		if _, ok := seen[string(buf)]; ok {
			continue
		}
		seen[string(buf)] = struct{}{}
		keys = append(keys, string(buf))
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}

// payloadFor derives a deterministic payload from key. With distinct > 0
// payloads repeat, which exercises blob sharing.
func payloadFor(key string, size, distinct int) fsa.Blob {
	if size == 0 {
		return fsa.Blob{}
	}
	h1, h2 := murmur3.Sum128WithSeed([]byte(key), payloadSeed)
	if distinct > 0 {
		h1 %= uint64(distinct)
		h2 = h1
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], h1)
	binary.LittleEndian.PutUint64(buf[8:], h2)
	return fsa.NewBlob(buf[:size])
}

func main() {
	keysFlag := flag.Int("keys", 1_000_000, "number of distinct keys")
	payloadFlag := flag.Int("payload", 4, "payload size in bytes (0 for none, max 16)")
	distinctFlag := flag.Int("distinct", 1000, "number of distinct payloads (0 for one per key)")
	perfectHashFlag := flag.Bool("perfect-hash", true, "add perfect-hash deltas")
	fixedFlag := flag.Bool("fixed", true, "compact equal-length payloads")
	accessFlag := flag.String("access", fsa.DefaultAccessMethod.String(), "access method: read, mmap or mmap-locked")
	workersFlag := flag.Int("workers", runtime.GOMAXPROCS(0), "parallel lookup goroutines")
	queriesFlag := flag.Int("queries", 1_000_000, "lookups per worker")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (build phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (build phase only)")
	flag.Parse()

	numKeys := *keysFlag
	payloadSize := *payloadFlag
	if payloadSize < 0 || payloadSize > 16 {
		fmt.Printf("Payload size %d outside [0, 16]\n", payloadSize)
		os.Exit(1)
	}
	access, ok := fsa.ParseAccessMethod(*accessFlag)
	if !ok {
		fmt.Printf("Unknown access method: %s\n", *accessFlag)
		os.Exit(1)
	}

	fmt.Println("Generating keys...")
	genStart := time.Now()
	rng := mrand.New(mrand.NewPCG(0x1234567890ABCDEF, 0xFEDCBA9876543210))
	keys := generateKeys(rng, numKeys)
	payloads := make([]fsa.Blob, numKeys)
	for i, k := range keys {
		payloads[i] = payloadFor(k, payloadSize, *distinctFlag)
	}
	genDuration := time.Since(genStart)

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	fsaPath := filepath.Join(tmpDir, "bench.fsa")

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&peakAlloc, samples[0].Value.Uint64())
				storeMax(&peakRSS, getMaxRSS())
			}
		}
	}()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Println("Building automaton...")
	buildStart := time.Now()
	opts := []fsa.BuildOption{}
	if *perfectHashFlag {
		opts = append(opts, fsa.WithPerfectHash())
	}
	if *fixedFlag {
		opts = append(opts, fsa.WithFixedSizeCompaction())
	}
	builder := fsa.NewBuilder(opts...)
	for i, k := range keys {
		if err := builder.InsertString(k, payloads[i]); err != nil {
			fmt.Printf("Insert failed: %v\n", err)
			return
		}
	}
	err = builder.WriteFile(fsaPath)
	buildDuration := time.Since(buildStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	close(done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&peakAlloc, final.Alloc)
	storeMax(&peakRSS, getMaxRSS())
	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		return
	}
	st := builder.Stats()

	info, err := os.Stat(fsaPath)
	if err != nil {
		fmt.Printf("Stat failed: %v\n", err)
		return
	}
	fileSize := info.Size()

	a, err := fsa.Open(fsaPath, fsa.WithAccessMethod(access))
	if err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	defer func() { _ = a.Close() }()

	fmt.Println("Benchmarking lookups...")
	workers := max(1, *workersFlag)
	queries := *queriesFlag
	var misses atomic.Int64
	var g errgroup.Group
	queryStart := time.Now()
	for w := range workers {
		g.Go(func() error {
			// Random order per worker so workers do not walk in lockstep.
			r := mrand.New(mrand.NewPCG(uint64(w), 0x9E3779B97F4A7C15))
			c := a.HashCursor()
			for range queries {
				k := keys[r.IntN(len(keys))]
				c.Start()
				if !c.DeltaString(k) || !c.IsFinal() {
					misses.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}
	queryDuration := time.Since(queryStart)
	totalQueries := workers * queries
	if m := misses.Load(); m > 0 {
		fmt.Printf("WARNING: %d of %d lookups missed\n", m, totalQueries)
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Keys                ║ %16d ║\n", st.Keys)
	fmt.Printf("║ States              ║ %16d ║\n", st.States)
	fmt.Printf("║ Recycled states     ║ %16d ║\n", st.Recycled)
	fmt.Printf("║ Cells               ║ %16d ║\n", st.Cells)
	fmt.Printf("║ Cell fill           ║ %15.1f%% ║\n", 100*float64(st.UsedCells)/float64(max(1, st.Cells)))
	fmt.Printf("║ Distinct payloads   ║ %16d ║\n", st.DistinctBlobs)
	fmt.Printf("║ Payload bytes       ║ %16d ║\n", st.DataBytes)
	fmt.Printf("║ File size           ║ %13.1f MB ║\n", float64(fileSize)/1_000_000)
	fmt.Printf("║ Bytes per key       ║ %16.2f ║\n", float64(fileSize)/float64(max(1, st.Keys)))
	fmt.Printf("║ Generate time       ║ %12.2f sec ║\n", genDuration.Seconds())
	fmt.Printf("║ Build time          ║ %12.2f sec ║\n", buildDuration.Seconds())
	fmt.Printf("║ Build throughput    ║ %10.2f M/sec ║\n", float64(numKeys)/buildDuration.Seconds()/1_000_000)
	fmt.Printf("║ Lookup workers      ║ %16d ║\n", workers)
	fmt.Printf("║ Lookup throughput   ║ %10.2f M/sec ║\n", float64(totalQueries)/queryDuration.Seconds()/1_000_000)
	fmt.Printf("║ Access method       ║ %16s ║\n", access)
	fmt.Printf("║ Peak heap memory    ║ %13.1f MB ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %13.1f MB ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}

// storeMax raises v to x if x is larger.
func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}
