package main

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamirms/fsa"
)

const maxLineSize = 1 << 20

type buildFlags struct {
	config          string
	perfectHash     bool
	serial          uint32
	numeric         bool
	separator       string
	fixedCompaction bool
}

func (c *cli) buildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build <output>",
		Short: "Build an automaton from key[<TAB>data] lines on stdin",
		Long: `Build reads one entry per line from stdin: a key, optionally followed by
the separator and the entry's data. Input need not be sorted; duplicate keys
keep the data of their first occurrence. With --numeric the data is a
frequency stored as a 4-byte little-endian integer.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := defaultBuildSettings()
			if f.config != "" {
				var err error
				if settings, err = loadBuildSettings(f.config); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("perfect-hash") {
				settings.PerfectHash = f.perfectHash
			}
			if flags.Changed("serial") {
				settings.Serial = f.serial
			}
			if flags.Changed("numeric") {
				settings.Numeric = f.numeric
			}
			if flags.Changed("separator") {
				if f.separator == "" {
					return usageError{errors.New("--separator must not be empty")}
				}
				settings.Separator = f.separator
			}
			if flags.Changed("fixed-compaction") {
				settings.FixedCompaction = f.fixedCompaction
			}
			return c.build(args[0], settings)
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "YAML file with build defaults")
	cmd.Flags().BoolVar(&f.perfectHash, "perfect-hash", false, "add perfect-hash deltas")
	cmd.Flags().Uint32Var(&f.serial, "serial", 0, "serial number stored in the header")
	cmd.Flags().BoolVar(&f.numeric, "numeric", false, "parse data as an unsigned 32-bit frequency")
	cmd.Flags().StringVar(&f.separator, "separator", "\t", "separator between key and data")
	cmd.Flags().BoolVar(&f.fixedCompaction, "fixed-compaction", false, "drop length prefixes when all data has one size")
	return cmd
}

type inputEntry struct {
	key  string
	blob fsa.Blob
}

// readEntries parses stdin into entries sorted by key with duplicates
// removed. Blank lines are skipped.
func readEntries(r io.Reader, s buildSettings) ([]inputEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []inputEntry
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		key, data, hasData := strings.Cut(text, s.Separator)
		e := inputEntry{key: key}
		switch {
		case s.Numeric:
			var v uint64
			if hasData {
				var err error
				if v, err = strconv.ParseUint(strings.TrimSpace(data), 10, 32); err != nil {
					return nil, fmt.Errorf("line %d: invalid frequency %q: %w", line, data, err)
				}
			}
			e.blob = fsa.NumericBlob(uint32(v))
		case hasData:
			e.blob = fsa.BlobString(data)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	slices.SortStableFunc(entries, func(a, b inputEntry) int { return cmp.Compare(a.key, b.key) })
	return slices.CompactFunc(entries, func(a, b inputEntry) bool { return a.key == b.key }), nil
}

func (c *cli) build(output string, s buildSettings) error {
	entries, err := readEntries(c.stdin, s)
	if err != nil {
		return err
	}

	opts := []fsa.BuildOption{fsa.WithSerial(s.Serial), fsa.WithLogger(c.logger)}
	if s.PerfectHash {
		opts = append(opts, fsa.WithPerfectHash())
	}
	if s.FixedCompaction {
		opts = append(opts, fsa.WithFixedSizeCompaction())
	}
	b := fsa.NewBuilder(opts...)
	for _, e := range entries {
		if err := b.InsertString(e.key, e.blob); err != nil {
			return fmt.Errorf("insert %q: %w", e.key, err)
		}
	}
	if err := b.WriteFile(output); err != nil {
		return err
	}

	st := b.Stats()
	c.logger.Info("automaton built",
		"output", output,
		"keys", st.Keys,
		"states", st.States,
		"cells", st.Cells,
		"data_bytes", st.DataBytes)
	return nil
}
