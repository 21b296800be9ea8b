package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamirms/fsa"
	fsaerrors "github.com/tamirms/fsa/errors"
)

// eachLine calls fn for every line of r with the trailing CR removed.
func eachLine(r io.Reader, fn func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := fn(strings.TrimSuffix(sc.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// formatData renders a blob for tab-separated output.
func formatData(data []byte, numeric bool) string {
	if numeric {
		if v, ok := fsa.NewBlob(data).Uint32(); ok {
			return strconv.FormatUint(uint64(v), 10)
		}
	}
	return string(data)
}

// withAutomaton opens path, runs fn with a buffered stdout and closes both.
func (c *cli) withAutomaton(path string, fn func(a *fsa.Automaton, w *bufio.Writer) error) (err error) {
	a, err := c.open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(c.stdout)
	if err := fn(a, w); err != nil {
		return err
	}
	return w.Flush()
}

func (c *cli) lookupCmd() *cobra.Command {
	var numeric bool
	cmd := &cobra.Command{
		Use:   "lookup <automaton>",
		Short: "Look up keys from stdin; prints key, found, hash and data",
		Long: `Lookup prints one tab-separated line per input key:
key, 1 or 0 for found, the perfect hash (-1 if unavailable) and the data.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAutomaton(args[0], func(a *fsa.Automaton, w *bufio.Writer) error {
				return eachLine(c.stdin, func(key string) error {
					data, found := a.Lookup([]byte(key))
					hash := int64(-1)
					if h, ok := a.Hash([]byte(key)); ok {
						hash = int64(h)
					}
					f := 0
					if found {
						f = 1
					}
					_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", key, f, hash, formatData(data, numeric))
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&numeric, "numeric", false, "print data as an unsigned 32-bit frequency")
	return cmd
}

func (c *cli) hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <automaton>",
		Short: "Print the perfect hash of each key on stdin (-1 if not accepted)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAutomaton(args[0], func(a *fsa.Automaton, w *bufio.Writer) error {
				if !a.HasPerfectHash() {
					return fmt.Errorf("%s: %w", args[0], fsaerrors.ErrNoPerfectHash)
				}
				return eachLine(c.stdin, func(key string) error {
					hash := int64(-1)
					if h, ok := a.Hash([]byte(key)); ok {
						hash = int64(h)
					}
					_, err := fmt.Fprintf(w, "%s\t%d\n", key, hash)
					return err
				})
			})
		},
	}
}

func (c *cli) revLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revlookup <automaton>",
		Short: "Print the key for each perfect-hash value on stdin",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAutomaton(args[0], func(a *fsa.Automaton, w *bufio.Writer) error {
				if !a.HasPerfectHash() {
					return fmt.Errorf("%s: %w", args[0], fsaerrors.ErrNoPerfectHash)
				}
				return eachLine(c.stdin, func(line string) error {
					v, err := strconv.ParseUint(strings.TrimSpace(line), 10, 32)
					if err != nil {
						return fmt.Errorf("invalid hash %q: %w", line, err)
					}
					key, _ := a.RevLookup(uint32(v))
					_, err = fmt.Fprintf(w, "%d\t%s\n", v, key)
					return err
				})
			})
		},
	}
}

func (c *cli) dumpCmd() *cobra.Command {
	var withData, numeric bool
	cmd := &cobra.Command{
		Use:   "dump <automaton>",
		Short: "Print every accepted string in ascending order",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAutomaton(args[0], func(a *fsa.Automaton, w *bufio.Writer) error {
				for key, data := range a.All() {
					var err error
					if withData {
						_, err = fmt.Fprintf(w, "%s\t%s\n", key, formatData(data, numeric))
					} else {
						_, err = fmt.Fprintf(w, "%s\n", key)
					}
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withData, "data", false, "print each string's data after a tab")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "print data as an unsigned 32-bit frequency")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <automaton>",
		Short: "Print header fields and array sizes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withAutomaton(args[0], func(a *fsa.Automaton, w *bufio.Writer) error {
				st := a.Stats()
				fmt.Fprintf(w, "version\t%d\n", st.Version)
				fmt.Fprintf(w, "serial\t%d\n", st.Serial)
				fmt.Fprintf(w, "checksum\t%#08x\n", st.Checksum)
				fmt.Fprintf(w, "cells\t%d\n", st.Cells)
				fmt.Fprintf(w, "used_cells\t%d\n", st.UsedCells)
				fmt.Fprintf(w, "start\t%d\n", st.Start)
				fmt.Fprintf(w, "data_bytes\t%d\n", st.DataBytes)
				fmt.Fprintf(w, "data_type\t%s\n", st.DataType)
				fmt.Fprintf(w, "fixed_data_size\t%d\n", st.FixedDataSize)
				fmt.Fprintf(w, "perfect_hash\t%t\n", st.PerfectHash)
				fmt.Fprintf(w, "access\t%s\n", st.Access)
				fmt.Fprintf(w, "pinned\t%t\n", st.Pinned)
				_, err := fmt.Fprintf(w, "file_size\t%d\n", st.FileSize)
				return err
			})
		},
	}
}
