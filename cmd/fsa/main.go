// Command fsa builds and queries automaton files from newline-delimited
// input.
//
//	sort -u words.txt | fsa build --perfect-hash words.fsa
//	echo hello | fsa lookup words.fsa
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tamirms/fsa"
)

const (
	exitSuccess = 0
	exitUsage   = 1
	exitFailure = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the streams and global flags shared by all subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	verbose bool
	access  string
	logger  *slog.Logger
}

// usageError marks errors caused by a malformed command line.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting failures as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteC()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || cmd == root {
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}
	return exitFailure
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fsa",
		Short:         "Build and query minimal finite-state automata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageError{errors.New("missing subcommand")}
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log build and load details to stderr")
	root.PersistentFlags().StringVar(&c.access, "access", fsa.DefaultAccessMethod.String(), "file access method: read, mmap or mmap-locked")

	root.AddCommand(
		c.buildCmd(),
		c.lookupCmd(),
		c.hashCmd(),
		c.revLookupCmd(),
		c.dumpCmd(),
		c.statsCmd(),
	)
	return root
}

// open loads the automaton named on the command line with the global access
// method.
func (c *cli) open(path string) (*fsa.Automaton, error) {
	m, ok := fsa.ParseAccessMethod(c.access)
	if !ok {
		return nil, usageError{fmt.Errorf("unknown access method %q", c.access)}
	}
	return fsa.Open(path, fsa.WithAccessMethod(m), fsa.WithOpenLogger(c.logger))
}
