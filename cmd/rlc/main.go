// Command rlc is the compiler driver: a Cobra command tree wrapping
// internal/rlc's Compile for batch use (`rlc compile`) and an interactive
// line-oriented session (`rlc repl`).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlc-lang/rlc/internal/diagnostic"
)

// Version is the driver's reported version string.
const Version = "0.1.0"

func main() {
	diagnostic.Enable(diagnostic.IsTerminal(os.Stdout))

	root := &cobra.Command{
		Use:   "rlc",
		Short: "Front end for a Rust-like systems language",
		Long: "rlc lexes, parses, resolves, and lowers source to a flat\n" +
			"three-address IR for a downstream code generator.",
	}
	root.AddCommand(newCompileCommand())
	root.AddCommand(newReplCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rlc version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rlc %s\n", Version)
			return nil
		},
	}
}
