package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/rlc"
)

var (
	replBlue  = color.New(color.FgBlue)
	replGreen = color.New(color.FgGreen)
	replRed   = color.New(color.FgRed)
	replCyan  = color.New(color.FgCyan)
)

func newReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Compile source one line at a time, printing its IR",
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepl(cmd.OutOrStdout())
			return nil
		},
	}
}

func runRepl(w io.Writer) {
	replCyan.Fprintln(w, "rlc "+Version)
	replCyan.Fprintln(w, "Type a top-level item or expression wrapped in `fn main() {}` and press enter.")
	replCyan.Fprintln(w, "Type .exit to quit.")

	rl, err := readline.New("rlc> ")
	if err != nil {
		replRed.Fprintf(w, "readline init failed: %v\n", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			replBlue.Fprintln(w, "Good bye!")
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" {
			replBlue.Fprintln(w, "Good bye!")
			return
		}
		rl.SaveHistory(line)

		evalLine(w, line)
	}
}

func evalLine(w io.Writer, line string) {
	res, err := rlc.Compile(line, ir.OptimizeZero)
	if err != nil {
		replRed.Fprintf(w, "%v\n", err)
		return
	}
	replGreen.Fprintf(w, "%s", res.Program)
}
