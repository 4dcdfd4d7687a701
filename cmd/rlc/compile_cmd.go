package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/config"
	"github.com/rlc-lang/rlc/internal/diagnostic"
	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/rlc"
)

func newCompileCommand() *cobra.Command {
	var (
		optimize int
		target   string
		out      string
		dumpAST  bool
		dumpIR   bool
		cfgPath  string
	)

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file to IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("opt") {
				optimize = cfg.Optimize
			}
			if !cmd.Flags().Changed("target") {
				target = string(cfg.Target)
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			res, err := rlc.Compile(string(source), ir.OptimizeLevel(optimize))
			if err != nil {
				diagnostic.Render(cmd.OutOrStderr(), string(source), err)
				return fmt.Errorf("compilation failed")
			}

			if dumpAST {
				fmt.Fprintln(cmd.OutOrStdout(), ast.PrettyPrint(res.Crate))
				fmt.Fprintln(cmd.OutOrStdout(), spew.Sdump(res.Crate))
			}
			if dumpIR {
				fmt.Fprintln(cmd.OutOrStdout(), res.Program)
				fmt.Fprintln(cmd.OutOrStdout(), spew.Sdump(res.Program))
			}

			output := res.Program.String()
			if cfg.Output == config.OutputAST {
				output = ast.PrettyPrint(res.Crate)
			}
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), output)
				return nil
			}
			if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (target %s)\n", out, target)
			return nil
		},
	}

	cmd.Flags().IntVar(&optimize, "opt", 0, "optimize level (0 or 1)")
	cmd.Flags().StringVar(&target, "target", string(config.TargetRISCV32), "downstream code generator target")
	cmd.Flags().StringVar(&out, "out", "", "write the output (lowered IR by default) to this path instead of stdout")
	cmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "also print the resolved AST")
	cmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "also print a structural dump of the IR")
	cmd.Flags().StringVar(&cfgPath, "config", "rlc.yaml", "driver configuration file")

	return cmd
}
