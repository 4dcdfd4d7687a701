// Package rlc is the compiler's single external entry point: it wires the
// lexer, parser, resolver, and IR builder into the one call a driver (CLI,
// REPL, or embedder) actually needs.
package rlc

import (
	"fmt"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/lexer"
	"github.com/rlc-lang/rlc/internal/parser"
	"github.com/rlc-lang/rlc/internal/sema"
	"github.com/rlc-lang/rlc/internal/token"
)

// Stage names which pipeline phase produced a CompileError, so a driver can
// decide how to render it (e.g. skip IR-building advice for a lex error).
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageResolve
	StageBuild
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageResolve:
		return "resolve"
	case StageBuild:
		return "build"
	default:
		return "?"
	}
}

// CompileError wraps a pipeline failure with the stage it happened at and,
// when the underlying error carries one, the source position — so a driver
// can render a positional diagnostic without type-switching on the
// underlying lexer/parser/sema error types itself.
type CompileError struct {
	Stage  Stage
	Pos    token.Position
	HasPos bool
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Result is everything a driver might want out of a successful compile: the
// resolved AST (for --dump-ast) and the lowered IR (for --dump-ir or a
// downstream code generator), which carries the resolver's interned string
// pool as Program.Strings.
type Result struct {
	Crate   *ast.Crate
	Program *ir.Program
}

// Compile runs the full front-end pipeline over source and returns the
// resolved AST plus lowered IR, or the first CompileError encountered.
func Compile(source string, opt ir.OptimizeLevel) (*Result, error) {
	lx := lexer.New()
	toks, err := lx.Lex(source)
	if err != nil {
		return nil, wrapErr(StageLex, err)
	}

	crate, err := parser.ParseFile(toks)
	if err != nil {
		return nil, wrapErr(StageParse, err)
	}

	res, err := sema.Resolve(crate)
	if err != nil {
		return nil, wrapErr(StageResolve, err)
	}

	prog, err := ir.Build(crate, res.Strings, opt)
	if err != nil {
		return nil, wrapErr(StageBuild, err)
	}

	return &Result{Crate: crate, Program: prog}, nil
}

// wrapErr extracts the Pos field every pipeline error type (LexError,
// ParseError, ResolveError, BuildError) carries, so a driver never has to
// know which stage's error type it is holding to render a positional
// diagnostic.
func wrapErr(stage Stage, err error) *CompileError {
	ce := &CompileError{Stage: stage, Err: err}
	switch e := err.(type) {
	case *lexer.LexError:
		ce.Pos, ce.HasPos = e.Pos, true
	case *parser.ParseError:
		ce.Pos, ce.HasPos = e.Pos, true
	case *sema.ResolveError:
		ce.Pos, ce.HasPos = e.Pos, true
	case *ir.BuildError:
		ce.Pos, ce.HasPos = e.Pos, true
	}
	return ce
}
