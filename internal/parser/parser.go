// Package parser implements a recursive-descent parser for the Rust-like
// source language. It stops at the first syntax error rather than
// recovering and continuing, matching the compiler's single-error-at-a-time
// contract.
package parser

import (
	"fmt"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/token"
)

// ParseError is the error returned for any syntax problem.
type ParseError struct {
	Msg string
	Tok token.Token
	Pos token.Position
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s (got %q)", pe.Pos.Line, pe.Pos.Col, pe.Msg, pe.Tok.Literal)
}

// Parser drives recursive descent over a TokenStream. noStructLit suppresses
// parsing a `{` immediately after certain expressions as a struct literal,
// needed for `if cond { ... }`/`while cond { ... }`/`for .. in iter { ... }`,
// where the opening brace must start the body instead.
type Parser struct {
	stream      TokenStream
	err         error
	noStructLit bool
	// nextScopeID assigns each Block its scope id as it is parsed. The
	// crate's own root scope claims id 1 (ast.NewCrate), so blocks start at 2.
	nextScopeID ast.ScopeID
}

// NewParser creates a parser over tokens (the lexer's full output).
func NewParser(tokens []token.Token) *Parser {
	return &Parser{stream: NewTokenStream(tokens), nextScopeID: 2}
}

// ParseFile runs a full parse, returning the crate or the first error hit.
func ParseFile(tokens []token.Token) (*ast.Crate, error) {
	p := NewParser(tokens)
	crate := p.parseCrate()
	if p.err != nil {
		return nil, p.err
	}
	return crate, nil
}

func (p *Parser) fail(msg string, tok token.Token) {
	if p.err == nil {
		p.err = &ParseError{Msg: msg, Tok: tok, Pos: tok.Pos()}
	}
}

func (p *Parser) failed() bool { return p.err != nil }

// expect consumes the current token if it matches typ (and lit, when lit is
// non-empty); otherwise it records a ParseError and leaves the stream
// untouched.
func (p *Parser) expect(typ token.TokenType, lit string, desc string) token.Token {
	if p.failed() {
		return token.Token{Type: token.EOF}
	}
	tok := p.stream.Peek()
	match := tok.Type == typ
	if lit != "" {
		match = match && tok.Literal == lit
	}
	if !match {
		if desc == "" {
			desc = lit
		}
		p.fail(fmt.Sprintf("expected %s", desc), tok)
		return tok
	}
	return p.stream.Next()
}

func (p *Parser) at(lit string) bool {
	tok := p.stream.Peek()
	return (tok.Type == token.PUNCT || tok.Type == token.OPERATOR || tok.Type == token.TERMINATOR) && tok.Literal == lit
}

func (p *Parser) atKeyword(kw string) bool {
	tok := p.stream.Peek()
	return tok.Type == token.KEYWORD && tok.Literal == kw
}
