package parser

import (
	"strconv"
	"strings"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/token"
)

// parseCrate parses the whole file: a sequence of items, until EOF.
func (p *Parser) parseCrate() *ast.Crate {
	pos := p.stream.Pos()
	var items []ast.Item
	for !p.stream.IsEOF() && !p.failed() {
		items = append(items, p.parseItem())
		if p.failed() {
			return nil
		}
	}
	return ast.NewCrate(pos, items)
}

func (p *Parser) newScopeID() ast.ScopeID {
	id := p.nextScopeID
	p.nextScopeID++
	return id
}

// ---- Items ----

func (p *Parser) parseItem() ast.Item {
	if p.failed() {
		return nil
	}
	pub := false
	if p.atKeyword("pub") {
		p.stream.Next()
		pub = true
	}
	tok := p.stream.Peek()
	switch {
	case p.atKeyword("fn"):
		return p.parseFunction(pub)
	case p.atKeyword("struct"):
		return p.parseStruct(pub)
	case p.atKeyword("extern"):
		return p.parseExternBlock()
	case p.atKeyword("const"):
		return p.parseConstItem(pub)
	case p.atKeyword("static"):
		return p.parseStaticItem(pub)
	default:
		p.fail("expected item (fn, struct, extern, const, static)", tok)
		return nil
	}
}

func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param
	for !p.failed() && !p.at(")") {
		mutable := false
		if p.atKeyword("mut") {
			p.stream.Next()
			mutable = true
		}
		nameTok := p.expect(token.IDENT, "", "parameter name")
		p.expect(token.PUNCT, ":", ":")
		typ := p.parseTypeExpr()
		params = append(params, ast.NewParam(nameTok.Pos(), nameTok.Literal, mutable, typ))
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	return params
}

func (p *Parser) parseFunction(pub bool) *ast.Function {
	pos := p.stream.Pos()
	p.stream.Next() // fn
	nameTok := p.expect(token.IDENT, "", "function name")
	p.expect(token.PUNCT, "(", "(")
	params := p.parseParams()
	p.expect(token.PUNCT, ")", ")")
	var ret *ast.TypeExpr
	if p.at("->") {
		p.stream.Next()
		ret = p.parseTypeExpr()
	}
	body := p.parseBlock()
	if p.failed() {
		return nil
	}
	return ast.NewFunction(pos, nameTok.Literal, params, ret, body, pub)
}

func (p *Parser) parseStruct(pub bool) *ast.Struct {
	pos := p.stream.Pos()
	p.stream.Next() // struct
	nameTok := p.expect(token.IDENT, "", "struct name")
	p.expect(token.PUNCT, "{", "{")
	var fields []*ast.Field
	for !p.failed() && !p.at("}") {
		fieldNameTok := p.expect(token.IDENT, "", "field name")
		p.expect(token.PUNCT, ":", ":")
		typ := p.parseTypeExpr()
		fields = append(fields, ast.NewField(fieldNameTok.Pos(), fieldNameTok.Literal, typ))
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	p.expect(token.PUNCT, "}", "}")
	if p.failed() {
		return nil
	}
	return ast.NewStruct(pos, nameTok.Literal, fields, pub)
}

func (p *Parser) parseExternBlock() *ast.ExternBlock {
	pos := p.stream.Pos()
	p.stream.Next() // extern
	abi := ""
	if p.stream.Peek().Type == token.STRING {
		abi = unquoteStringLiteral(p.stream.Next().Literal)
	}
	p.expect(token.PUNCT, "{", "{")
	var items []*ast.ExternFn
	for !p.failed() && !p.at("}") {
		fnPos := p.stream.Pos()
		p.expect(token.KEYWORD, "fn", "fn")
		nameTok := p.expect(token.IDENT, "", "function name")
		p.expect(token.PUNCT, "(", "(")
		params := p.parseParams()
		p.expect(token.PUNCT, ")", ")")
		var ret *ast.TypeExpr
		if p.at("->") {
			p.stream.Next()
			ret = p.parseTypeExpr()
		}
		p.expect(token.TERMINATOR, ";", ";")
		items = append(items, ast.NewExternFn(fnPos, nameTok.Literal, params, ret))
	}
	p.expect(token.PUNCT, "}", "}")
	if p.failed() {
		return nil
	}
	return ast.NewExternBlock(pos, abi, items)
}

func (p *Parser) parseConstItem(pub bool) *ast.ConstItem {
	pos := p.stream.Pos()
	p.stream.Next() // const
	nameTok := p.expect(token.IDENT, "", "const name")
	p.expect(token.PUNCT, ":", ":")
	typ := p.parseTypeExpr()
	p.expect(token.OPERATOR, "=", "=")
	val := p.parseExpr()
	p.expect(token.TERMINATOR, ";", ";")
	if p.failed() {
		return nil
	}
	return ast.NewConstItem(pos, nameTok.Literal, typ, val, pub)
}

func (p *Parser) parseStaticItem(pub bool) *ast.StaticItem {
	pos := p.stream.Pos()
	p.stream.Next() // static
	mutable := false
	if p.atKeyword("mut") {
		p.stream.Next()
		mutable = true
	}
	nameTok := p.expect(token.IDENT, "", "static name")
	p.expect(token.PUNCT, ":", ":")
	typ := p.parseTypeExpr()
	p.expect(token.OPERATOR, "=", "=")
	val := p.parseExpr()
	p.expect(token.TERMINATOR, ";", ";")
	if p.failed() {
		return nil
	}
	return ast.NewStaticItem(pos, nameTok.Literal, typ, val, mutable, pub)
}

// itemStart reports whether the current token begins a nested item
// declaration (valid as a statement inside a block).
func (p *Parser) itemStart() bool {
	return p.atKeyword("fn") || p.atKeyword("struct") || p.atKeyword("extern") ||
		p.atKeyword("const") || p.atKeyword("static") || p.atKeyword("pub")
}

// ---- Types ----

func (p *Parser) parseTypeExpr() *ast.TypeExpr {
	if p.failed() {
		return nil
	}
	pos := p.stream.Pos()
	if p.at("&") {
		p.stream.Next()
		mutable := false
		if p.atKeyword("mut") {
			p.stream.Next()
			mutable = true
		}
		elem := p.parseTypeExpr()
		return ast.NewRefTypeExpr(pos, elem, mutable)
	}
	if p.at("(") {
		// Unit type `()`; tuple types are not part of this grammar subset.
		p.stream.Next()
		p.expect(token.PUNCT, ")", ")")
		return ast.NewTypeExpr(pos, "()")
	}
	tok := p.expect(token.IDENT, "", "type")
	return ast.NewTypeExpr(pos, tok.Literal)
}

// ---- Blocks & statements ----

func (p *Parser) parseBlock() *ast.Block {
	if p.failed() {
		return nil
	}
	pos := p.stream.Pos()
	p.expect(token.PUNCT, "{", "{")
	scopeID := p.newScopeID()
	var stmts []ast.Stmt
	var tail ast.Expr

	for !p.failed() && !p.stream.IsEOF() && !p.at("}") {
		if p.atKeyword("let") {
			stmts = append(stmts, p.parseLetStmt())
			continue
		}
		if p.itemStart() {
			itemPos := p.stream.Pos()
			item := p.parseItem()
			if p.failed() {
				break
			}
			stmts = append(stmts, ast.NewItemStmt(itemPos, item))
			continue
		}

		exprPos := p.stream.Pos()
		expr := p.parseExpr()
		if p.failed() {
			break
		}
		switch {
		case p.stream.Peek().Type == token.TERMINATOR:
			p.stream.Next()
			stmts = append(stmts, ast.NewExprStmt(exprPos, expr, true))
		case p.at("}"):
			tail = expr
		case isBlockLikeExpr(expr):
			stmts = append(stmts, ast.NewExprStmt(exprPos, expr, false))
		default:
			p.fail("expected ';' after expression", p.stream.Peek())
		}
	}
	p.expect(token.PUNCT, "}", "}")
	if p.failed() {
		return nil
	}
	return ast.NewBlock(pos, scopeID, stmts, tail)
}

// isBlockLikeExpr reports whether expr is an expression-with-block, which
// may be used as a statement without a trailing semicolon.
func isBlockLikeExpr(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Block, *ast.IfExpr, *ast.WhileExpr, *ast.LoopExpr, *ast.ForExpr, *ast.MatchExpr:
		return true
	}
	return false
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	pos := p.stream.Pos()
	p.stream.Next() // let
	mutable := false
	if p.atKeyword("mut") {
		p.stream.Next()
		mutable = true
	}
	nameTok := p.expect(token.IDENT, "", "let binding name")
	var typ *ast.TypeExpr
	if p.at(":") {
		p.stream.Next()
		typ = p.parseTypeExpr()
	}
	var init ast.Expr
	if p.at("=") {
		p.stream.Next()
		init = p.parseExpr()
	}
	p.expect(token.TERMINATOR, ";", ";")
	if p.failed() {
		return nil
	}
	return ast.NewLetStmt(pos, nameTok.Literal, mutable, typ, init)
}

// ---- Expressions: precedence ladder ----
//
// Loosest to tightest: assignment, range, ||, &&, comparison (non-assoc),
// |, ^, &, shift, additive, multiplicative, as, unary prefix, postfix,
// primary.

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

// parseExprNoStructLit parses an expression with struct-literal parsing
// suppressed, for `if`/`while`/`for`/`match` scrutinees so the opening `{`
// is read as the construct's body rather than a struct literal.
func (p *Parser) parseExprNoStructLit() ast.Expr {
	save := p.noStructLit
	p.noStructLit = true
	e := p.parseExpr()
	p.noStructLit = save
	return e
}

var assignOps = map[string]ast.AssignOp{
	"=": ast.AssignPlain, "+=": ast.AssignAdd, "-=": ast.AssignSub,
	"*=": ast.AssignMul, "/=": ast.AssignDiv, "%=": ast.AssignRem,
	"<<=": ast.AssignShl, ">>=": ast.AssignShr, "&=": ast.AssignBitAnd,
	"|=": ast.AssignBitOr, "^=": ast.AssignBitXor,
}

func (p *Parser) parseAssign() ast.Expr {
	lhs := p.parseRange()
	if p.failed() || lhs == nil {
		return lhs
	}
	tok := p.stream.Peek()
	op, isAssign := assignOps[tok.Literal]
	if !isAssign || tok.Type != token.OPERATOR {
		return lhs
	}
	if !isValidLHS(lhs) {
		p.fail("invalid lhs expr", tok)
		return nil
	}
	p.stream.Next()
	rhs := p.parseAssign()
	if p.failed() {
		return nil
	}
	return ast.NewAssignExpr(lhs.Pos(), lhs, op, rhs)
}

// isValidLHS reports whether e is an assignable place expression: a path,
// array index, tuple index, field access, or a dereference.
func isValidLHS(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.PathExpr, *ast.ArrayIndexExpr, *ast.TupleIndexExpr, *ast.FieldAccessExpr:
		return true
	case *ast.UnaryExpr:
		return v.Op == ast.UnDeref
	default:
		return false
	}
}

// atRangeBoundEnd reports whether the current token cannot start a range
// bound expression, meaning an open-ended range (`..`/`..=` with no high).
func (p *Parser) atRangeBoundEnd() bool {
	tok := p.stream.Peek()
	if tok.Type == token.EOF || tok.Type == token.TERMINATOR {
		return true
	}
	if tok.Type == token.PUNCT && (tok.Literal == ")" || tok.Literal == "]" || tok.Literal == "," || (tok.Literal == "{" && p.noStructLit)) {
		return true
	}
	return false
}

func (p *Parser) parseRange() ast.Expr {
	if p.at("..") || p.at("..=") {
		opTok := p.stream.Peek()
		inclusive := opTok.Literal == "..="
		p.stream.Next()
		var high ast.Expr
		if !p.atRangeBoundEnd() {
			high = p.parseOr()
		}
		return ast.NewRangeExpr(opTok.Pos(), nil, high, inclusive)
	}
	low := p.parseOr()
	if p.failed() || low == nil {
		return low
	}
	if p.at("..") || p.at("..=") {
		opTok := p.stream.Peek()
		inclusive := opTok.Literal == "..="
		p.stream.Next()
		var high ast.Expr
		if !p.atRangeBoundEnd() {
			high = p.parseOr()
		}
		return ast.NewRangeExpr(low.Pos(), low, high, inclusive)
	}
	return low
}

func (p *Parser) parseOr() ast.Expr {
	lhs := p.parseAnd()
	for !p.failed() && lhs != nil && p.at("||") {
		opTok := p.stream.Next()
		rhs := p.parseAnd()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, ast.BinOr, rhs)
	}
	return lhs
}

func (p *Parser) parseAnd() ast.Expr {
	lhs := p.parseComparison()
	for !p.failed() && lhs != nil && p.at("&&") {
		opTok := p.stream.Next()
		rhs := p.parseComparison()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, ast.BinAnd, rhs)
	}
	return lhs
}

var comparisonOps = map[string]ast.BinOp{
	"==": ast.BinEq, "!=": ast.BinNe, "<": ast.BinLt,
	"<=": ast.BinLe, ">": ast.BinGt, ">=": ast.BinGe,
}

func (p *Parser) isComparisonTok() (ast.BinOp, bool) {
	tok := p.stream.Peek()
	if tok.Type != token.OPERATOR {
		return 0, false
	}
	op, ok := comparisonOps[tok.Literal]
	return op, ok
}

// parseComparison implements the non-associative comparison level: exactly
// one comparison operator is permitted in a chain.
func (p *Parser) parseComparison() ast.Expr {
	lhs := p.parseBitOr()
	if p.failed() || lhs == nil {
		return lhs
	}
	op, ok := p.isComparisonTok()
	if !ok {
		return lhs
	}
	opTok := p.stream.Next()
	rhs := p.parseBitOr()
	if p.failed() {
		return nil
	}
	result := ast.NewBinaryExpr(opTok.Pos(), lhs, op, rhs)
	if _, ok := p.isComparisonTok(); ok {
		p.fail("chained comparison", p.stream.Peek())
		return nil
	}
	return result
}

func (p *Parser) parseBitOr() ast.Expr {
	lhs := p.parseBitXor()
	for !p.failed() && lhs != nil && p.atOperator("|") {
		opTok := p.stream.Next()
		rhs := p.parseBitXor()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, ast.BinBitOr, rhs)
	}
	return lhs
}

func (p *Parser) parseBitXor() ast.Expr {
	lhs := p.parseBitAnd()
	for !p.failed() && lhs != nil && p.atOperator("^") {
		opTok := p.stream.Next()
		rhs := p.parseBitAnd()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, ast.BinBitXor, rhs)
	}
	return lhs
}

func (p *Parser) parseBitAnd() ast.Expr {
	lhs := p.parseShift()
	for !p.failed() && lhs != nil && p.atOperator("&") {
		opTok := p.stream.Next()
		rhs := p.parseShift()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, ast.BinBitAnd, rhs)
	}
	return lhs
}

func (p *Parser) parseShift() ast.Expr {
	lhs := p.parseAdditive()
	for !p.failed() && lhs != nil && (p.atOperator("<<") || p.atOperator(">>")) {
		opTok := p.stream.Next()
		op := ast.BinShl
		if opTok.Literal == ">>" {
			op = ast.BinShr
		}
		rhs := p.parseAdditive()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, op, rhs)
	}
	return lhs
}

func (p *Parser) parseAdditive() ast.Expr {
	lhs := p.parseMultiplicative()
	for !p.failed() && lhs != nil && (p.atOperator("+") || p.atOperator("-")) {
		opTok := p.stream.Next()
		op := ast.BinAdd
		if opTok.Literal == "-" {
			op = ast.BinSub
		}
		rhs := p.parseMultiplicative()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, op, rhs)
	}
	return lhs
}

func (p *Parser) parseMultiplicative() ast.Expr {
	lhs := p.parseAsCast()
	for !p.failed() && lhs != nil && (p.atOperator("*") || p.atOperator("/") || p.atOperator("%")) {
		opTok := p.stream.Next()
		var op ast.BinOp
		switch opTok.Literal {
		case "*":
			op = ast.BinMul
		case "/":
			op = ast.BinDiv
		case "%":
			op = ast.BinRem
		}
		rhs := p.parseAsCast()
		if p.failed() {
			return nil
		}
		lhs = ast.NewBinaryExpr(opTok.Pos(), lhs, op, rhs)
	}
	return lhs
}

func (p *Parser) parseAsCast() ast.Expr {
	x := p.parseUnary()
	for !p.failed() && x != nil && p.atKeyword("as") {
		p.stream.Next()
		typ := p.parseTypeExpr()
		if p.failed() {
			return nil
		}
		x = ast.NewCastExpr(x.Pos(), x, typ)
	}
	return x
}

// atOperator reports whether the current token is exactly the 1-char
// operator lit (guards against e.g. "&" matching inside "&&").
func (p *Parser) atOperator(lit string) bool {
	tok := p.stream.Peek()
	return tok.Type == token.OPERATOR && tok.Literal == lit
}

func (p *Parser) parseUnary() ast.Expr {
	if p.failed() {
		return nil
	}
	tok := p.stream.Peek()
	if tok.Type == token.OPERATOR {
		switch tok.Literal {
		case "!":
			p.stream.Next()
			x := p.parseUnary()
			if p.failed() {
				return nil
			}
			return ast.NewUnaryExpr(tok.Pos(), ast.UnNot, x)
		case "-":
			p.stream.Next()
			x := p.parseUnary()
			if p.failed() {
				return nil
			}
			return ast.NewUnaryExpr(tok.Pos(), ast.UnNeg, x)
		case "*":
			p.stream.Next()
			x := p.parseUnary()
			if p.failed() {
				return nil
			}
			return ast.NewUnaryExpr(tok.Pos(), ast.UnDeref, x)
		case "&":
			p.stream.Next()
			op := ast.UnRef
			if p.atKeyword("mut") {
				p.stream.Next()
				op = ast.UnRefMut
			}
			x := p.parseUnary()
			if p.failed() {
				return nil
			}
			return ast.NewUnaryExpr(tok.Pos(), op, x)
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for !p.failed() && x != nil {
		switch {
		case p.at("."):
			dotTok := p.stream.Next()
			if p.stream.Peek().Type == token.INT {
				idxTok := p.stream.Next()
				n, err := strconv.Atoi(idxTok.Literal)
				if err != nil {
					p.fail("invalid tuple index", idxTok)
					return nil
				}
				x = ast.NewTupleIndexExpr(dotTok.Pos(), x, n)
				continue
			}
			nameTok := p.expect(token.IDENT, "", "field or method name")
			if p.failed() {
				return nil
			}
			if p.at("(") {
				p.stream.Next()
				args := p.parseArgs()
				p.expect(token.PUNCT, ")", ")")
				if p.failed() {
					return nil
				}
				x = ast.NewMethodCallExpr(dotTok.Pos(), x, nameTok.Literal, args)
			} else {
				x = ast.NewFieldAccessExpr(dotTok.Pos(), x, nameTok.Literal)
			}
		case p.at("("):
			callTok := p.stream.Next()
			args := p.parseArgs()
			p.expect(token.PUNCT, ")", ")")
			if p.failed() {
				return nil
			}
			x = ast.NewCallExpr(callTok.Pos(), x, args)
		case p.at("["):
			idxTok := p.stream.Next()
			idx := p.parseExpr()
			p.expect(token.PUNCT, "]", "]")
			if p.failed() {
				return nil
			}
			x = ast.NewArrayIndexExpr(idxTok.Pos(), x, idx)
		default:
			return x
		}
	}
	return x
}

func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	for !p.failed() && !p.at(")") {
		args = append(args, p.parseExpr())
		if p.failed() {
			return nil
		}
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	return args
}

// ---- Primary expressions ----

func (p *Parser) parsePrimary() ast.Expr {
	if p.failed() {
		return nil
	}
	tok := p.stream.Peek()
	pos := tok.Pos()

	switch tok.Type {
	case token.INT:
		p.stream.Next()
		value, suffix, err := parseIntLiteral(tok.Literal)
		if err != nil {
			p.fail(err.Error(), tok)
			return nil
		}
		return ast.NewIntLiteral(pos, value, suffix)
	case token.FLOAT:
		p.stream.Next()
		value, suffix, err := parseFloatLiteral(tok.Literal)
		if err != nil {
			p.fail(err.Error(), tok)
			return nil
		}
		return ast.NewFloatLiteral(pos, value, suffix)
	case token.CHAR:
		p.stream.Next()
		return ast.NewCharLiteral(pos, decodeCharLiteral(tok.Literal))
	case token.STRING:
		p.stream.Next()
		return ast.NewStrLiteral(pos, unquoteStringLiteral(tok.Literal))
	case token.KEYWORD:
		switch tok.Literal {
		case "true":
			p.stream.Next()
			return ast.NewBoolLiteral(pos, true)
		case "false":
			p.stream.Next()
			return ast.NewBoolLiteral(pos, false)
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "loop":
			return p.parseLoop()
		case "for":
			return p.parseFor()
		case "match":
			return p.parseMatch()
		case "return":
			return p.parseReturn()
		case "break":
			return p.parseBreak()
		}
	case token.IDENT:
		return p.parsePathOrStructLit()
	case token.PUNCT:
		switch tok.Literal {
		case "{":
			return p.parseBlock()
		case "(":
			return p.parseParenExpr()
		case "[":
			return p.parseArrayExpr()
		}
	}

	p.fail("expected expression", tok)
	p.stream.Next()
	return nil
}

func (p *Parser) parsePathOrStructLit() ast.Expr {
	tok := p.stream.Next()
	pos := tok.Pos()
	name := tok.Literal
	for p.at("::") {
		p.stream.Next()
		seg := p.expect(token.IDENT, "", "path segment")
		if p.failed() {
			return nil
		}
		name += "::" + seg.Literal
	}
	if !p.noStructLit && p.at("{") {
		return p.parseStructLit(pos, name)
	}
	return ast.NewPathExpr(pos, name)
}

func (p *Parser) parseStructLit(pos token.Position, name string) ast.Expr {
	p.stream.Next() // {
	var fields []ast.StructLitField
	for !p.failed() && !p.at("}") {
		fieldNameTok := p.expect(token.IDENT, "", "field name")
		if p.failed() {
			return nil
		}
		var val ast.Expr
		if p.at(":") {
			p.stream.Next()
			val = p.parseExpr()
		} else {
			val = ast.NewPathExpr(fieldNameTok.Pos(), fieldNameTok.Literal)
		}
		fields = append(fields, ast.StructLitField{Name: fieldNameTok.Literal, Value: val})
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	p.expect(token.PUNCT, "}", "}")
	if p.failed() {
		return nil
	}
	return ast.NewStructLitExpr(pos, name, fields)
}

func (p *Parser) parseParenExpr() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // (
	if p.at(")") {
		p.stream.Next()
		return ast.NewTupleExpr(pos, nil) // unit value `()`
	}
	first := p.parseExpr()
	if p.failed() {
		return nil
	}
	if !p.at(",") {
		p.expect(token.PUNCT, ")", ")")
		if p.failed() {
			return nil
		}
		return ast.NewGroupedExpr(pos, first)
	}
	elems := []ast.Expr{first}
	for p.at(",") {
		p.stream.Next()
		if p.at(")") {
			break
		}
		elems = append(elems, p.parseExpr())
		if p.failed() {
			return nil
		}
	}
	p.expect(token.PUNCT, ")", ")")
	if p.failed() {
		return nil
	}
	return ast.NewTupleExpr(pos, elems)
}

func (p *Parser) parseArrayExpr() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // [
	var elems []ast.Expr
	for !p.failed() && !p.at("]") {
		elems = append(elems, p.parseExpr())
		if p.failed() {
			return nil
		}
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	p.expect(token.PUNCT, "]", "]")
	if p.failed() {
		return nil
	}
	return ast.NewArrayExpr(pos, elems)
}

func (p *Parser) parseIf() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // if
	cond := p.parseExprNoStructLit()
	then := p.parseBlock()
	var els ast.Expr
	if p.atKeyword("else") {
		p.stream.Next()
		if p.atKeyword("if") {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	if p.failed() {
		return nil
	}
	return ast.NewIfExpr(pos, cond, then, els)
}

func (p *Parser) parseWhile() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // while
	cond := p.parseExprNoStructLit()
	body := p.parseBlock()
	if p.failed() {
		return nil
	}
	return ast.NewWhileExpr(pos, cond, body)
}

func (p *Parser) parseLoop() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // loop
	body := p.parseBlock()
	if p.failed() {
		return nil
	}
	return ast.NewLoopExpr(pos, body)
}

func (p *Parser) parseFor() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // for
	patTok := p.expect(token.IDENT, "", "loop variable")
	if !p.atKeyword("in") {
		p.fail("expected 'in'", p.stream.Peek())
		return nil
	}
	p.stream.Next()
	iter := p.parseExprNoStructLit()
	body := p.parseBlock()
	if p.failed() {
		return nil
	}
	return ast.NewForExpr(pos, patTok.Literal, iter, body)
}

func (p *Parser) parseMatch() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // match
	scrutinee := p.parseExprNoStructLit()
	p.expect(token.PUNCT, "{", "{")
	var arms []ast.MatchArm
	for !p.failed() && !p.at("}") {
		pattern := p.parseMatchPattern()
		if p.failed() {
			return nil
		}
		if !p.at("=>") {
			p.fail("expected '=>'", p.stream.Peek())
			return nil
		}
		p.stream.Next()
		body := p.parseExpr()
		if p.failed() {
			return nil
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Body: body})
		if p.at(",") {
			p.stream.Next()
			continue
		}
		break
	}
	p.expect(token.PUNCT, "}", "}")
	if p.failed() {
		return nil
	}
	return ast.NewMatchExpr(pos, scrutinee, arms)
}

func (p *Parser) parseMatchPattern() ast.MatchPattern {
	tok := p.stream.Peek()
	if tok.Type == token.IDENT && tok.Literal == "_" {
		p.stream.Next()
		return ast.MatchPattern{Wildcard: true}
	}
	if tok.Type == token.IDENT {
		p.stream.Next()
		return ast.MatchPattern{Ident: tok.Literal}
	}
	lit := p.parsePrimary()
	return ast.MatchPattern{Literal: lit}
}

func (p *Parser) parseReturn() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // return
	var val ast.Expr
	if !p.at(";") && !p.at("}") {
		val = p.parseExpr()
		if p.failed() {
			return nil
		}
	}
	return ast.NewReturnExpr(pos, val)
}

func (p *Parser) parseBreak() ast.Expr {
	pos := p.stream.Pos()
	p.stream.Next() // break
	var val ast.Expr
	if !p.at(";") && !p.at("}") {
		val = p.parseExpr()
		if p.failed() {
			return nil
		}
	}
	return ast.NewBreakExpr(pos, val)
}

// ---- Literal decoding ----

var intSuffixes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
}

func splitSuffix(lit string, suffixes map[string]bool) (body, suffix string) {
	for s := range suffixes {
		if strings.HasSuffix(lit, s) && len(lit) > len(s) {
			return lit[:len(lit)-len(s)], s
		}
	}
	return lit, ""
}

func parseIntLiteral(lit string) (int64, string, error) {
	body, suffix := splitSuffix(lit, intSuffixes)
	body = strings.ReplaceAll(body, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B"):
		base, body = 2, body[2:]
	case strings.HasPrefix(body, "0o") || strings.HasPrefix(body, "0O"):
		base, body = 8, body[2:]
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		base, body = 16, body[2:]
	}
	v, err := strconv.ParseInt(body, base, 64)
	if err != nil {
		return 0, "", err
	}
	return v, suffix, nil
}

func parseFloatLiteral(lit string) (float64, string, error) {
	body, suffix := splitSuffix(lit, map[string]bool{"f32": true, "f64": true})
	body = strings.ReplaceAll(body, "_", "")
	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, "", err
	}
	return v, suffix, nil
}

var charEscapes = map[rune]rune{
	'n': '\n', 't': '\t', 'r': '\r', '\\': '\\', '\'': '\'', '"': '"', '0': 0,
}

func decodeCharLiteral(lit string) rune {
	runes := []rune(lit)
	if len(runes) < 2 {
		return 0
	}
	body := runes[1 : len(runes)-1]
	if len(body) == 0 {
		return 0
	}
	if body[0] == '\\' && len(body) >= 2 {
		if r, ok := charEscapes[body[1]]; ok {
			return r
		}
		return body[1]
	}
	return body[0]
}

// unquoteStringLiteral strips the surrounding quotes (and raw-string hash
// fences/prefix) from a lexed STRING token and resolves escapes, unless the
// literal is a raw string (`r"..."`/`br"..."`), which carries no escapes.
func unquoteStringLiteral(lit string) string {
	raw := strings.HasPrefix(lit, "r") || strings.HasPrefix(lit, "br")
	start := strings.IndexByte(lit, '"')
	end := strings.LastIndexByte(lit, '"')
	if start < 0 || end <= start {
		return ""
	}
	body := lit[start+1 : end]
	if raw {
		return body
	}
	return unescapeString(body)
}

func unescapeString(body string) string {
	var sb strings.Builder
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
			if r, ok := charEscapes[runes[i]]; ok {
				sb.WriteRune(r)
			} else {
				sb.WriteRune(runes[i])
			}
			continue
		}
		sb.WriteRune(runes[i])
	}
	return sb.String()
}
