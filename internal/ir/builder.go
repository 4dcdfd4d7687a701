package ir

import (
	"fmt"
	"math"

	"github.com/rlc-lang/rlc/internal/ast"
)

// OptimizeLevel is a two-level switch: Zero keeps every arithmetic/
// comparison operation as a real instruction, Basic folds constant
// operands at build time.
type OptimizeLevel int

const (
	OptimizeZero OptimizeLevel = iota
	OptimizeBasic
)

// BuildError reports a lowering failure that isn't a malformed-AST bug in
// the builder itself but a property of the program being compiled, such as
// a constant expression whose result doesn't fit its type.
type BuildError struct {
	Msg string
	Pos ast.Position
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build error at %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// loopFrame tracks one open loop's break back-patch chain and the
// instruction index its back-edge (and any `continue`) jumps to. breakDest
// is non-nil only for a `loop` expression whose break value feeds a
// destination; `while`/`for` always break to a unit value, so breakDest
// stays nil for them and a valued break inside one is a builder error.
type loopFrame struct {
	breakDest *Place
	chain     int
	start     int
}

// Builder lowers a resolved crate to a Program, walking the AST in lockstep
// with the resolver's own walk (same EnterScope/ExitScope/CurStmtID
// sequence) so ast.Scope.FindVariable re-derives the same statement-ordered
// bindings the resolver already computed, without re-adding them.
type Builder struct {
	prog      *Program
	fn        *Func
	scopes    *ast.ScopeStack
	retDest   []Place
	loopStack []loopFrame
	strIndex  map[string]int
	optimize  OptimizeLevel
}

// Build lowers every item in crate to three-address IR. strings is the
// resolver's deduplicated string pool (Result.Strings), carried through
// unchanged as Program.Strings.
func Build(crate *ast.Crate, strings []string, opt OptimizeLevel) (*Program, error) {
	b := &Builder{
		prog:     &Program{Strings: strings},
		scopes:   ast.NewScopeStack(),
		strIndex: make(map[string]int, len(strings)),
		optimize: opt,
	}
	for i, s := range strings {
		b.strIndex[s] = i
	}
	b.scopes.EnterFile(crate)

	for _, item := range crate.Items {
		if err := b.buildItem(item); err != nil {
			return nil, err
		}
	}
	return b.prog, nil
}

func (b *Builder) buildItem(item ast.Item) error {
	switch v := item.(type) {
	case *ast.Function:
		return b.buildFunction(v)
	default:
		// Structs, extern blocks, and const/static globals carry no
		// executable body of their own; their layout and initial values are
		// the downstream code generator's concern.
		return nil
	}
}

func (b *Builder) buildFunction(fn *ast.Function) error {
	if fn.Body == nil {
		return nil // extern declaration, no body to lower
	}
	irFn := b.prog.AddFunc(fn.Name)
	b.fn = irFn

	// Generated in whatever scope is current before the body's own scope is
	// entered: the return-value slot's name just needs to be unique, not to
	// live in any particular scope.
	destName := b.scopes.CurScope().GenTempVariable(fn.Body.TypeInfo())
	dest := Place{Name: destName, Temp: true}
	b.retDest = append(b.retDest, dest)

	b.scopes.EnterScope(fn.Body)
	for _, p := range fn.Params {
		place, err := b.placeForIdent(p.Name)
		if err != nil {
			b.scopes.ExitScope()
			return err
		}
		irFn.Params = append(irFn.Params, place.Name)
	}

	operand, err := b.buildBlockBody(fn.Body, &dest)
	b.scopes.ExitScope()
	if err != nil {
		return err
	}

	if !blockEndsWithReturn(fn.Body) {
		irFn.Emit(Inst{Op: OpRet, Src: operand, Pos: fn.Pos()})
	}

	b.retDest = b.retDest[:len(b.retDest)-1]
	b.fn = nil
	return nil
}

func blockEndsWithReturn(block *ast.Block) bool {
	if block.Tail != nil {
		_, ok := block.Tail.(*ast.ReturnExpr)
		return ok
	}
	if len(block.Stmts) == 0 {
		return false
	}
	if es, ok := block.Stmts[len(block.Stmts)-1].(*ast.ExprStmt); ok {
		_, ok := es.X.(*ast.ReturnExpr)
		return ok
	}
	return false
}

// ---- Places & temporaries ----

func (b *Builder) placeForIdent(name string) (Place, error) {
	_, scopeID, ok := b.scopes.CurScope().FindVariable(name)
	if !ok {
		return Place{}, fmt.Errorf("internal error: identifier %q not resolved during IR lowering", name)
	}
	return Place{Name: fmt.Sprintf("%s_%d", name, scopeID)}, nil
}

func (b *Builder) genTemp(t *ast.Type) Place {
	return Place{Name: b.scopes.CurScope().GenTempVariable(t), Temp: true}
}

// materialize copies operand into dest when dest names a real (non-temp)
// place; a compiler-generated temp is never written to twice, so copying
// into one here would just be dead code the downstream generator has to
// clean up.
func (b *Builder) materialize(operand Operand, dest Place, pos ast.Position) Operand {
	if !dest.Temp {
		b.fn.Emit(Inst{Op: OpLoad, Dest: dest, Src: operand, Pos: pos})
	}
	return operand
}

// numKindOf reads off an integer literal's resolved width, defaulting to
// i32 when unification never narrowed it past the bare "unsuffixed
// integer" kind (or the type is missing entirely).
func numKindOf(t *ast.Type) ast.LitNumKind {
	if t != nil && t.Kind == ast.TLitNum && t.LitNum != ast.I {
		return t.LitNum
	}
	return ast.I32
}

// floatKindOf is numKindOf's float counterpart, defaulting to f64.
func floatKindOf(t *ast.Type) ast.LitNumKind {
	if t != nil && t.Kind == ast.TLitNum && t.LitNum != ast.F {
		return t.LitNum
	}
	return ast.F64
}

// ---- Blocks & statements ----

func (b *Builder) buildBlock(block *ast.Block, dest *Place) (Operand, error) {
	b.scopes.EnterScope(block)
	res, err := b.buildBlockBody(block, dest)
	b.scopes.ExitScope()
	return res, err
}

// buildBlockBody assumes the caller already entered block's scope (so a
// function body can register its parameters before the first statement is
// numbered, same as buildFunction does above).
func (b *Builder) buildBlockBody(block *ast.Block, dest *Place) (Operand, error) {
	scope := b.scopes.CurScope()
	for _, stmt := range block.Stmts {
		scope.CurStmtID++
		if err := b.buildStmt(stmt); err != nil {
			return Operand{}, err
		}
	}
	if block.Tail == nil {
		return UnitOperand(), nil
	}
	scope.CurStmtID++
	res, err := b.buildExpr(block.Tail, dest)
	if err != nil {
		return Operand{}, err
	}
	if dest == nil && !res.IsUnitOrNever() {
		return Operand{}, fmt.Errorf("internal error: block tail discards a non-unit value (%s)", res)
	}
	return res, nil
}

func (b *Builder) buildStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ItemStmt:
		return b.buildItem(s.Item)
	case *ast.LetStmt:
		return b.buildLet(s)
	case *ast.ExprStmt:
		res, err := b.buildExpr(s.X, nil)
		if err != nil {
			return err
		}
		if !res.IsUnitOrNever() {
			return fmt.Errorf("internal error: expression statement has non-unit value (%s)", res)
		}
		return nil
	default:
		return nil
	}
}

func (b *Builder) buildLet(s *ast.LetStmt) error {
	if s.Init == nil {
		return nil
	}
	dest, err := b.placeForIdent(s.Name)
	if err != nil {
		return err
	}
	_, err = b.buildExpr(s.Init, &dest)
	return err
}

// ---- Expression dispatch ----

func (b *Builder) buildExpr(expr ast.Expr, dest *Place) (Operand, error) {
	switch e := expr.(type) {
	case *ast.PathExpr:
		return b.buildPath(e, dest)
	case *ast.IntLiteral:
		return b.buildIntLiteral(e, dest)
	case *ast.FloatLiteral:
		return b.buildFloatLiteral(e, dest)
	case *ast.BoolLiteral:
		return b.buildBoolLiteral(e, dest)
	case *ast.CharLiteral:
		return b.buildCharLiteral(e, dest)
	case *ast.StrLiteral:
		return b.buildStrLiteral(e)
	case *ast.UnaryExpr:
		return b.buildUnary(e, dest)
	case *ast.BinaryExpr:
		if e.Op.IsLogical() {
			return b.buildLogicalBinary(e, dest)
		}
		return b.buildBinary(e, dest)
	case *ast.CastExpr:
		return b.buildCast(e, dest)
	case *ast.GroupedExpr:
		return b.buildExpr(e.X, dest)
	case *ast.AssignExpr:
		return b.buildAssign(e)
	case *ast.CallExpr:
		return b.buildCall(e, dest)
	case *ast.IfExpr:
		return b.buildIf(e, dest)
	case *ast.WhileExpr:
		return b.buildWhile(e, dest)
	case *ast.LoopExpr:
		return b.buildLoop(e, dest)
	case *ast.ForExpr:
		return b.buildFor(e, dest)
	case *ast.MatchExpr:
		return b.buildMatch(e, dest)
	case *ast.ReturnExpr:
		return b.buildReturn(e, dest)
	case *ast.BreakExpr:
		return b.buildBreak(e, dest)
	case *ast.ContinueExpr:
		return b.buildContinue(e, dest)
	case *ast.Block:
		return b.buildBlock(e, dest)
	case *ast.RangeExpr:
		return Operand{}, fmt.Errorf("internal error: range expression is only supported as a `for` loop iterator, not as a value (%s)", e)
	default:
		// Arrays, array indexing, tuples, tuple indexing, struct literals,
		// field access, and method calls are parsed and type-checked but not
		// lowered; there's no downstream consumer for these forms yet.
		return Operand{}, fmt.Errorf("internal error: %T is not yet lowered to IR", expr)
	}
}

func (b *Builder) buildPath(p *ast.PathExpr, dest *Place) (Operand, error) {
	scope := b.scopes.CurScope()
	if _, scopeID, ok := scope.FindVariable(p.Name); ok {
		place := Place{Name: fmt.Sprintf("%s_%d", p.Name, scopeID)}
		operand := PlaceOperand(place)
		return b.materialize(operand, derefDest(dest), p.Pos()), nil
	}
	if !scope.FindFn(p.Name).IsUnknown() {
		// A bare function reference never writes into dest — it denotes the
		// callee itself, consumed directly by buildCall.
		return FnLabelOperand(p.Name), nil
	}
	return Operand{}, fmt.Errorf("internal error: identifier %q not found during IR lowering", p.Name)
}

// derefDest is a small convenience for call sites that want "no-op when
// dest is nil" without repeating the nil check inline.
func derefDest(dest *Place) Place {
	if dest == nil {
		return Place{Temp: true}
	}
	return *dest
}

func (b *Builder) buildIntLiteral(l *ast.IntLiteral, dest *Place) (Operand, error) {
	if dest == nil {
		return UnitOperand(), nil
	}
	operand := IntOperand(l.Value, numKindOf(l.TypeInfo()))
	return b.materialize(operand, *dest, l.Pos()), nil
}

func (b *Builder) buildFloatLiteral(l *ast.FloatLiteral, dest *Place) (Operand, error) {
	if dest == nil {
		return UnitOperand(), nil
	}
	operand := FloatOperand(l.Value, floatKindOf(l.TypeInfo()))
	return b.materialize(operand, *dest, l.Pos()), nil
}

func (b *Builder) buildBoolLiteral(l *ast.BoolLiteral, dest *Place) (Operand, error) {
	if dest == nil {
		return UnitOperand(), nil
	}
	return b.materialize(BoolOperand(l.Value), *dest, l.Pos()), nil
}

func (b *Builder) buildCharLiteral(l *ast.CharLiteral, dest *Place) (Operand, error) {
	if dest == nil {
		return UnitOperand(), nil
	}
	return b.materialize(CharOperand(l.Value), *dest, l.Pos()), nil
}

// buildStrLiteral ignores dest entirely: a string literal's operand is
// always the constant pool index, never copied eagerly into a place.
func (b *Builder) buildStrLiteral(l *ast.StrLiteral) (Operand, error) {
	idx, ok := b.strIndex[l.Value]
	if !ok {
		return Operand{}, fmt.Errorf("internal error: string literal %q was not interned by the resolver", l.Value)
	}
	return StrOperand(idx), nil
}

func (b *Builder) buildUnary(u *ast.UnaryExpr, dest *Place) (Operand, error) {
	xDest := b.genTemp(u.X.TypeInfo())
	xOperand, err := b.buildExpr(u.X, &xDest)
	if err != nil {
		return Operand{}, err
	}
	if dest == nil {
		return UnitOperand(), nil
	}
	b.fn.Emit(Inst{Op: OpUn, Dest: *dest, UnOp: u.Op, Src: xOperand, Pos: u.Pos()})
	return PlaceOperand(*dest), nil
}

func (b *Builder) buildBinary(be *ast.BinaryExpr, dest *Place) (Operand, error) {
	lDest := b.genTemp(be.Left.TypeInfo())
	lhs, err := b.buildExpr(be.Left, &lDest)
	if err != nil {
		return Operand{}, err
	}
	rDest := b.genTemp(be.Right.TypeInfo())
	rhs, err := b.buildExpr(be.Right, &rDest)
	if err != nil {
		return Operand{}, err
	}
	if dest == nil {
		return UnitOperand(), nil
	}
	if b.optimize >= OptimizeBasic {
		folded, ok, err := constantFold(be.Op, lhs, rhs, be.Pos())
		if err != nil {
			return Operand{}, err
		}
		if ok {
			return b.materialize(folded, *dest, be.Pos()), nil
		}
	}
	b.fn.Emit(Inst{Op: OpBin, Dest: *dest, Left: lhs, BinOp: be.Op, Right: rhs, Pos: be.Pos()})
	return PlaceOperand(*dest), nil
}

// buildLogicalBinary lowers && / || with short-circuit jumping code: the
// left operand's value is materialized into dest, then a single jump tests
// it and, when it already decides the result (false for &&, true for ||),
// skips straight past the right operand's evaluation.
func (b *Builder) buildLogicalBinary(be *ast.BinaryExpr, dest *Place) (Operand, error) {
	d := dest
	if d == nil {
		scratch := b.genTemp(be.TypeInfo())
		d = &scratch
	}
	// materialize skips temp places, so copy an operand into a temp d here
	// unless the operand already is d.
	store := func(operand Operand) {
		if d.Temp && !(operand.Kind == OperandPlace && operand.Place == *d) {
			b.fn.Emit(Inst{Op: OpLoad, Dest: *d, Src: operand, Pos: be.Pos()})
		}
	}
	left, err := b.buildExpr(be.Left, d)
	if err != nil {
		return Operand{}, err
	}
	store(left)

	op := OpJumpIfNot
	if be.Op == ast.BinOr {
		op = OpJumpIf
	}
	shortIdx := b.fn.Emit(Inst{Op: op, Src: PlaceOperand(*d), Target: NoLink, Pos: be.Pos()})

	right, err := b.buildExpr(be.Right, d)
	if err != nil {
		return Operand{}, err
	}
	store(right)
	b.fn.Insts[shortIdx].Target = b.fn.NextIdx()

	if dest != nil {
		return PlaceOperand(*dest), nil
	}
	return UnitOperand(), nil
}

// intBounds reports the representable [lo, hi] range for an integer width,
// so a folded constant add/sub/mul/div/shift can be checked against it.
// Widths at or above 64 bits have no tighter range to check than an int64
// already has, since IntOperand carries every width's value in an int64.
func intBounds(k ast.LitNumKind) (lo, hi int64, checked bool) {
	switch k {
	case ast.I8:
		return math.MinInt8, math.MaxInt8, true
	case ast.I16:
		return math.MinInt16, math.MaxInt16, true
	case ast.I32:
		return math.MinInt32, math.MaxInt32, true
	case ast.U8:
		return 0, math.MaxUint8, true
	case ast.U16:
		return 0, math.MaxUint16, true
	case ast.U32:
		return 0, math.MaxUint32, true
	default:
		return 0, 0, false
	}
}

// bitWidth reports k's width in bits, used to reject a constant shift
// amount at or past the operand's own width instead of silently wrapping
// it.
func bitWidth(k ast.LitNumKind) int {
	switch k {
	case ast.I8, ast.U8:
		return 8
	case ast.I16, ast.U16:
		return 16
	case ast.I32, ast.U32:
		return 32
	case ast.I128, ast.U128:
		return 128
	default:
		return 64
	}
}

// constantFold evaluates op over two constant integer operands at build
// time, active only at OptimizeBasic, across every integer width. An
// overflowing add/sub/mul/shl/shr, a division or remainder by a literal
// zero, or a shift by an out-of-range amount is a property of the program
// being compiled, not an unfoldable expression, so it surfaces as a
// BuildError instead of silently falling back to an unfolded instruction.
func constantFold(op ast.BinOp, lhs, rhs Operand, pos ast.Position) (Operand, bool, error) {
	if lhs.Kind != OperandConstInt || rhs.Kind != OperandConstInt {
		return Operand{}, false, nil
	}
	l, r, k := lhs.IntVal, rhs.IntVal, lhs.NumKind

	checked := func(name string, v int64) (Operand, bool, error) {
		if lo, hi, ok := intBounds(k); ok && (v < lo || v > hi) {
			return Operand{}, false, &BuildError{Pos: pos, Msg: fmt.Sprintf("constant %s overflows %s", name, k)}
		}
		return IntOperand(v, k), true, nil
	}

	switch op {
	case ast.BinAdd:
		return checked("addition", l+r)
	case ast.BinSub:
		return checked("subtraction", l-r)
	case ast.BinMul:
		return checked("multiplication", l*r)
	case ast.BinDiv:
		if r == 0 {
			return Operand{}, false, &BuildError{Pos: pos, Msg: "constant division by zero"}
		}
		return checked("division", l/r)
	case ast.BinRem:
		if r == 0 {
			return Operand{}, false, &BuildError{Pos: pos, Msg: "constant remainder by zero"}
		}
		return IntOperand(l%r, k), true, nil
	case ast.BinShl:
		if r < 0 || r >= int64(bitWidth(k)) {
			return Operand{}, false, &BuildError{Pos: pos, Msg: fmt.Sprintf("constant shift amount %d out of range for %s", r, k)}
		}
		return checked("left shift", l<<uint(r))
	case ast.BinShr:
		if r < 0 || r >= int64(bitWidth(k)) {
			return Operand{}, false, &BuildError{Pos: pos, Msg: fmt.Sprintf("constant shift amount %d out of range for %s", r, k)}
		}
		return IntOperand(l>>uint(r), k), true, nil
	case ast.BinBitAnd:
		return IntOperand(l&r, k), true, nil
	case ast.BinBitOr:
		return IntOperand(l|r, k), true, nil
	case ast.BinBitXor:
		return IntOperand(l^r, k), true, nil
	case ast.BinLt:
		return BoolOperand(l < r), true, nil
	case ast.BinLe:
		return BoolOperand(l <= r), true, nil
	case ast.BinGt:
		return BoolOperand(l > r), true, nil
	case ast.BinGe:
		return BoolOperand(l >= r), true, nil
	case ast.BinEq:
		return BoolOperand(l == r), true, nil
	case ast.BinNe:
		return BoolOperand(l != r), true, nil
	default:
		return Operand{}, false, nil
	}
}

func (b *Builder) buildCast(c *ast.CastExpr, dest *Place) (Operand, error) {
	xDest := b.genTemp(c.X.TypeInfo())
	operand, err := b.buildExpr(c.X, &xDest)
	if err != nil {
		return Operand{}, err
	}
	if dest == nil {
		return UnitOperand(), nil
	}
	b.fn.Emit(Inst{Op: OpCast, Dest: *dest, Src: operand, CastType: c.TypeInfo(), Pos: c.Pos()})
	return PlaceOperand(*dest), nil
}

var compoundBinOp = map[ast.AssignOp]ast.BinOp{
	ast.AssignAdd: ast.BinAdd, ast.AssignSub: ast.BinSub, ast.AssignMul: ast.BinMul,
	ast.AssignDiv: ast.BinDiv, ast.AssignRem: ast.BinRem, ast.AssignShl: ast.BinShl,
	ast.AssignShr: ast.BinShr, ast.AssignBitAnd: ast.BinBitAnd, ast.AssignBitOr: ast.BinBitOr,
	ast.AssignBitXor: ast.BinBitXor,
}

// buildAssign never takes a dest parameter: assignment is always unit-typed.
func (b *Builder) buildAssign(a *ast.AssignExpr) (Operand, error) {
	path, ok := a.LHS.(*ast.PathExpr)
	if !ok {
		return Operand{}, fmt.Errorf("internal error: assignment target must be a variable, got %T", a.LHS)
	}
	lhsPlace, err := b.placeForIdent(path.Name)
	if err != nil {
		return Operand{}, err
	}

	if a.Op == ast.AssignPlain {
		if _, err := b.buildExpr(a.RHS, &lhsPlace); err != nil {
			return Operand{}, err
		}
		return UnitOperand(), nil
	}

	rDest := b.genTemp(a.RHS.TypeInfo())
	rhs, err := b.buildExpr(a.RHS, &rDest)
	if err != nil {
		return Operand{}, err
	}
	b.fn.Emit(Inst{Op: OpBin, Dest: lhsPlace, Left: PlaceOperand(lhsPlace), BinOp: compoundBinOp[a.Op], Right: rhs, Pos: a.Pos()})
	return UnitOperand(), nil
}

func (b *Builder) buildCall(c *ast.CallExpr, dest *Place) (Operand, error) {
	calleeDest := b.genTemp(c.Callee.TypeInfo())
	calleeOperand, err := b.buildExpr(c.Callee, &calleeDest)
	if err != nil {
		return Operand{}, err
	}

	args := make([]Operand, len(c.Args))
	for i, a := range c.Args {
		argDest := b.genTemp(a.TypeInfo())
		operand, err := b.buildExpr(a, &argDest)
		if err != nil {
			return Operand{}, err
		}
		args[i] = operand
	}
	b.fn.Emit(Inst{Op: OpCall, Fn: calleeOperand, Args: args, Pos: c.Pos()})

	if dest == nil {
		return UnitOperand(), nil
	}
	b.fn.Emit(Inst{Op: OpLoad, Dest: *dest, Src: FnRetOperand(), Pos: c.Pos()})
	return PlaceOperand(*dest), nil
}

// ---- Conditions (comparison-jump fusion) ----

type cmpRule struct {
	cmp  CmpOp
	swap bool
}

// condJumpRule maps a source comparison operator to the fused, negated jump
// kind that tests "condition is false" — the remaining two operators (<=,
// >) reuse an existing CmpOp by swapping which operand is tested on which
// side.
var condJumpRule = map[ast.BinOp]cmpRule{
	ast.BinNe: {CmpEq, false},
	ast.BinEq: {CmpNe, false},
	ast.BinLe: {CmpLt, true},
	ast.BinLt: {CmpGe, false},
	ast.BinGt: {CmpGe, true},
	ast.BinGe: {CmpLt, false},
}

// emitCondJumpFalse emits the instruction that jumps when cond is false,
// returning its index so the caller can back-patch Target once the jump's
// destination is known. A plain comparison fuses into one instruction;
// anything else (short-circuiting && / ||, or a bare boolean variable/call)
// first materializes the condition's value into a temp and tests that.
func (b *Builder) emitCondJumpFalse(cond ast.Expr) (int, error) {
	if be, ok := cond.(*ast.BinaryExpr); ok && be.Op.IsComparison() {
		return b.emitFusedCmpJump(be)
	}
	d := b.genTemp(cond.TypeInfo())
	operand, err := b.buildExpr(cond, &d)
	if err != nil {
		return 0, err
	}
	return b.fn.Emit(Inst{Op: OpJumpIfNot, Src: operand, Target: NoLink, Pos: cond.Pos()}), nil
}

func (b *Builder) emitFusedCmpJump(be *ast.BinaryExpr) (int, error) {
	lDest := b.genTemp(be.Left.TypeInfo())
	lhs, err := b.buildExpr(be.Left, &lDest)
	if err != nil {
		return 0, err
	}
	rDest := b.genTemp(be.Right.TypeInfo())
	rhs, err := b.buildExpr(be.Right, &rDest)
	if err != nil {
		return 0, err
	}
	rule := condJumpRule[be.Op]
	left, right := lhs, rhs
	if rule.swap {
		left, right = rhs, lhs
	}
	return b.fn.Emit(Inst{Op: OpJumpIfCmp, Cmp: rule.cmp, Left: left, Right: right, Target: NoLink, Pos: be.Pos()}), nil
}

// ---- Control flow ----

// buildIf relies on the AST's own recursive else-if nesting: each level
// here has at most one pending jump (the "skip the else" jump, only when
// Else != nil), so a shared back-patch chain across every arm isn't needed
// — the recursive call for a nested else-if closes out its own end jump
// before this level computes its own, which already nests the targets
// correctly.
func (b *Builder) buildIf(ie *ast.IfExpr, dest *Place) (Operand, error) {
	falseJump, err := b.emitCondJumpFalse(ie.Cond)
	if err != nil {
		return Operand{}, err
	}

	if _, err := b.buildBlock(ie.Then, dest); err != nil {
		return Operand{}, err
	}

	skipJump := NoLink
	if ie.Else != nil {
		skipJump = b.fn.Emit(Inst{Op: OpJump, Target: NoLink, Pos: ie.Pos()})
	}

	b.fn.Insts[falseJump].Target = b.fn.NextIdx()

	if ie.Else != nil {
		if _, err := b.buildElse(ie.Else, dest); err != nil {
			return Operand{}, err
		}
		b.fn.Insts[skipJump].Target = b.fn.NextIdx()
	}

	if dest != nil {
		return PlaceOperand(*dest), nil
	}
	return UnitOperand(), nil
}

func (b *Builder) buildElse(els ast.Expr, dest *Place) (Operand, error) {
	switch e := els.(type) {
	case *ast.Block:
		return b.buildBlock(e, dest)
	case *ast.IfExpr:
		return b.buildIf(e, dest)
	default:
		return b.buildExpr(els, dest)
	}
}

func (b *Builder) buildWhile(w *ast.WhileExpr, dest *Place) (Operand, error) {
	loopStart := b.fn.NextIdx()
	falseJump, err := b.emitCondJumpFalse(w.Cond)
	if err != nil {
		return Operand{}, err
	}

	b.loopStack = append(b.loopStack, loopFrame{chain: NoLink, start: loopStart})
	_, err = b.buildLoopBody(w.Body, loopStart)
	frame := b.loopStack[len(b.loopStack)-1]
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
	if err != nil {
		return Operand{}, err
	}

	endIdx := b.fn.NextIdx()
	b.fn.Insts[falseJump].Target = endIdx
	b.fn.PatchChain(frame.chain, endIdx)

	// while is always unit-typed; unit carries no data, so there is nothing
	// to write into dest even when one was requested.
	return UnitOperand(), nil
}

// buildLoopBody lowers body (discarding its value — loop bodies are always
// unit-typed statement sequences) and emits the unconditional back-edge to
// loopStart.
func (b *Builder) buildLoopBody(body *ast.Block, loopStart int) (Operand, error) {
	operand, err := b.buildBlock(body, nil)
	if err != nil {
		return Operand{}, err
	}
	b.fn.Emit(Inst{Op: OpJump, Target: loopStart, Pos: body.Pos()})
	return operand, nil
}

func (b *Builder) buildLoop(l *ast.LoopExpr, dest *Place) (Operand, error) {
	loopStart := b.fn.NextIdx()
	b.loopStack = append(b.loopStack, loopFrame{breakDest: dest, chain: NoLink, start: loopStart})
	_, err := b.buildLoopBody(l.Body, loopStart)
	frame := b.loopStack[len(b.loopStack)-1]
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
	if err != nil {
		return Operand{}, err
	}

	endIdx := b.fn.NextIdx()
	b.fn.PatchChain(frame.chain, endIdx)

	if dest != nil {
		return PlaceOperand(*dest), nil
	}
	return NeverOperand(), nil
}

// buildFor desugars a `for x in lo..hi` loop into the same while-style IR
// shape as buildWhile: initialize the loop variable to the range's low
// bound, test it against the high bound before each iteration, and
// increment it by one after the body.
func (b *Builder) buildFor(f *ast.ForExpr, dest *Place) (Operand, error) {
	rng, ok := f.Iter.(*ast.RangeExpr)
	if !ok || rng.Low == nil || rng.High == nil {
		return Operand{}, fmt.Errorf("internal error: for loop requires a bounded range, got %s", f.Iter)
	}

	b.scopes.EnterScope(f.Body)
	iterPlace, err := b.placeForIdent(f.Pattern)
	if err != nil {
		b.scopes.ExitScope()
		return Operand{}, err
	}
	if _, err := b.buildExpr(rng.Low, &iterPlace); err != nil {
		b.scopes.ExitScope()
		return Operand{}, err
	}

	hiDest := b.genTemp(rng.High.TypeInfo())
	hiOperand, err := b.buildExpr(rng.High, &hiDest)
	if err != nil {
		b.scopes.ExitScope()
		return Operand{}, err
	}

	loopStart := b.fn.NextIdx()
	var exit Inst
	if rng.Inclusive {
		// exit when hi < iter, i.e. iter > hi, the negation of iter <= hi.
		exit = Inst{Op: OpJumpIfCmp, Cmp: CmpLt, Left: hiOperand, Right: PlaceOperand(iterPlace), Target: NoLink, Pos: f.Pos()}
	} else {
		// exit when iter >= hi, the negation of iter < hi.
		exit = Inst{Op: OpJumpIfCmp, Cmp: CmpGe, Left: PlaceOperand(iterPlace), Right: hiOperand, Target: NoLink, Pos: f.Pos()}
	}
	exitIdx := b.fn.Emit(exit)

	b.loopStack = append(b.loopStack, loopFrame{chain: NoLink, start: loopStart})
	_, bodyErr := b.buildBlockBody(f.Body, nil)
	frame := b.loopStack[len(b.loopStack)-1]
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
	if bodyErr != nil {
		b.scopes.ExitScope()
		return Operand{}, bodyErr
	}

	stepDest := b.genTemp(rng.Low.TypeInfo())
	stepOperand := b.materialize(IntOperand(1, numKindOf(rng.Low.TypeInfo())), stepDest, f.Pos())
	b.fn.Emit(Inst{Op: OpBin, Dest: iterPlace, Left: PlaceOperand(iterPlace), BinOp: ast.BinAdd, Right: stepOperand, Pos: f.Pos()})
	b.fn.Emit(Inst{Op: OpJump, Target: loopStart, Pos: f.Pos()})

	endIdx := b.fn.NextIdx()
	b.fn.Insts[exitIdx].Target = endIdx
	b.fn.PatchChain(frame.chain, endIdx)

	b.scopes.ExitScope()
	// for is always unit-typed; nothing to write into dest.
	return UnitOperand(), nil
}

// buildMatch follows the same back-patch technique as buildIf: each
// non-default arm becomes a fused equality test against the scrutinee, the
// arm body a jump to the match's end, and the default/wildcard arm (if
// present) falls through with no test at all.
func (b *Builder) buildMatch(m *ast.MatchExpr, dest *Place) (Operand, error) {
	scrutDest := b.genTemp(m.Scrutinee.TypeInfo())
	scrutOperand, err := b.buildExpr(m.Scrutinee, &scrutDest)
	if err != nil {
		return Operand{}, err
	}

	scope := b.scopes.CurScope()
	endChain := NoLink
	for i := range m.Arms {
		arm := &m.Arms[i]
		scope.CurStmtID++
		last := i == len(m.Arms)-1

		falseJump := NoLink
		switch {
		case arm.Pattern.Wildcard:
			// no test: always matches.
		case arm.Pattern.Ident != "":
			bindPlace, err := b.placeForIdent(arm.Pattern.Ident)
			if err != nil {
				return Operand{}, err
			}
			b.materialize(scrutOperand, bindPlace, arm.Body.Pos())
		default:
			litDest := b.genTemp(arm.Pattern.Literal.TypeInfo())
			litOperand, err := b.buildExpr(arm.Pattern.Literal, &litDest)
			if err != nil {
				return Operand{}, err
			}
			falseJump = b.fn.Emit(Inst{Op: OpJumpIfCmp, Cmp: CmpNe, Left: scrutOperand, Right: litOperand, Target: NoLink, Pos: arm.Body.Pos()})
		}

		if _, err := b.buildExpr(arm.Body, dest); err != nil {
			return Operand{}, err
		}

		if !last {
			idx := b.fn.Emit(Inst{Op: OpJump, Target: endChain, Pos: arm.Body.Pos()})
			endChain = idx
		}
		if falseJump != NoLink {
			b.fn.Insts[falseJump].Target = b.fn.NextIdx()
		}
	}

	endIdx := b.fn.NextIdx()
	b.fn.PatchChain(endChain, endIdx)

	if dest != nil {
		return PlaceOperand(*dest), nil
	}
	return UnitOperand(), nil
}

func (b *Builder) buildReturn(r *ast.ReturnExpr, dest *Place) (Operand, error) {
	retDest := b.retDest[len(b.retDest)-1]
	if r.Value != nil {
		operand, err := b.buildExpr(r.Value, &retDest)
		if err != nil {
			return Operand{}, err
		}
		b.fn.Emit(Inst{Op: OpRet, Src: operand, Pos: r.Pos()})
	} else {
		b.fn.Emit(Inst{Op: OpRet, Src: UnitOperand(), Pos: r.Pos()})
	}
	// Unreachable past this point, but dest-bookkeeping stays consistent
	// with every other expression form.
	if dest != nil {
		b.fn.Emit(Inst{Op: OpLoad, Dest: *dest, Src: NeverOperand(), Pos: r.Pos()})
		return PlaceOperand(*dest), nil
	}
	return NeverOperand(), nil
}

func (b *Builder) buildBreak(br *ast.BreakExpr, dest *Place) (Operand, error) {
	if len(b.loopStack) == 0 {
		return Operand{}, fmt.Errorf("internal error: break outside of a loop during IR lowering")
	}
	frame := &b.loopStack[len(b.loopStack)-1]
	if br.Value != nil {
		if frame.breakDest == nil {
			return Operand{}, fmt.Errorf("internal error: break carries a value but the enclosing loop has no destination for it")
		}
		if _, err := b.buildExpr(br.Value, frame.breakDest); err != nil {
			return Operand{}, err
		}
	}
	idx := b.fn.Emit(Inst{Op: OpJump, Target: frame.chain, Pos: br.Pos()})
	frame.chain = idx

	// Unreachable past this point, but dest-bookkeeping stays consistent
	// with return/continue.
	if dest != nil {
		b.fn.Emit(Inst{Op: OpLoad, Dest: *dest, Src: NeverOperand(), Pos: br.Pos()})
		return PlaceOperand(*dest), nil
	}
	return NeverOperand(), nil
}

func (b *Builder) buildContinue(c *ast.ContinueExpr, dest *Place) (Operand, error) {
	if len(b.loopStack) == 0 {
		return Operand{}, fmt.Errorf("internal error: continue outside of a loop during IR lowering")
	}
	start := b.loopStack[len(b.loopStack)-1].start
	b.fn.Emit(Inst{Op: OpJump, Target: start, Pos: c.Pos()})

	if dest != nil {
		b.fn.Emit(Inst{Op: OpLoad, Dest: *dest, Src: NeverOperand(), Pos: c.Pos()})
		return PlaceOperand(*dest), nil
	}
	return NeverOperand(), nil
}
