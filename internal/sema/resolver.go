// Package sema implements the symbol resolver: a single AST walk that
// hoists top-level declarations, resolves every path expression to a
// variable/function/struct, infers and unifies literal-numeric types,
// enforces mutability, and interns string literals for deterministic label
// assignment downstream.
package sema

import (
	"fmt"

	"github.com/rlc-lang/rlc/internal/ast"
)

// ResolveError is returned for any problem the resolver finds: an unknown
// identifier, an incompatible type, or a mutability violation.
type ResolveError struct {
	Msg string
	Pos ast.Position
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve error at %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// Result carries the resolver's output that the IR builder needs beyond the
// mutated AST itself.
type Result struct {
	// Strings is the set of string literals encountered, in first-seen
	// order, for deterministic ".str.<n>" label assignment.
	Strings []string
}

type loopCtx struct {
	breakType *ast.Type
	hasBreak  bool
}

// Resolver walks a Crate exactly once, mutating every expression node's
// type/kind in place.
type Resolver struct {
	scopes      *ast.ScopeStack
	err         error
	retStack    []*ast.Type
	loopStack   []loopCtx
	strings     []string
	stringIndex map[string]int
	synthScope  ast.ScopeID
}

func newResolver() *Resolver {
	return &Resolver{
		scopes:      ast.NewScopeStack(),
		stringIndex: make(map[string]int),
		synthScope:  1 << 32, // well above any scope id the parser assigns
	}
}

// Resolve runs the resolver over crate, mutating it in place.
func Resolve(crate *ast.Crate) (*Result, error) {
	r := newResolver()
	crate.Scope.SetFatherAsBuiltin()
	r.scopes.EnterFile(crate)

	r.hoistItems(crate.Items, crate.Scope)
	for _, it := range crate.Items {
		r.resolveItemBody(it)
		if r.failed() {
			break
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Result{Strings: r.strings}, nil
}

func (r *Resolver) fail(msg string, pos ast.Position) {
	if r.err == nil {
		r.err = &ResolveError{Msg: msg, Pos: pos}
	}
}

func (r *Resolver) failed() bool { return r.err != nil }

func (r *Resolver) internString(s string) int {
	if idx, ok := r.stringIndex[s]; ok {
		return idx
	}
	idx := len(r.strings)
	r.strings = append(r.strings, s)
	r.stringIndex[s] = idx
	return idx
}

func (r *Resolver) nextSynthScopeID() ast.ScopeID {
	r.synthScope++
	return r.synthScope
}

// ---- Hoisting ----

// hoistItems installs every fn/struct/extern-fn name in scope's type table,
// and every const/static in scope's variable table, before any statement of
// the enclosing block is analyzed. Two sub-passes let a signature or field
// forward-reference a struct declared later in the same item list: pass one
// reserves every name, pass two fills in real types.
func (r *Resolver) hoistItems(items []ast.Item, scope *ast.Scope) {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.Struct:
			scope.AddTypeDef(v.Name, ast.StructType(v.Name, nil, map[string]*ast.Type{}))
		case *ast.Function:
			scope.AddTypeDef(v.Name, ast.FnType(nil, ast.UnknownType()))
		case *ast.ExternBlock:
			for _, fn := range v.Items {
				scope.AddTypeDef(fn.Name, ast.FnType(nil, ast.UnknownType()))
			}
		}
	}
	for _, it := range items {
		switch v := it.(type) {
		case *ast.Struct:
			fields := make(map[string]*ast.Type, len(v.Fields))
			order := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				fields[f.Name] = r.resolveTypeExpr(scope, f.Type)
				order[i] = f.Name
			}
			scope.AddTypeDef(v.Name, ast.StructType(v.Name, order, fields))
		case *ast.Function:
			params := make([]*ast.Type, len(v.Params))
			for i, p := range v.Params {
				params[i] = r.resolveTypeExpr(scope, p.Type)
			}
			ret := r.resolveTypeExpr(scope, v.ReturnType)
			scope.AddTypeDef(v.Name, ast.FnType(params, ret))
		case *ast.ExternBlock:
			for _, fn := range v.Items {
				params := make([]*ast.Type, len(fn.Params))
				for i, p := range fn.Params {
					params[i] = r.resolveTypeExpr(scope, p.Type)
				}
				ret := r.resolveTypeExpr(scope, fn.ReturnType)
				scope.AddTypeDef(fn.Name, ast.FnType(params, ret))
			}
		case *ast.ConstItem:
			t := r.resolveTypeExpr(scope, v.Type)
			scope.AddVariable(v.Name, ast.VarGlobal, false, t)
		case *ast.StaticItem:
			t := r.resolveTypeExpr(scope, v.Type)
			scope.AddVariable(v.Name, ast.VarGlobal, v.Mutable, t)
		}
	}
}

func extractItems(stmts []ast.Stmt) []ast.Item {
	var items []ast.Item
	for _, s := range stmts {
		if is, ok := s.(*ast.ItemStmt); ok {
			items = append(items, is.Item)
		}
	}
	return items
}

// resolveItemBody resolves the body of a top-level or nested item, after its
// signature has already been hoisted. Struct/ExternBlock have no bodies.
func (r *Resolver) resolveItemBody(item ast.Item) {
	if r.failed() {
		return
	}
	switch v := item.(type) {
	case *ast.Function:
		r.resolveFunction(v)
	case *ast.ConstItem:
		t := r.resolveExpr(v.Value)
		r.checkDeclaredType(v.Type, t, v.Pos())
	case *ast.StaticItem:
		t := r.resolveExpr(v.Value)
		r.checkDeclaredType(v.Type, t, v.Pos())
	}
}

func (r *Resolver) checkDeclaredType(declared *ast.TypeExpr, actual *ast.Type, pos ast.Position) {
	if declared == nil || r.failed() {
		return
	}
	declType := r.resolveTypeExpr(r.scopes.CurScope(), declared)
	if _, ok := declType.Cmp(actual); !ok {
		r.fail(fmt.Sprintf("type mismatch: expected %s, got %s", declType, actual), pos)
	}
}

func (r *Resolver) resolveFunction(fn *ast.Function) {
	if fn.Body == nil {
		return
	}
	r.scopes.EnterScope(fn.Body)
	scope := r.scopes.CurScope()
	for _, p := range fn.Params {
		t := r.resolveTypeExpr(scope, p.Type)
		scope.AddVariable(p.Name, ast.VarParam, p.Mutable, t)
	}
	retType := r.resolveTypeExpr(scope, fn.ReturnType)
	r.retStack = append(r.retStack, retType)

	bodyType := r.resolveBlockBody(fn.Body)
	if !r.failed() {
		if _, ok := retType.Cmp(bodyType); !ok {
			r.fail(fmt.Sprintf("type mismatch: function `%s` returns %s, body has type %s", fn.Name, retType, bodyType), fn.Pos())
		}
	}

	r.retStack = r.retStack[:len(r.retStack)-1]
	r.scopes.ExitScope()
}

// ---- Types ----

func (r *Resolver) resolveTypeExpr(scope *ast.Scope, te *ast.TypeExpr) *ast.Type {
	if te == nil {
		return ast.UnitType()
	}
	if te.RefOf {
		return ast.RefType(r.resolveTypeExpr(scope, te.Elem), te.Mutable)
	}
	if te.Path == "()" {
		return ast.UnitType()
	}
	t := scope.FindDefExceptFn(te.Path)
	if t.IsUnknown() {
		r.fail(fmt.Sprintf("type '%s' not found", te.Path), te.Pos())
		return ast.UnknownType()
	}
	return t
}

// ---- Blocks & statements ----

func (r *Resolver) resolveBlock(block *ast.Block) *ast.Type {
	r.scopes.EnterScope(block)
	t := r.resolveBlockBody(block)
	r.scopes.ExitScope()
	return t
}

// resolveBlockBody hoists and resolves block's contents assuming its scope
// is already current (the caller owns scope entry/exit — this lets a
// function body add its parameters before the first statement is numbered).
func (r *Resolver) resolveBlockBody(block *ast.Block) *ast.Type {
	scope := r.scopes.CurScope()
	r.hoistItems(extractItems(block.Stmts), scope)

	for _, stmt := range block.Stmts {
		if r.failed() {
			return ast.UnknownType()
		}
		scope.CurStmtID++
		r.resolveStmt(stmt)
	}

	if block.Tail != nil {
		if r.failed() {
			return ast.UnknownType()
		}
		scope.CurStmtID++
		t := r.resolveExpr(block.Tail)
		block.SetTypeInfo(t)
		return t
	}
	block.SetTypeInfo(ast.UnitType())
	return ast.UnitType()
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ItemStmt:
		r.resolveItemBody(s.Item)
	case *ast.LetStmt:
		r.resolveLet(s)
	case *ast.ExprStmt:
		r.resolveExpr(s.X)
	}
}

func (r *Resolver) resolveLet(s *ast.LetStmt) {
	scope := r.scopes.CurScope()
	var initType *ast.Type
	if s.Init != nil {
		initType = r.resolveExpr(s.Init)
	} else {
		initType = ast.UnknownType()
	}

	varType := initType
	if s.Type != nil {
		declType := r.resolveTypeExpr(scope, s.Type)
		if s.Init != nil {
			if _, ok := declType.Cmp(initType); !ok {
				r.fail(fmt.Sprintf("type mismatch: expected %s, got %s", declType, initType), s.Pos())
			}
		}
		varType = declType
	}
	scope.AddVariable(s.Name, ast.VarLocal, s.Mutable, varType)
}

// ---- Expressions ----

func (r *Resolver) resolveExpr(expr ast.Expr) *ast.Type {
	if r.failed() {
		return ast.UnknownType()
	}
	switch e := expr.(type) {
	case *ast.PathExpr:
		return r.resolvePath(e)
	case *ast.IntLiteral:
		return r.resolveIntLiteral(e)
	case *ast.FloatLiteral:
		return r.resolveFloatLiteral(e)
	case *ast.BoolLiteral:
		e.SetTypeInfo(ast.BoolType())
		return ast.BoolType()
	case *ast.CharLiteral:
		e.SetTypeInfo(ast.CharType())
		return ast.CharType()
	case *ast.StrLiteral:
		r.internString(e.Value)
		e.SetTypeInfo(ast.StrType())
		return ast.StrType()
	case *ast.UnaryExpr:
		return r.resolveUnary(e)
	case *ast.BinaryExpr:
		return r.resolveBinary(e)
	case *ast.CastExpr:
		return r.resolveCast(e)
	case *ast.GroupedExpr:
		t := r.resolveExpr(e.X)
		e.SetTypeInfo(t)
		e.SetKind(e.X.Kind())
		return t
	case *ast.AssignExpr:
		return r.resolveAssign(e)
	case *ast.RangeExpr:
		return r.resolveRange(e)
	case *ast.ArrayExpr:
		for _, elem := range e.Elems {
			r.resolveExpr(elem)
		}
		e.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	case *ast.ArrayIndexExpr:
		r.resolveExpr(e.Arr)
		r.resolveExpr(e.Index)
		e.SetKind(e.Arr.Kind())
		e.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	case *ast.TupleExpr:
		for _, elem := range e.Elems {
			r.resolveExpr(elem)
		}
		e.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	case *ast.TupleIndexExpr:
		r.resolveExpr(e.X)
		e.SetKind(e.X.Kind())
		e.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	case *ast.StructLitExpr:
		return r.resolveStructLit(e)
	case *ast.CallExpr:
		return r.resolveCall(e)
	case *ast.MethodCallExpr:
		r.resolveExpr(e.Receiver)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
		e.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	case *ast.FieldAccessExpr:
		return r.resolveFieldAccess(e)
	case *ast.IfExpr:
		return r.resolveIf(e)
	case *ast.WhileExpr:
		return r.resolveWhile(e)
	case *ast.LoopExpr:
		return r.resolveLoop(e)
	case *ast.ForExpr:
		return r.resolveFor(e)
	case *ast.MatchExpr:
		return r.resolveMatch(e)
	case *ast.ReturnExpr:
		return r.resolveReturn(e)
	case *ast.BreakExpr:
		return r.resolveBreak(e)
	case *ast.ContinueExpr:
		e.SetTypeInfo(ast.NeverType())
		return ast.NeverType()
	case *ast.Block:
		return r.resolveBlock(e)
	default:
		r.fail(fmt.Sprintf("unsupported expression %T", expr), expr.Pos())
		return ast.UnknownType()
	}
}

func (r *Resolver) resolvePath(p *ast.PathExpr) *ast.Type {
	scope := r.scopes.CurScope()
	if vi, _, ok := scope.FindVariable(p.Name); ok {
		kind := ast.KindPlace
		if vi.Mutable {
			kind = ast.KindMutablePlace
		}
		p.SetKind(kind)
		p.SetTypeInfo(vi.Type)
		return vi.Type
	}
	if t := scope.FindFn(p.Name); !t.IsUnknown() {
		p.SetKind(ast.KindValue)
		p.SetTypeInfo(t)
		return t
	}
	if t := scope.FindDefExceptFn(p.Name); !t.IsUnknown() {
		p.SetKind(ast.KindValue)
		p.SetTypeInfo(t)
		return t
	}
	r.fail(fmt.Sprintf("identifier '%s' not found", p.Name), p.Pos())
	p.SetTypeInfo(ast.UnknownType())
	return ast.UnknownType()
}

var intSuffixKind = map[string]ast.LitNumKind{
	"i8": ast.I8, "i16": ast.I16, "i32": ast.I32, "i64": ast.I64, "i128": ast.I128, "isize": ast.Isize,
	"u8": ast.U8, "u16": ast.U16, "u32": ast.U32, "u64": ast.U64, "u128": ast.U128, "usize": ast.Usize,
}

var floatSuffixKind = map[string]ast.LitNumKind{"f32": ast.F32, "f64": ast.F64}

func (r *Resolver) resolveIntLiteral(l *ast.IntLiteral) *ast.Type {
	k := ast.I
	if l.Suffix != "" {
		if kk, ok := intSuffixKind[l.Suffix]; ok {
			k = kk
		}
	}
	t := ast.LitNumType(k)
	l.SetTypeInfo(t)
	return t
}

func (r *Resolver) resolveFloatLiteral(l *ast.FloatLiteral) *ast.Type {
	k := ast.F
	if l.Suffix != "" {
		if kk, ok := floatSuffixKind[l.Suffix]; ok {
			k = kk
		}
	}
	t := ast.LitNumType(k)
	l.SetTypeInfo(t)
	return t
}

func (r *Resolver) isBoolLike(t *ast.Type) bool {
	return t != nil && (t.Kind == ast.TBool || t.IsUnknown() || t.IsNever())
}

func (r *Resolver) isNumericLike(t *ast.Type) bool {
	return t != nil && (t.Kind == ast.TLitNum || t.IsUnknown() || t.IsNever())
}

// unifyTypes picks the more-refined of a/b according to Type.Cmp's partial
// order, failing if the two are unrelated.
func (r *Resolver) unifyTypes(a, b *ast.Type, pos ast.Position) *ast.Type {
	cmp, ok := a.Cmp(b)
	if !ok {
		r.fail(fmt.Sprintf("type mismatch: %s vs %s", a, b), pos)
		return ast.UnknownType()
	}
	if cmp <= 0 {
		return b
	}
	return a
}

func (r *Resolver) resolveUnary(u *ast.UnaryExpr) *ast.Type {
	xt := r.resolveExpr(u.X)
	var result *ast.Type
	switch u.Op {
	case ast.UnNeg:
		if !r.isNumericLike(xt) {
			r.fail("operand of unary - must be numeric", u.Pos())
		}
		result = xt
	case ast.UnNot:
		if !r.isBoolLike(xt) {
			r.fail("operand of unary ! must be boolean", u.Pos())
		}
		result = ast.BoolType()
	case ast.UnRef:
		result = ast.RefType(xt, false)
	case ast.UnRefMut:
		if u.X.Kind() != ast.KindMutablePlace {
			r.fail("cannot take mutable reference of an immutable place", u.Pos())
		}
		result = ast.RefType(xt, true)
	case ast.UnDeref:
		if xt.Kind == ast.TRef {
			result = xt.Elem
			u.SetKind(ast.KindPlace)
			if xt.Mutable {
				u.SetKind(ast.KindMutablePlace)
			}
		} else if xt.IsUnknown() || xt.IsNever() {
			result = ast.UnknownType()
		} else {
			r.fail("cannot dereference a non-reference type", u.Pos())
			result = ast.UnknownType()
		}
	default:
		result = ast.UnknownType()
	}
	u.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveBinary(b *ast.BinaryExpr) *ast.Type {
	left := r.resolveExpr(b.Left)
	right := r.resolveExpr(b.Right)
	var result *ast.Type
	switch {
	case b.Op.IsLogical():
		if !r.isBoolLike(left) || !r.isBoolLike(right) {
			r.fail(fmt.Sprintf("operands of %s must be boolean", b.Op), b.Pos())
		}
		result = ast.BoolType()
	case b.Op.IsComparison():
		if _, ok := left.Cmp(right); !ok {
			r.fail(fmt.Sprintf("cannot compare %s with %s", left, right), b.Pos())
		}
		result = ast.BoolType()
	default:
		if !r.isNumericLike(left) || !r.isNumericLike(right) {
			r.fail(fmt.Sprintf("operands of %s must be numeric", b.Op), b.Pos())
			result = ast.UnknownType()
		} else {
			result = r.unifyTypes(left, right, b.Pos())
		}
	}
	b.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveCast(c *ast.CastExpr) *ast.Type {
	r.resolveExpr(c.X)
	t := r.resolveTypeExpr(r.scopes.CurScope(), c.Type)
	c.SetTypeInfo(t)
	return t
}

// refineVar narrows name's declared type toward newType, reporting any
// failure at pos. The actual partial-order check lives on Scope itself;
// this only adds the position a diagnostic needs.
func (r *Resolver) refineVar(name string, newType *ast.Type, pos ast.Position) {
	scope := r.scopes.CurScope()
	if _, _, ok := scope.FindVariable(name); !ok {
		return // resolveExpr on the LHS path already reported this
	}
	if err := scope.UpdateVariableType(name, newType); err != nil {
		r.fail(err.Error(), pos)
	}
}

var assignOpToBin = map[ast.AssignOp]ast.BinOp{
	ast.AssignAdd: ast.BinAdd, ast.AssignSub: ast.BinSub, ast.AssignMul: ast.BinMul,
	ast.AssignDiv: ast.BinDiv, ast.AssignRem: ast.BinRem, ast.AssignShl: ast.BinShl,
	ast.AssignShr: ast.BinShr, ast.AssignBitAnd: ast.BinBitAnd, ast.AssignBitOr: ast.BinBitOr,
	ast.AssignBitXor: ast.BinBitXor,
}

func (r *Resolver) resolveAssign(a *ast.AssignExpr) *ast.Type {
	lt := r.resolveExpr(a.LHS)
	rt := r.resolveExpr(a.RHS)

	if a.LHS.Kind() != ast.KindMutablePlace {
		r.fail("cannot assign to an immutable place", a.Pos())
	}

	if a.Op == ast.AssignPlain {
		if path, ok := a.LHS.(*ast.PathExpr); ok {
			r.refineVar(path.Name, rt, a.Pos())
		}
	} else if !r.isNumericLike(lt) || !r.isNumericLike(rt) {
		r.fail(fmt.Sprintf("operands of %s must be numeric", assignOpToBin[a.Op]), a.Pos())
	}

	a.SetTypeInfo(ast.UnitType())
	return ast.UnitType()
}

func (r *Resolver) resolveRange(rng *ast.RangeExpr) *ast.Type {
	var low, high *ast.Type
	if rng.Low != nil {
		low = r.resolveExpr(rng.Low)
	}
	if rng.High != nil {
		high = r.resolveExpr(rng.High)
	}
	var result *ast.Type
	switch {
	case low != nil && high != nil:
		result = r.unifyTypes(low, high, rng.Pos())
	case low != nil:
		result = low
	case high != nil:
		result = high
	default:
		result = ast.LitNumType(ast.I)
	}
	rng.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveStructLit(s *ast.StructLitExpr) *ast.Type {
	scope := r.scopes.CurScope()
	st := scope.FindDefExceptFn(s.Name)
	if st.IsUnknown() || st.Kind != ast.TStruct {
		r.fail(fmt.Sprintf("struct '%s' not found", s.Name), s.Pos())
		for _, f := range s.Fields {
			r.resolveExpr(f.Value)
		}
		s.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	}
	for _, f := range s.Fields {
		ft := r.resolveExpr(f.Value)
		declared, ok := st.Fields[f.Name]
		if !ok {
			r.fail(fmt.Sprintf("struct '%s' has no field '%s'", s.Name, f.Name), s.Pos())
			continue
		}
		if _, ok := declared.Cmp(ft); !ok {
			r.fail(fmt.Sprintf("field '%s': expected %s, got %s", f.Name, declared, ft), s.Pos())
		}
	}
	s.SetTypeInfo(st)
	return st
}

func (r *Resolver) resolveFieldAccess(f *ast.FieldAccessExpr) *ast.Type {
	xt := r.resolveExpr(f.X)
	f.SetKind(f.X.Kind())
	if xt.Kind == ast.TStruct {
		if ft, ok := xt.Fields[f.Field]; ok {
			f.SetTypeInfo(ft)
			return ft
		}
		r.fail(fmt.Sprintf("struct '%s' has no field '%s'", xt.Name, f.Field), f.Pos())
		f.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	}
	if !xt.IsUnknown() && !xt.IsNever() {
		r.fail("field access on a non-struct type", f.Pos())
	}
	f.SetTypeInfo(ast.UnknownType())
	return ast.UnknownType()
}

func (r *Resolver) resolveCall(c *ast.CallExpr) *ast.Type {
	ct := r.resolveExpr(c.Callee)
	argTypes := make([]*ast.Type, len(c.Args))
	for i, a := range c.Args {
		argTypes[i] = r.resolveExpr(a)
	}
	if ct.Kind != ast.TFn && ct.Kind != ast.TFnPtr {
		if !ct.IsUnknown() && !ct.IsNever() {
			r.fail("called value is not a function", c.Pos())
		}
		c.SetTypeInfo(ast.UnknownType())
		return ast.UnknownType()
	}
	if len(ct.Params) != len(argTypes) {
		r.fail(fmt.Sprintf("expected %d argument(s), got %d", len(ct.Params), len(argTypes)), c.Pos())
	} else {
		for i, pt := range ct.Params {
			if _, ok := pt.Cmp(argTypes[i]); !ok {
				r.fail(fmt.Sprintf("argument %d: expected %s, got %s", i+1, pt, argTypes[i]), c.Pos())
			}
		}
	}
	ret := ct.Ret
	if ret == nil {
		ret = ast.UnitType()
	}
	c.SetTypeInfo(ret)
	return ret
}

func (r *Resolver) resolveIf(i *ast.IfExpr) *ast.Type {
	ct := r.resolveExpr(i.Cond)
	if !r.isBoolLike(ct) {
		r.fail("if condition must be boolean", i.Cond.Pos())
	}
	thenType := r.resolveBlock(i.Then)
	var result *ast.Type
	if i.Else != nil {
		elseType := r.resolveExpr(i.Else)
		result = r.unifyTypes(thenType, elseType, i.Pos())
	} else {
		result = ast.UnitType()
	}
	i.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveWhile(w *ast.WhileExpr) *ast.Type {
	ct := r.resolveExpr(w.Cond)
	if !r.isBoolLike(ct) {
		r.fail("while condition must be boolean", w.Cond.Pos())
	}
	r.loopStack = append(r.loopStack, loopCtx{})
	r.resolveBlock(w.Body)
	r.loopStack = r.loopStack[:len(r.loopStack)-1]
	w.SetTypeInfo(ast.UnitType())
	return ast.UnitType()
}

func (r *Resolver) resolveLoop(l *ast.LoopExpr) *ast.Type {
	r.loopStack = append(r.loopStack, loopCtx{})
	r.resolveBlock(l.Body)
	ctx := r.loopStack[len(r.loopStack)-1]
	r.loopStack = r.loopStack[:len(r.loopStack)-1]
	result := ast.NeverType()
	if ctx.hasBreak {
		result = ctx.breakType
	}
	l.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveFor(f *ast.ForExpr) *ast.Type {
	iterType := r.resolveExpr(f.Iter)

	r.scopes.EnterScope(f.Body)
	scope := r.scopes.CurScope()
	elemType := iterType
	if iterType.IsUnknown() {
		elemType = ast.LitNumType(ast.I)
	}
	scope.AddVariable(f.Pattern, ast.VarLocal, false, elemType)

	r.loopStack = append(r.loopStack, loopCtx{})
	r.resolveBlockBody(f.Body)
	r.loopStack = r.loopStack[:len(r.loopStack)-1]
	r.scopes.ExitScope()

	f.SetTypeInfo(ast.UnitType())
	return ast.UnitType()
}

func (r *Resolver) resolveMatch(m *ast.MatchExpr) *ast.Type {
	scrutType := r.resolveExpr(m.Scrutinee)
	scope := r.scopes.CurScope()

	var result *ast.Type
	hasResult := false
	for i := range m.Arms {
		arm := &m.Arms[i]
		scope.CurStmtID++
		switch {
		case arm.Pattern.Wildcard:
			// no binding
		case arm.Pattern.Ident != "":
			scope.AddVariable(arm.Pattern.Ident, ast.VarLocal, false, scrutType)
		case arm.Pattern.Literal != nil:
			r.resolveExpr(arm.Pattern.Literal)
		}
		bodyType := r.resolveExpr(arm.Body)
		if hasResult {
			result = r.unifyTypes(result, bodyType, m.Pos())
		} else {
			result = bodyType
			hasResult = true
		}
	}
	if !hasResult {
		result = ast.UnitType()
	}
	m.SetTypeInfo(result)
	return result
}

func (r *Resolver) resolveReturn(ret *ast.ReturnExpr) *ast.Type {
	vt := ast.UnitType()
	if ret.Value != nil {
		vt = r.resolveExpr(ret.Value)
	}
	if len(r.retStack) > 0 {
		want := r.retStack[len(r.retStack)-1]
		if _, ok := want.Cmp(vt); !ok {
			r.fail(fmt.Sprintf("type mismatch: function returns %s, `return` has type %s", want, vt), ret.Pos())
		}
	}
	ret.SetTypeInfo(ast.NeverType())
	return ast.NeverType()
}

func (r *Resolver) resolveBreak(b *ast.BreakExpr) *ast.Type {
	if len(r.loopStack) == 0 {
		r.fail("break outside of a loop", b.Pos())
		b.SetTypeInfo(ast.NeverType())
		return ast.NeverType()
	}
	vt := ast.UnitType()
	if b.Value != nil {
		vt = r.resolveExpr(b.Value)
	}
	top := &r.loopStack[len(r.loopStack)-1]
	if top.hasBreak {
		top.breakType = r.unifyTypes(top.breakType, vt, b.Pos())
	} else {
		top.breakType = vt
		top.hasBreak = true
	}
	b.SetTypeInfo(ast.NeverType())
	return ast.NeverType()
}
