package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/lexer"
	"github.com/rlc-lang/rlc/internal/parser"
	"github.com/rlc-lang/rlc/internal/sema"
)

func buildSource(t *testing.T, src string) (*ir.Program, error) {
	t.Helper()
	lx := lexer.New()
	toks, err := lx.Lex(src)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	require.NoError(t, err)
	return ir.Build(crate, res.Strings, ir.OptimizeZero)
}

func findFunc(prog *ir.Program, name string) *ir.Func {
	for _, f := range prog.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func countOp(f *ir.Func, op ir.Op) int {
	n := 0
	for _, inst := range f.Insts {
		if inst.Op == op {
			n++
		}
	}
	return n
}

func TestBuildSimpleFunctionEndsInRet(t *testing.T) {
	prog, err := buildSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "add")
	require.NotNil(t, fn)
	require.Len(t, fn.Params, 2)
	require.NotEmpty(t, fn.Insts)
	assert.Equal(t, ir.OpRet, fn.Insts[len(fn.Insts)-1].Op)
	assert.Equal(t, 1, countOp(fn, ir.OpBin))
}

func TestBuildIfElseBranchesDoNotFallThrough(t *testing.T) {
	prog, err := buildSource(t, `
		fn classify(n: i32) -> i32 {
			if n < 0 {
				-1
			} else if n == 0 {
				0
			} else {
				1
			}
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "classify")
	require.NotNil(t, fn)

	// Every jump/jump_if_cmp instruction must target a real, in-range
	// instruction index once all back-patching is done.
	for i, inst := range fn.Insts {
		switch inst.Op {
		case ir.OpJump, ir.OpJumpIfNot, ir.OpJumpIfCmp, ir.OpJumpIf:
			assert.NotEqual(t, ir.NoLink, inst.Target, "instruction %d left unpatched", i)
			assert.GreaterOrEqual(t, inst.Target, 0)
			assert.LessOrEqual(t, inst.Target, len(fn.Insts))
		}
	}
}

func TestBuildWhileLoopBackEdge(t *testing.T) {
	prog, err := buildSource(t, `
		fn sum_to(n: i32) -> i32 {
			let mut total = 0;
			let mut i = 0;
			while i < n {
				total += i;
				i = i + 1;
			}
			total
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "sum_to")
	require.NotNil(t, fn)

	jumps := 0
	for _, inst := range fn.Insts {
		if inst.Op == ir.OpJump {
			jumps++
		}
	}
	assert.GreaterOrEqual(t, jumps, 1, "expected at least the loop's back-edge jump")
}

func TestBuildLoopBreakWithValue(t *testing.T) {
	prog, err := buildSource(t, `
		fn first_square_above(n: i32) -> i32 {
			let mut i = 0;
			loop {
				i = i + 1;
				if i * i > n {
					break i * i;
				}
			}
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "first_square_above")
	require.NotNil(t, fn)
	assert.Equal(t, ir.OpRet, fn.Insts[len(fn.Insts)-1].Op)
}

func TestBuildForRangeDesugarsToCountingLoop(t *testing.T) {
	prog, err := buildSource(t, `
		fn count() -> i32 {
			let mut total = 0;
			for i in 0..10 {
				total += i;
			}
			total
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "count")
	require.NotNil(t, fn)
	assert.GreaterOrEqual(t, countOp(fn, ir.OpJumpIfCmp), 1)
	assert.GreaterOrEqual(t, countOp(fn, ir.OpJump), 1)
}

func TestBuildMatchExprFusedEquality(t *testing.T) {
	prog, err := buildSource(t, `
		fn describe(n: i32) -> i32 {
			match n {
				0 => 100,
				1 => 200,
				_ => 0,
			}
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "describe")
	require.NotNil(t, fn)
	// Two non-default arms, each a fused-equality test.
	assert.Equal(t, 2, countOp(fn, ir.OpJumpIfCmp))
}

func TestBuildShortCircuitAndOr(t *testing.T) {
	prog, err := buildSource(t, `
		fn check(a: i32, b: i32, c: bool) -> bool {
			a < b && (c || a == b) && !c
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "check")
	require.NotNil(t, fn)
	assert.GreaterOrEqual(t, countOp(fn, ir.OpJumpIf)+countOp(fn, ir.OpJumpIfNot), 2)
}

func TestBuildCallLoadsImplicitReturn(t *testing.T) {
	prog, err := buildSource(t, `
		fn helper() -> i32 {
			42
		}
		fn main() -> i32 {
			helper()
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "main")
	require.NotNil(t, fn)
	assert.Equal(t, 1, countOp(fn, ir.OpCall))

	var sawFnRetLoad bool
	for _, inst := range fn.Insts {
		if inst.Op == ir.OpLoad && inst.Src.Kind == ir.OperandFnRet {
			sawFnRetLoad = true
		}
	}
	assert.True(t, sawFnRetLoad)
}

func TestBuildStringLiteralUsesInternedIndex(t *testing.T) {
	prog, err := buildSource(t, `
		fn f() {
			let a = "hello";
			let b = "hello";
		}
	`)
	require.NoError(t, err)
	require.Len(t, prog.Strings, 1)
	assert.Equal(t, "hello", prog.Strings[0])
}

func TestBuildCastEmitsCastInst(t *testing.T) {
	prog, err := buildSource(t, `
		fn to_float(n: i32) -> f64 {
			n as f64
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "to_float")
	require.NotNil(t, fn)
	assert.Equal(t, 1, countOp(fn, ir.OpCast))
}

func TestBuildConstantFoldingAtOptimizeBasic(t *testing.T) {
	lx := lexer.New()
	toks, err := lx.Lex(`
		fn f() -> i32 {
			1 + 2
		}
	`)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	require.NoError(t, err)

	prog, err := ir.Build(crate, res.Strings, ir.OptimizeBasic)
	require.NoError(t, err)
	fn := findFunc(prog, "f")
	require.NotNil(t, fn)
	assert.Equal(t, 0, countOp(fn, ir.OpBin), "constant operands should fold away at OptimizeBasic")
}

func TestBuildUnsupportedFormReturnsError(t *testing.T) {
	_, err := buildSource(t, `
		struct Point { x: i32, y: i32 }
		fn origin() -> Point {
			Point { x: 0, y: 0 }
		}
	`)
	require.Error(t, err)
}

func TestProgramStringListsEveryFunction(t *testing.T) {
	prog, err := buildSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`)
	require.NoError(t, err)
	out := prog.String()
	assert.Contains(t, out, "fn add(")
	assert.Contains(t, out, "ret")
}

func TestBuildUnaryNegation(t *testing.T) {
	prog, err := buildSource(t, `
		fn neg(n: i32) -> i32 {
			-n
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "neg")
	require.NotNil(t, fn)
	assert.Equal(t, 1, countOp(fn, ir.OpUn))
}

func TestBuildUnsuffixedIntLiteralDefaultsToI32(t *testing.T) {
	prog, err := buildSource(t, `
		fn main() {
			let a = 2 + 3;
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "main")
	require.NotNil(t, fn)
	out := fn.String()
	assert.Contains(t, out, "2i32")
	assert.Contains(t, out, "3i32")
	assert.NotContains(t, out, "{integer}")
}

func TestBuildUnsuffixedFloatLiteralDefaultsToF64(t *testing.T) {
	prog, err := buildSource(t, `
		fn main() {
			let a = 1.5;
		}
	`)
	require.NoError(t, err)
	fn := findFunc(prog, "main")
	require.NotNil(t, fn)
	out := fn.String()
	assert.Contains(t, out, "1.5f64")
	assert.NotContains(t, out, "{float}")
}

func TestBuildConstantFoldingRejectsDivisionByLiteralZero(t *testing.T) {
	lx := lexer.New()
	toks, err := lx.Lex(`
		fn f() -> i32 {
			1 / 0
		}
	`)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	require.NoError(t, err)

	_, err = ir.Build(crate, res.Strings, ir.OptimizeBasic)
	require.Error(t, err)
	var buildErr *ir.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Error(), "division by zero")
}

func TestBuildConstantFoldingRejectsRemainderByLiteralZero(t *testing.T) {
	lx := lexer.New()
	toks, err := lx.Lex(`
		fn f() -> i32 {
			1 % 0
		}
	`)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	require.NoError(t, err)

	_, err = ir.Build(crate, res.Strings, ir.OptimizeBasic)
	require.Error(t, err)
	var buildErr *ir.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Error(), "remainder by zero")
}

func TestBuildConstantFoldingRejectsOverflow(t *testing.T) {
	lx := lexer.New()
	toks, err := lx.Lex(`
		fn f() -> i32 {
			2147483647 + 1
		}
	`)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	require.NoError(t, err)

	_, err = ir.Build(crate, res.Strings, ir.OptimizeBasic)
	require.Error(t, err)
	var buildErr *ir.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Error(), "overflow")
}
