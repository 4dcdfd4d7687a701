package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/lexer"
	"github.com/rlc-lang/rlc/internal/parser"
	"github.com/rlc-lang/rlc/internal/sema"
)

func resolveSource(t *testing.T, src string) (*ast.Crate, *sema.Result, error) {
	t.Helper()
	lx := lexer.New()
	toks, err := lx.Lex(src)
	require.NoError(t, err)
	crate, err := parser.ParseFile(toks)
	require.NoError(t, err)
	res, err := sema.Resolve(crate)
	return crate, res, err
}

func TestResolveSimpleFunction(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`)
	require.NoError(t, err)
}

func TestResolveUnknownIdentifier(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn broken() -> i32 {
			x
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveForwardReferenceToLaterFunction(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn main() -> i32 {
			helper()
		}
		fn helper() -> i32 {
			42
		}
	`)
	require.NoError(t, err)
}

func TestResolveForwardReferenceToLaterStruct(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn origin() -> Point {
			Point { x: 0, y: 0 }
		}
		struct Point {
			x: i32,
			y: i32,
		}
	`)
	require.NoError(t, err)
}

func TestResolveLiteralTypeUnification(t *testing.T) {
	crate, _, err := resolveSource(t, `
		fn f() -> i64 {
			let x = 1;
			let y: i64 = x;
			y
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
}

func TestResolveStatementOrderedShadowing(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() -> i32 {
			let x = 1;
			let y = x;
			let x = true;
			y
		}
	`)
	require.NoError(t, err)
}

func TestResolveMutabilityViolation(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() {
			let x = 1;
			x = 2;
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immutable")
}

func TestResolveMutableAssignmentOK(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() -> i32 {
			let mut x = 1;
			x = 2;
			x
		}
	`)
	require.NoError(t, err)
}

func TestResolveIfElseTypeMismatch(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() -> i32 {
			if true {
				1
			} else {
				false
			}
		}
	`)
	require.Error(t, err)
}

func TestResolveWhileConditionMustBeBool(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() {
			while 1 {
			}
		}
	`)
	require.Error(t, err)
}

func TestResolveBreakOutsideLoop(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() {
			break;
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop")
}

func TestResolveLoopBreakValueType(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() -> i32 {
			let mut i = 0;
			loop {
				i = i + 1;
				if i > 10 {
					break i;
				}
			}
		}
	`)
	require.NoError(t, err)
}

func TestResolveCallArgCountMismatch(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
		fn main() -> i32 {
			add(1)
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument")
}

func TestResolveStructFieldAccess(t *testing.T) {
	_, _, err := resolveSource(t, `
		struct Point { x: i32, y: i32 }
		fn get_x(p: Point) -> i32 {
			p.x
		}
	`)
	require.NoError(t, err)
}

func TestResolveUnknownStructField(t *testing.T) {
	_, _, err := resolveSource(t, `
		struct Point { x: i32, y: i32 }
		fn get_z(p: Point) -> i32 {
			p.z
		}
	`)
	require.Error(t, err)
}

func TestResolveStringInterningDeduplicates(t *testing.T) {
	_, res, err := resolveSource(t, `
		fn f() {
			let a = "hello";
			let b = "world";
			let c = "hello";
		}
	`)
	require.NoError(t, err)
	require.Len(t, res.Strings, 2)
	assert.Equal(t, "hello", res.Strings[0])
	assert.Equal(t, "world", res.Strings[1])
}

func TestResolveRefMutOfImmutablePlace(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() {
			let x = 1;
			let r = &mut x;
		}
	`)
	require.Error(t, err)
}

func TestResolveDerefOfNonReference(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn f() -> i32 {
			let x = 1;
			*x
		}
	`)
	require.Error(t, err)
}

func TestResolveStopsAtFirstError(t *testing.T) {
	_, _, err := resolveSource(t, `
		fn a() -> i32 {
			undefined_one
		}
		fn b() -> i32 {
			undefined_two
		}
	`)
	require.Error(t, err)
	re, ok := err.(*sema.ResolveError)
	require.True(t, ok)
	assert.Contains(t, re.Msg, "undefined_one")
}
