package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/lexer"
	"github.com/rlc-lang/rlc/internal/parser"
)

func parseSource(t *testing.T, src string) (*ast.Crate, error) {
	t.Helper()
	lx := lexer.New()
	toks, err := lx.Lex(src)
	require.NoError(t, err)
	return parser.ParseFile(toks)
}

func TestParseSimpleFunction(t *testing.T) {
	crate, err := parseSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
	fn, ok := crate.Items[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
}

func TestParseComplexBooleanExpr(t *testing.T) {
	crate, err := parseSource(t, `
		fn check(a: i32, b: i32, c: bool) -> bool {
			a < b && (c || a == b) && !c
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
}

func TestParseStructDef(t *testing.T) {
	crate, err := parseSource(t, `
		struct Point {
			x: i32,
			y: i32,
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
	st, ok := crate.Items[0].(*ast.Struct)
	require.True(t, ok)
	assert.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
}

func TestParseIfElseChain(t *testing.T) {
	crate, err := parseSource(t, `
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
	require.Len(t, crate.Items, 1)
}

func TestParseWhileAndAssignment(t *testing.T) {
	crate, err := parseSource(t, `
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
	require.Len(t, crate.Items, 1)
}

func TestParseLoopAndBreakValue(t *testing.T) {
	crate, err := parseSource(t, `
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
	require.Len(t, crate.Items, 1)
}

func TestParseForRange(t *testing.T) {
	crate, err := parseSource(t, `
		fn count() -> i32 {
			let mut total = 0;
			for i in 0..10 {
				total += i;
			}
			total
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
}

func TestParseCastAndCall(t *testing.T) {
	crate, err := parseSource(t, `
		fn to_float(n: i32) -> f64 {
			n as f64
		}
		fn main() {
			let x = to_float(3);
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 2)
}

func TestParseStructLiteralAndFieldAccess(t *testing.T) {
	crate, err := parseSource(t, `
		struct Point { x: i32, y: i32 }
		fn origin() -> Point {
			Point { x: 0, y: 0 }
		}
		fn get_x(p: Point) -> i32 {
			p.x
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 3)
}

func TestParseExternBlockAndConst(t *testing.T) {
	crate, err := parseSource(t, `
		extern "C" {
			fn abs(n: i32) -> i32;
		}
		const LIMIT: i32 = 100;
		static mut COUNTER: i32 = 0;
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 3)
}

func TestParseMatchExpr(t *testing.T) {
	crate, err := parseSource(t, `
		fn describe(n: i32) -> i32 {
			match n {
				0 => 100,
				1 => 200,
				_ => 0,
			}
		}
	`)
	require.NoError(t, err)
	require.Len(t, crate.Items, 1)
}

func TestParseMissingSemicolon(t *testing.T) {
	_, err := parseSource(t, `
		fn broken() -> i32 {
			let x = 1
			x
		}
	`)
	require.Error(t, err)
}

func TestParseMissingClosingParen(t *testing.T) {
	_, err := parseSource(t, `
		fn broken(a: i32 -> i32 {
			a
		}
	`)
	require.Error(t, err)
}

func TestParseChainedComparisonRejected(t *testing.T) {
	_, err := parseSource(t, `
		fn broken(a: i32, b: i32, c: i32) -> bool {
			a < b < c
		}
	`)
	require.Error(t, err)
}

func TestParseInvalidLHS(t *testing.T) {
	_, err := parseSource(t, `
		fn broken() {
			1 + 2 = 3;
		}
	`)
	require.Error(t, err)
}

func TestParseStopsAtFirstError(t *testing.T) {
	// Two unrelated errors: only the first is ever reported.
	_, err := parseSource(t, `
		fn a() -> i32 {
			let x = 1
		}
		fn b( {
		}
	`)
	require.Error(t, err)
	_, ok := err.(*parser.ParseError)
	require.True(t, ok)
}
