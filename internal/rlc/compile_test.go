package rlc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/rlc"
)

func TestCompileSimpleFunction(t *testing.T) {
	res, err := rlc.Compile(`
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`, ir.OptimizeZero)
	require.NoError(t, err)
	require.NotNil(t, res.Program)
	require.Len(t, res.Program.Funcs, 1)
	assert.Equal(t, "add", res.Program.Funcs[0].Name)
}

func TestCompileLexErrorReportsStageAndPosition(t *testing.T) {
	_, err := rlc.Compile(`fn f() { let s = "unterminated; }`, ir.OptimizeZero)
	require.Error(t, err)
	ce, ok := err.(*rlc.CompileError)
	require.True(t, ok)
	assert.Equal(t, rlc.StageLex, ce.Stage)
	assert.True(t, ce.HasPos)
}

func TestCompileParseErrorReportsStage(t *testing.T) {
	_, err := rlc.Compile(`fn f( {`, ir.OptimizeZero)
	require.Error(t, err)
	ce, ok := err.(*rlc.CompileError)
	require.True(t, ok)
	assert.Equal(t, rlc.StageParse, ce.Stage)
}

func TestCompileResolveErrorReportsStage(t *testing.T) {
	_, err := rlc.Compile(`
		fn f() -> i32 {
			undefined_name
		}
	`, ir.OptimizeZero)
	require.Error(t, err)
	ce, ok := err.(*rlc.CompileError)
	require.True(t, ok)
	assert.Equal(t, rlc.StageResolve, ce.Stage)
}

func TestCompileOptimizeBasicFoldsConstants(t *testing.T) {
	res, err := rlc.Compile(`
		fn f() -> i32 {
			1 + 2
		}
	`, ir.OptimizeBasic)
	require.NoError(t, err)
	fn := res.Program.Funcs[0]
	for _, inst := range fn.Insts {
		assert.NotEqual(t, ir.OpBin, inst.Op, "constant operands should have folded away")
	}
}
