package ast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/ast"
	"github.com/rlc-lang/rlc/internal/token"
)

var pos = token.Position{Line: 1, Col: 1}

func TestNewCrate(t *testing.T) {
	crate := ast.NewCrate(pos, []ast.Item{})
	require.NotNil(t, crate)
	assert.Equal(t, 1, crate.Pos().Line)
	assert.Empty(t, crate.Items)
	assert.NotNil(t, crate.Scope)
}

func TestNewFunction(t *testing.T) {
	retType := ast.NewTypeExpr(pos, "i32")
	params := []*ast.Param{
		ast.NewParam(pos, "a", false, ast.NewTypeExpr(pos, "i32")),
		ast.NewParam(pos, "b", false, ast.NewTypeExpr(pos, "i32")),
	}
	body := ast.NewBlock(pos, 2, []ast.Stmt{}, nil)

	fn := ast.NewFunction(pos, "add", params, retType, body, false)
	require.NotNil(t, fn)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
}

func TestNewStruct(t *testing.T) {
	fields := []*ast.Field{
		ast.NewField(pos, "x", ast.NewTypeExpr(pos, "i32")),
		ast.NewField(pos, "y", ast.NewTypeExpr(pos, "i32")),
	}

	st := ast.NewStruct(pos, "Point", fields, false)
	require.NotNil(t, st)
	assert.Equal(t, "Point", st.Name)
	assert.Len(t, st.Fields, 2)
}

func TestPrettyPrintFunction(t *testing.T) {
	body := ast.NewBlock(pos, 2, []ast.Stmt{
		ast.NewLetStmt(pos, "x", false, nil, ast.NewIntLiteral(pos, 1, "")),
	}, ast.NewPathExpr(pos, "x"))

	fn := ast.NewFunction(pos, "identity", []*ast.Param{
		ast.NewParam(pos, "x", false, ast.NewTypeExpr(pos, "i32")),
	}, ast.NewTypeExpr(pos, "i32"), body, true)

	out := ast.PrettyPrint(fn)
	assert.True(t, strings.Contains(out, "Function{identity}"))
	assert.True(t, strings.Contains(out, "Param{x}"))
	assert.True(t, strings.Contains(out, "LetStmt{x}"))
	assert.True(t, strings.Contains(out, "Path{x}"))
}

func TestPrettyPrintBinaryExpr(t *testing.T) {
	bin := ast.NewBinaryExpr(pos, ast.NewIntLiteral(pos, 1, ""), ast.BinAdd, ast.NewIntLiteral(pos, 2, ""))
	out := ast.PrettyPrint(bin)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Binary{+}", strings.TrimSpace(lines[0]))
}

func TestPrettyPrintIfElse(t *testing.T) {
	then := ast.NewBlock(pos, 2, nil, ast.NewIntLiteral(pos, 1, ""))
	els := ast.NewBlock(pos, 3, nil, ast.NewIntLiteral(pos, 2, ""))
	ifExpr := ast.NewIfExpr(pos, ast.NewBoolLiteral(pos, true), then, els)

	out := ast.PrettyPrint(ifExpr)
	assert.True(t, strings.Contains(out, "If"))
	assert.True(t, strings.Contains(out, "Bool{true}"))
}

func TestPrettyPrintCrateWithItems(t *testing.T) {
	fn := ast.NewFunction(pos, "main", nil, nil, ast.NewBlock(pos, 2, nil, nil), true)
	crate := ast.NewCrate(pos, []ast.Item{fn})

	out := ast.PrettyPrint(crate)
	assert.True(t, strings.Contains(out, "Crate{Items: 1}"))
	assert.True(t, strings.Contains(out, "Function{main}"))
}
