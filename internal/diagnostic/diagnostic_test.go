package diagnostic_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlc-lang/rlc/internal/diagnostic"
	"github.com/rlc-lang/rlc/internal/ir"
	"github.com/rlc-lang/rlc/internal/rlc"
)

func TestRenderIncludesStageAndSnippet(t *testing.T) {
	diagnostic.Enable(false)
	src := "fn f() -> i32 {\n\tundefined_name\n}\n"
	_, err := rlc.Compile(src, ir.OptimizeZero)
	require.Error(t, err)

	var buf bytes.Buffer
	diagnostic.Render(&buf, src, err)
	out := buf.String()
	assert.Contains(t, out, "[resolve]")
	assert.Contains(t, out, "undefined_name")
}

func TestRenderNonCompileErrorFallsBackToPlainMessage(t *testing.T) {
	diagnostic.Enable(false)
	var buf bytes.Buffer
	diagnostic.Render(&buf, "", assertError{"boom"})
	assert.Contains(t, buf.String(), "boom")
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
