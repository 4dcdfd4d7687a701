package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := newVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), Version)
}

func TestCompileCommandWritesIRToStdout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "add.rs")
	require.NoError(t, os.WriteFile(path, []byte(`
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`), 0o644))

	cmd := newCompileCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "fn add(")
	assert.Contains(t, buf.String(), "ret")
}

func TestCompileCommandWritesIRToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "add.rs")
	require.NoError(t, os.WriteFile(src, []byte(`
		fn add(a: i32, b: i32) -> i32 {
			a + b
		}
	`), 0o644))
	out := filepath.Join(dir, "add.ir")

	cmd := newCompileCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{src, "--out", out})
	require.NoError(t, cmd.Execute())

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "fn add(")
}

func TestCompileCommandReportsErrorForBadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.rs")
	require.NoError(t, os.WriteFile(path, []byte(`fn f( {`), 0o644))

	cmd := newCompileCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})
	require.Error(t, cmd.Execute())
}

func TestReplCommandIsRegistered(t *testing.T) {
	cmd := newReplCommand()
	assert.Equal(t, "repl", cmd.Use)
}
