// Package diagnostic renders compiler errors with a source snippet and a
// caret under the offending column, colorized when the output stream is a
// terminal.
package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/rlc-lang/rlc/internal/rlc"
	"github.com/rlc-lang/rlc/internal/token"
)

var (
	stageColor  = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed, color.Bold)
	caretColor  = color.New(color.FgYellow, color.Bold)
	lineNoColor = color.New(color.FgBlue)
)

// IsTerminal reports whether w is an interactive terminal, the condition
// under which colorized rendering is worth the escape codes.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes a positional report for err to w: the stage it failed at,
// the message, and — when err carries a position and source is non-empty —
// the offending line with a caret under the column.
//
// Colorization follows the color package's own global NoColor switch; call
// Enable (from IsTerminal) once at startup rather than threading a "color
// enabled" flag through every print.
func Render(w io.Writer, source string, err error) {
	ce, ok := err.(*rlc.CompileError)
	if !ok {
		fmt.Fprintln(w, err)
		return
	}

	stageColor.Fprintf(w, "[%s]", ce.Stage)
	errorColor.Fprintf(w, " error: ")
	fmt.Fprintln(w, ce.Err)

	if !ce.HasPos || source == "" {
		return
	}
	renderSnippet(w, source, ce.Pos)
}

func renderSnippet(w io.Writer, source string, pos token.Position) {
	lines := strings.Split(source, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return
	}
	line := lines[pos.Line-1]

	lineNoColor.Fprintf(w, "  %4d | ", pos.Line)
	fmt.Fprintln(w, line)

	col := pos.Col
	if col < 1 {
		col = 1
	}
	pad := strings.Repeat(" ", col-1)
	fmt.Fprintf(w, "       | %s", pad)
	caretColor.Fprintln(w, "^")
}

// Enable toggles the color package's global switch, the same knob every
// color.New call in this process reads from.
func Enable(enabled bool) {
	color.NoColor = !enabled
}
