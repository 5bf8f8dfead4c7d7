// Package render formats a diag.Diagnostics list for a terminal: one entry
// per diagnostic, followed by the offending source line and a caret pointing
// at the reported column.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"slc.dev/slc/pkg/diag"
)

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Renderer writes diagnostics to w, deciding whether to colorize based on
// whether w is an actual terminal and on the NO_COLOR convention.
type Renderer struct {
	w     io.Writer
	color bool
}

// New builds a Renderer for w. Color is enabled only when w is a *os.File
// connected to a terminal and NO_COLOR is unset, per the convention most of
// the ecosystem (and every CLI in this pack) honors.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w, color: shouldColorize(w)}
}

func shouldColorize(w io.Writer) bool {
	if _, present := os.LookupEnv("NO_COLOR"); present {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes every diagnostic in diags, in insertion order, each followed
// by its source line and a caret under the reported column (when a source
// line was available).
func (r *Renderer) Render(diags *diag.Diagnostics) {
	for _, d := range diags.Entries() {
		r.renderOne(d)
	}
}

func (r *Renderer) renderOne(d diag.Diagnostic) {
	label, color := "error", colorRed
	if d.Severity == diag.SeverityInternal {
		label, color = "internal error", colorYellow
	}

	fmt.Fprintf(r.w, "%s: %s\n", r.colorize(color, label), d.String())

	if d.SourceLine == "" {
		return
	}
	fmt.Fprintf(r.w, "  %s\n", d.SourceLine)
	fmt.Fprintf(r.w, "  %s%s\n", pad(d.Column), r.colorize(color, "^"))
}

func (r *Renderer) colorize(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// pad returns col-1 spaces (col is 1-based), building the run-up to the
// caret under the reported column.
func pad(col int) string {
	if col < 1 {
		return ""
	}
	b := make([]byte, col-1)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
