// Package diag implements the ordered diagnostic list shared by every
// compiler stage: lexical, parse, semantic and internal errors all
// accumulate here in insertion order, with enough location information for a
// caller to print the offending source line with a caret. Unlike a fail-fast
// single-error design, a run can surface every independent diagnostic it
// finds rather than stopping at the first one.
package diag

import "fmt"

type Severity int

const (
	SeverityError Severity = iota
	SeverityInternal
)

// Diagnostic is one reported problem: a message, its source location, and
// (when available) the raw source line it occurred on for caret rendering.
type Diagnostic struct {
	Severity   Severity
	Message    string
	File       string
	Line       int
	Column     int
	SourceLine string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// Diagnostics is an ordered, append-only accumulator. A stage owns its own
// Diagnostics value exclusively; nothing else mutates it concurrently, so no
// locking is needed.
type Diagnostics struct {
	File    string
	Source  []byte
	entries []Diagnostic
}

func New(file string, source []byte) *Diagnostics {
	return &Diagnostics{File: file, Source: source}
}

// Add appends a diagnostic at the given 1-based line/column, filling in the
// file name and (if the source is available) the offending source line.
func (d *Diagnostics) Add(line, col int, format string, args ...any) {
	d.add(SeverityError, line, col, fmt.Sprintf(format, args...))
}

// AddInternal records a diagnostic for a condition that should be
// unreachable absent an analyzer/codegen bug.
func (d *Diagnostics) AddInternal(line, col int, format string, args ...any) {
	d.add(SeverityInternal, line, col, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) add(sev Severity, line, col int, message string) {
	d.entries = append(d.entries, Diagnostic{
		Severity:   sev,
		Message:    message,
		File:       d.File,
		Line:       line,
		Column:     col,
		SourceLine: sourceLine(d.Source, line),
	})
}

// Entries returns the accumulated diagnostics in insertion order.
func (d *Diagnostics) Entries() []Diagnostic { return d.entries }

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool { return len(d.entries) > 0 }

// Count returns the number of diagnostics recorded so far.
func (d *Diagnostics) Count() int { return len(d.entries) }

func sourceLine(source []byte, line int) string {
	if line <= 0 {
		return ""
	}

	current := 1
	start := len(source)
	for i, b := range source {
		if current == line {
			start = i
			break
		}
		if b == '\n' {
			current++
		}
	}
	if current != line {
		return ""
	}

	end := start
	for end < len(source) && source[end] != '\n' {
		end++
	}
	return string(source[start:end])
}
