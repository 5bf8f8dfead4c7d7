// Package compiler wires the four stages (lex, parse, analyze, codegen) into
// a single reusable driver, lifted out of the CLI layer so every front end
// that embeds this module shares one copy of the glue.
package compiler

import (
	"io"

	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/codegen"
	"slc.dev/slc/pkg/diag"
	"slc.dev/slc/pkg/lexer"
	"slc.dev/slc/pkg/parser"
	"slc.dev/slc/pkg/sema"
	"slc.dev/slc/pkg/token"
)

// Stats reports the counters accumulated during semantic analysis, used by
// front ends that want to print an end-of-run summary.
type Stats struct {
	FunctionsAnalyzed int
	StructsAnalyzed   int
	VariablesAnalyzed int
}

// Result holds everything a front end might want out of a single run: the
// token stream and AST (for dump modes), the accumulated diagnostics, and
// the semantic-analysis stats. Any of Tokens/Program may be partially
// populated if an earlier stage already failed.
type Result struct {
	Tokens  []token.Token
	Program *ast.Program
	Stats   Stats
	Diags   *diag.Diagnostics
}

// Pipeline runs the source text through lexing, parsing and semantic
// analysis, halting after whichever stage first reports an error — a later
// stage is never handed a tree its predecessor already gave up on.
type Pipeline struct {
	file string
}

func New(file string) *Pipeline {
	return &Pipeline{file: file}
}

// firstError reports the first ERROR token in a stream, if any. The lexer
// never reports diagnostics itself (it only classifies bytes into tokens),
// so the pipeline is what turns a scan failure into a diagnostic.
func firstError(tokens []token.Token) (token.Token, bool) {
	for _, tok := range tokens {
		if tok.Kind == token.ERROR {
			return tok, true
		}
	}
	return token.Token{}, false
}

// Run lexes, parses and analyzes src, stopping early if diagnostics appear
// after either of the first two stages. Analyze itself always runs to
// completion (it accumulates diagnostics rather than aborting), so its
// stats are populated even when the analyzed program contains errors.
func (p *Pipeline) Run(src []byte) *Result {
	diags := diag.New(p.file, src)
	res := &Result{Diags: diags}

	res.Tokens = lexer.New(src).Tokenize()
	if tok, ok := firstError(res.Tokens); ok {
		diags.Add(tok.Line, tok.Col, "%s", tok.Lexeme)
		return res
	}

	res.Program = parser.Parse(res.Tokens, diags)
	if diags.HasErrors() {
		return res
	}

	analyzer := sema.Analyze(res.Program, diags)
	res.Stats = Stats{
		FunctionsAnalyzed: analyzer.FunctionsAnalyzed,
		StructsAnalyzed:   analyzer.StructsAnalyzed,
		VariablesAnalyzed: analyzer.VariablesAnalyzed,
	}
	return res
}

// Emit runs the full pipeline and, if every stage succeeded, writes the
// generated C translation to w. It reports whether C was actually emitted;
// callers should inspect Result.Diags either way.
func (p *Pipeline) Emit(w io.Writer, src []byte) (*Result, bool) {
	res := p.Run(src)
	if res.Diags.HasErrors() {
		return res, false
	}
	if err := codegen.Generate(w, res.Program, res.Diags); err != nil {
		res.Diags.AddInternal(0, 0, "writing generated output: %s", err)
		return res, false
	}
	return res, !res.Diags.HasErrors()
}
