// Package codegen lowers an analyzed AST to C99 source text: a prologue of
// standard includes plus the program's own, struct typedefs, impl methods
// lowered to mangled free functions, then ordinary functions — in that
// order, with extern declarations skipped since their prototypes are
// assumed to already live in an included header.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/diag"
	"slc.dev/slc/pkg/types"
)

// standardIncludes is always emitted ahead of any user include: stdio for
// println/print, stdlib for general use, stdint for the fixed-width integer
// typedefs every primitive lowers to, stdbool for the bool keyword, math for
// sqrt.
var standardIncludes = []string{"stdio.h", "stdlib.h", "stdint.h", "stdbool.h", "math.h"}

type Emitter struct {
	w      io.Writer
	diags  *diag.Diagnostics
	indent int
	err    error
}

func New(w io.Writer, diags *diag.Diagnostics) *Emitter {
	return &Emitter{w: w, diags: diags}
}

// Generate writes the full C translation of prog to the Emitter's sink,
// returning the first I/O error encountered (if any) after finishing — it
// does not abort partway through a write failure, matching diag's
// accumulate-rather-than-abort approach elsewhere in the pipeline.
func Generate(w io.Writer, prog *ast.Program, diags *diag.Diagnostics) error {
	e := New(w, diags)
	e.emitPrologue(prog)
	e.emitStructs(prog)
	e.emitImplMethods(prog)
	e.emitFunctions(prog)
	return e.err
}

func (e *Emitter) line(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, err := fmt.Fprintf(e.w, "%s%s\n", strings.Repeat("    ", e.indent), fmt.Sprintf(format, args...))
	if err != nil {
		e.err = err
	}
}

func (e *Emitter) emitPrologue(prog *ast.Program) {
	for _, h := range standardIncludes {
		e.line("#include <%s>", h)
	}
	for _, item := range prog.Items {
		inc, ok := item.(*ast.Include)
		if !ok {
			continue
		}
		if inc.IsSystem {
			e.line("#include <%s>", inc.Path)
		} else {
			e.line("#include %q", inc.Path)
		}
	}
	e.line("")
}

func (e *Emitter) emitStructs(prog *ast.Program) {
	for _, item := range prog.Items {
		st, ok := item.(*ast.Struct)
		if !ok || st.IsExtern {
			continue
		}
		e.line("typedef struct {")
		e.indent++
		for _, f := range st.Fields {
			e.line("%s;", declareVar(f.Type, f.Name))
		}
		e.indent--
		e.line("} %s;", st.Name)
		e.line("")
	}
}

func (e *Emitter) emitImplMethods(prog *ast.Program) {
	for _, item := range prog.Items {
		impl, ok := item.(*ast.Impl)
		if !ok {
			continue
		}
		for _, fn := range impl.Functions {
			mangled := impl.StructName + "_" + fn.Name
			e.emitFunctionLike(mangled, fn.Params, fn.ReturnType, fn.Body)
		}
	}
}

func (e *Emitter) emitFunctions(prog *ast.Program) {
	for _, item := range prog.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		e.emitFunctionLike(fn.Name, fn.Params, fn.ReturnType, fn.Body)
	}
}

func (e *Emitter) emitFunctionLike(name string, params []ast.Param, ret *types.Type, body *ast.Block) {
	paramList := "void"
	if len(params) > 0 {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = declareVar(p.Type, p.Name)
		}
		paramList = strings.Join(parts, ", ")
	}

	e.line("%s %s(%s) {", cBareType(ret), cIdent(name), paramList)
	e.indent++
	e.emitFunctionBody(body, ret)
	e.indent--
	e.line("}")
	e.line("")
}

// emitFunctionBody treats the block's trailing expression (if any) as the
// function's implicit return value, per pkg/sema's rule that a function
// body's Final expression is checked and lowered exactly like an explicit
// return.
func (e *Emitter) emitFunctionBody(body *ast.Block, ret *types.Type) {
	for _, stmt := range body.Stmts {
		e.emitStatement(stmt)
	}
	if body.Final == nil {
		return
	}
	if ret.Kind == types.Void {
		e.line("%s;", e.emitExpr(body.Final))
		return
	}
	e.line("return %s;", e.emitExpr(body.Final))
}
