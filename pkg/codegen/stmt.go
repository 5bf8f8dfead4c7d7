package codegen

import "slc.dev/slc/pkg/ast"

func (e *Emitter) emitStatement(node ast.Node) {
	switch n := node.(type) {
	case *ast.Let:
		e.emitLet(n)
	case *ast.If:
		e.emitIf(n)
	case *ast.While:
		e.emitWhile(n)
	case *ast.For:
		e.emitFor(n)
	case *ast.Loop:
		e.emitLoop(n)
	case *ast.Return:
		e.emitReturn(n)
	case *ast.Break:
		e.line("break;")
	case *ast.Continue:
		e.line("continue;")
	case *ast.Block:
		e.emitNestedBlock(n)
	default:
		e.line("%s;", e.emitExpr(node))
	}
}

// emitBlockStatements writes a block's statements and, if present, its
// trailing expression as a discarded expression statement — the right
// behavior for every block except a function body, where the trailing
// expression is instead the implicit return value (see emitFunctionBody).
func (e *Emitter) emitBlockStatements(block *ast.Block) {
	for _, s := range block.Stmts {
		e.emitStatement(s)
	}
	if block.Final != nil {
		e.line("%s;", e.emitExpr(block.Final))
	}
}

func (e *Emitter) emitLet(n *ast.Let) {
	decl := declareVar(n.Annotated, n.Name)
	if !n.Mutable {
		decl = "const " + decl
	}
	if n.Init != nil {
		e.line("%s = %s;", decl, e.emitExpr(n.Init))
		return
	}
	e.line("%s;", decl)
}

func (e *Emitter) emitIf(n *ast.If) {
	e.line("if (%s) {", e.emitExpr(n.Cond))
	e.indent++
	e.emitBlockStatements(n.Then)
	e.indent--
	e.emitElse(n.Else)
}

func (e *Emitter) emitElse(els ast.Node) {
	switch v := els.(type) {
	case nil:
		e.line("}")
	case *ast.Block:
		e.line("} else {")
		e.indent++
		e.emitBlockStatements(v)
		e.indent--
		e.line("}")
	case *ast.If:
		e.line("} else if (%s) {", e.emitExpr(v.Cond))
		e.indent++
		e.emitBlockStatements(v.Then)
		e.indent--
		e.emitElse(v.Else)
	}
}

func (e *Emitter) emitWhile(n *ast.While) {
	e.line("while (%s) {", e.emitExpr(n.Cond))
	e.indent++
	e.emitBlockStatements(n.Body)
	e.indent--
	e.line("}")
}

// emitFor lowers the exclusive integer range loop directly to its C
// counterpart; the iteration variable is always int32_t (pkg/sema pins it
// to i32 regardless of the range endpoints' own integral width).
func (e *Emitter) emitFor(n *ast.For) {
	start, end := e.emitExpr(n.Start), e.emitExpr(n.End)
	e.line("for (int32_t %s = %s; %s < %s; %s++) {", n.Iter, start, n.Iter, end, n.Iter)
	e.indent++
	e.emitBlockStatements(n.Body)
	e.indent--
	e.line("}")
}

func (e *Emitter) emitLoop(n *ast.Loop) {
	e.line("while (1) {")
	e.indent++
	e.emitBlockStatements(n.Body)
	e.indent--
	e.line("}")
}

func (e *Emitter) emitReturn(n *ast.Return) {
	if n.Value == nil {
		e.line("return;")
		return
	}
	e.line("return %s;", e.emitExpr(n.Value))
}

func (e *Emitter) emitNestedBlock(n *ast.Block) {
	e.line("{")
	e.indent++
	e.emitBlockStatements(n)
	e.indent--
	e.line("}")
}
