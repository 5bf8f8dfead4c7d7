// Package sema resolves names and checks types over the tree pkg/parser
// produces: a three-pass walk (structs, then impl methods, then everything
// else) that lets any declaration refer forward to one defined later in the
// file, followed by statement and expression analysis that decorates every
// expression node with its resolved type.
package sema

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/diag"
	"slc.dev/slc/pkg/types"
	"slc.dev/slc/pkg/utils"
)

// Analyzer walks a Program, accumulating diagnostics into diags rather than
// stopping at the first error, and decorating every expression node in
// place via ast.Node.SetType as it goes.
type Analyzer struct {
	diags  *diag.Diagnostics
	scopes utils.Stack[*Scope] // open lexical scopes, innermost on top; Global is pushed once and never popped

	structs utils.OrderedMap[string, *StructInfo]
	funcs   utils.OrderedMap[string, *FuncInfo]

	FunctionsAnalyzed int
	StructsAnalyzed   int
	VariablesAnalyzed int
}

func New(diags *diag.Diagnostics) *Analyzer {
	a := &Analyzer{diags: diags}
	a.scopes.Push(newScope(GlobalScope))
	return a
}

// top returns the innermost open scope. The stack always holds at least the
// Global scope pushed by New, so the error from Top() is unreachable.
func (a *Analyzer) top() *Scope {
	top, _ := a.scopes.Top()
	return top
}

func (a *Analyzer) pushScope(kind ScopeType) { a.scopes.Push(newScope(kind)) }

func (a *Analyzer) popScope() { a.scopes.Pop() }

// resolve walks the open-scope stack from innermost to outermost (the order
// utils.Stack.Iterator yields), returning the first match.
func (a *Analyzer) resolve(name string) (*Symbol, bool) {
	var found *Symbol
	a.scopes.Iterator()(func(scope *Scope) bool {
		if sym, ok := scope.resolveLocal(name); ok {
			found = sym
			return false
		}
		return true
	})
	return found, found != nil
}

// enclosingFunctionReturnType finds the nearest FunctionScope on the open
// stack, reporting whether one exists at all (a bare `return` outside of any
// function has none).
func (a *Analyzer) enclosingFunctionReturnType() (*types.Type, bool) {
	var ret *types.Type
	found := false
	a.scopes.Iterator()(func(scope *Scope) bool {
		if scope.Kind == FunctionScope {
			ret, found = scope.ReturnType, true
			return false
		}
		return true
	})
	return ret, found
}

// loopDepth counts LoopScope entries currently open. A nested non-loop scope
// inside a loop (an if-arm, say) still reports depth > 0, which is what
// keeps break/continue legal there.
func (a *Analyzer) loopDepth() int {
	depth := 0
	a.scopes.Iterator()(func(scope *Scope) bool {
		if scope.Kind == LoopScope {
			depth++
		}
		return true
	})
	return depth
}

// Analyze runs the full three-pass walk over prog, reporting diagnostics
// into diags. Call diags.HasErrors() afterward to decide whether the result
// is safe to hand to codegen.
func Analyze(prog *ast.Program, diags *diag.Diagnostics) *Analyzer {
	a := New(diags)
	a.registerStructs(prog)
	a.registerImplMethods(prog)
	a.registerFreeFunctionSignatures(prog)

	for _, item := range prog.Items {
		switch node := item.(type) {
		case *ast.Struct, *ast.Impl, *ast.Include, *ast.ExternFunction:
			// signatures are already registered above; nothing left to analyze
		case *ast.Function:
			a.analyzeFunction(node, "")
		default:
			a.analyzeStatement(item)
		}
	}

	// Method bodies are analyzed last, once every free function and every
	// other struct's methods are visible, so a method can call a sibling
	// method or a function declared later in the file.
	for _, item := range prog.Items {
		impl, ok := item.(*ast.Impl)
		if !ok {
			continue
		}
		for _, fn := range impl.Functions {
			a.analyzeFunction(fn, impl.StructName)
		}
	}

	return a
}

func (a *Analyzer) registerStructs(prog *ast.Program) {
	for _, item := range prog.Items {
		st, ok := item.(*ast.Struct)
		if !ok {
			continue
		}

		seen := map[string]bool{}
		for _, f := range st.Fields {
			if seen[f.Name] {
				a.diags.Add(st.Loc().Line, st.Loc().Col, "duplicate field '%s' in struct '%s'", f.Name, st.Name)
				continue
			}
			seen[f.Name] = true
		}

		if a.structs.Has(st.Name) {
			a.diags.Add(st.Loc().Line, st.Loc().Col, "duplicate struct '%s'", st.Name)
			continue
		}
		a.structs.Set(st.Name, &StructInfo{Name: st.Name, Fields: st.Fields, IsExtern: st.IsExtern})
		a.StructsAnalyzed++
	}
}

func (a *Analyzer) registerImplMethods(prog *ast.Program) {
	for _, item := range prog.Items {
		impl, ok := item.(*ast.Impl)
		if !ok {
			continue
		}
		if !a.structs.Has(impl.StructName) {
			a.diags.Add(impl.Loc().Line, impl.Loc().Col, "impl for undeclared struct '%s'", impl.StructName)
			continue
		}

		for _, fn := range impl.Functions {
			mangled := impl.StructName + "::" + fn.Name
			if a.funcs.Has(mangled) {
				a.diags.Add(fn.Loc().Line, fn.Loc().Col, "duplicate method '%s'", mangled)
				continue
			}
			a.funcs.Set(mangled, &FuncInfo{Name: mangled, Params: fn.Params, ReturnType: fn.ReturnType, IsMethod: true})
		}
	}
}

func (a *Analyzer) registerFreeFunctionSignatures(prog *ast.Program) {
	for _, item := range prog.Items {
		var name string
		var params []ast.Param
		var ret *types.Type

		switch node := item.(type) {
		case *ast.Function:
			name, params, ret = node.Name, node.Params, node.ReturnType
		case *ast.ExternFunction:
			name, params, ret = node.Name, node.Params, node.ReturnType
		default:
			continue
		}

		if a.funcs.Has(name) {
			a.diags.Add(item.Loc().Line, item.Loc().Col, "duplicate function '%s'", name)
			continue
		}
		a.funcs.Set(name, &FuncInfo{Name: name, Params: params, ReturnType: ret})
	}
}

func (a *Analyzer) defineSymbol(line, col int, name string, ty *types.Type, mutable bool) {
	if _, exists := a.top().resolveLocal(name); exists {
		a.diags.Add(line, col, "'%s' is already defined in this scope", name)
		return
	}
	a.top().define(&Symbol{Name: name, Type: ty, Mutable: mutable})
}

// analyzeFunction analyzes fn's parameters and body in a fresh FunctionScope.
// implStructName is "" for a free function; for a method, it is the struct
// name the analyzer checks an explicit `self` parameter's declared type
// against ("self" is an ordinary, explicitly typed parameter, never an
// implicit receiver).
func (a *Analyzer) analyzeFunction(fn *ast.Function, implStructName string) {
	a.FunctionsAnalyzed++

	a.pushScope(FunctionScope)
	a.top().ReturnType = fn.ReturnType
	defer a.popScope()

	for _, param := range fn.Params {
		if param.Name == "self" && implStructName != "" {
			want := types.NewStruct(implStructName)
			if !types.Equal(param.Type, want) {
				a.diags.Add(fn.Loc().Line, fn.Loc().Col,
					"'self' must have type %s, found %s", implStructName, param.Type)
			}
		}
		a.VariablesAnalyzed++
		a.defineSymbol(fn.Loc().Line, fn.Loc().Col, param.Name, param.Type, true)
	}

	a.analyzeBlock(fn.Body)

	// A function body's trailing expression (no ';') is its implicit return
	// value, checked exactly like an explicit `return <expr>;`.
	if fn.Body.Final != nil {
		if ty := fn.Body.Final.Type(); ty != nil && !types.Compatible(ty, fn.ReturnType) {
			a.diags.Add(fn.Body.Final.Loc().Line, fn.Body.Final.Loc().Col,
				"function body's trailing expression has type %s, expected %s", ty, fn.ReturnType)
		}
	}
}

// analyzeBlock analyzes a block's statements and optional trailing
// expression directly in the current scope, without pushing a new one: the
// caller pushes whatever scope the block's construct calls for (or none, for
// a function body, which shares its FunctionScope).
func (a *Analyzer) analyzeBlock(block *ast.Block) {
	for _, stmt := range block.Stmts {
		a.analyzeStatement(stmt)
	}
	if block.Final != nil {
		a.analyzeExpr(block.Final)
		block.SetType(block.Final.Type())
	} else {
		block.SetType(types.TyVoid)
	}
}

func (a *Analyzer) analyzeScopedBlock(block *ast.Block, kind ScopeType) {
	a.pushScope(kind)
	a.analyzeBlock(block)
	a.popScope()
}

func (a *Analyzer) analyzeStatement(node ast.Node) {
	switch n := node.(type) {
	case *ast.Let:
		a.analyzeLet(n)
	case *ast.If:
		a.analyzeIf(n)
	case *ast.While:
		a.analyzeWhile(n)
	case *ast.For:
		a.analyzeFor(n)
	case *ast.Loop:
		a.analyzeLoop(n)
	case *ast.Return:
		a.analyzeReturn(n)
	case *ast.Break:
		a.analyzeBreakContinue(n, "break")
	case *ast.Continue:
		a.analyzeBreakContinue(n, "continue")
	case *ast.Block:
		a.analyzeScopedBlock(n, BlockScope)
	default:
		a.analyzeExpr(node)
	}
}

func (a *Analyzer) analyzeLet(let *ast.Let) {
	if let.Init != nil {
		a.analyzeExpr(let.Init)
	}

	if let.Annotated == nil {
		a.diags.Add(let.Loc().Line, let.Loc().Col, "'%s' needs an explicit type annotation", let.Name)
		a.defineSymbol(let.Loc().Line, let.Loc().Col, let.Name, types.TyUnknown, let.Mutable)
		return
	}

	if let.Init != nil {
		if initTy := let.Init.Type(); initTy != nil && !types.Compatible(initTy, let.Annotated) {
			a.diags.Add(let.Loc().Line, let.Loc().Col,
				"cannot initialize '%s' of type %s with a value of type %s", let.Name, let.Annotated, initTy)
		}
	}

	a.VariablesAnalyzed++
	a.defineSymbol(let.Loc().Line, let.Loc().Col, let.Name, let.Annotated, let.Mutable)
	let.SetType(let.Annotated)
}

func (a *Analyzer) analyzeIf(n *ast.If) {
	a.analyzeExpr(n.Cond)
	if ty := n.Cond.Type(); ty != nil && !types.Equal(ty, types.TyBool) {
		a.diags.Add(n.Cond.Loc().Line, n.Cond.Loc().Col, "if condition must be bool, found %s", ty)
	}

	a.analyzeScopedBlock(n.Then, BlockScope)

	switch els := n.Else.(type) {
	case *ast.Block:
		a.analyzeScopedBlock(els, BlockScope)
	case *ast.If:
		a.analyzeIf(els)
	}

	n.SetType(types.TyVoid)
}

func (a *Analyzer) analyzeWhile(n *ast.While) {
	a.analyzeExpr(n.Cond)
	if ty := n.Cond.Type(); ty != nil && !types.Equal(ty, types.TyBool) {
		a.diags.Add(n.Cond.Loc().Line, n.Cond.Loc().Col, "while condition must be bool, found %s", ty)
	}

	a.pushScope(LoopScope)
	a.analyzeBlock(n.Body)
	a.popScope()

	n.SetType(types.TyVoid)
}

func (a *Analyzer) analyzeFor(n *ast.For) {
	a.analyzeExpr(n.Start)
	a.analyzeExpr(n.End)

	if ty := n.Start.Type(); ty != nil && !ty.IsIntegral() {
		a.diags.Add(n.Start.Loc().Line, n.Start.Loc().Col, "for range start must be integral, found %s", ty)
	}
	if ty := n.End.Type(); ty != nil && !ty.IsIntegral() {
		a.diags.Add(n.End.Loc().Line, n.End.Loc().Col, "for range end must be integral, found %s", ty)
	}

	a.pushScope(LoopScope)
	a.VariablesAnalyzed++
	a.defineSymbol(n.Loc().Line, n.Loc().Col, n.Iter, types.TyI32, false)
	a.analyzeBlock(n.Body)
	a.popScope()

	n.SetType(types.TyVoid)
}

func (a *Analyzer) analyzeLoop(n *ast.Loop) {
	a.pushScope(LoopScope)
	a.analyzeBlock(n.Body)
	a.popScope()

	n.SetType(types.TyVoid)
}

func (a *Analyzer) analyzeReturn(n *ast.Return) {
	retTy, ok := a.enclosingFunctionReturnType()
	if !ok {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "'return' outside a function")
		if n.Value != nil {
			a.analyzeExpr(n.Value)
		}
		return
	}

	if n.Value == nil {
		if !types.Equal(retTy, types.TyVoid) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "missing return value, expected %s", retTy)
		}
		return
	}

	a.analyzeExpr(n.Value)
	if ty := n.Value.Type(); ty != nil && !types.Compatible(ty, retTy) {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "return type %s is not compatible with declared return type %s", ty, retTy)
	}
}

func (a *Analyzer) analyzeBreakContinue(n ast.Node, what string) {
	if a.loopDepth() == 0 {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' outside a loop", what)
	}
}
