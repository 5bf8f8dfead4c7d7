package sema

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/types"
)

// analyzeCall dispatches a call by what its callee looks like: println/print
// and sqrt are builtins recognized by name ahead of any registered
// function, a plain identifier callee is a free function or a static
// Struct::method path, and a Field callee is a method call through an
// object.
func (a *Analyzer) analyzeCall(n *ast.Call) {
	if ident, ok := n.Callee.(*ast.Identifier); ok {
		switch ident.Name {
		case "println", "print":
			a.analyzeBuiltinPrint(n)
			return
		case "sqrt":
			a.analyzeBuiltinSqrt(n)
			return
		}

		fn, ok := a.funcs.Get(ident.Name)
		if !ok {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "call to undefined function '%s'", ident.Name)
			n.SetType(types.TyUnknown)
			a.analyzeArgsBestEffort(n.Args)
			return
		}

		ident.SetType(fn.ReturnType)
		a.checkCallArgs(n, fn.Params, ident.Name)
		n.SetType(fn.ReturnType)
		return
	}

	if field, ok := n.Callee.(*ast.Field); ok {
		a.analyzeMethodCall(n, field)
		return
	}

	a.diags.Add(n.Loc().Line, n.Loc().Col, "expression is not callable")
	n.SetType(types.TyUnknown)
	a.analyzeArgsBestEffort(n.Args)
}

func (a *Analyzer) analyzeArgsBestEffort(args []ast.Node) {
	for _, arg := range args {
		a.analyzeExpr(arg)
	}
}

// checkCallArgs validates arity and per-argument compatibility against
// params, decorating every argument along the way regardless of whether it
// lines up with a declared parameter.
func (a *Analyzer) checkCallArgs(n *ast.Call, params []ast.Param, name string) {
	if len(n.Args) != len(params) {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' expects %d argument(s), got %d", name, len(params), len(n.Args))
	}

	limit := len(n.Args)
	if len(params) < limit {
		limit = len(params)
	}
	for i := 0; i < limit; i++ {
		a.analyzeExpr(n.Args[i])
		if argTy := n.Args[i].Type(); argTy != nil && !types.Compatible(argTy, params[i].Type) {
			a.diags.Add(n.Args[i].Loc().Line, n.Args[i].Loc().Col,
				"argument %d to '%s': expected %s, found %s", i+1, name, params[i].Type, argTy)
		}
	}
	for i := limit; i < len(n.Args); i++ {
		a.analyzeExpr(n.Args[i])
	}
}

// analyzeMethodCall resolves obj.method(args) by auto-dereferencing the
// object's type down to a struct, looking up Struct::method, and matching
// args against every parameter past the receiver (the first declared
// parameter, conventionally named self).
func (a *Analyzer) analyzeMethodCall(n *ast.Call, field *ast.Field) {
	a.analyzeExpr(field.Object)
	objTy := autoDeref(field.Object.Type())

	if objTy == nil || objTy.Kind != types.Struct {
		if objTy != nil {
			a.diags.Add(field.Loc().Line, field.Loc().Col, "method call on non-struct type %s", objTy)
		}
		n.SetType(types.TyUnknown)
		a.analyzeArgsBestEffort(n.Args)
		return
	}

	mangled := objTy.Name + "::" + field.Name
	fn, ok := a.funcs.Get(mangled)
	if !ok {
		a.diags.Add(field.Loc().Line, field.Loc().Col, "struct '%s' has no method '%s'", objTy.Name, field.Name)
		n.SetType(types.TyUnknown)
		a.analyzeArgsBestEffort(n.Args)
		return
	}

	field.SetType(fn.ReturnType)

	params := fn.Params
	if len(params) > 0 {
		params = params[1:]
	}
	a.checkCallArgs(n, params, mangled)
	n.SetType(fn.ReturnType)
}

func (a *Analyzer) analyzeBuiltinPrint(n *ast.Call) {
	a.analyzeArgsBestEffort(n.Args)
	n.SetType(types.TyVoid)
}

func (a *Analyzer) analyzeBuiltinSqrt(n *ast.Call) {
	if len(n.Args) != 1 {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "'sqrt' expects exactly 1 argument, got %d", len(n.Args))
	}
	a.analyzeArgsBestEffort(n.Args)
	if len(n.Args) == 1 {
		if ty := n.Args[0].Type(); ty != nil && !ty.IsNumeric() {
			a.diags.Add(n.Args[0].Loc().Line, n.Args[0].Loc().Col, "'sqrt' argument must be numeric, found %s", ty)
		}
	}
	n.SetType(types.TyF32)
}
