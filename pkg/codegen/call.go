package codegen

import (
	"strconv"
	"strings"

	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/types"
)

func (e *Emitter) emitCall(v *ast.Call) string {
	if ident, ok := v.Callee.(*ast.Identifier); ok {
		switch ident.Name {
		case "println":
			return e.emitPrintCall(v, true)
		case "print":
			return e.emitPrintCall(v, false)
		case "sqrt":
			return "sqrt(" + e.emitExpr(v.Args[0]) + ")"
		}
		return cIdent(ident.Name) + "(" + e.emitArgs(v.Args) + ")"
	}

	field := v.Callee.(*ast.Field)
	return e.emitMethodCall(v, field)
}

// emitMethodCall lowers obj.method(args) to the mangled free function
// Struct_method(receiver, args...). The receiver is obj itself if obj is
// already a struct value, or *obj if obj is a pointer/reference to one —
// methods always take self by value (see pkg/sema's self-parameter rule).
func (e *Emitter) emitMethodCall(v *ast.Call, field *ast.Field) string {
	objTy := field.Object.Type()
	receiver := e.emitExpr(field.Object)
	structName := ""
	if objTy != nil {
		switch objTy.Kind {
		case types.Pointer, types.Reference:
			receiver = "*" + receiver
			structName = objTy.Elem.Name
		case types.Struct:
			structName = objTy.Name
		}
	}

	args := receiver
	if rest := e.emitArgs(v.Args); rest != "" {
		args += ", " + rest
	}
	return structName + "_" + field.Name + "(" + args + ")"
}

// emitPrintCall lowers println/print to a single printf call: each argument
// contributes one format specifier (selected by its resolved type) and,
// where the C format string needs a different representation than the
// source value (signed/unsigned width, bool-to-string), a wrapped argument
// expression.
func (e *Emitter) emitPrintCall(v *ast.Call, newline bool) string {
	var specs []string
	var args []string

	for _, a := range v.Args {
		spec, arg := formatSpecFor(a.Type(), e.emitExpr(a))
		specs = append(specs, spec)
		args = append(args, arg)
	}

	format := strings.Join(specs, "")
	if newline {
		format += "\n"
	}

	parts := append([]string{strconv.Quote(format)}, args...)
	return "printf(" + strings.Join(parts, ", ") + ")"
}

func formatSpecFor(t *types.Type, expr string) (spec, arg string) {
	if t == nil {
		return "%s", expr
	}
	switch {
	case t.Kind == types.Str:
		return "%s", expr
	case t.Kind == types.Bool:
		return "%s", "(" + expr + ") ? \"true\" : \"false\""
	case t.Kind == types.Char:
		return "%c", expr
	case t.IsFloating():
		return "%f", expr
	case t.IsSigned():
		return "%lld", "(long long)(" + expr + ")"
	case t.IsIntegral():
		return "%llu", "(unsigned long long)(" + expr + ")"
	default:
		return "%s", expr
	}
}
