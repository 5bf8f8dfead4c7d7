package codegen

import (
	"strconv"
	"strings"

	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/types"
)

func cIdent(name string) string { return strings.ReplaceAll(name, "::", "_") }

func (e *Emitter) emitExpr(n ast.Node) string {
	if n.Type() == nil {
		e.diags.AddInternal(n.Loc().Line, n.Loc().Col, "codegen: %T has no resolved type", n)
	}
	switch v := n.(type) {
	case *ast.Literal:
		return e.emitLiteral(v)
	case *ast.Identifier:
		return cIdent(v.Name)
	case *ast.BinaryOp:
		return e.emitBinaryOp(v)
	case *ast.UnaryOp:
		return e.emitUnaryOp(v)
	case *ast.Cast:
		return e.emitCast(v)
	case *ast.Call:
		return e.emitCall(v)
	case *ast.Field:
		return e.emitField(v)
	case *ast.Index:
		return e.emitExpr(v.Array) + "[" + e.emitExpr(v.Idx) + "]"
	case *ast.ArrayLiteral:
		return e.emitArrayLiteral(v, false)
	case *ast.StructLiteral:
		return e.emitStructLiteral(v, false)
	case *ast.Assignment:
		return e.emitAssignment(v)
	default:
		e.diags.AddInternal(n.Loc().Line, n.Loc().Col, "codegen: unhandled expression %T", n)
		return "/* unsupported expression */"
	}
}

func (e *Emitter) emitLiteral(n *ast.Literal) string {
	switch v := n.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		// The lexer keeps escapes raw, so C's own string syntax interprets them.
		return "\"" + v + "\""
	case byte:
		return quoteChar(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		e.diags.AddInternal(n.Loc().Line, n.Loc().Col, "codegen: literal with unrecognized value kind %T", n.Value)
		return "0"
	}
}

func quoteChar(b byte) string {
	switch b {
	case '\'', '\\':
		return "'\\" + string(b) + "'"
	case '\n':
		return "'\\n'"
	case '\t':
		return "'\\t'"
	}
	if b < 32 || b > 126 {
		return "'\\x" + strconv.FormatUint(uint64(b), 16) + "'"
	}
	return "'" + string(b) + "'"
}

// needsParen reports whether n must be wrapped in parens when it appears as
// an operand of a unary or binary operator: lower-precedence forms only, so
// chained binary/cast/assignment never silently reparses under a different
// operator.
func needsParen(n ast.Node) bool {
	switch n.(type) {
	case *ast.BinaryOp, *ast.Cast, *ast.Assignment:
		return true
	}
	return false
}

func (e *Emitter) parenthesized(n ast.Node) string {
	s := e.emitExpr(n)
	if needsParen(n) {
		return "(" + s + ")"
	}
	return s
}

func (e *Emitter) emitBinaryOp(v *ast.BinaryOp) string {
	return e.parenthesized(v.Left) + " " + v.Op + " " + e.parenthesized(v.Right)
}

// emitUnaryOp always separates the operator from its operand with a space:
// "- -x" and "& &x" would otherwise token-paste into "--" (decrement) and
// "&&" (logical and), which C would then parse as a single different token.
func (e *Emitter) emitUnaryOp(v *ast.UnaryOp) string {
	return v.Op + " " + e.parenthesized(v.Operand)
}

func (e *Emitter) emitCast(v *ast.Cast) string {
	return "(" + cBareType(v.Target) + ")" + e.parenthesized(v.Expr)
}

func (e *Emitter) emitField(v *ast.Field) string {
	obj := e.emitExpr(v.Object)
	if objTy := v.Object.Type(); objTy != nil && (objTy.Kind == types.Pointer || objTy.Kind == types.Reference) {
		return obj + "->" + v.Name
	}
	return obj + "." + v.Name
}

func (e *Emitter) emitAssignment(v *ast.Assignment) string {
	return e.emitExpr(v.Target) + " " + v.Op + " " + e.emitExpr(v.Value)
}

func (e *Emitter) emitArgs(args []ast.Node) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.emitExpr(a)
	}
	return strings.Join(parts, ", ")
}

// emitArrayLiteral/emitStructLiteral take a nested flag: false renders a
// full compound literal `(Type){...}` for use as a standalone expression;
// true elides the cast down to a bare brace-initializer, used when this
// literal appears directly as a field or element value of an enclosing
// literal, where C's nested-initializer-list rules make the cast redundant.

func (e *Emitter) emitArrayLiteral(v *ast.ArrayLiteral, nested bool) string {
	parts := make([]string, len(v.Elements))
	for i, el := range v.Elements {
		parts[i] = e.emitAggregateElement(el)
	}
	body := "{" + strings.Join(parts, ", ") + "}"
	if nested {
		return body
	}
	return "(" + arrayTypeName(v.Type()) + ")" + body
}

func (e *Emitter) emitStructLiteral(v *ast.StructLiteral, nested bool) string {
	parts := make([]string, len(v.FieldNames))
	for i, name := range v.FieldNames {
		parts[i] = "." + name + " = " + e.emitAggregateElement(v.FieldValues[i])
	}
	body := "{" + strings.Join(parts, ", ") + "}"
	if nested {
		return body
	}
	return "(" + v.StructName + ")" + body
}

func (e *Emitter) emitAggregateElement(n ast.Node) string {
	switch v := n.(type) {
	case *ast.StructLiteral:
		return e.emitStructLiteral(v, true)
	case *ast.ArrayLiteral:
		return e.emitArrayLiteral(v, true)
	default:
		return e.emitExpr(n)
	}
}
