package sema

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/types"
)

// analyzeExpr dispatches by node kind, decorating node with its resolved
// type before returning. A node that already carries a type is left alone:
// this both short-circuits a revisit and lets callers analyze a shared
// sub-expression more than once without redoing the work.
func (a *Analyzer) analyzeExpr(node ast.Node) {
	if node == nil || node.Type() != nil {
		return
	}

	switch n := node.(type) {
	case *ast.Literal:
		a.analyzeLiteral(n)
	case *ast.Identifier:
		a.analyzeIdentifier(n)
	case *ast.BinaryOp:
		a.analyzeBinaryOp(n)
	case *ast.UnaryOp:
		a.analyzeUnaryOp(n)
	case *ast.Cast:
		a.analyzeCast(n)
	case *ast.Call:
		a.analyzeCall(n)
	case *ast.Field:
		a.analyzeField(n)
	case *ast.Index:
		a.analyzeIndex(n)
	case *ast.ArrayLiteral:
		a.analyzeArrayLiteral(n)
	case *ast.StructLiteral:
		a.analyzeStructLiteral(n)
	case *ast.Assignment:
		a.analyzeAssignment(n)
	default:
		a.diags.AddInternal(node.Loc().Line, node.Loc().Col, "unreachable expression node %T", node)
	}
}

func (a *Analyzer) analyzeLiteral(n *ast.Literal) {
	switch n.Value.(type) {
	case int64:
		n.SetType(types.TyI32)
	case float64:
		n.SetType(types.TyF64)
	case string:
		n.SetType(types.TyStr)
	case byte:
		n.SetType(types.TyChar)
	case bool:
		n.SetType(types.TyBool)
	default:
		a.diags.AddInternal(n.Loc().Line, n.Loc().Col, "literal with unrecognized value kind %T", n.Value)
		n.SetType(types.TyUnknown)
	}
}

func (a *Analyzer) analyzeIdentifier(n *ast.Identifier) {
	sym, ok := a.resolve(n.Name)
	if !ok {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "undefined name '%s'", n.Name)
		n.SetType(types.TyUnknown)
		return
	}
	n.SetType(sym.Type)
}

func (a *Analyzer) analyzeCast(n *ast.Cast) {
	a.analyzeExpr(n.Expr)
	if n.Expr.Type() == nil {
		a.diags.AddInternal(n.Loc().Line, n.Loc().Col, "cast operand has no resolved type")
	}
	n.SetType(n.Target)
}

func (a *Analyzer) analyzeUnaryOp(n *ast.UnaryOp) {
	a.analyzeExpr(n.Operand)
	opTy := n.Operand.Type()

	switch n.Op {
	case "-":
		if opTy != nil && !opTy.IsNumeric() {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "unary '-' requires a numeric operand, found %s", opTy)
		}
		n.SetType(opTy)

	case "!":
		if opTy != nil && !types.Equal(opTy, types.TyBool) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "unary '!' requires a bool operand, found %s", opTy)
		}
		n.SetType(types.TyBool)

	case "*":
		if opTy == nil || (opTy.Kind != types.Pointer && opTy.Kind != types.Reference) {
			if opTy != nil {
				a.diags.Add(n.Loc().Line, n.Loc().Col, "cannot dereference non-pointer type %s", opTy)
			}
			n.SetType(types.TyUnknown)
		} else {
			n.SetType(opTy.Elem)
		}

	case "&":
		n.SetType(types.NewReference(opTy, n.IsMutRef))

	default:
		a.diags.AddInternal(n.Loc().Line, n.Loc().Col, "unreachable unary operator %q", n.Op)
		n.SetType(types.TyUnknown)
	}
}

func (a *Analyzer) analyzeBinaryOp(n *ast.BinaryOp) {
	a.analyzeExpr(n.Left)
	a.analyzeExpr(n.Right)
	lt, rt := n.Left.Type(), n.Right.Type()

	switch n.Op {
	case "+", "-", "*", "/", "%":
		if !bothNumeric(lt, rt) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires numeric operands, found %s and %s", n.Op, lt, rt)
			n.SetType(types.TyUnknown)
			return
		}
		n.SetType(arithmeticResult(lt, rt))

	case "<", ">", "<=", ">=":
		if !bothNumeric(lt, rt) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires numeric operands, found %s and %s", n.Op, lt, rt)
		}
		n.SetType(types.TyBool)

	case "==", "!=":
		if lt != nil && rt != nil && !types.Equal(lt, rt) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires matching operand types, found %s and %s", n.Op, lt, rt)
		}
		n.SetType(types.TyBool)

	case "&&", "||":
		if !bothBool(lt, rt) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires bool operands, found %s and %s", n.Op, lt, rt)
		}
		n.SetType(types.TyBool)

	case "&", "|", "^", "<<", ">>":
		if (lt != nil && !lt.IsIntegral()) || (rt != nil && !rt.IsIntegral()) {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires integral operands, found %s and %s", n.Op, lt, rt)
		}
		n.SetType(lt)

	default:
		a.diags.AddInternal(n.Loc().Line, n.Loc().Col, "unreachable binary operator %q", n.Op)
		n.SetType(types.TyUnknown)
	}
}

func bothNumeric(a, b *types.Type) bool { return a != nil && b != nil && a.IsNumeric() && b.IsNumeric() }

func bothBool(a, b *types.Type) bool {
	return a != nil && b != nil && types.Equal(a, types.TyBool) && types.Equal(b, types.TyBool)
}

// arithmeticResult promotes to the wider of the two operand types:
// f64 beats f32 beats everything else (every other numeric combination
// settles on i32, per Compatible treating all integral types as
// interchangeable).
func arithmeticResult(a, b *types.Type) *types.Type {
	if a.Kind == types.F64 || b.Kind == types.F64 {
		return types.TyF64
	}
	if a.Kind == types.F32 || b.Kind == types.F32 {
		return types.TyF32
	}
	return types.TyI32
}

func (a *Analyzer) analyzeAssignment(n *ast.Assignment) {
	a.analyzeExpr(n.Target)
	a.analyzeExpr(n.Value)

	if !a.isMutableLValue(n.Target) {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "assignment target is not mutable")
	}

	targetTy, valueTy := n.Target.Type(), n.Value.Type()
	if targetTy != nil && valueTy != nil && !types.Compatible(targetTy, valueTy) {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "cannot assign value of type %s to target of type %s", valueTy, targetTy)
	}
	if n.Op != "=" && targetTy != nil && !targetTy.IsNumeric() {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "'%s' requires a numeric target, found %s", n.Op, targetTy)
	}

	n.SetType(targetTy)
}

// isMutableLValue implements the assignment-target rule: an identifier of a
// mutable binding; field access is transitive on its object; indexing is
// transitive on its array; dereferencing a pointer is always mutable
// (pointers carry no mutability of their own), dereferencing a reference is
// mutable iff the reference itself is `&mut`. A reference/pointer variable
// need not itself be declared mutable for *r to be a valid target — the
// mutability comes from what it refers to, not from the binding that holds
// it.
func (a *Analyzer) isMutableLValue(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.Identifier:
		sym, ok := a.resolve(n.Name)
		return ok && sym.Mutable
	case *ast.Field:
		return a.isMutableLValue(n.Object)
	case *ast.Index:
		return a.isMutableLValue(n.Array)
	case *ast.UnaryOp:
		if n.Op != "*" {
			return false
		}
		opTy := n.Operand.Type()
		if opTy == nil {
			return false
		}
		if opTy.Kind == types.Pointer {
			return true
		}
		if opTy.Kind == types.Reference {
			return opTy.Mutable
		}
		return false
	default:
		return false
	}
}

func (a *Analyzer) analyzeField(n *ast.Field) {
	a.analyzeExpr(n.Object)
	objTy := autoDeref(n.Object.Type())

	if objTy == nil || objTy.Kind != types.Struct {
		if objTy != nil {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "field access on non-struct type %s", objTy)
		}
		n.SetType(types.TyUnknown)
		return
	}

	info, ok := a.structs.Get(objTy.Name)
	if !ok {
		a.diags.AddInternal(n.Loc().Line, n.Loc().Col, "struct '%s' missing from the type registry", objTy.Name)
		n.SetType(types.TyUnknown)
		return
	}

	fieldTy, ok := info.fieldType(n.Name)
	if !ok {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "struct '%s' has no field '%s'", objTy.Name, n.Name)
		n.SetType(types.TyUnknown)
		return
	}
	n.SetType(fieldTy)
}

func (a *Analyzer) analyzeIndex(n *ast.Index) {
	a.analyzeExpr(n.Array)
	a.analyzeExpr(n.Idx)

	arrTy := autoDeref(n.Array.Type())
	if arrTy == nil || (arrTy.Kind != types.Array && arrTy.Kind != types.Pointer) {
		if arrTy != nil {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "cannot index into type %s", arrTy)
		}
		n.SetType(types.TyUnknown)
	} else {
		n.SetType(arrTy.Elem)
	}

	if idxTy := n.Idx.Type(); idxTy != nil && !idxTy.IsIntegral() {
		a.diags.Add(n.Idx.Loc().Line, n.Idx.Loc().Col, "array index must be integral, found %s", idxTy)
	}
}

func (a *Analyzer) analyzeArrayLiteral(n *ast.ArrayLiteral) {
	var elemTy *types.Type
	for _, el := range n.Elements {
		a.analyzeExpr(el)
		if elemTy == nil {
			elemTy = el.Type()
		} else if ty := el.Type(); ty != nil && !types.Compatible(ty, elemTy) {
			a.diags.Add(el.Loc().Line, el.Loc().Col, "array element type %s incompatible with %s", ty, elemTy)
		}
	}
	if elemTy == nil {
		elemTy = types.TyUnknown
	}
	n.SetType(types.NewArray(elemTy, uint64(len(n.Elements))))
}

func (a *Analyzer) analyzeStructLiteral(n *ast.StructLiteral) {
	info, ok := a.structs.Get(n.StructName)
	if !ok {
		a.diags.Add(n.Loc().Line, n.Loc().Col, "undefined struct '%s'", n.StructName)
		for _, v := range n.FieldValues {
			a.analyzeExpr(v)
		}
		n.SetType(types.TyUnknown)
		return
	}

	seen := map[string]bool{}
	for i, name := range n.FieldNames {
		value := n.FieldValues[i]
		a.analyzeExpr(value)

		if seen[name] {
			a.diags.Add(value.Loc().Line, value.Loc().Col, "duplicate field '%s' in struct literal", name)
			continue
		}
		seen[name] = true

		fieldTy, ok := info.fieldType(name)
		if !ok {
			a.diags.Add(value.Loc().Line, value.Loc().Col, "struct '%s' has no field '%s'", n.StructName, name)
			continue
		}
		if valTy := value.Type(); valTy != nil && !types.Compatible(valTy, fieldTy) {
			a.diags.Add(value.Loc().Line, value.Loc().Col, "field '%s' expects %s, found %s", name, fieldTy, valTy)
		}
	}

	for _, field := range info.Fields {
		if !seen[field.Name] {
			a.diags.Add(n.Loc().Line, n.Loc().Col, "missing field '%s' in struct literal for '%s'", field.Name, n.StructName)
		}
	}

	n.SetType(types.NewStruct(n.StructName))
}

// autoDeref strips one layer of Pointer or Reference, so `p.x` and `a[i]`
// work the same whether the receiver is a struct/array value, a reference to
// one, or a pointer to one.
func autoDeref(t *types.Type) *types.Type {
	if t != nil && (t.Kind == types.Pointer || t.Kind == types.Reference) {
		return t.Elem
	}
	return t
}
