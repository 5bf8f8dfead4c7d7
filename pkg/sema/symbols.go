package sema

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/types"
)

// StructInfo is the flat registry entry for a declared struct: its field
// list, looked up by name during Field/StructLiteral analysis. Structs are
// kept out of the scope chain entirely — a struct name and a variable name
// never collide since they live in separate namespaces.
type StructInfo struct {
	Name     string
	Fields   []ast.Param
	IsExtern bool
}

func (si *StructInfo) fieldType(name string) (*types.Type, bool) {
	for _, f := range si.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// FuncInfo is the flat registry entry for a callable: a free function, an
// extern function, or an impl method (keyed by its mangled "Struct::method"
// name). IsMethod marks the latter; call-checking does not consult it:
// analyzeMethodCall drops Params[0] (the receiver) for every obj.method(...)
// call, while a plain Struct::method(...) call passes the receiver explicitly
// as its first argument.
type FuncInfo struct {
	Name       string
	Params     []ast.Param
	ReturnType *types.Type
	IsMethod   bool
}
