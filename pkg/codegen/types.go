package codegen

import (
	"strconv"

	"slc.dev/slc/pkg/types"
)

// cBareType renders t as a C type-name with no accompanying declarator: the
// right form for a cast, a compound-literal type name, or a struct/scalar
// function parameter. Array is handled separately by declareVar/arrayTypeName
// since C wraps the declarator, not the type, in brackets.
func cBareType(t *types.Type) string {
	switch t.Kind {
	case types.I8:
		return "int8_t"
	case types.I16:
		return "int16_t"
	case types.I32:
		return "int32_t"
	case types.I64:
		return "int64_t"
	case types.U8:
		return "uint8_t"
	case types.U16:
		return "uint16_t"
	case types.U32:
		return "uint32_t"
	case types.U64:
		return "uint64_t"
	case types.F32:
		return "float"
	case types.F64:
		return "double"
	case types.Bool:
		return "bool"
	case types.Char:
		return "char"
	case types.Str:
		return "const char *"
	case types.Void:
		return "void"
	case types.Pointer:
		return cBareType(t.Elem) + " *"
	case types.Reference:
		if t.Mutable {
			return cBareType(t.Elem) + " *"
		}
		return "const " + cBareType(t.Elem) + " *"
	case types.Struct:
		return t.Name
	case types.Array:
		return cBareType(t.Elem) + " *" // decayed form; declaration sites use declareVar instead
	default:
		return "void"
	}
}

// declareVar renders a full C declaration fragment for a variable or field
// named name with type t: "int32_t x" ordinarily, or "int32_t xs[3]" for an
// array, whose declarator wraps the name rather than preceding it. Nested
// arrays (`[[i32; 3]; 4]`) unwrap into a multi-dimensional C declarator.
func declareVar(t *types.Type, name string) string {
	dims := ""
	base := t
	for base.Kind == types.Array {
		dims += "[" + strconv.FormatUint(base.Size, 10) + "]"
		base = base.Elem
	}
	if dims == "" {
		return cBareType(base) + " " + name
	}
	return cBareType(base) + " " + name + dims
}

// arrayTypeName renders the type-name half of an array compound literal,
// e.g. "int32_t[3]" for `(int32_t[3]){1, 2, 3}".
func arrayTypeName(t *types.Type) string {
	dims := ""
	base := t
	for base.Kind == types.Array {
		dims += "[" + strconv.FormatUint(base.Size, 10) + "]"
		base = base.Elem
	}
	return cBareType(base) + dims
}
