// Package types implements the Type sum type: the closed set of primitives
// plus Array/Pointer/Reference/Struct/Unknown, with structural equality for
// compound types and nominal equality for structs.
package types

import "fmt"

// Kind tags which variant of the Type sum a given *Type value is.
type Kind int

const (
	Unknown Kind = iota

	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Bool
	Char
	Str
	Void

	Array
	Pointer
	Reference
	Struct
)

// Type is allocated once per distinct shape during lexing/parsing/analysis and
// referenced thereafter; the resulting graph is acyclic (the grammar cannot
// construct a cycle) so no special cleanup is required.
type Type struct {
	Kind Kind

	Elem *Type // Array element / Pointer pointee / Reference referent
	Size uint64 // Array length

	Mutable bool // Reference only: true for `&mut T`

	Name string // Struct only: the nominal name, resolved against a type registry
}

// Primitive singletons. Reusing one *Type per primitive keeps equality checks
// cheap and avoids needless allocation during lexing/parsing.
var (
	TyUnknown = &Type{Kind: Unknown}
	TyI8      = &Type{Kind: I8}
	TyI16     = &Type{Kind: I16}
	TyI32     = &Type{Kind: I32}
	TyI64     = &Type{Kind: I64}
	TyU8      = &Type{Kind: U8}
	TyU16     = &Type{Kind: U16}
	TyU32     = &Type{Kind: U32}
	TyU64     = &Type{Kind: U64}
	TyF32     = &Type{Kind: F32}
	TyF64     = &Type{Kind: F64}
	TyBool    = &Type{Kind: Bool}
	TyChar    = &Type{Kind: Char}
	TyStr     = &Type{Kind: Str}
	TyVoid    = &Type{Kind: Void}
)

// Primitives maps the primitive type keyword spelling to its singleton Type,
// used by the parser when it parses a bare primitive keyword as a type.
var Primitives = map[string]*Type{
	"i8": TyI8, "i16": TyI16, "i32": TyI32, "i64": TyI64,
	"u8": TyU8, "u16": TyU16, "u32": TyU32, "u64": TyU64,
	"f32": TyF32, "f64": TyF64, "bool": TyBool, "char": TyChar,
	"str": TyStr, "void": TyVoid,
}

func NewArray(elem *Type, size uint64) *Type { return &Type{Kind: Array, Elem: elem, Size: size} }
func NewPointer(elem *Type) *Type            { return &Type{Kind: Pointer, Elem: elem} }
func NewReference(elem *Type, mutable bool) *Type {
	return &Type{Kind: Reference, Elem: elem, Mutable: mutable}
}
func NewStruct(name string) *Type { return &Type{Kind: Struct, Name: name} }

func (t *Type) IsIntegral() bool {
	switch t.Kind {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	}
	return false
}

func (t *Type) IsFloating() bool { return t.Kind == F32 || t.Kind == F64 }
func (t *Type) IsNumeric() bool  { return t.IsIntegral() || t.IsFloating() }
func (t *Type) IsSigned() bool {
	switch t.Kind {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// Equal compares two types structurally, except for Struct which compares by
// name only (nominal typing resolved against the struct registry).
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case Array:
		return a.Size == b.Size && Equal(a.Elem, b.Elem)
	case Pointer:
		return Equal(a.Elem, b.Elem)
	case Reference:
		return a.Mutable == b.Mutable && Equal(a.Elem, b.Elem)
	case Struct:
		return a.Name == b.Name
	default:
		return true // primitives and Unknown: Kind equality is enough
	}
}

// Compatible implements the single "compatible" relation used by every
// type-check in sema: structurally equal, or both integral, or both
// floating. No other widening/narrowing is permitted.
func Compatible(a, b *Type) bool {
	if Equal(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.IsIntegral() && b.IsIntegral() {
		return true
	}
	if a.IsFloating() && b.IsFloating() {
		return true
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case Array:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Size)
	case Pointer:
		return fmt.Sprintf("*%s", t.Elem)
	case Reference:
		if t.Mutable {
			return fmt.Sprintf("&mut %s", t.Elem)
		}
		return fmt.Sprintf("&%s", t.Elem)
	case Struct:
		return t.Name
	case Unknown:
		return "<unknown>"
	default:
		for spelling, ty := range Primitives {
			if ty.Kind == t.Kind {
				return spelling
			}
		}
		return "<?>"
	}
}
