package ast

import (
	"fmt"
	"strings"
)

// LitNumKind tags a numeric type: either a concrete suffixed width or the
// unsuffixed "I"/"F" literal kind a bare integer/float literal starts life
// as before unification picks a concrete width.
type LitNumKind int

const (
	I8 LitNumKind = iota
	I16
	I32
	I64
	I128
	Isize
	U8
	U16
	U32
	U64
	U128
	Usize
	F32
	F64
	// I is the type of an unsuffixed integer literal (e.g. `42`) before
	// unification narrows it to a concrete width.
	I
	// F is the type of an unsuffixed float literal (e.g. `3.14`).
	F
)

func (k LitNumKind) String() string {
	switch k {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case Isize:
		return "isize"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case Usize:
		return "usize"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case I:
		return "{integer}"
	case F:
		return "{float}"
	default:
		return "?"
	}
}

// IsInt reports whether k is a concrete signed/unsigned integer width.
func (k LitNumKind) IsInt() bool {
	switch k {
	case I8, I16, I32, I64, I128, Isize, U8, U16, U32, U64, U128, Usize:
		return true
	}
	return false
}

// IsFloat reports whether k is a concrete floating-point width.
func (k LitNumKind) IsFloat() bool {
	return k == F32 || k == F64
}

// TypeKind discriminates the members of the Type sum type.
type TypeKind int

const (
	TBool TypeKind = iota
	TChar
	TStr
	TUnit
	// TNever is the bottom type: the type of `return`, `break`, and
	// non-terminating loops. It unifies with every other type.
	TNever
	// TUnknown stands for "not yet inferred"; it compares equal to
	// everything so that it never blocks unification.
	TUnknown
	TLitNum
	TFn
	TFnPtr
	TRef
	TStruct
)

// Type is the semantic type sum type produced by the resolver. Field use
// depends on Kind: LitNum for TLitNum, Params/Ret for TFn/TFnPtr, Elem/Mutable
// for TRef, Name/Fields for TStruct.
type Type struct {
	Kind    TypeKind
	LitNum  LitNumKind
	Params  []*Type
	Ret     *Type
	Elem    *Type
	Mutable bool
	Name    string
	Fields  map[string]*Type
	// FieldOrder preserves declaration order for deterministic layout.
	FieldOrder []string
}

func BoolType() *Type    { return &Type{Kind: TBool} }
func CharType() *Type    { return &Type{Kind: TChar} }
func StrType() *Type     { return &Type{Kind: TStr} }
func UnitType() *Type    { return &Type{Kind: TUnit} }
func NeverType() *Type   { return &Type{Kind: TNever} }
func UnknownType() *Type { return &Type{Kind: TUnknown} }

func LitNumType(k LitNumKind) *Type { return &Type{Kind: TLitNum, LitNum: k} }

func FnType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TFn, Params: params, Ret: ret}
}

func FnPtrType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TFnPtr, Params: params, Ret: ret}
}

func RefType(elem *Type, mutable bool) *Type {
	return &Type{Kind: TRef, Elem: elem, Mutable: mutable}
}

func StructType(name string, fieldOrder []string, fields map[string]*Type) *Type {
	return &Type{Kind: TStruct, Name: name, Fields: fields, FieldOrder: fieldOrder}
}

func (t *Type) IsNever() bool   { return t != nil && t.Kind == TNever }
func (t *Type) IsUnknown() bool { return t != nil && t.Kind == TUnknown }

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TBool:
		return "bool"
	case TChar:
		return "char"
	case TStr:
		return "str"
	case TUnit:
		return "()"
	case TNever:
		return "!"
	case TUnknown:
		return "_"
	case TLitNum:
		return t.LitNum.String()
	case TFn, TFnPtr:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		ret := "()"
		if t.Ret != nil {
			ret = t.Ret.String()
		}
		prefix := "fn"
		if t.Kind == TFnPtr {
			prefix = "fn ptr"
		}
		return fmt.Sprintf("%s(%s) -> %s", prefix, strings.Join(parts, ", "), ret)
	case TRef:
		if t.Mutable {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	case TStruct:
		return t.Name
	default:
		return "?"
	}
}

// Equal reports structural equality, ignoring the partial order (used for
// map/struct field comparisons where an exact match is required).
func (t *Type) Equal(o *Type) bool {
	cmp, ok := t.Cmp(o)
	return ok && cmp == 0
}

// Cmp implements the partial order over types used by variable-type
// unification: Never compares less than everything, Unknown compares equal
// to everything, and an unsuffixed literal kind (I/F) compares less than any
// concrete width in its family. Returns ok=false when the two types are
// unrelated (e.g. bool vs str).
func (t *Type) Cmp(o *Type) (cmp int, ok bool) {
	if t == nil || o == nil {
		return 0, false
	}
	if t.Kind == TUnknown || o.Kind == TUnknown {
		return 0, true
	}
	if t.Kind == TNever && o.Kind == TNever {
		return 0, true
	}
	if t.Kind == TNever {
		return -1, true
	}
	if o.Kind == TNever {
		return 1, true
	}
	if t.Kind == TLitNum && o.Kind == TLitNum {
		if t.LitNum == o.LitNum {
			return 0, true
		}
		if t.LitNum == I && o.LitNum.IsInt() {
			return -1, true
		}
		if o.LitNum == I && t.LitNum.IsInt() {
			return 1, true
		}
		if t.LitNum == F && o.LitNum.IsFloat() {
			return -1, true
		}
		if o.LitNum == F && t.LitNum.IsFloat() {
			return 1, true
		}
		return 0, false
	}
	if t.Kind != o.Kind {
		return 0, false
	}
	switch t.Kind {
	case TBool, TChar, TStr, TUnit:
		return 0, true
	case TRef:
		return t.Elem.Cmp(o.Elem)
	case TStruct:
		if t.Name == o.Name {
			return 0, true
		}
		return 0, false
	case TFn, TFnPtr:
		if len(t.Params) != len(o.Params) {
			return 0, false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return 0, false
			}
		}
		if !t.Ret.Equal(o.Ret) {
			return 0, false
		}
		return 0, true
	default:
		return 0, false
	}
}

// TypeExpr is the syntactic type annotation as written in source, before the
// resolver turns it into a semantic Type by looking up Path in scope.
type TypeExpr struct {
	pos     Position
	Path    string
	RefOf   bool
	Mutable bool
	Elem    *TypeExpr
}

func (t *TypeExpr) Pos() Position { return t.pos }

func (t *TypeExpr) String() string {
	if t.RefOf {
		if t.Mutable {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	}
	return t.Path
}

func NewTypeExpr(pos Position, path string) *TypeExpr {
	return &TypeExpr{pos: pos, Path: path}
}

func NewRefTypeExpr(pos Position, elem *TypeExpr, mutable bool) *TypeExpr {
	return &TypeExpr{pos: pos, RefOf: true, Mutable: mutable, Elem: elem}
}
