// Package types models the small type system qorcc parses: integer widths
// with a signed/unsigned toggle, void, named (opaque) structs, and pointers.
package types

import "strings"

// RawKind is the base kind of a ValueType, before pointer levels are applied.
type RawKind int

//nolint:revive
const (
	Void RawKind = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	NamedStruct
)

func (k RawKind) String() string {
	switch k {
	case Void:
		return "void"
	case I8:
		return "char"
	case I16:
		return "short"
	case I32:
		return "int"
	case I64:
		return "long"
	case U8:
		return "unsigned char"
	case U16:
		return "unsigned short"
	case U32:
		return "unsigned int"
	case U64:
		return "unsigned long"
	case NamedStruct:
		return "struct"
	default:
		return "?"
	}
}

// IsSigned reports whether k is one of the signed integer kinds.
func (k RawKind) IsSigned() bool {
	return k == I8 || k == I16 || k == I32 || k == I64
}

// Unsigned returns the unsigned counterpart of a signed integer kind, or k
// unchanged if it is not an integer kind.
func (k RawKind) Unsigned() RawKind {
	switch k {
	case I8:
		return U8
	case I16:
		return U16
	case I32:
		return U32
	case I64:
		return U64
	default:
		return k
	}
}

// ValueType pairs a raw kind with a pointer-reference count: each trailing
// '*' in the source adds one level.
type ValueType struct {
	Kind         RawKind
	PointerDepth int
	// StructName names the struct when Kind == NamedStruct.
	StructName string
}

func (t ValueType) String() string {
	var sb strings.Builder
	if t.Kind == NamedStruct {
		sb.WriteString("struct ")
		sb.WriteString(t.StructName)
	} else {
		sb.WriteString(t.Kind.String())
	}
	for i := 0; i < t.PointerDepth; i++ {
		sb.WriteByte('*')
	}
	return sb.String()
}

// IsPointer reports whether t has at least one level of pointer indirection.
func (t ValueType) IsPointer() bool {
	return t.PointerDepth > 0
}
