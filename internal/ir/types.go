package ir

import (
	"fmt"
	"strconv"
)

// Type represents IR types
type Type interface {
	String() string
}

// IntType is an integer of a fixed bit width (i1, i8, i32)
type IntType struct {
	Bits int
}

// VoidType is the return type of procedures
type VoidType struct{}

// PointerType is the address of an element of Elem
type PointerType struct {
	Elem Type
}

// ArrayType is a fixed-length array, used for allocas and globals
type ArrayType struct {
	Len  int
	Elem Type
}

// LabelType is the type of branch targets
type LabelType struct{}

func (t *IntType) String() string     { return "i" + strconv.Itoa(t.Bits) }
func (t *VoidType) String() string    { return "void" }
func (t *PointerType) String() string { return t.Elem.String() + "*" }
func (t *ArrayType) String() string   { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }
func (t *LabelType) String() string   { return "label" }

var (
	I1   = &IntType{Bits: 1}
	I8   = &IntType{Bits: 8}
	I32  = &IntType{Bits: 32}
	Void = &VoidType{}

	I32Ptr = &PointerType{Elem: I32}
	I8Ptr  = &PointerType{Elem: I8}
)

// SameType reports structural type equality.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// IsBool reports whether t is the 1-bit integer type.
func IsBool(t Type) bool {
	it, ok := t.(*IntType)
	return ok && it.Bits == 1
}

// elemOf returns the element type addressed through a pointer, unwrapping
// one level of array so that a pointer to [N x i32] addresses i32 elements.
func elemOf(t Type) Type {
	pt, ok := t.(*PointerType)
	if !ok {
		return I32
	}
	if at, ok := pt.Elem.(*ArrayType); ok {
		return at.Elem
	}
	return pt.Elem
}
