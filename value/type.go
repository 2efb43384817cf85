// Package value implements the polymorphic, reference-counted, self
// describing value model: a tagged union over scalars, strings, pointers,
// fixed-element arrays, heterogeneous vectors, doubly linked lists, and
// ordered key/value maps.
//
// It is a direct Go translation of IOTechSystems/iotech-c-utils's iot_data_t
// (see _examples/original_source/include/iot/data.h), modelled as a tagged
// struct rather than a C union per the "enum-of-structs" design note.
package value

import "fmt"

// Type is the tag identifying a Value's variant.
type Type uint8

const (
	Int8 Type = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Bool
	Pointer
	String
	Null
	Binary
	Array
	Vector
	List
	Map
	Multi
	Invalid
)

var typeNames = [...]string{
	Int8: "Int8", UInt8: "UInt8", Int16: "Int16", UInt16: "UInt16",
	Int32: "Int32", UInt32: "UInt32", Int64: "Int64", UInt64: "UInt64",
	Float32: "Float32", Float64: "Float64", Bool: "Bool", Pointer: "Pointer",
	String: "String", Null: "Null", Binary: "Binary", Array: "Array",
	Vector: "Vector", List: "List", Map: "Map", Multi: "Multi", Invalid: "Invalid",
}

// String returns the canonical name of the type, matching the original
// library's iot_typecode_name reverse mapping.
func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType resolves a canonical type name (as produced by Type.String) back
// to its Type, used by config and CLI layers that receive the type as a
// plain string flag. It reports false for an unrecognised name.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return Type(t), true
		}
	}
	return Invalid, false
}

// IsNumeric reports whether t is one of the integer/float scalar types.
func (t Type) IsNumeric() bool {
	return t <= Float64
}

// IsContainer reports whether t is a composed container type.
func (t Type) IsContainer() bool {
	switch t {
	case Array, Vector, List, Map, Binary:
		return true
	default:
		return false
	}
}

// Typecode structurally describes a Value's shape: its own type plus, for
// container types, the element type and (for Map) the key type.
type Typecode struct {
	Type        Type
	ElementType Type
	KeyType     Type
}

// Equal reports whether two typecodes describe the same shape. Per spec.md
// §3.5, element/key fields are ignored for non-container types.
func (tc Typecode) Equal(other Typecode) bool {
	if tc.Type != other.Type {
		return false
	}
	if !tc.Type.IsContainer() {
		return true
	}
	if tc.ElementType != other.ElementType {
		return false
	}
	if tc.Type == Map && tc.KeyType != other.KeyType {
		return false
	}
	return true
}
