package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the contract-language type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindString
	KindBytes
	KindFixedBytes
	KindInt
	KindUint
	KindAddress
	KindAddressPayable
	KindArray
	KindDynamicArray
	KindMapping
	// KindNested marks a mapping with more than one key dimension whose
	// composition is not tracked.
	KindNested
)

var kindNames = [...]string{
	KindInvalid:        "invalid",
	KindBool:           "bool",
	KindString:         "string",
	KindBytes:          "bytes",
	KindFixedBytes:     "fixed-bytes",
	KindInt:            "int",
	KindUint:           "uint",
	KindAddress:        "address",
	KindAddressPayable: "address-payable",
	KindArray:          "array",
	KindDynamicArray:   "dynamic-array",
	KindMapping:        "mapping",
	KindNested:         "nested",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Type is an immutable contract-language type. Composite variants hold their
// element types behind pointers that are never mutated after construction.
type Type struct {
	kind  Kind
	bits  uint16
	size  int
	elem  *Type
	key   *Type
	value *Type
}

var (
	Bool           = Type{kind: KindBool}
	String         = Type{kind: KindString}
	Bytes          = Type{kind: KindBytes}
	Address        = Type{kind: KindAddress}
	AddressPayable = Type{kind: KindAddressPayable}
	Nested         = Type{kind: KindNested}
)

// FixedBytes returns bytes<width>. Only widths 1..32 are valid types;
// other widths render a spelling Parse rejects.
func FixedBytes(width int) Type { return Type{kind: KindFixedBytes, size: width} }

// Int returns a signed integer type of the given bit width. The width is not
// checked against the legal 8..256 set.
func Int(bits uint16) Type { return Type{kind: KindInt, bits: bits} }

// Uint returns an unsigned integer type of the given bit width.
func Uint(bits uint16) Type { return Type{kind: KindUint, bits: bits} }

// ArrayOf returns a fixed-length array type elem[size]. size must be
// positive; elem[0] is not a valid type and Parse rejects it.
func ArrayOf(elem Type, size int) Type {
	e := elem
	return Type{kind: KindArray, elem: &e, size: size}
}

// DynamicArrayOf returns elem[].
func DynamicArrayOf(elem Type) Type {
	e := elem
	return Type{kind: KindDynamicArray, elem: &e}
}

// Mapping returns mapping(key=>value).
func Mapping(key, value Type) Type {
	k, v := key, value
	return Type{kind: KindMapping, key: &k, value: &v}
}

func (t Type) Kind() Kind { return t.kind }

// Bits is the bit width of Int/Uint types, zero otherwise.
func (t Type) Bits() uint16 { return t.bits }

// Size is the width of FixedBytes or the length of Array, zero otherwise.
func (t Type) Size() int { return t.size }

// Elem returns the element type of Array/DynamicArray.
func (t Type) Elem() (Type, bool) {
	if t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// KeyValue returns the key and value types of a Mapping.
func (t Type) KeyValue() (Type, Type, bool) {
	if t.kind != KindMapping || t.key == nil || t.value == nil {
		return Type{}, Type{}, false
	}
	return *t.key, *t.value, true
}

// IsReference reports whether values of t need a data location when used as
// a function parameter.
func (t Type) IsReference() bool {
	switch t.kind {
	case KindString, KindBytes, KindArray, KindDynamicArray:
		return true
	}
	return false
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindFixedBytes:
		return t.size == o.size
	case KindInt, KindUint:
		return t.bits == o.bits
	case KindArray:
		return t.size == o.size && t.elem.Equal(*o.elem)
	case KindDynamicArray:
		return t.elem.Equal(*o.elem)
	case KindMapping:
		return t.key.Equal(*o.key) && t.value.Equal(*o.value)
	}
	return true
}

// String returns the canonical spelling. Nested has no spelling and renders
// as the empty string.
func (t Type) String() string {
	switch t.kind {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.size)
	case KindInt:
		return "int" + strconv.FormatUint(uint64(t.bits), 10)
	case KindUint:
		return "uint" + strconv.FormatUint(uint64(t.bits), 10)
	case KindAddress:
		return "address"
	case KindAddressPayable:
		return "address payable"
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.elem.String(), t.size)
	case KindDynamicArray:
		return t.elem.String() + "[]"
	case KindMapping:
		return fmt.Sprintf("mapping(%s=>%s)", t.key.String(), t.value.String())
	}
	return ""
}

// Parse recognizes a type spelling. It returns false when text is not a type
// keyword; that is a normal outcome, not a failure.
func Parse(text string) (Type, bool) {
	s := strings.TrimSpace(text)

	switch s {
	case "bool":
		return Bool, true
	case "string":
		return String, true
	case "bytes":
		return Bytes, true
	case "address":
		return Address, true
	case "address payable":
		return AddressPayable, true
	}

	if rest, ok := strings.CutPrefix(s, "uint"); ok {
		if bits, err := strconv.ParseUint(rest, 10, 16); err == nil {
			return Uint(uint16(bits)), true
		}
	}
	if rest, ok := strings.CutPrefix(s, "int"); ok {
		if bits, err := strconv.ParseUint(rest, 10, 16); err == nil {
			return Int(uint16(bits)), true
		}
	}
	if rest, ok := strings.CutPrefix(s, "bytes"); ok && rest != "" {
		if n, err := strconv.ParseUint(rest, 10, 8); err == nil && n >= 1 && n <= 32 {
			return FixedBytes(int(n)), true
		}
	}

	if strings.HasSuffix(s, "]") {
		if open := strings.LastIndexByte(s, '['); open > 0 {
			base, ok := Parse(s[:open])
			if !ok {
				return Type{}, false
			}
			dim := s[open+1 : len(s)-1]
			if dim == "" {
				return DynamicArrayOf(base), true
			}
			if isDigits(dim) {
				if n, err := strconv.Atoi(dim); err == nil && n > 0 {
					return ArrayOf(base, n), true
				}
			}
			return Type{}, false
		}
	}

	if strings.HasPrefix(s, "mapping(") && strings.HasSuffix(s, ")") {
		inner := s[len("mapping(") : len(s)-1]
		if sep := strings.Index(inner, "=>"); sep >= 0 {
			key, ok := Parse(inner[:sep])
			if !ok {
				return Type{}, false
			}
			value, ok := Parse(inner[sep+2:])
			if !ok {
				return Type{}, false
			}
			return Mapping(key, value), true
		}
	}
	return Type{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
