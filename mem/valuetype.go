// Package mem models a simulated device's raw memory as typed, reactive
// variables. An Accessor binds one device's memory and materializes cached,
// change-propagating signals for (address, type) pairs; Variable, Pointer,
// and Array provide C-like pointer semantics on top of those signals.
package mem

import "fmt"

// Kind enumerates the closed set of memory value kinds. There is no runtime
// extension point; dispatch over Kind is exhaustive.
type Kind int

// The four supported memory value kinds.
const (
	KindInt32 Kind = iota
	KindByte
	KindPointer
	KindByteArray
)

// WidthTeller reports the native integer width, in bytes, of the device a
// value lives on.
type WidthTeller interface {
	WordSize() int
}

// A ValueType describes the layout of one memory value. ValueTypes are
// immutable values with value equality; two ByteArray types with equal
// length are equal.
type ValueType struct {
	Kind   Kind
	Length int
}

// The scalar value types.
var (
	Int32   = ValueType{Kind: KindInt32}
	Byte    = ValueType{Kind: KindByte}
	Pointer = ValueType{Kind: KindPointer}
)

// ByteArray returns the value type of a fixed-length byte array.
func ByteArray(length int) ValueType {
	if length < 0 {
		panic("byte array length must be non-negative")
	}

	return ValueType{Kind: KindByteArray, Length: length}
}

// Size returns the number of bytes a value of this type occupies on the
// device. Int32 and Pointer use the device's native integer width rather
// than a fixed constant.
func (t ValueType) Size(w WidthTeller) int {
	switch t.Kind {
	case KindInt32, KindPointer:
		return w.WordSize()
	case KindByte:
		return 1
	case KindByteArray:
		return t.Length
	default:
		panic(fmt.Sprintf("unsupported memory value type %d", t.Kind))
	}
}

func (t ValueType) String() string {
	switch t.Kind {
	case KindInt32:
		return "Int32"
	case KindByte:
		return "Byte"
	case KindPointer:
		return "Pointer"
	case KindByteArray:
		return fmt.Sprintf("ByteArray(%d)", t.Length)
	default:
		panic(fmt.Sprintf("unsupported memory value type %d", t.Kind))
	}
}
