package mem

import (
	"fmt"

	"github.com/sarchlab/memscope/react"
)

// A Variable is a signal-valued memory entity over a possibly dynamic
// address. Its value signal re-resolves only on a genuine address change; a
// repeated identical address never triggers re-resolution.
type Variable[T any] struct {
	acc   *Accessor
	vt    ValueType
	addr  *react.Signal[uint64]
	value *react.Signal[T]

	materialize func(uint64) *react.Signal[T]
	eq          func(x, y T) bool
}

// derived builds a Variable whose value signal follows
// address.Distinct.FlatMap(materialize).
func derived[T any](
	a *Accessor,
	vt ValueType,
	addr *react.Signal[uint64],
	materialize func(uint64) *react.Signal[T],
	eq func(x, y T) bool,
) *Variable[T] {
	return &Variable[T]{
		acc:  a,
		vt:   vt,
		addr: addr,
		value: react.FlatMapFunc(
			react.Distinct(addr), materialize, eq),
		materialize: materialize,
		eq:          eq,
	}
}

// Now returns the variable's current value.
func (v *Variable[T]) Now() T {
	return v.value.Now()
}

// Value exposes the variable's value signal.
func (v *Variable[T]) Value() *react.Signal[T] {
	return v.value
}

// OnChange subscribes fn to the variable's value changes.
func (v *Variable[T]) OnChange(fn func(T)) *react.Subscription {
	return v.value.OnChange(fn)
}

// NowAny returns the current value untyped.
func (v *Variable[T]) NowAny() any {
	return v.value.NowAny()
}

// OnChangeAny subscribes fn to every value change, discarding the value.
func (v *Variable[T]) OnChangeAny(fn func()) *react.Subscription {
	return v.value.OnChangeAny(fn)
}

// AddressSignal exposes the variable's address signal.
func (v *Variable[T]) AddressSignal() *react.Signal[uint64] {
	return v.addr
}

// Type returns the variable's value type descriptor.
func (v *Variable[T]) Type() ValueType {
	return v.vt
}

// AnyVariable is the type-erased view of a Variable.
type AnyVariable interface {
	react.AnySignal
	AddressSignal() *react.Signal[uint64]
	Type() ValueType
}

// NewInt32Variable creates an integer variable over a dynamic address.
func NewInt32Variable(
	a *Accessor,
	addr *react.Signal[uint64],
) *Variable[int32] {
	return derived(a, Int32, addr, a.int32SignalAt,
		func(x, y int32) bool { return x == y })
}

// NewByteVariable creates a byte variable over a dynamic address.
func NewByteVariable(
	a *Accessor,
	addr *react.Signal[uint64],
) *Variable[byte] {
	return derived(a, Byte, addr, a.byteSignalAt,
		func(x, y byte) bool { return x == y })
}

// NewPointerVariable creates a pointer-valued variable over a dynamic
// address.
func NewPointerVariable(
	a *Accessor,
	addr *react.Signal[uint64],
) *Variable[uint64] {
	return derived(a, Pointer, addr, a.pointerSignalAt,
		func(x, y uint64) bool { return x == y })
}

// NewArrayVariable creates a byte-array variable over a dynamic address.
func NewArrayVariable(
	a *Accessor,
	addr *react.Signal[uint64],
	length int,
) *Variable[[]byte] {
	return derived(a, ByteArray(length), addr, a.arraySignalAt(length),
		bytesEqual)
}

// Variable cache-or-creates the variable for (addr, vt). Two calls with an
// identical pair, issued before any reclamation, return the same instance.
func (a *Accessor) Variable(addr uint64, vt ValueType) AnyVariable {
	switch vt.Kind {
	case KindInt32:
		return a.int32At(addr)
	case KindByte:
		return a.byteAt(addr)
	case KindPointer:
		return a.pointerAt(addr)
	case KindByteArray:
		return a.arrayAt(addr, vt.Length)
	default:
		panic(fmt.Sprintf("unsupported memory value type %d", vt.Kind))
	}
}

// VariableByName resolves a declared name and cache-or-creates the variable
// at its address.
func (a *Accessor) VariableByName(
	name string,
	vt ValueType,
) (AnyVariable, error) {
	addr, ok := a.Address(name)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", name)
	}

	return a.Variable(addr, vt), nil
}

// Int32Variable cache-or-creates the integer variable at addr.
func (a *Accessor) Int32Variable(addr uint64) *Variable[int32] {
	return a.int32At(addr)
}

// ByteVariable cache-or-creates the byte variable at addr.
func (a *Accessor) ByteVariable(addr uint64) *Variable[byte] {
	return a.byteAt(addr)
}

// PointerVariable cache-or-creates the pointer variable at addr.
func (a *Accessor) PointerVariable(addr uint64) *Variable[uint64] {
	return a.pointerAt(addr)
}

// ArrayVariable cache-or-creates the byte-array variable at addr.
func (a *Accessor) ArrayVariable(addr uint64, length int) *Variable[[]byte] {
	return a.arrayAt(addr, length)
}
