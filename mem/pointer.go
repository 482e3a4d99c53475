package mem

import "github.com/sarchlab/memscope/react"

// A Pointer designates a target address. Unlike a Variable, its address
// signal is the address the pointer points at, not the pointer's own
// storage location; accordingly the pointer's value is the target address
// itself.
type Ptr[T any] struct {
	acc  *Accessor
	elem ValueType
	addr *react.Signal[uint64]

	materialize func(uint64) *react.Signal[T]
	eq          func(x, y T) bool
}

// Now returns the current target address.
func (p *Ptr[T]) Now() uint64 {
	return p.addr.Now()
}

// Value exposes the pointer's value signal, which is its target-address
// signal.
func (p *Ptr[T]) Value() *react.Signal[uint64] {
	return p.addr
}

// Elem returns the value type the pointer designates.
func (p *Ptr[T]) Elem() ValueType {
	return p.elem
}

func (p *Ptr[T]) shift(count int) *Ptr[T] {
	delta := int64(count) * int64(p.elem.Size(p.acc))

	return &Ptr[T]{
		acc:  p.acc,
		elem: p.elem,
		addr: react.Map(p.addr, func(a uint64) uint64 {
			return uint64(int64(a) + delta)
		}),
		materialize: p.materialize,
		eq:          p.eq,
	}
}

// Add produces a new pointer advanced by count elements. The offset is
// scaled by the element size, C-style. count may be negative.
func (p *Ptr[T]) Add(count int) *Ptr[T] {
	return p.shift(count)
}

// Sub produces a new pointer moved back by count elements.
func (p *Ptr[T]) Sub(count int) *Ptr[T] {
	return p.shift(-count)
}

// Deref returns the variable at the pointer's target address.
func (p *Ptr[T]) Deref() *Variable[T] {
	return derived(p.acc, p.elem, p.addr, p.materialize, p.eq)
}

// AddressOf returns a pointer over the variable's own address and type.
func AddressOf[T any](v *Variable[T]) *Ptr[T] {
	return &Ptr[T]{
		acc:         v.acc,
		elem:        v.vt,
		addr:        v.addr,
		materialize: v.materialize,
		eq:          v.eq,
	}
}

// Deref returns the variable at the pointer's target address.
func Deref[T any](p *Ptr[T]) *Variable[T] {
	return p.Deref()
}

// TargetOf reinterprets the current integer value of v as an address
// signal. The caller must guarantee that the stored integer actually is a
// valid address; no validation is performed.
func TargetOf(v *Variable[int32]) *react.Signal[uint64] {
	return react.Map(v.Value(), func(x int32) uint64 {
		return uint64(uint32(x))
	})
}

// Int32PointerTo creates an integer pointer designating target.
func (a *Accessor) Int32PointerTo(
	target *react.Signal[uint64],
) *Ptr[int32] {
	return &Ptr[int32]{
		acc:         a,
		elem:        Int32,
		addr:        target,
		materialize: a.int32SignalAt,
		eq:          func(x, y int32) bool { return x == y },
	}
}

// BytePointerTo creates a byte pointer designating target.
func (a *Accessor) BytePointerTo(
	target *react.Signal[uint64],
) *Ptr[byte] {
	return &Ptr[byte]{
		acc:         a,
		elem:        Byte,
		addr:        target,
		materialize: a.byteSignalAt,
		eq:          func(x, y byte) bool { return x == y },
	}
}

// PointerPointerTo creates a pointer-to-pointer designating target.
func (a *Accessor) PointerPointerTo(
	target *react.Signal[uint64],
) *Ptr[uint64] {
	return &Ptr[uint64]{
		acc:         a,
		elem:        Pointer,
		addr:        target,
		materialize: a.pointerSignalAt,
		eq:          func(x, y uint64) bool { return x == y },
	}
}

// ArrayPointerTo creates a byte-array pointer designating target.
func (a *Accessor) ArrayPointerTo(
	target *react.Signal[uint64],
	length int,
) *Ptr[[]byte] {
	return &Ptr[[]byte]{
		acc:         a,
		elem:        ByteArray(length),
		addr:        target,
		materialize: a.arraySignalAt(length),
		eq:          bytesEqual,
	}
}
