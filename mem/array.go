package mem

import "github.com/sarchlab/memscope/react"

// An Array is a fixed-length byte array over a possibly dynamic base
// address. Its value signal resolves the whole array extent; At yields a
// per-element variable.
type Array struct {
	acc    *Accessor
	addr   *react.Signal[uint64]
	length int

	whole *Variable[[]byte]
}

// NewArray creates an Array of the given length over addr.
func NewArray(a *Accessor, addr *react.Signal[uint64], length int) *Array {
	return &Array{
		acc:    a,
		addr:   addr,
		length: length,
		whole:  NewArrayVariable(a, addr, length),
	}
}

// Len returns the array length in bytes.
func (ar *Array) Len() int {
	return ar.length
}

// Value exposes the signal over the whole array extent.
func (ar *Array) Value() *react.Signal[[]byte] {
	return ar.whole.Value()
}

// Now returns the current content of the whole array.
func (ar *Array) Now() []byte {
	return ar.whole.Now()
}

// At yields the element variable at base + index. The element is read with
// byte size, not with the whole array's type at a shifted address.
func (ar *Array) At(index int) *Variable[byte] {
	if index < 0 || index >= ar.length {
		panic("array index out of range")
	}

	elemAddr := react.Map(ar.addr, func(a uint64) uint64 {
		return a + uint64(index)
	})

	return NewByteVariable(ar.acc, elemAddr)
}
