package mem

import (
	"fmt"
	"math/bits"
	"weak"

	"github.com/sarchlab/memscope/react"
)

// A SignalFactory is the platform hook that creates the live signal behind
// one materialized (address, type) pair. There is no default; each platform
// decides how its signals learn about memory changes. PollingFactory is the
// implementation used with in-process device memories.
type SignalFactory interface {
	CreateInt32Signal(addr uint64) *react.Signal[int32]
	CreateByteSignal(addr uint64) *react.Signal[byte]
	CreatePointerSignal(addr uint64) *react.Signal[uint64]
	CreateArraySignal(addr uint64, length int) *react.Signal[[]byte]
}

// DecodeInt32 decodes a device integer from its 4 raw bytes. The value is
// composed big-endian from b0..b3 and the resulting 32-bit word is then
// byte-reversed. Both steps are part of the device decode contract and must
// not be collapsed into a platform-default read.
func DecodeInt32(b []byte) int32 {
	be := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return int32(bits.ReverseBytes32(be))
}

type cacheKey struct {
	addr uint64
	vt   ValueType
}

// An Accessor binds one device's raw memory. It maintains the weakly-held
// (address, type) signal cache, performs immediate scalar reads, and
// dispatches type-specific signal creation to the platform factory.
//
// An Accessor must only be driven from the single logical thread that
// advances the simulation.
type Accessor struct {
	raw     RawMemory
	factory SignalFactory

	cache map[cacheKey]any

	names map[string]uint64
}

// NewAccessor creates an Accessor over the given raw memory and platform
// signal factory.
func NewAccessor(raw RawMemory, factory SignalFactory) *Accessor {
	return &Accessor{
		raw:     raw,
		factory: factory,
		cache:   make(map[cacheKey]any),
	}
}

// WordSize returns the native integer width of the underlying device.
func (a *Accessor) WordSize() int {
	return a.raw.WordSize()
}

// Address resolves a declared variable name to its address using the
// accessor's name table. The table is built lazily on first use and cached
// for the accessor's lifetime; the memory layout is assumed static
// post-load.
func (a *Accessor) Address(name string) (uint64, bool) {
	if a.names == nil {
		a.names = make(map[string]uint64)
		for _, n := range a.raw.VariableNames() {
			if addr, ok := a.raw.VariableAddress(n); ok {
				a.names[n] = addr
			}
		}
	}

	addr, ok := a.names[name]
	return addr, ok
}

func (a *Accessor) segment() (SegmentReader, error) {
	seg, ok := a.raw.(SegmentReader)
	if !ok {
		return nil, ErrUnsupportedSegmentAccess
	}

	return seg, nil
}

// Byte reads the byte value of a declared variable, immediately and
// non-reactively.
func (a *Accessor) Byte(name string) (byte, error) {
	return a.raw.ReadByteByName(name)
}

// ByteAt reads one byte at an address. It requires segment access.
func (a *Accessor) ByteAt(addr uint64) (byte, error) {
	seg, err := a.segment()
	if err != nil {
		return 0, err
	}

	data, err := seg.ReadSegment(addr, 1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

// Int reads the integer value of a declared variable.
func (a *Accessor) Int(name string) (int32, error) {
	return a.raw.ReadIntByName(name)
}

// IntAt reads and decodes a device integer at an address. It requires
// segment access.
func (a *Accessor) IntAt(addr uint64) (int32, error) {
	seg, err := a.segment()
	if err != nil {
		return 0, err
	}

	data, err := seg.ReadSegment(addr, 4)
	if err != nil {
		return 0, err
	}

	return DecodeInt32(data), nil
}

// Pointer reads a pointer-valued variable. Pointers are stored as device
// integers; Pointer is an alias of Int widened to an address.
func (a *Accessor) Pointer(name string) (uint64, error) {
	v, err := a.Int(name)
	return uint64(uint32(v)), err
}

// PointerAt reads a pointer at an address. It requires segment access.
func (a *Accessor) PointerAt(addr uint64) (uint64, error) {
	v, err := a.IntAt(addr)
	return uint64(uint32(v)), err
}

// Array reads the full declared extent of an array variable.
func (a *Accessor) Array(name string) ([]byte, error) {
	return a.raw.ReadArrayByName(name)
}

// ArrayAt reads length bytes at an address. It requires segment access.
func (a *Accessor) ArrayAt(addr uint64, length int) ([]byte, error) {
	seg, err := a.segment()
	if err != nil {
		return nil, err
	}

	return seg.ReadSegment(addr, length)
}

// Materialize returns the live signal for (addr, vt), creating and caching
// it on first use. The value type dispatch is exhaustive over the closed
// kind set; any other kind indicates a broken invariant and panics.
func (a *Accessor) Materialize(addr uint64, vt ValueType) react.AnySignal {
	switch vt.Kind {
	case KindInt32:
		return a.int32At(addr).Value()
	case KindByte:
		return a.byteAt(addr).Value()
	case KindPointer:
		return a.pointerAt(addr).Value()
	case KindByteArray:
		return a.arrayAt(addr, vt.Length).Value()
	default:
		panic(fmt.Sprintf("unsupported memory value type %d", vt.Kind))
	}
}

// lookup returns the live cached variable for key, or nil. A dead weak
// entry is left in place and simply overwritten by the next register.
func lookup[T any](a *Accessor, key cacheKey) *Variable[T] {
	e, ok := a.cache[key]
	if !ok {
		return nil
	}

	wp, ok := e.(weak.Pointer[Variable[T]])
	if !ok {
		return nil
	}

	return wp.Value()
}

// resolve returns the cached fixed-address variable for (addr, vt),
// creating it via create when absent or reclaimed. Within one accessor, two
// lookups with an equal key observe the same instance for as long as it is
// externally referenced.
func resolve[T any](
	a *Accessor,
	addr uint64,
	vt ValueType,
	materializeAt func(uint64) *react.Signal[T],
	create func() *react.Signal[T],
	eq func(x, y T) bool,
) *Variable[T] {
	key := cacheKey{addr: addr, vt: vt}

	if v := lookup[T](a, key); v != nil {
		return v
	}

	v := &Variable[T]{
		acc:         a,
		vt:          vt,
		addr:        react.NewSignal(addr),
		value:       create(),
		materialize: materializeAt,
		eq:          eq,
	}
	a.cache[key] = weak.Make(v)

	return v
}

func (a *Accessor) int32At(addr uint64) *Variable[int32] {
	return resolve(a, addr, Int32, a.int32SignalAt,
		func() *react.Signal[int32] { return a.factory.CreateInt32Signal(addr) },
		func(x, y int32) bool { return x == y })
}

func (a *Accessor) int32SignalAt(addr uint64) *react.Signal[int32] {
	return a.int32At(addr).value
}

func (a *Accessor) byteAt(addr uint64) *Variable[byte] {
	return resolve(a, addr, Byte, a.byteSignalAt,
		func() *react.Signal[byte] { return a.factory.CreateByteSignal(addr) },
		func(x, y byte) bool { return x == y })
}

func (a *Accessor) byteSignalAt(addr uint64) *react.Signal[byte] {
	return a.byteAt(addr).value
}

func (a *Accessor) pointerAt(addr uint64) *Variable[uint64] {
	return resolve(a, addr, Pointer, a.pointerSignalAt,
		func() *react.Signal[uint64] { return a.factory.CreatePointerSignal(addr) },
		func(x, y uint64) bool { return x == y })
}

func (a *Accessor) pointerSignalAt(addr uint64) *react.Signal[uint64] {
	return a.pointerAt(addr).value
}

func (a *Accessor) arrayAt(addr uint64, length int) *Variable[[]byte] {
	return resolve(a, addr, ByteArray(length), a.arraySignalAt(length),
		func() *react.Signal[[]byte] {
			return a.factory.CreateArraySignal(addr, length)
		},
		bytesEqual)
}

func (a *Accessor) arraySignalAt(length int) func(uint64) *react.Signal[[]byte] {
	return func(addr uint64) *react.Signal[[]byte] {
		return a.arrayAt(addr, length).value
	}
}

func bytesEqual(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
