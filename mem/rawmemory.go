package mem

import "errors"

// ErrUnsupportedSegmentAccess is returned when an address-based read is
// attempted on a raw memory that only supports reads by variable name.
var ErrUnsupportedSegmentAccess = errors.New(
	"raw memory does not support segment access by address")

// RawMemory is the boundary to the host simulation's per-device memory
// object. It exposes the declared variable table and poll-only, by-name
// reads. Implementations that can also read arbitrary segments by address
// additionally implement SegmentReader.
type RawMemory interface {
	WidthTeller

	// VariableNames enumerates the declared variable names.
	VariableNames() []string

	// VariableAddress resolves a declared name to its address.
	VariableAddress(name string) (addr uint64, ok bool)

	// ReadByteByName reads the single byte value of a declared variable.
	ReadByteByName(name string) (byte, error)

	// ReadIntByName reads the integer value of a declared variable.
	ReadIntByName(name string) (int32, error)

	// ReadArrayByName reads the full declared extent of an array variable.
	ReadArrayByName(name string) ([]byte, error)
}

// SegmentReader is the optional part of the RawMemory contract: reading an
// arbitrary-offset, arbitrary-length segment. Its absence is a valid
// configuration, surfaced as ErrUnsupportedSegmentAccess only when an
// address-based read is attempted.
type SegmentReader interface {
	ReadSegment(addr uint64, length int) ([]byte, error)
}
