package mem

import (
	"log"

	"github.com/sarchlab/memscope/react"
)

// A Publisher pushes freshly observed memory values into materialized
// signals. The host calls Publish after every step that may have mutated
// device memory; propagation through the signal graph happens inline.
type Publisher interface {
	Publish()
}

// PollingFactory is the SignalFactory for raw memories with segment
// access. Every created signal re-reads its backing bytes on Publish;
// unchanged values are suppressed by the signals themselves.
type PollingFactory struct {
	seg SegmentReader

	refreshers []func()
}

// NewPollingFactory creates a PollingFactory over raw. The raw memory must
// support segment access; signal creation reads by address.
func NewPollingFactory(raw RawMemory) (*PollingFactory, error) {
	seg, ok := raw.(SegmentReader)
	if !ok {
		return nil, ErrUnsupportedSegmentAccess
	}

	return &PollingFactory{seg: seg}, nil
}

// Publish re-reads every created signal's backing memory and pushes the
// values through the signal graph.
func (f *PollingFactory) Publish() {
	for _, refresh := range f.refreshers {
		refresh()
	}
}

func (f *PollingFactory) readInt32(addr uint64) int32 {
	data, err := f.seg.ReadSegment(addr, 4)
	if err != nil {
		log.Panicf("reading int at 0x%x: %v", addr, err)
	}

	return DecodeInt32(data)
}

// CreateInt32Signal creates a live integer signal at addr.
func (f *PollingFactory) CreateInt32Signal(addr uint64) *react.Signal[int32] {
	sig := react.NewSignal(f.readInt32(addr))
	f.refreshers = append(f.refreshers, func() {
		sig.Set(f.readInt32(addr))
	})

	return sig
}

func (f *PollingFactory) readByte(addr uint64) byte {
	data, err := f.seg.ReadSegment(addr, 1)
	if err != nil {
		log.Panicf("reading byte at 0x%x: %v", addr, err)
	}

	return data[0]
}

// CreateByteSignal creates a live byte signal at addr.
func (f *PollingFactory) CreateByteSignal(addr uint64) *react.Signal[byte] {
	sig := react.NewSignal(f.readByte(addr))
	f.refreshers = append(f.refreshers, func() {
		sig.Set(f.readByte(addr))
	})

	return sig
}

// CreatePointerSignal creates a live pointer signal at addr. Pointers are
// stored as device integers.
func (f *PollingFactory) CreatePointerSignal(
	addr uint64,
) *react.Signal[uint64] {
	read := func() uint64 { return uint64(uint32(f.readInt32(addr))) }

	sig := react.NewSignal(read())
	f.refreshers = append(f.refreshers, func() { sig.Set(read()) })

	return sig
}

func (f *PollingFactory) readArray(addr uint64, length int) []byte {
	data, err := f.seg.ReadSegment(addr, length)
	if err != nil {
		log.Panicf("reading %d bytes at 0x%x: %v", length, addr, err)
	}

	return data
}

// CreateArraySignal creates a live byte-array signal at addr.
func (f *PollingFactory) CreateArraySignal(
	addr uint64,
	length int,
) *react.Signal[[]byte] {
	sig := react.NewSignalFunc(f.readArray(addr, length), bytesEqual)
	f.refreshers = append(f.refreshers, func() {
		sig.Set(f.readArray(addr, length))
	})

	return sig
}
