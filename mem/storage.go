package mem

import (
	"fmt"
	"sync"
)

// A Storage keeps the data of a simulated device's memory. Pages are
// allocated lazily on first touch.
type Storage struct {
	sync.Mutex

	Capacity uint64

	pageSize uint64
	pages    map[uint64][]byte
}

// NewStorage creates a storage object with the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		Capacity: capacity,
		pageSize: 1 << 12,
		pages:    make(map[uint64][]byte),
	}
}

func (s *Storage) pageID(addr uint64) uint64 {
	return addr & ^(s.pageSize - 1)
}

func (s *Storage) page(addr uint64, allocate bool) []byte {
	id := s.pageID(addr)

	page, found := s.pages[id]
	if !found && allocate {
		page = make([]byte, s.pageSize)
		s.pages[id] = page
	}

	return page
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	if address+length > s.Capacity {
		return nil, fmt.Errorf(
			"accessing %d bytes at 0x%x is out of the storage capacity",
			length, address)
	}

	s.Lock()
	defer s.Unlock()

	data := make([]byte, length)
	for i := uint64(0); i < length; {
		addr := address + i
		page := s.page(addr, false)
		offset := addr - s.pageID(addr)
		n := s.pageSize - offset
		if n > length-i {
			n = length - i
		}

		if page != nil {
			copy(data[i:i+n], page[offset:offset+n])
		}

		i += n
	}

	return data, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if address+length > s.Capacity {
		return fmt.Errorf(
			"writing %d bytes at 0x%x is out of the storage capacity",
			length, address)
	}

	s.Lock()
	defer s.Unlock()

	for i := uint64(0); i < length; {
		addr := address + i
		page := s.page(addr, true)
		offset := addr - s.pageID(addr)
		n := s.pageSize - offset
		if n > length-i {
			n = length - i
		}

		copy(page[offset:offset+n], data[i:i+n])
		i += n
	}

	return nil
}
