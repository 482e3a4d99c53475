package mem

import "fmt"

// A Symbol is one entry of a device's declared variable table.
type Symbol struct {
	Name    string
	Address uint64
	Type    ValueType
}

// DeviceMemory implements RawMemory (with segment access) over a Storage
// and a declared symbol table. It is the standard in-process device memory
// used by the replay harness and the tests; real targets provide their own
// RawMemory at the same boundary.
type DeviceMemory struct {
	storage  *Storage
	wordSize int
	symbols  []Symbol
	byName   map[string]Symbol
}

// NewDeviceMemory creates a DeviceMemory with the given native integer
// width and symbol table.
func NewDeviceMemory(
	storage *Storage,
	wordSize int,
	symbols []Symbol,
) *DeviceMemory {
	m := &DeviceMemory{
		storage:  storage,
		wordSize: wordSize,
		symbols:  symbols,
		byName:   make(map[string]Symbol),
	}

	for _, s := range symbols {
		m.byName[s.Name] = s
	}

	return m
}

// Storage exposes the backing storage, e.g. for trace replay writes.
func (m *DeviceMemory) Storage() *Storage {
	return m.storage
}

// WordSize returns the native integer width in bytes.
func (m *DeviceMemory) WordSize() int {
	return m.wordSize
}

// VariableNames enumerates the declared variable names in table order.
func (m *DeviceMemory) VariableNames() []string {
	names := make([]string, 0, len(m.symbols))
	for _, s := range m.symbols {
		names = append(names, s.Name)
	}

	return names
}

// VariableAddress resolves a declared name to its address.
func (m *DeviceMemory) VariableAddress(name string) (uint64, bool) {
	s, ok := m.byName[name]
	return s.Address, ok
}

func (m *DeviceMemory) symbol(name string) (Symbol, error) {
	s, ok := m.byName[name]
	if !ok {
		return Symbol{}, fmt.Errorf("unknown variable %q", name)
	}

	return s, nil
}

// ReadByteByName reads the single byte value of a declared variable.
func (m *DeviceMemory) ReadByteByName(name string) (byte, error) {
	s, err := m.symbol(name)
	if err != nil {
		return 0, err
	}

	data, err := m.storage.Read(s.Address, 1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

// ReadIntByName reads the integer value of a declared variable, using the
// same decode transform as address-based integer reads.
func (m *DeviceMemory) ReadIntByName(name string) (int32, error) {
	s, err := m.symbol(name)
	if err != nil {
		return 0, err
	}

	data, err := m.storage.Read(s.Address, 4)
	if err != nil {
		return 0, err
	}

	return DecodeInt32(data), nil
}

// ReadArrayByName reads the full declared extent of an array variable.
func (m *DeviceMemory) ReadArrayByName(name string) ([]byte, error) {
	s, err := m.symbol(name)
	if err != nil {
		return nil, err
	}

	return m.storage.Read(s.Address, uint64(s.Type.Size(m)))
}

// ReadSegment reads an arbitrary-offset, arbitrary-length segment.
func (m *DeviceMemory) ReadSegment(addr uint64, length int) ([]byte, error) {
	return m.storage.Read(addr, uint64(length))
}
