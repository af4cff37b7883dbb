package registers

import "fmt"

// MemoryMap is a read-only, address-indexed table of register descriptors.
//
// Thread Safety:
//   - The map is never written after NewMemoryMap returns, so Get is safe
//     for unsynchronised concurrent use.
type MemoryMap struct {
	byAddress map[uint16]Descriptor
}

// NewMemoryMap builds a MemoryMap from descriptors.
//
// When an address appears more than once the last descriptor wins. A zero
// divisor or an out-of-range value type rejects the whole table.
func NewMemoryMap(descriptors []Descriptor) (*MemoryMap, error) {
	byAddress := make(map[uint16]Descriptor, len(descriptors))

	for _, d := range descriptors {
		if d.Divisor == 0 {
			return nil, fmt.Errorf("%w: address %d", ErrZeroDivisor, d.Address)
		}
		if int(d.Type) >= len(wordCounts) {
			return nil, fmt.Errorf("%w: address %d has type %d", ErrUnknownValueType, d.Address, d.Type)
		}
		byAddress[d.Address] = d
	}

	return &MemoryMap{byAddress: byAddress}, nil
}

// Get returns the descriptor for address, or an error wrapping
// ErrMissingAddress that names the address.
func (m *MemoryMap) Get(address uint16) (Descriptor, error) {
	d, ok := m.byAddress[address]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrMissingAddress, address)
	}
	return d, nil
}

// Len returns the number of addresses in the map.
func (m *MemoryMap) Len() int {
	return len(m.byAddress)
}
