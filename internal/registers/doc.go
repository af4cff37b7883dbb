// Package registers holds the register-map lookup and value codec shared by
// every fieldbus collector in meterlink.
//
// # Memory map
//
// A MemoryMap is an address-indexed table of Descriptors (value type,
// function code, scale divisor). It is built once from catalog rows at
// startup and never mutated afterwards, so any number of poll goroutines may
// read it concurrently without locking.
//
//	mm, err := registers.NewMemoryMap(descriptors)
//	desc, err := mm.Get(2420)
//
// # Codec
//
// Decode turns raw 16-bit register words into an engineering value:
//
//	v, err := registers.Decode([]uint16{0x0001, 0x86A0}, registers.Uint32, 10)
//	// *v == 10000
//
// Word-count contracts are strict: UINT16/INT16 take one word, UINT32/INT32
// take two (high word first). Passing the wrong number of words returns
// ErrWordCount rather than a silently wrong value.
//
// Some devices assemble 32-bit quantities low word first. Those conventions
// are exposed as separately named helpers (Uint32LowWordFirst,
// Float32LowWordFirst) and are never folded into Decode.
package registers
