package registers

import (
	"fmt"
	"strings"
)

// ValueType identifies how raw register words are interpreted.
type ValueType uint8

// Supported value types. None marks a register that is documented in the
// device map but carries no decodable value; it consumes zero reads.
const (
	None ValueType = iota
	Uint16
	Uint32
	Int16
	Int32
)

// wordCounts is the word-count contract per value type.
var wordCounts = [...]uint16{
	None:   0,
	Uint16: 1,
	Uint32: 2,
	Int16:  1,
	Int32:  2,
}

// WordCount returns the number of 16-bit registers a value of this type spans.
func (t ValueType) WordCount() uint16 {
	if int(t) >= len(wordCounts) {
		return 0
	}
	return wordCounts[t]
}

// String returns the memory-map spelling of the type.
func (t ValueType) String() string {
	switch t {
	case Uint16:
		return "UINT16"
	case Uint32:
		return "UINT32"
	case Int16:
		return "INT16"
	case Int32:
		return "INT32"
	case None:
		return "NONE"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// ParseValueType maps a memory-map data type column to a ValueType.
// Empty or unrecognised spellings map to None, matching how vendor maps mark
// reserved or non-numeric registers.
func ParseValueType(s string) ValueType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UINT16":
		return Uint16
	case "UINT32":
		return Uint32
	case "INT16":
		return Int16
	case "INT32":
		return Int32
	default:
		return None
	}
}

// FunctionCode selects the Modbus read function used for a register.
type FunctionCode uint8

// Read function codes.
const (
	ReadHoldingRegisters FunctionCode = 3
	ReadInputRegisters   FunctionCode = 4
)

// Descriptor is the immutable metadata for one register address.
type Descriptor struct {
	// Address is the absolute register address.
	Address uint16

	// Type selects the decoder and the number of words to read.
	Type ValueType

	// Function is the read function code. Zero means input registers.
	Function FunctionCode

	// Divisor scales the raw magnitude into engineering units.
	Divisor int16
}

// ReadFunction returns the effective read function code.
func (d Descriptor) ReadFunction() FunctionCode {
	if d.Function == ReadHoldingRegisters {
		return ReadHoldingRegisters
	}
	return ReadInputRegisters
}

// String returns a compact representation for logs.
func (d Descriptor) String() string {
	return fmt.Sprintf("%d/%s/÷%d", d.Address, d.Type, d.Divisor)
}
