package registers

import "errors"

// Domain errors for register lookup and decoding.
var (
	// ErrMissingAddress is returned when an address is not present in the
	// memory map. Callers treat it as a configuration mismatch for the
	// current cycle.
	ErrMissingAddress = errors.New("registers: address not in memory map")

	// ErrWordCount is returned when the number of words passed to a decoder
	// does not match the value type's contract.
	ErrWordCount = errors.New("registers: word count mismatch")

	// ErrZeroDivisor is returned when a descriptor carries a divisor of zero.
	ErrZeroDivisor = errors.New("registers: divisor must not be zero")

	// ErrInvalidChannel is returned when a channel number cannot be mapped
	// onto the meter's register layout.
	ErrInvalidChannel = errors.New("registers: invalid channel")

	// ErrUnknownValueType is returned for value types outside the known set.
	ErrUnknownValueType = errors.New("registers: unknown value type")
)
