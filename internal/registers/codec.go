package registers

import (
	"fmt"
	"math"
)

// Decode interprets raw register words according to t and scales the
// result by divisor.
//
// It returns a nil value (and nil error) for None. A word count that does not
// match the type's contract returns ErrWordCount; a zero divisor returns
// ErrZeroDivisor.
func Decode(words []uint16, t ValueType, divisor int16) (*float64, error) {
	if t == None {
		return nil, nil
	}
	if int(t) >= len(wordCounts) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownValueType, t)
	}
	if len(words) != int(t.WordCount()) {
		return nil, fmt.Errorf("%w: %s needs %d words, got %d", ErrWordCount, t, t.WordCount(), len(words))
	}
	if divisor == 0 {
		return nil, ErrZeroDivisor
	}

	var raw float64
	switch t {
	case Uint16:
		raw = float64(words[0])
	case Int16:
		raw = float64(int16(words[0]))
	case Uint32:
		raw = float64(Uint32HighWordFirst(words[0], words[1]))
	case Int32:
		raw = float64(int32(Uint32HighWordFirst(words[0], words[1])))
	}

	v := raw / float64(divisor)
	return &v, nil
}

// Codec adapts Decode to an interface so collectors can substitute it.
type Codec struct{}

// Decode implements the collectors' decoder interface.
func (Codec) Decode(words []uint16, t ValueType, divisor int16) (*float64, error) {
	return Decode(words, t, divisor)
}

// Uint32HighWordFirst assembles a 32-bit value from two big-endian words,
// most significant word first. This is the fieldbus convention.
func Uint32HighWordFirst(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// Uint32LowWordFirst assembles a 32-bit value whose least significant word
// is transmitted first. Smart receptacles report their monthly counter this
// way.
func Uint32LowWordFirst(lo, hi uint16) uint32 {
	return uint32(lo) | uint32(hi)<<16
}

// Float32LowWordFirst decodes an IEEE-754 single from two words where the
// second word carries the high half. Heat meters use this layout.
func Float32LowWordFirst(words []uint16) (float32, error) {
	if len(words) != 2 {
		return 0, fmt.Errorf("%w: float32 needs 2 words, got %d", ErrWordCount, len(words))
	}
	return math.Float32frombits(Uint32LowWordFirst(words[0], words[1])), nil
}
