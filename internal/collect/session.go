package collect

import (
	"context"

	"github.com/nerrad567/meterlink/internal/registers"
)

// Session is one open Modbus connection bound to a unit id. Implementations
// need not be safe for concurrent use; callers serialise requests.
type Session interface {
	ReadInputRegisters(address, quantity uint16) ([]uint16, error)
	ReadHoldingRegisters(address, quantity uint16) ([]uint16, error)
	Close() error
}

// Dialer opens sessions. The context bounds the connect attempt.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, unitID uint8) (Session, error)
}

// Decoder turns raw words into a scaled value. registers.Codec is the
// production implementation.
type Decoder interface {
	Decode(words []uint16, t registers.ValueType, divisor int16) (*float64, error)
}
