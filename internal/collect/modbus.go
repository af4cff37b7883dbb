package collect

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/grid-x/modbus"
)

// DefaultConnectTimeout bounds a Modbus/TCP connect and each request when
// the caller's context carries no deadline.
const DefaultConnectTimeout = 5 * time.Second

// ModbusDialer opens Modbus/TCP sessions with grid-x/modbus.
type ModbusDialer struct {
	// Timeout is the per-request timeout. Zero uses DefaultConnectTimeout.
	Timeout time.Duration
}

// Dial connects to endpoint and binds the session to unitID.
func (d ModbusDialer) Dial(ctx context.Context, endpoint string, unitID uint8) (Session, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	handler := modbus.NewTCPClientHandler(endpoint)
	handler.SlaveID = unitID
	handler.Timeout = timeout

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", endpoint, err)
	}

	return &modbusSession{
		handler: handler,
		client:  modbus.NewClient(handler),
	}, nil
}

type modbusSession struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

func (s *modbusSession) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	b, err := s.client.ReadInputRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return wordsFromBytes(b)
}

func (s *modbusSession) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	b, err := s.client.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return wordsFromBytes(b)
}

func (s *modbusSession) Close() error {
	return s.handler.Close()
}

// wordsFromBytes splits a Modbus response into big-endian registers.
func wordsFromBytes(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd response length %d", ErrReadFailed, len(b))
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return words, nil
}
