package collect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/meterlink/internal/registers"
)

var errFake = errors.New("fake failure")

// fakeSession serves register words from a map and records every request.
type fakeSession struct {
	words  map[uint16][]uint16
	failAt map[uint16]bool

	// block, when non-nil, stalls every read until closed.
	block chan struct{}

	mu       sync.Mutex
	reads    map[uint16]int
	inFlight atomic.Int32
	overlap  atomic.Bool
	closed   atomic.Bool
}

func newFakeSession(words map[uint16][]uint16) *fakeSession {
	return &fakeSession{
		words:  words,
		failAt: make(map[uint16]bool),
		reads:  make(map[uint16]int),
	}
}

func (s *fakeSession) read(address, quantity uint16) ([]uint16, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)

	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	s.reads[address]++
	s.mu.Unlock()

	if s.failAt[address] {
		return nil, errFake
	}
	w, ok := s.words[address]
	if !ok {
		w = make([]uint16, quantity)
	}
	return w, nil
}

func (s *fakeSession) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	return s.read(address, quantity)
}

func (s *fakeSession) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	return s.read(address, quantity)
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSession) readCount(address uint16) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[address]
}

// fakeDialer hands out sessions by endpoint and unit id.
type fakeDialer struct {
	mu       sync.Mutex
	sessions map[dialKey]*fakeSession
	fail     map[dialKey]bool
	dials    int
}

type dialKey struct {
	endpoint string
	unitID   uint8
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		sessions: make(map[dialKey]*fakeSession),
		fail:     make(map[dialKey]bool),
	}
}

func (d *fakeDialer) add(endpoint string, unitID uint8, s *fakeSession) {
	d.sessions[dialKey{endpoint, unitID}] = s
}

func (d *fakeDialer) Dial(_ context.Context, endpoint string, unitID uint8) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++

	k := dialKey{endpoint, unitID}
	if d.fail[k] {
		return nil, errFake
	}
	s, ok := d.sessions[k]
	if !ok {
		s = newFakeSession(nil)
		d.sessions[k] = s
	}
	return s, nil
}

// countingDecoder wraps registers.Decode and counts calls per divisor, so
// tests can tag a register with a unique divisor and assert on it.
type countingDecoder struct {
	mu    sync.Mutex
	calls map[int16]int
	total int
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{calls: make(map[int16]int)}
}

func (c *countingDecoder) Decode(words []uint16, t registers.ValueType, divisor int16) (*float64, error) {
	c.mu.Lock()
	c.calls[divisor]++
	c.total++
	c.mu.Unlock()
	return registers.Decode(words, t, divisor)
}

func (c *countingDecoder) count(divisor int16) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[divisor]
}
