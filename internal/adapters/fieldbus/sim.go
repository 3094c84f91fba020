package fieldbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

var (
	ErrIllegalAddress = fmt.Errorf("%w: exception 2 (illegal data address)", ports.ErrDeviceException)
	ErrSimTimeout     = errors.New("modbus: simulated response timeout")
)

// Simulator is an in-memory register map standing in for the serial segment. Holding
// and input reads see the same registers.
type Simulator struct {
	mu        sync.Mutex
	registers map[uint16]uint16
	failReads int
	failDials int
	dials     int
	reads     int
	lastSlave byte
}

func NewSimulator(registers map[uint16]uint16) *Simulator {
	regs := make(map[uint16]uint16, len(registers))
	for k, v := range registers {
		regs[k] = v
	}
	return &Simulator{registers: regs}
}

func (s *Simulator) Set(address, value uint16) {
	s.mu.Lock()
	s.registers[address] = value
	s.mu.Unlock()
}

// FailReads makes the next n reads time out.
func (s *Simulator) FailReads(n int) {
	s.mu.Lock()
	s.failReads = n
	s.mu.Unlock()
}

// FailDials makes the next n dials fail.
func (s *Simulator) FailDials(n int) {
	s.mu.Lock()
	s.failDials = n
	s.mu.Unlock()
}

// Stats reports successful dials and attempted reads so far.
func (s *Simulator) Stats() (dials, reads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.reads
}

func (s *Simulator) Dial(ctx context.Context) (ports.FieldConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDials > 0 {
		s.failDials--
		return nil, errors.New("open sim: device not ready")
	}
	s.dials++
	return &simConn{sim: s}, nil
}

func (s *Simulator) read(slave byte, address, quantity uint16) ([]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	s.lastSlave = slave
	if s.failReads > 0 {
		s.failReads--
		return nil, ErrSimTimeout
	}
	if quantity == 0 || quantity > 125 {
		return nil, fmt.Errorf("%w: exception 3 (illegal data value): quantity %d", ports.ErrDeviceException, quantity)
	}
	out := make([]uint16, quantity)
	for i := uint16(0); i < quantity; i++ {
		v, ok := s.registers[address+i]
		if !ok {
			return nil, fmt.Errorf("register %d: %w", address+i, ErrIllegalAddress)
		}
		out[i] = v
	}
	return out, nil
}

type simConn struct {
	sim    *Simulator
	slave  byte
	closed bool
}

func (c *simConn) SetSlave(id byte) { c.slave = id }

func (c *simConn) SetTimeouts(_, _ time.Duration) {}

func (c *simConn) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	if c.closed {
		return nil, errors.New("sim: connection closed")
	}
	return c.sim.read(c.slave, address, quantity)
}

func (c *simConn) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	return c.ReadHoldingRegisters(address, quantity)
}

func (c *simConn) Close() error {
	c.closed = true
	return nil
}

var _ ports.FieldDialer = (*Simulator)(nil)
