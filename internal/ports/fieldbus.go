package ports

import (
	"context"
	"errors"
	"time"
)

// ErrDeviceException marks a read the device answered with a Modbus exception.
var ErrDeviceException = errors.New("device exception")

// FieldConn is one open connection to the field-bus segment. Any read error leaves
// the connection unusable; callers close it and dial again.
type FieldConn interface {
	SetSlave(id byte)
	SetTimeouts(response, interByte time.Duration)
	ReadHoldingRegisters(address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(address, quantity uint16) ([]uint16, error)
	Close() error
}

// FieldDialer opens a fresh FieldConn.
type FieldDialer interface {
	Dial(ctx context.Context) (FieldConn, error)
}

// FieldDialerFunc adapts a function to FieldDialer.
type FieldDialerFunc func(ctx context.Context) (FieldConn, error)

func (f FieldDialerFunc) Dial(ctx context.Context) (FieldConn, error) { return f(ctx) }
