package fieldbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Dialer opens Modbus RTU, ASCII or TCP connections with goburrow/modbus.
type Dialer struct {
	cfg    Config
	logger *log.Logger
}

// NewDialer wires the driver's frame trace into logger at trace level. A nil logger
// disables the trace.
func NewDialer(cfg Config, logger *logrus.Logger) *Dialer {
	d := &Dialer{cfg: cfg}
	if logger != nil && logger.IsLevelEnabled(logrus.TraceLevel) {
		d.logger = log.New(logger.WriterLevel(logrus.TraceLevel), "modbus: ", 0)
	}
	return d
}

type clientHandler interface {
	modbus.ClientHandler
	Connect() error
}

func (d *Dialer) Dial(ctx context.Context) (ports.FieldConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &conn{}
	h, err := d.handler(c)
	if err != nil {
		return nil, err
	}
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", d.target(), err)
	}
	c.client = modbus.NewClient(h)
	return c, nil
}

// handler builds the unconnected driver handler and binds c's setters to it.
func (d *Dialer) handler(c *conn) (clientHandler, error) {
	switch d.cfg.Transport {
	case "rtu":
		rh := modbus.NewRTUClientHandler(d.cfg.Device)
		d.serial(&rh.BaudRate, &rh.DataBits, &rh.StopBits, &rh.Parity)
		rh.Timeout = d.serialTimeout()
		rh.Logger = d.logger
		c.setSlave = func(id byte) { rh.SlaveId = id }
		c.closer = rh
		return rh, nil
	case "ascii":
		ah := modbus.NewASCIIClientHandler(d.cfg.Device)
		d.serial(&ah.BaudRate, &ah.DataBits, &ah.StopBits, &ah.Parity)
		ah.Timeout = d.serialTimeout()
		ah.Logger = d.logger
		c.setSlave = func(id byte) { ah.SlaveId = id }
		c.closer = ah
		return ah, nil
	case "tcp":
		th := modbus.NewTCPClientHandler(d.cfg.Address)
		th.Timeout = d.cfg.ResponseTimeout
		th.Logger = d.logger
		c.setSlave = func(id byte) { th.SlaveId = id }
		c.setTimeout = func(t time.Duration) { th.Timeout = t }
		c.closer = th
		return th, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", d.cfg.Transport)
	}
}

// serialTimeout is the read timeout a serial port is opened with. The driver applies
// it only at Connect, so the inter-byte budget is folded in up front.
func (d *Dialer) serialTimeout() time.Duration {
	return d.cfg.ResponseTimeout + d.cfg.ByteTimeout
}

func (d *Dialer) serial(baud, dataBits, stopBits *int, parity *string) {
	*baud = d.cfg.BaudRate
	*dataBits = d.cfg.DataBits
	*stopBits = d.cfg.StopBits
	*parity = d.cfg.Parity
}

func (d *Dialer) target() string {
	if d.cfg.Transport == "tcp" {
		return d.cfg.Address
	}
	return d.cfg.Device
}

type conn struct {
	client     modbus.Client
	closer     io.Closer
	setSlave   func(byte)
	setTimeout func(time.Duration)
}

func (c *conn) SetSlave(id byte) { c.setSlave(id) }

// SetTimeouts folds the inter-byte budget into the single read timeout the driver
// exposes. Serial connections keep the timeout they were opened with.
func (c *conn) SetTimeouts(response, interByte time.Duration) {
	if c.setTimeout == nil {
		return
	}
	c.setTimeout(response + interByte)
}

func (c *conn) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	raw, err := c.client.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, classify(err)
	}
	return Registers(raw, quantity)
}

func (c *conn) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	raw, err := c.client.ReadInputRegisters(address, quantity)
	if err != nil {
		return nil, classify(err)
	}
	return Registers(raw, quantity)
}

func (c *conn) Close() error { return c.closer.Close() }

func classify(err error) error {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return fmt.Errorf("%w: %v", ports.ErrDeviceException, mbErr)
	}
	return err
}

// Registers decodes big-endian register bytes, requiring exactly quantity registers.
func Registers(raw []byte, quantity uint16) ([]uint16, error) {
	if len(raw) != int(quantity)*2 {
		return nil, fmt.Errorf("short register payload: %d bytes for %d registers", len(raw), quantity)
	}
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return out, nil
}

var _ ports.FieldDialer = (*Dialer)(nil)
