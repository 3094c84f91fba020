package fieldbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Config describes the one field-bus segment the executor owns.
type Config struct {
	Transport       string            `yaml:"transport"` // "rtu", "ascii", "tcp", "sim"
	Device          string            `yaml:"device"`
	Address         string            `yaml:"address"`
	BaudRate        int               `yaml:"baud_rate"`
	Parity          string            `yaml:"parity"`
	DataBits        int               `yaml:"data_bits"`
	StopBits        int               `yaml:"stop_bits"`
	ResponseTimeout time.Duration     `yaml:"response_timeout"`
	ByteTimeout     time.Duration     `yaml:"byte_timeout"`
	Backoff         ports.Backoff     `yaml:"backoff"`
	Registers       map[uint16]uint16 `yaml:"registers"`
}

func (c *Config) ApplyDefaults() {
	if c.Transport == "" {
		c.Transport = "rtu"
	}
	if c.Device == "" {
		c.Device = "/dev/ttyUSB0"
	}
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = time.Second
	}
	if c.ByteTimeout <= 0 {
		c.ByteTimeout = 500 * time.Millisecond
	}
	c.Backoff.ApplyDefaults()
}

func (c *Config) Validate() error {
	switch c.Transport {
	case "rtu", "ascii":
		if c.Device == "" {
			return errors.New("device is required")
		}
		switch c.Parity {
		case "N", "E", "O":
		default:
			return fmt.Errorf("parity must be N, E or O, got %q", c.Parity)
		}
		if c.DataBits < 5 || c.DataBits > 8 {
			return fmt.Errorf("data_bits must be 5..8, got %d", c.DataBits)
		}
		if c.StopBits != 1 && c.StopBits != 2 {
			return fmt.Errorf("stop_bits must be 1 or 2, got %d", c.StopBits)
		}
	case "tcp":
		if c.Address == "" {
			return errors.New("address is required for tcp transport")
		}
	case "sim":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if err := c.Backoff.Validate(); err != nil {
		return err
	}
	return nil
}
