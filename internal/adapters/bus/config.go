package bus

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Driver         string        `yaml:"driver"` // "nats", "redis", "memory"
	URL            string        `yaml:"url"`
	RequestTopic   string        `yaml:"request_topic"`
	ResponseTopic  string        `yaml:"response_topic"`
	Name           string        `yaml:"name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
}

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "nats"
	}
	if c.URL == "" {
		switch c.Driver {
		case "nats":
			c.URL = "nats://127.0.0.1:4222"
		case "redis":
			c.URL = "redis://localhost:6379/0"
		}
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "modbus_request"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "modbus_response"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 2 * time.Second
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "nats", "redis":
		if c.URL == "" {
			return errors.New("url is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.RequestTopic == "" || c.ResponseTopic == "" {
		return errors.New("request_topic and response_topic are required")
	}
	if c.RequestTopic == c.ResponseTopic {
		return errors.New("request_topic and response_topic must differ")
	}
	return nil
}
