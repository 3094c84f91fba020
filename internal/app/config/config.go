package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/bus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/fieldbus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/mapping"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

type Config struct {
	Policy  ports.Policy    `yaml:"policy"`
	TCP     TCPConfig       `yaml:"tcp"`
	Bus     bus.Config      `yaml:"bus"`
	Mapping mapping.Config  `yaml:"mapping"`
	Field   fieldbus.Config `yaml:"field"`
	Metrics MetricsConfig   `yaml:"metrics"`
	Log     LogConfig       `yaml:"log"`
}

type TCPConfig struct {
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReplyFormat  string        `yaml:"reply_format"` // "legacy", "wide"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	DB      bool   `yaml:"db"`
	Service string `yaml:"service"`
	JSON    bool   `yaml:"json"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Policy.QueueCapacity == 0 {
		c.Policy.QueueCapacity = 100
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Policy.RequestTimeout == 0 {
		c.Policy.RequestTimeout = 10 * time.Second
	}
	if c.Policy.MaxPending == 0 {
		c.Policy.MaxPending = 1024
	}
	if c.Policy.SweepInterval == 0 {
		c.Policy.SweepInterval = time.Second
	}
	if c.TCP.Listen == "" {
		c.TCP.Listen = "127.0.0.1:1502"
	}
	if c.TCP.ReadTimeout == 0 {
		c.TCP.ReadTimeout = 5 * time.Second
	}
	if c.TCP.WriteTimeout == 0 {
		c.TCP.WriteTimeout = 2 * time.Second
	}
	if c.TCP.ReplyFormat == "" {
		c.TCP.ReplyFormat = "legacy"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.Bus.ApplyDefaults()
	c.Mapping.ApplyDefaults()
	c.Field.ApplyDefaults()
}

func (c *Config) validate() error {
	if c.Policy.QueueCapacity < 0 {
		return errors.New("policy.queue_capacity must be positive")
	}
	switch c.Policy.OnQueueFull {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("policy.on_queue_full must be block, drop or reject, got %q", c.Policy.OnQueueFull)
	}
	if c.Policy.RequestTimeout < 0 || c.Policy.SweepInterval < 0 {
		return errors.New("policy timeouts must not be negative")
	}
	if c.Policy.MaxPending < 0 {
		return errors.New("policy.max_pending must be positive")
	}
	switch c.TCP.ReplyFormat {
	case "legacy", "wide":
	default:
		return fmt.Errorf("tcp.reply_format must be legacy or wide, got %q", c.TCP.ReplyFormat)
	}
	if err := c.Bus.Validate(); err != nil {
		return fmt.Errorf("bus config: %w", err)
	}
	if err := c.Mapping.Validate(); err != nil {
		return fmt.Errorf("mapping config: %w", err)
	}
	if err := c.Field.Validate(); err != nil {
		return fmt.Errorf("field config: %w", err)
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Log.DB && c.Mapping.Driver == "dynamodb" {
		return errors.New("log.db needs a sql mapping driver")
	}
	return nil
}
