package mapping

import (
	"errors"
	"fmt"
)

// Config selects and parameterises the mapping store backend.
type Config struct {
	Driver string `yaml:"driver"` // "sqlite", "postgres", "dynamodb"
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	Region string `yaml:"region"`
}

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" && c.Driver == "sqlite" {
		c.DSN = "modbus_mapping.db"
	}
	if c.Table == "" {
		c.Table = "mapping"
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
		if c.DSN == "" {
			return errors.New("dsn is required")
		}
	case "dynamodb":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Table == "" {
		return errors.New("table is required")
	}
	return nil
}
